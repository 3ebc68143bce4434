// Package contract implements the field-validation engine: a registry of
// declared field contracts per model type and a validator that executes them
// against decoded model instances.
package contract

import (
	"fmt"
	"reflect"
)

// TypeID identifies a model type or a capability in the registry.
type TypeID string

// Model is implemented by every value the validator accepts.
// ModelType must return the ID the type was registered under.
type Model interface {
	ModelType() TypeID
}

// Accessor reads one observable field from a model.
// present is false when the field carries no value.
type Accessor func(m Model) (value any, present bool, err error)

// Contract is a declared accessor plus its nullability policy.
// Owner is stamped by the registry when the declaring type or capability
// is registered; two contracts are the same only if Owner and Operation match.
type Contract struct {
	Owner     TypeID
	Operation string
	Nullable  bool

	access Accessor
}

// New creates a contract around an untyped accessor.
func New(operation string, nullable bool, access Accessor) Contract {
	return Contract{Operation: operation, Nullable: nullable, access: access}
}

// String returns "Owner.Operation()".
func (c Contract) String() string {
	return fmt.Sprintf("%s.%s()", c.Owner, c.Operation)
}

// Field declares a contract over an accessor returning a pointer; nil means absent.
func Field[M Model, V any](operation string, nullable bool, get func(M) *V) Contract {
	return New(operation, nullable, func(m Model) (any, bool, error) {
		typed, err := as[M](m, operation)
		if err != nil {
			return nil, false, err
		}
		v := get(typed)
		if v == nil {
			return nil, false, nil
		}
		return *v, true, nil
	})
}

// FallibleField declares a contract over an accessor that may fail while
// computing the value.
func FallibleField[M Model, V any](operation string, nullable bool, get func(M) (*V, error)) Contract {
	return New(operation, nullable, func(m Model) (any, bool, error) {
		typed, err := as[M](m, operation)
		if err != nil {
			return nil, false, err
		}
		v, err := get(typed)
		if err != nil {
			return nil, false, err
		}
		if v == nil {
			return nil, false, nil
		}
		return *v, true, nil
	})
}

// List declares a contract over a slice accessor; a nil slice means absent,
// an empty non-nil slice is present.
func List[M Model, E any](operation string, nullable bool, get func(M) []E) Contract {
	return New(operation, nullable, func(m Model) (any, bool, error) {
		typed, err := as[M](m, operation)
		if err != nil {
			return nil, false, err
		}
		v := get(typed)
		if v == nil {
			return nil, false, nil
		}
		return v, true, nil
	})
}

// FallibleList declares a contract over a slice accessor that may fail.
func FallibleList[M Model, E any](operation string, nullable bool, get func(M) ([]E, error)) Contract {
	return New(operation, nullable, func(m Model) (any, bool, error) {
		typed, err := as[M](m, operation)
		if err != nil {
			return nil, false, err
		}
		v, err := get(typed)
		if err != nil {
			return nil, false, err
		}
		if v == nil {
			return nil, false, nil
		}
		return v, true, nil
	})
}

func as[M Model](m Model, operation string) (M, error) {
	typed, ok := m.(M)
	if !ok {
		var zero M
		return zero, fmt.Errorf("%s: cannot read %T as %s", operation, m, reflect.TypeFor[M]())
	}
	return typed, nil
}
