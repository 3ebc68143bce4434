package contract

import (
	"errors"
	"fmt"
)

// OutcomeKind classifies the result of executing one contract.
type OutcomeKind string

const (
	// OutcomePass means the accessor produced a value, or produced none and
	// the contract is nullable.
	OutcomePass OutcomeKind = "pass"
	// OutcomeNullabilityViolation means a non-nullable accessor produced no value.
	OutcomeNullabilityViolation OutcomeKind = "nullability_violation"
	// OutcomeExecutionError means the accessor itself failed.
	OutcomeExecutionError OutcomeKind = "execution_error"
)

var (
	// ErrNullabilityViolation matches any Failure of kind OutcomeNullabilityViolation.
	ErrNullabilityViolation = errors.New("nullability violation")
	// ErrExecution matches any Failure of kind OutcomeExecutionError.
	ErrExecution = errors.New("contract execution error")
)

// Outcome is the result of executing one contract against one instance.
type Outcome struct {
	Kind  OutcomeKind
	Value any
	Err   error
}

// Failure describes the first contract that failed during a Validate call.
type Failure struct {
	Kind      OutcomeKind `json:"kind"`
	Model     TypeID      `json:"model"` // runtime type of the validated instance
	Owner     TypeID      `json:"owner"` // type or capability declaring the contract
	Operation string      `json:"operation,omitempty"`
	Message   string      `json:"message"`
	// Err is the accessor error for execution failures (not serialized).
	Err error `json:"-"`
}

// Error implements the error interface
func (f *Failure) Error() string {
	if f.Operation == "" {
		return fmt.Sprintf("%s: %s", f.Kind, f.Message)
	}
	return fmt.Sprintf("%s: %s.%s(): %s", f.Kind, f.Owner, f.Operation, f.Message)
}

// Unwrap returns the accessor error, if any.
func (f *Failure) Unwrap() error {
	return f.Err
}

// Is matches the package sentinels by kind.
func (f *Failure) Is(target error) bool {
	switch target {
	case ErrNullabilityViolation:
		return f.Kind == OutcomeNullabilityViolation
	case ErrExecution:
		return f.Kind == OutcomeExecutionError
	}
	return false
}

// Report is the result of validating one model instance.
type Report struct {
	Model   TypeID   `json:"model"`
	Checked int      `json:"checked"` // contracts evaluated, including the failing one
	Failure *Failure `json:"failure,omitempty"`
}

// OK reports whether every contract was satisfied.
func (r Report) OK() bool {
	return r.Failure == nil
}

// Err returns the failure as an error, or nil when the report passed.
func (r Report) Err() error {
	if r.Failure == nil {
		return nil
	}
	return r.Failure
}
