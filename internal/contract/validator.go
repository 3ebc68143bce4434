package contract

import (
	"fmt"
	"log/slog"
)

// Validator executes discovered contracts against model instances.
// It holds no per-call state and may be shared between goroutines.
type Validator struct {
	registry *Registry
	logger   *slog.Logger
}

// NewValidator creates a validator backed by the given registry.
func NewValidator(registry *Registry) *Validator {
	return &Validator{
		registry: registry,
		logger:   slog.Default(),
	}
}

// WithLogger returns a copy of the validator that logs through l.
func (v *Validator) WithLogger(l *slog.Logger) *Validator {
	cp := *v
	cp.logger = l
	return &cp
}

// Registry returns the registry the validator discovers contracts from.
func (v *Validator) Registry() *Registry {
	return v.registry
}

// Validate runs every contract discovered for m's type, in discovery order,
// and stops at the first one that fails. Only that failure is reported;
// later contracts are not executed.
func (v *Validator) Validate(m Model) Report {
	if m == nil {
		return Report{Failure: &Failure{
			Kind:    OutcomeExecutionError,
			Message: "model is nil",
		}}
	}

	modelType := m.ModelType()
	report := Report{Model: modelType}

	for _, c := range v.registry.Discover(modelType) {
		report.Checked++

		outcome := Evaluate(c, m)
		if outcome.Kind == OutcomePass {
			continue
		}

		report.Failure = newFailure(modelType, c, outcome)
		v.logger.Debug("field contract failed",
			"model", modelType,
			"owner", c.Owner,
			"operation", c.Operation,
			"kind", outcome.Kind,
			"checked", report.Checked,
		)
		return report
	}

	return report
}

// Evaluate executes a single contract against m and classifies the result.
// A panicking accessor is reported as an execution error.
func Evaluate(c Contract, m Model) (outcome Outcome) {
	if c.access == nil {
		return Outcome{Kind: OutcomeExecutionError, Err: fmt.Errorf("%s has no accessor", c)}
	}

	defer func() {
		if rec := recover(); rec != nil {
			err, ok := rec.(error)
			if !ok {
				err = fmt.Errorf("%v", rec)
			}
			outcome = Outcome{Kind: OutcomeExecutionError, Err: err}
		}
	}()

	value, present, err := c.access(m)
	switch {
	case err != nil:
		return Outcome{Kind: OutcomeExecutionError, Err: err}
	case present:
		return Outcome{Kind: OutcomePass, Value: value}
	case c.Nullable:
		return Outcome{Kind: OutcomePass}
	default:
		return Outcome{Kind: OutcomeNullabilityViolation}
	}
}

func newFailure(modelType TypeID, c Contract, outcome Outcome) *Failure {
	f := &Failure{
		Kind:      outcome.Kind,
		Model:     modelType,
		Owner:     c.Owner,
		Operation: c.Operation,
		Err:       outcome.Err,
	}
	if outcome.Kind == OutcomeNullabilityViolation {
		f.Message = fmt.Sprintf("non-nullable field returned no value on %s", modelType)
	} else if outcome.Err != nil {
		f.Message = outcome.Err.Error()
	}
	return f
}
