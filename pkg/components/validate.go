package components

import (
	"fmt"
	"math"
)

// ValidationError names the field a component definition or value
// violates. It is always surfaced to the caller, never coerced away.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// stepTolerance absorbs float rounding when checking step alignment.
const stepTolerance = 1e-9

// Validate checks a typed component definition against its own schema
// rules. Decoded Unknown components are accepted as-is; their payload
// was produced by a newer build and cannot be judged here.
func Validate(c Component) error {
	switch v := c.(type) {
	case NumberInput:
		return validateNumberInput(v)
	case Choice:
		return validateChoice(v)
	case Table:
		if v.Rows == nil {
			return ValidationError{Field: "data", Reason: "required"}
		}
		return nil
	case Chart:
		if len(v.Data) == 0 {
			return ValidationError{Field: "data", Reason: "required"}
		}
		return nil
	case Unknown:
		return nil
	default:
		return ValidationError{Field: "type", Reason: fmt.Sprintf("unsupported component %T", c)}
	}
}

func validateNumberInput(n NumberInput) error {
	if n.Label == "" {
		return ValidationError{Field: "label", Reason: "required"}
	}
	if n.MinValue != nil && n.MaxValue != nil && *n.MinValue > *n.MaxValue {
		return ValidationError{Field: "min_value", Reason: "greater than max_value"}
	}
	if n.Step != nil && *n.Step <= 0 {
		return ValidationError{Field: "step", Reason: "must be positive"}
	}
	if n.Value != nil {
		if err := n.checkRange(*n.Value); err != nil {
			return err
		}
	}
	return nil
}

// checkRange enforces [min_value, max_value] and step alignment
// relative to min_value when both are declared.
func (n NumberInput) checkRange(v float64) error {
	if n.MinValue != nil && v < *n.MinValue {
		return ValidationError{Field: "value", Reason: fmt.Sprintf("%v below min_value %v", v, *n.MinValue)}
	}
	if n.MaxValue != nil && v > *n.MaxValue {
		return ValidationError{Field: "value", Reason: fmt.Sprintf("%v above max_value %v", v, *n.MaxValue)}
	}
	if n.Step != nil && n.MinValue != nil {
		offset := v - *n.MinValue
		rem := math.Abs(math.Mod(offset, *n.Step))
		if rem > stepTolerance && math.Abs(rem-*n.Step) > stepTolerance {
			return ValidationError{Field: "value", Reason: fmt.Sprintf("%v not aligned to step %v from min_value", v, *n.Step)}
		}
	}
	return nil
}

func validateChoice(c Choice) error {
	if c.Label == "" {
		return ValidationError{Field: "label", Reason: "required"}
	}
	if len(c.Options) == 0 {
		return ValidationError{Field: "options", Reason: "required"}
	}
	if len(c.Value) > 0 {
		if err := c.ValidateValue(c.Value); err != nil {
			return err
		}
	}
	return nil
}
