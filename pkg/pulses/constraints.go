package pulses

import (
	"github.com/Nomos11/qupulse/pkg/expressions"
)

// ParameterConstraint is a boolean relation over parameter values, e.g.
// "t_gate < t_total". Its free names extend the external parameter set of
// a template carrying it.
type ParameterConstraint struct {
	expression *expressions.Expression
}

// NewParameterConstraint parses a constraint expression.
func NewParameterConstraint(src string) (*ParameterConstraint, error) {
	expression, err := expressions.MakeExpression(src)
	if err != nil {
		return nil, err
	}
	return &ParameterConstraint{expression: expression}, nil
}

// ParameterNames returns the free names of the constraint.
func (c *ParameterConstraint) ParameterNames() map[string]struct{} {
	return newSet(c.expression.Variables()...)
}

// Check evaluates the constraint; a violated constraint yields a
// ConstraintViolationError.
func (c *ParameterConstraint) Check(values map[string]float64) error {
	ok, err := c.expression.EvaluateBool(values)
	if err != nil {
		return err
	}
	if !ok {
		return &ConstraintViolationError{Constraint: c.expression.String()}
	}
	return nil
}

// String returns the constraint source.
func (c *ParameterConstraint) String() string {
	return c.expression.String()
}
