package pulses

import (
	"github.com/Nomos11/qupulse/pkg/expressions"
	"github.com/Nomos11/qupulse/pkg/sequencing"
)

// Parameter is the binding of a template parameter name to a value that
// may or may not be evaluable yet.
type Parameter = sequencing.Parameter

// ConstantParameter binds a parameter to a fixed value.
type ConstantParameter struct {
	value float64
}

// NewConstantParameter creates a constant binding.
func NewConstantParameter(value float64) *ConstantParameter {
	return &ConstantParameter{value: value}
}

// Get returns the constant value.
func (p *ConstantParameter) Get() (float64, error) {
	return p.value, nil
}

// RequiresStop always reports false for constants.
func (p *ConstantParameter) RequiresStop() bool {
	return false
}

// MappedParameter evaluates an expression over other parameter bindings.
// It is how a mapping template exposes inner parameters in terms of outer
// ones without forcing early evaluation.
type MappedParameter struct {
	expression   *expressions.Expression
	dependencies map[string]Parameter
}

// NewMappedParameter creates a parameter evaluating expression against the
// given dependency bindings.
func NewMappedParameter(expression *expressions.Expression, dependencies map[string]Parameter) *MappedParameter {
	return &MappedParameter{expression: expression, dependencies: dependencies}
}

// Get evaluates the expression. Every free variable must have an evaluable
// dependency binding.
func (p *MappedParameter) Get() (float64, error) {
	scope := make(map[string]float64)
	for _, name := range p.expression.Variables() {
		dependency, ok := p.dependencies[name]
		if !ok {
			return 0, &ParameterNotProvidedError{Name: name}
		}
		value, err := dependency.Get()
		if err != nil {
			return 0, err
		}
		scope[name] = value
	}
	return p.expression.Evaluate(scope)
}

// RequiresStop reports whether any referenced dependency is not evaluable
// yet.
func (p *MappedParameter) RequiresStop() bool {
	for _, name := range p.expression.Variables() {
		if dependency, ok := p.dependencies[name]; ok && dependency.RequiresStop() {
			return true
		}
	}
	return false
}

// ParametersFromValues wraps plain numeric values into constant bindings.
func ParametersFromValues(values map[string]float64) map[string]Parameter {
	parameters := make(map[string]Parameter, len(values))
	for name, value := range values {
		parameters[name] = NewConstantParameter(value)
	}
	return parameters
}
