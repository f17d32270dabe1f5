package pulses

import (
	"errors"
	"fmt"

	"github.com/Nomos11/qupulse/pkg/expressions"
	"github.com/Nomos11/qupulse/pkg/waveform"
)

// ErrEmptyComposition is returned when a composite template is constructed
// without sub-templates.
var ErrEmptyComposition = errors.New("a multi channel pulse template needs at least one sub-template")

// MissingMappingError reports a template parameter without a mapping entry,
// or a declared external parameter that nothing maps to.
type MissingMappingError struct {
	Name string
}

// Error implements the error interface.
func (e *MissingMappingError) Error() string {
	return fmt.Sprintf("no mapping is provided for parameter %q", e.Name)
}

// UnnecessaryMappingError reports a mapping entry that does not match any
// parameter or channel of the wrapped template.
type UnnecessaryMappingError struct {
	Name string
}

// Error implements the error interface.
func (e *UnnecessaryMappingError) Error() string {
	return fmt.Sprintf("the mapping entry %q does not match any parameter or channel of the template", e.Name)
}

// MissingParameterDeclarationError reports a parameter that is used by a
// sub-template or constraint but missing from the declared external set.
type MissingParameterDeclarationError struct {
	Name string
}

// Error implements the error interface.
func (e *MissingParameterDeclarationError) Error() string {
	return fmt.Sprintf("parameter %q is used but not declared as an external parameter", e.Name)
}

// ChannelMappingError reports that two sub-templates map to the same
// output channel.
type ChannelMappingError struct {
	Channel waveform.ChannelID
}

// Error implements the error interface.
func (e *ChannelMappingError) Error() string {
	return fmt.Sprintf("channel %q is mapped by more than one sub-template", string(e.Channel))
}

// NotAtomicError reports a non-atomic sub-template where an atomic one is
// required.
type NotAtomicError struct {
	Identifier string
}

// Error implements the error interface.
func (e *NotAtomicError) Error() string {
	if e.Identifier == "" {
		return "sub-template is not atomic"
	}
	return fmt.Sprintf("sub-template %q is not atomic", e.Identifier)
}

// DurationMismatchError reports sub-templates whose symbolic duration
// expressions disagree.
type DurationMismatchError struct {
	Expected *expressions.Expression
	Got      *expressions.Expression
}

// Error implements the error interface.
func (e *DurationMismatchError) Error() string {
	return fmt.Sprintf("sub-template durations are not the same symbolic expression: %q != %q",
		e.Expected.String(), e.Got.String())
}

// ParameterNotProvidedError reports a parameter binding without an entry
// for a required parameter.
type ParameterNotProvidedError struct {
	Name string
}

// Error implements the error interface.
func (e *ParameterNotProvidedError) Error() string {
	return fmt.Sprintf("no value was provided for parameter %q", e.Name)
}

// ConstraintViolationError reports a violated parameter constraint.
type ConstraintViolationError struct {
	Constraint string
}

// Error implements the error interface.
func (e *ConstraintViolationError) Error() string {
	return fmt.Sprintf("parameter constraint %q is violated", e.Constraint)
}
