package pulses

import (
	"github.com/Nomos11/qupulse/pkg/expressions"
	"github.com/Nomos11/qupulse/pkg/sequencing"
	"github.com/Nomos11/qupulse/pkg/waveform"
)

// MappingTemplate wraps one inner template with a parameter renaming
// (inner name -> expression over outer names) and a channel renaming
// (inner channel -> outer channel). It is how sub-templates defined
// against local names are embedded into a larger composition.
type MappingTemplate struct {
	identifier       string
	template         PulseTemplate
	parameterMapping map[string]*expressions.Expression
	channelMapping   map[waveform.ChannelID]waveform.ChannelID
	parameterNames   map[string]struct{}
	duration         *expressions.Expression
}

// NewMappingTemplate validates and creates a mapping wrapper.
//
// A nil parameterMapping maps every inner parameter to itself. A non-nil
// mapping must cover every inner parameter (missing entries are a
// MissingMappingError) and may not contain entries for unknown parameters
// (an UnnecessaryMappingError). Channel mapping entries for unknown
// channels are likewise rejected; unmapped channels keep their name.
func NewMappingTemplate(inner PulseTemplate, parameterMapping map[string]string,
	channelMapping map[waveform.ChannelID]waveform.ChannelID, identifier string) (*MappingTemplate, error) {

	innerParameters := inner.ParameterNames()

	expressionMapping := make(map[string]*expressions.Expression, len(innerParameters))
	if parameterMapping == nil {
		for name := range innerParameters {
			expression, err := expressions.MakeExpression(name)
			if err != nil {
				return nil, err
			}
			expressionMapping[name] = expression
		}
	} else {
		for name := range parameterMapping {
			if _, ok := innerParameters[name]; !ok {
				return nil, &UnnecessaryMappingError{Name: name}
			}
		}
		for name := range innerParameters {
			src, ok := parameterMapping[name]
			if !ok {
				return nil, &MissingMappingError{Name: name}
			}
			expression, err := expressions.MakeExpression(src)
			if err != nil {
				return nil, err
			}
			expressionMapping[name] = expression
		}
	}

	innerChannels := inner.DefinedChannels()
	ownedChannelMapping := make(map[waveform.ChannelID]waveform.ChannelID, len(innerChannels))
	for ch, mapped := range channelMapping {
		if !innerChannels.Contains(ch) {
			return nil, &UnnecessaryMappingError{Name: string(ch)}
		}
		ownedChannelMapping[ch] = mapped
	}

	parameterNames := make(map[string]struct{})
	for _, expression := range expressionMapping {
		for _, name := range expression.Variables() {
			parameterNames[name] = struct{}{}
		}
	}

	var duration *expressions.Expression
	if inner.Duration() != nil {
		var err error
		duration, err = inner.Duration().Substitute(expressionMapping)
		if err != nil {
			return nil, err
		}
	}

	return &MappingTemplate{
		identifier:       identifier,
		template:         inner,
		parameterMapping: expressionMapping,
		channelMapping:   ownedChannelMapping,
		parameterNames:   parameterNames,
		duration:         duration,
	}, nil
}

// wrapSubTemplate normalizes a sub-template argument into a
// MappingTemplate. A bare MappingTemplate without additional mappings
// passes through unchanged.
func wrapSubTemplate(spec SubTemplateSpec) (*MappingTemplate, error) {
	if m, ok := spec.Template.(*MappingTemplate); ok && spec.ParameterMapping == nil && spec.ChannelMapping == nil {
		return m, nil
	}
	return NewMappingTemplate(spec.Template, spec.ParameterMapping, spec.ChannelMapping, "")
}

// Identifier returns the optional template name.
func (t *MappingTemplate) Identifier() string {
	return t.identifier
}

// InnerTemplate returns the wrapped template.
func (t *MappingTemplate) InnerTemplate() PulseTemplate {
	return t.template
}

// ParameterNames returns the union of the free names of all mapping
// expressions.
func (t *MappingTemplate) ParameterNames() map[string]struct{} {
	return t.parameterNames
}

// MeasurementNames passes the inner measurement names through.
func (t *MappingTemplate) MeasurementNames() map[string]struct{} {
	return t.template.MeasurementNames()
}

// DefinedChannels returns the renamed channel set.
func (t *MappingTemplate) DefinedChannels() waveform.ChannelSet {
	out := make(waveform.ChannelSet)
	for ch := range t.template.DefinedChannels() {
		out[mapChannel(t.channelMapping, ch)] = struct{}{}
	}
	return out
}

// Duration returns the inner duration with the parameter mapping applied
// symbolically.
func (t *MappingTemplate) Duration() *expressions.Expression {
	return t.duration
}

// IsInterruptable passes the inner flag through.
func (t *MappingTemplate) IsInterruptable() bool {
	return t.template.IsInterruptable()
}

// MapParameters resolves outer parameter bindings into bindings for the
// inner parameter names, deferring evaluation through MappedParameter.
func (t *MappingTemplate) MapParameters(parameters map[string]sequencing.Parameter) (map[string]sequencing.Parameter, error) {
	for name := range t.parameterNames {
		if _, ok := parameters[name]; !ok {
			return nil, &ParameterNotProvidedError{Name: name}
		}
	}
	inner := make(map[string]sequencing.Parameter, len(t.parameterMapping))
	for name, expression := range t.parameterMapping {
		inner[name] = NewMappedParameter(expression, parameters)
	}
	return inner, nil
}

// MapParameterValues resolves concrete outer values into inner values.
func (t *MappingTemplate) MapParameterValues(values map[string]float64) (map[string]float64, error) {
	inner := make(map[string]float64, len(t.parameterMapping))
	for name, expression := range t.parameterMapping {
		value, err := expression.Evaluate(values)
		if err != nil {
			return nil, err
		}
		inner[name] = value
	}
	return inner, nil
}

// composeChannelMapping chains the template's own renaming with an outer
// renaming of its output channels.
func (t *MappingTemplate) composeChannelMapping(outer map[waveform.ChannelID]waveform.ChannelID) map[waveform.ChannelID]waveform.ChannelID {
	composed := make(map[waveform.ChannelID]waveform.ChannelID)
	for ch := range t.template.DefinedChannels() {
		composed[ch] = mapChannel(outer, mapChannel(t.channelMapping, ch))
	}
	return composed
}

// RequiresStop evaluates the inner template with mapped bindings.
func (t *MappingTemplate) RequiresStop(parameters map[string]sequencing.Parameter, conditions map[string]sequencing.Condition) (bool, error) {
	inner, err := t.MapParameters(parameters)
	if err != nil {
		return false, err
	}
	return t.template.RequiresStop(inner, conditions)
}

// BuildSequence delegates to the inner template with mapped parameters and
// the composed channel renaming.
func (t *MappingTemplate) BuildSequence(sequencer *sequencing.Sequencer, parameters map[string]sequencing.Parameter,
	conditions map[string]sequencing.Condition, measurementMapping map[string]string,
	channelMapping map[waveform.ChannelID]waveform.ChannelID, block *sequencing.InstructionBlock) error {

	inner, err := t.MapParameters(parameters)
	if err != nil {
		return err
	}
	return t.template.BuildSequence(sequencer, inner, conditions, measurementMapping,
		t.composeChannelMapping(channelMapping), block)
}

// BuildWaveform samples the wrapped template; the inner template must be
// atomic.
func (t *MappingTemplate) BuildWaveform(parameters map[string]float64, channelMapping map[waveform.ChannelID]waveform.ChannelID) (waveform.Waveform, error) {
	atomic, ok := t.template.(AtomicPulseTemplate)
	if !ok {
		return nil, &NotAtomicError{Identifier: t.template.Identifier()}
	}
	inner, err := t.MapParameterValues(parameters)
	if err != nil {
		return nil, err
	}
	return atomic.BuildWaveform(inner, t.composeChannelMapping(channelMapping))
}
