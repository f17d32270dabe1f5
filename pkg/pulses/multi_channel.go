package pulses

import (
	"github.com/Nomos11/qupulse/pkg/expressions"
	"github.com/Nomos11/qupulse/pkg/sequencing"
	"github.com/Nomos11/qupulse/pkg/waveform"
)

// SubTemplateSpec is one sub-template argument of a composite: a template
// with optional parameter and channel renamings. Bare templates and
// prebuilt MappingTemplates are given without mappings.
type SubTemplateSpec struct {
	Template         PulseTemplate
	ParameterMapping map[string]string
	ChannelMapping   map[waveform.ChannelID]waveform.ChannelID
}

// Sub wraps a bare template into a SubTemplateSpec.
func Sub(template PulseTemplate) SubTemplateSpec {
	return SubTemplateSpec{Template: template}
}

// normalizeSubTemplates wraps every argument into a MappingTemplate and
// validates pairwise channel disjointness of the renamed channel sets.
func normalizeSubTemplates(subs []SubTemplateSpec) ([]*MappingTemplate, waveform.ChannelSet, error) {
	if len(subs) == 0 {
		return nil, nil, ErrEmptyComposition
	}

	templates := make([]*MappingTemplate, 0, len(subs))
	channels := make(waveform.ChannelSet)
	for _, spec := range subs {
		template, err := wrapSubTemplate(spec)
		if err != nil {
			return nil, nil, err
		}
		for _, ch := range template.DefinedChannels().Sorted() {
			if channels.Contains(ch) {
				return nil, nil, &ChannelMappingError{Channel: ch}
			}
			channels[ch] = struct{}{}
		}
		templates = append(templates, template)
	}
	return templates, channels, nil
}

// checkExternalParameters verifies that the declared external parameter
// set equals the actually used names exactly.
func checkExternalParameters(used map[string]struct{}, declared []string) error {
	declaredSet := newSet(declared...)
	for _, name := range sortedNames(used) {
		if _, ok := declaredSet[name]; !ok {
			return &MissingParameterDeclarationError{Name: name}
		}
	}
	for _, name := range sortedNames(declaredSet) {
		if _, ok := used[name]; !ok {
			return &MissingMappingError{Name: name}
		}
	}
	return nil
}

// AtomicMultiChannelPulseTemplate composes atomic sub-templates with
// disjoint output channels and one shared symbolic duration into a single
// atomic template; sequencing it yields exactly one multi-channel
// waveform.
type AtomicMultiChannelPulseTemplate struct {
	identifier   string
	subtemplates []*MappingTemplate
	constraints  []*ParameterConstraint
	channels     waveform.ChannelSet
	parameters   map[string]struct{}
	duration     *expressions.Expression
}

// AtomicOption configures an AtomicMultiChannelPulseTemplate.
type AtomicOption func(*atomicOptions)

type atomicOptions struct {
	identifier         string
	externalParameters []string
	hasExternal        bool
	constraints        []string
}

// WithIdentifier names the composite template.
func WithIdentifier(identifier string) AtomicOption {
	return func(o *atomicOptions) { o.identifier = identifier }
}

// WithExternalParameters declares the exact external parameter set; the
// constructor fails unless it equals the used names.
func WithExternalParameters(names ...string) AtomicOption {
	return func(o *atomicOptions) {
		o.externalParameters = names
		o.hasExternal = true
	}
}

// WithParameterConstraints attaches boolean constraints over parameter
// values; their free names extend the external parameter set.
func WithParameterConstraints(constraints ...string) AtomicOption {
	return func(o *atomicOptions) { o.constraints = constraints }
}

// NewAtomicMultiChannelPulseTemplate validates and creates the composite.
// Validation order: empty input, non-atomic sub-templates, channel
// overlap, duration disagreement, external parameter closure.
func NewAtomicMultiChannelPulseTemplate(subs []SubTemplateSpec, opts ...AtomicOption) (*AtomicMultiChannelPulseTemplate, error) {
	var options atomicOptions
	for _, opt := range opts {
		opt(&options)
	}

	templates, channels, err := normalizeSubTemplates(subs)
	if err != nil {
		return nil, err
	}

	for _, template := range templates {
		if !IsAtomic(template) {
			return nil, &NotAtomicError{Identifier: template.InnerTemplate().Identifier()}
		}
	}

	duration := templates[0].Duration()
	for _, template := range templates[1:] {
		other := template.Duration()
		if duration == nil || other == nil || !duration.Equal(other) {
			return nil, &DurationMismatchError{Expected: duration, Got: other}
		}
	}

	constraints := make([]*ParameterConstraint, 0, len(options.constraints))
	constraintNames := make(map[string]struct{})
	for _, src := range options.constraints {
		constraint, err := NewParameterConstraint(src)
		if err != nil {
			return nil, err
		}
		constraints = append(constraints, constraint)
		constraintNames = union(constraintNames, constraint.ParameterNames())
	}

	used := constraintNames
	for _, template := range templates {
		used = union(used, template.ParameterNames())
	}
	if options.hasExternal {
		if err := checkExternalParameters(used, options.externalParameters); err != nil {
			return nil, err
		}
	}

	return &AtomicMultiChannelPulseTemplate{
		identifier:   options.identifier,
		subtemplates: templates,
		constraints:  constraints,
		channels:     channels,
		parameters:   used,
		duration:     duration,
	}, nil
}

// Identifier returns the optional template name.
func (t *AtomicMultiChannelPulseTemplate) Identifier() string {
	return t.identifier
}

// Subtemplates returns the normalized sub-templates in composition order.
func (t *AtomicMultiChannelPulseTemplate) Subtemplates() []*MappingTemplate {
	return t.subtemplates
}

// ParameterNames returns the union of sub-template and constraint names.
func (t *AtomicMultiChannelPulseTemplate) ParameterNames() map[string]struct{} {
	return t.parameters
}

// MeasurementNames returns the union over all sub-templates.
func (t *AtomicMultiChannelPulseTemplate) MeasurementNames() map[string]struct{} {
	sets := make([]map[string]struct{}, len(t.subtemplates))
	for i, template := range t.subtemplates {
		sets[i] = template.MeasurementNames()
	}
	return union(sets...)
}

// DefinedChannels returns the union of the renamed channel sets.
func (t *AtomicMultiChannelPulseTemplate) DefinedChannels() waveform.ChannelSet {
	return t.channels
}

// Duration returns the shared symbolic duration expression.
func (t *AtomicMultiChannelPulseTemplate) Duration() *expressions.Expression {
	return t.duration
}

// IsInterruptable always reports false: the composite compiles to one
// waveform.
func (t *AtomicMultiChannelPulseTemplate) IsInterruptable() bool {
	return false
}

// RequiresStop reports whether any sub-template, evaluated with its mapped
// bindings, requires a stop.
func (t *AtomicMultiChannelPulseTemplate) RequiresStop(parameters map[string]sequencing.Parameter, conditions map[string]sequencing.Condition) (bool, error) {
	for _, template := range t.subtemplates {
		stop, err := template.RequiresStop(parameters, conditions)
		if err != nil {
			return false, err
		}
		if stop {
			return true, nil
		}
	}
	return false, nil
}

// BuildWaveform checks the parameter constraints, samples every
// sub-template and combines the results into one multi-channel waveform.
func (t *AtomicMultiChannelPulseTemplate) BuildWaveform(parameters map[string]float64, channelMapping map[waveform.ChannelID]waveform.ChannelID) (waveform.Waveform, error) {
	for _, constraint := range t.constraints {
		if err := constraint.Check(parameters); err != nil {
			return nil, err
		}
	}

	components := make([]waveform.Waveform, 0, len(t.subtemplates))
	for _, template := range t.subtemplates {
		component, err := template.BuildWaveform(parameters, channelMapping)
		if err != nil {
			return nil, err
		}
		components = append(components, component)
	}
	if len(components) == 1 {
		return components[0], nil
	}
	return waveform.NewMultiChannelWaveform(components)
}

// BuildSequence compiles the composite into a single EXEC instruction.
func (t *AtomicMultiChannelPulseTemplate) BuildSequence(sequencer *sequencing.Sequencer, parameters map[string]sequencing.Parameter,
	conditions map[string]sequencing.Condition, measurementMapping map[string]string,
	channelMapping map[waveform.ChannelID]waveform.ChannelID, block *sequencing.InstructionBlock) error {

	values, err := evaluateParameters(parameters, t.parameters)
	if err != nil {
		return err
	}
	wf, err := t.BuildWaveform(values, channelMapping)
	if err != nil {
		return err
	}
	block.AddMeasurement(wf.MeasurementWindows())
	block.AddExec(wf)
	return nil
}

// MultiChannelPulseTemplate composes sub-templates, atomic or not, with
// disjoint output channels and no shared-duration requirement.
type MultiChannelPulseTemplate struct {
	identifier   string
	subtemplates []*MappingTemplate
	channels     waveform.ChannelSet
	parameters   map[string]struct{}
	atomicity    bool
}

// NewMultiChannelPulseTemplate validates and creates the composite. The
// declared external parameters must equal the union of mapped parameter
// names exactly; a nil slice derives the set instead of checking it
// (used by deserialization).
func NewMultiChannelPulseTemplate(subs []SubTemplateSpec, externalParameters []string, identifier string) (*MultiChannelPulseTemplate, error) {
	templates, channels, err := normalizeSubTemplates(subs)
	if err != nil {
		return nil, err
	}

	used := make(map[string]struct{})
	for _, template := range templates {
		used = union(used, template.ParameterNames())
	}
	if externalParameters != nil {
		if err := checkExternalParameters(used, externalParameters); err != nil {
			return nil, err
		}
	}

	return &MultiChannelPulseTemplate{
		identifier:   identifier,
		subtemplates: templates,
		channels:     channels,
		parameters:   used,
	}, nil
}

// Identifier returns the optional template name.
func (t *MultiChannelPulseTemplate) Identifier() string {
	return t.identifier
}

// Subtemplates returns the normalized sub-templates in composition order.
func (t *MultiChannelPulseTemplate) Subtemplates() []*MappingTemplate {
	return t.subtemplates
}

// ParameterNames returns the union of mapped parameter names.
func (t *MultiChannelPulseTemplate) ParameterNames() map[string]struct{} {
	return t.parameters
}

// MeasurementNames returns the union over all sub-templates.
func (t *MultiChannelPulseTemplate) MeasurementNames() map[string]struct{} {
	sets := make([]map[string]struct{}, len(t.subtemplates))
	for i, template := range t.subtemplates {
		sets[i] = template.MeasurementNames()
	}
	return union(sets...)
}

// DefinedChannels returns the union of the renamed channel sets.
func (t *MultiChannelPulseTemplate) DefinedChannels() waveform.ChannelSet {
	return t.channels
}

// Duration returns nil: sub-templates need not share a duration.
func (t *MultiChannelPulseTemplate) Duration() *expressions.Expression {
	return nil
}

// IsInterruptable is the logical AND over all sub-templates.
func (t *MultiChannelPulseTemplate) IsInterruptable() bool {
	for _, template := range t.subtemplates {
		if !template.IsInterruptable() {
			return false
		}
	}
	return true
}

// Atomicity returns the serialization/compilation strategy flag.
func (t *MultiChannelPulseTemplate) Atomicity() bool {
	return t.atomicity
}

// SetAtomicity sets the strategy flag; structural invariants are not
// affected.
func (t *MultiChannelPulseTemplate) SetAtomicity(atomicity bool) {
	t.atomicity = atomicity
}

// RequiresStop is the logical OR over all sub-templates, each evaluated
// with its mapped parameter bindings.
func (t *MultiChannelPulseTemplate) RequiresStop(parameters map[string]sequencing.Parameter, conditions map[string]sequencing.Condition) (bool, error) {
	for _, template := range t.subtemplates {
		stop, err := template.RequiresStop(parameters, conditions)
		if err != nil {
			return false, err
		}
		if stop {
			return true, nil
		}
	}
	return false, nil
}

// BuildSequence compiles the composite. The choice between one synchronous
// EXEC and a parallel CHAN branch is made dynamically from the actually
// produced leaf instructions, once per build: when sequencing every
// sub-template under these parameters yields exactly one leaf waveform of
// equal duration per channel group, they merge into one
// MultiChannelWaveform; otherwise each channel group keeps its own branch.
func (t *MultiChannelPulseTemplate) BuildSequence(sequencer *sequencing.Sequencer, parameters map[string]sequencing.Parameter,
	conditions map[string]sequencing.Condition, measurementMapping map[string]string,
	channelMapping map[waveform.ChannelID]waveform.ChannelID, block *sequencing.InstructionBlock) error {

	components, ok, err := t.trySingleWaveforms(parameters, conditions, measurementMapping, channelMapping)
	if err != nil {
		return err
	}
	if ok {
		merged, err := waveform.NewMultiChannelWaveform(components)
		if err != nil {
			return err
		}
		block.AddMeasurement(merged.MeasurementWindows())
		block.AddExec(merged)
		return nil
	}

	branches := make(map[waveform.ChannelID]*sequencing.InstructionBlock)
	for _, template := range t.subtemplates {
		branch := sequencer.AddBlock()
		sequencer.Push(branch, template, parameters, conditions, measurementMapping, channelMapping)
		for ch := range template.DefinedChannels() {
			branches[mapChannel(channelMapping, ch)] = branch
		}
	}
	block.AddChan(branches)
	return nil
}

// trySingleWaveforms sequences every sub-template into a scratch block and
// reports whether all of them collapse to a single leaf waveform of equal
// duration.
func (t *MultiChannelPulseTemplate) trySingleWaveforms(parameters map[string]sequencing.Parameter,
	conditions map[string]sequencing.Condition, measurementMapping map[string]string,
	channelMapping map[waveform.ChannelID]waveform.ChannelID) ([]waveform.Waveform, bool, error) {

	components := make([]waveform.Waveform, 0, len(t.subtemplates))
	var duration waveform.TimeType
	for i, template := range t.subtemplates {
		scratch := sequencing.NewSequencer()
		scratch.Push(nil, template, parameters, conditions, measurementMapping, channelMapping)

		main, err := scratch.Build()
		if err != nil {
			return nil, false, err
		}
		if !scratch.HasFinished() {
			return nil, false, nil
		}

		leaf := singleExecWaveform(main)
		if leaf == nil {
			return nil, false, nil
		}
		if i == 0 {
			duration = leaf.Duration()
		} else if !leaf.Duration().Equal(duration) {
			return nil, false, nil
		}
		components = append(components, leaf)
	}
	return components, true, nil
}

// singleExecWaveform returns the waveform of a block consisting of exactly
// one EXEC instruction (ignoring measurements and the terminator), or nil.
func singleExecWaveform(block *sequencing.InstructionBlock) waveform.Waveform {
	var wf waveform.Waveform
	for _, instruction := range block.Instructions() {
		switch instr := instruction.(type) {
		case *sequencing.EXECInstruction:
			if wf != nil {
				return nil
			}
			wf = instr.Waveform
		case *sequencing.MEASInstruction, *sequencing.STOPInstruction:
			// Ignored for the collapse decision.
		default:
			return nil
		}
	}
	return wf
}
