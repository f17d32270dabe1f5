package pulses

import (
	"github.com/Nomos11/qupulse/pkg/expressions"
	"github.com/Nomos11/qupulse/pkg/sequencing"
	"github.com/Nomos11/qupulse/pkg/waveform"
)

// ConstantPulseTemplate holds one channel at a parametrized level for a
// parametrized duration.
type ConstantPulseTemplate struct {
	identifier string
	channel    waveform.ChannelID
	level      *expressions.Expression
	duration   *expressions.Expression
	parameters map[string]struct{}
}

// NewConstantPulseTemplate parses the level and duration expressions.
func NewConstantPulseTemplate(channel waveform.ChannelID, level, duration string, identifier string) (*ConstantPulseTemplate, error) {
	levelExpression, err := expressions.MakeExpression(level)
	if err != nil {
		return nil, err
	}
	durationExpression, err := expressions.MakeExpression(duration)
	if err != nil {
		return nil, err
	}
	return &ConstantPulseTemplate{
		identifier: identifier,
		channel:    channel,
		level:      levelExpression,
		duration:   durationExpression,
		parameters: newSet(append(levelExpression.Variables(), durationExpression.Variables()...)...),
	}, nil
}

// Identifier returns the optional template name.
func (t *ConstantPulseTemplate) Identifier() string { return t.identifier }

// ParameterNames returns the free names of the level and duration.
func (t *ConstantPulseTemplate) ParameterNames() map[string]struct{} { return t.parameters }

// MeasurementNames returns the empty set.
func (t *ConstantPulseTemplate) MeasurementNames() map[string]struct{} { return newSet() }

// DefinedChannels returns the single output channel.
func (t *ConstantPulseTemplate) DefinedChannels() waveform.ChannelSet {
	return waveform.NewChannelSet(t.channel)
}

// Duration returns the symbolic duration.
func (t *ConstantPulseTemplate) Duration() *expressions.Expression { return t.duration }

// IsInterruptable reports false; leaves play as one waveform.
func (t *ConstantPulseTemplate) IsInterruptable() bool { return false }

// RequiresStop reports whether any referenced parameter is deferred.
func (t *ConstantPulseTemplate) RequiresStop(parameters map[string]sequencing.Parameter, conditions map[string]sequencing.Condition) (bool, error) {
	return anyRequiresStop(parameters, t.parameters), nil
}

// BuildWaveform samples the template to a constant waveform.
func (t *ConstantPulseTemplate) BuildWaveform(parameters map[string]float64, channelMapping map[waveform.ChannelID]waveform.ChannelID) (waveform.Waveform, error) {
	level, err := t.level.Evaluate(parameters)
	if err != nil {
		return nil, err
	}
	duration, err := t.duration.Evaluate(parameters)
	if err != nil {
		return nil, err
	}
	return waveform.NewConstantWaveform(mapChannel(channelMapping, t.channel), level, waveform.TimeFromFloat(duration)), nil
}

// BuildSequence emits one EXEC instruction.
func (t *ConstantPulseTemplate) BuildSequence(sequencer *sequencing.Sequencer, parameters map[string]sequencing.Parameter,
	conditions map[string]sequencing.Condition, measurementMapping map[string]string,
	channelMapping map[waveform.ChannelID]waveform.ChannelID, block *sequencing.InstructionBlock) error {
	return buildAtomicSequence(t, parameters, channelMapping, block)
}

// TablePulseEntry is one support point of a TablePulseTemplate with
// symbolic time and voltage.
type TablePulseEntry struct {
	Time    *expressions.Expression
	Voltage *expressions.Expression
}

// TablePulseTemplate interpolates linearly between parametrized support
// points on one channel.
type TablePulseTemplate struct {
	identifier string
	channel    waveform.ChannelID
	entries    []TablePulseEntry
	parameters map[string]struct{}
}

// NewTablePulseTemplate parses the entry expressions, given as
// (time, voltage) source pairs.
func NewTablePulseTemplate(channel waveform.ChannelID, entries [][2]string, identifier string) (*TablePulseTemplate, error) {
	if len(entries) < 2 {
		return nil, ErrEmptyComposition
	}

	parsed := make([]TablePulseEntry, 0, len(entries))
	parameters := make(map[string]struct{})
	for _, entry := range entries {
		timeExpression, err := expressions.MakeExpression(entry[0])
		if err != nil {
			return nil, err
		}
		voltageExpression, err := expressions.MakeExpression(entry[1])
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, TablePulseEntry{Time: timeExpression, Voltage: voltageExpression})
		parameters = union(parameters, newSet(timeExpression.Variables()...), newSet(voltageExpression.Variables()...))
	}

	return &TablePulseTemplate{
		identifier: identifier,
		channel:    channel,
		entries:    parsed,
		parameters: parameters,
	}, nil
}

// Identifier returns the optional template name.
func (t *TablePulseTemplate) Identifier() string { return t.identifier }

// ParameterNames returns the union of free names over all entries.
func (t *TablePulseTemplate) ParameterNames() map[string]struct{} { return t.parameters }

// MeasurementNames returns the empty set.
func (t *TablePulseTemplate) MeasurementNames() map[string]struct{} { return newSet() }

// DefinedChannels returns the single output channel.
func (t *TablePulseTemplate) DefinedChannels() waveform.ChannelSet {
	return waveform.NewChannelSet(t.channel)
}

// Duration returns the time expression of the last support point.
func (t *TablePulseTemplate) Duration() *expressions.Expression {
	return t.entries[len(t.entries)-1].Time
}

// IsInterruptable reports false; leaves play as one waveform.
func (t *TablePulseTemplate) IsInterruptable() bool { return false }

// RequiresStop reports whether any referenced parameter is deferred.
func (t *TablePulseTemplate) RequiresStop(parameters map[string]sequencing.Parameter, conditions map[string]sequencing.Condition) (bool, error) {
	return anyRequiresStop(parameters, t.parameters), nil
}

// BuildWaveform samples the template to a table waveform.
func (t *TablePulseTemplate) BuildWaveform(parameters map[string]float64, channelMapping map[waveform.ChannelID]waveform.ChannelID) (waveform.Waveform, error) {
	entries := make([]waveform.TableEntry, 0, len(t.entries))
	for _, entry := range t.entries {
		time, err := entry.Time.Evaluate(parameters)
		if err != nil {
			return nil, err
		}
		voltage, err := entry.Voltage.Evaluate(parameters)
		if err != nil {
			return nil, err
		}
		entries = append(entries, waveform.TableEntry{Time: time, Voltage: voltage})
	}
	return waveform.NewTableWaveform(mapChannel(channelMapping, t.channel), entries)
}

// BuildSequence emits one EXEC instruction.
func (t *TablePulseTemplate) BuildSequence(sequencer *sequencing.Sequencer, parameters map[string]sequencing.Parameter,
	conditions map[string]sequencing.Condition, measurementMapping map[string]string,
	channelMapping map[waveform.ChannelID]waveform.ChannelID, block *sequencing.InstructionBlock) error {
	return buildAtomicSequence(t, parameters, channelMapping, block)
}

// buildAtomicSequence is the shared leaf compilation path: evaluate the
// binding, sample the waveform, emit its measurements and one EXEC.
func buildAtomicSequence(t AtomicPulseTemplate, parameters map[string]sequencing.Parameter,
	channelMapping map[waveform.ChannelID]waveform.ChannelID, block *sequencing.InstructionBlock) error {

	values, err := evaluateParameters(parameters, t.ParameterNames())
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
