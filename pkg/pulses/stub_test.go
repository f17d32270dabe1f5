package pulses

import (
	"testing"

	"github.com/Nomos11/qupulse/pkg/expressions"
	"github.com/Nomos11/qupulse/pkg/sequencing"
	"github.com/Nomos11/qupulse/pkg/waveform"
)

// stubParameter is a test binding with a configurable stop flag.
type stubParameter struct {
	value float64
	stop  bool
}

func (p *stubParameter) Get() (float64, error) { return p.value, nil }
func (p *stubParameter) RequiresStop() bool    { return p.stop }

// stubTemplate is a configurable non-atomic template. BuildSequence emits
// one EXEC per configured waveform and records the call.
type stubTemplate struct {
	identifier    string
	channels      waveform.ChannelSet
	parameters    map[string]struct{}
	duration      *expressions.Expression
	interruptable bool
	stop          bool
	waveforms     []waveform.Waveform
	buildCount    int
}

func (t *stubTemplate) Identifier() string                    { return t.identifier }
func (t *stubTemplate) ParameterNames() map[string]struct{}   { return t.parameters }
func (t *stubTemplate) MeasurementNames() map[string]struct{} { return newSet() }
func (t *stubTemplate) DefinedChannels() waveform.ChannelSet  { return t.channels }
func (t *stubTemplate) Duration() *expressions.Expression     { return t.duration }
func (t *stubTemplate) IsInterruptable() bool                 { return t.interruptable }

func (t *stubTemplate) RequiresStop(parameters map[string]sequencing.Parameter, conditions map[string]sequencing.Condition) (bool, error) {
	return t.stop, nil
}

func (t *stubTemplate) BuildSequence(sequencer *sequencing.Sequencer, parameters map[string]sequencing.Parameter,
	conditions map[string]sequencing.Condition, measurementMapping map[string]string,
	channelMapping map[waveform.ChannelID]waveform.ChannelID, block *sequencing.InstructionBlock) error {
	t.buildCount++
	for _, wf := range t.waveforms {
		block.AddExec(wf)
	}
	return nil
}

// stubAtomicTemplate extends stubTemplate with a constant-level
// BuildWaveform over its channels.
type stubAtomicTemplate struct {
	stubTemplate
	level float64
}

func (t *stubAtomicTemplate) BuildWaveform(values map[string]float64, channelMapping map[waveform.ChannelID]waveform.ChannelID) (waveform.Waveform, error) {
	duration, err := t.duration.Evaluate(values)
	if err != nil {
		return nil, err
	}
	levels := make(map[waveform.ChannelID]float64, len(t.channels))
	for ch := range t.channels {
		levels[mapChannel(channelMapping, ch)] = t.level
	}
	return waveform.ConstantFromMapping(waveform.TimeFromFloat(duration), levels)
}

func (t *stubAtomicTemplate) BuildSequence(sequencer *sequencing.Sequencer, parameters map[string]sequencing.Parameter,
	conditions map[string]sequencing.Condition, measurementMapping map[string]string,
	channelMapping map[waveform.ChannelID]waveform.ChannelID, block *sequencing.InstructionBlock) error {
	t.buildCount++
	return buildAtomicSequence(t, parameters, channelMapping, block)
}

func mustExpression(t *testing.T, src string) *expressions.Expression {
	t.Helper()
	expression, err := expressions.MakeExpression(src)
	if err != nil {
		t.Fatalf("Failed to parse expression %q: %v", src, err)
	}
	return expression
}

func mustConstantTemplate(t *testing.T, channel waveform.ChannelID, level, duration string) *ConstantPulseTemplate {
	t.Helper()
	template, err := NewConstantPulseTemplate(channel, level, duration, "")
	if err != nil {
		t.Fatalf("Failed to create constant template: %v", err)
	}
	return template
}
