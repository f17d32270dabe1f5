package hardware

import (
	"github.com/Nomos11/qupulse/pkg/program"
	"github.com/Nomos11/qupulse/pkg/waveform"
)

// AmplitudeOffsetHandling selects how a device channel's hardware offset
// enters the sample computation.
type AmplitudeOffsetHandling string

const (
	// IgnoreOffset scales samples by the amplitude only.
	IgnoreOffset AmplitudeOffsetHandling = "ignore_offset"

	// ConsiderOffset subtracts the channel offset before scaling.
	ConsiderOffset AmplitudeOffsetHandling = "consider_offset"
)

// Validate reports whether the handling mode is known.
func (h AmplitudeOffsetHandling) Validate() error {
	switch h {
	case IgnoreOffset, ConsiderOffset:
		return nil
	}
	return &InvalidAmplitudeOffsetHandlingError{Value: string(h)}
}

// VoltageTransformation post-processes a sampled voltage before the
// amplitude/offset stage, e.g. to compensate a transfer function. A nil
// transformation is the identity.
type VoltageTransformation func(v float64) float64

// AWG is an arbitrary waveform generator channel tuple. Implementations
// compare by identity: two values refer to the same device only when they
// are the same instance.
//
// The i-th entry of the channels and markers arguments of Upload selects
// which program channel feeds hardware slot i; the empty ChannelID leaves
// the slot unassigned.
type AWG interface {
	// Identifier returns the device name.
	Identifier() string

	// NumChannels returns the number of analog output slots.
	NumChannels() int

	// NumMarkers returns the number of marker output slots.
	NumMarkers() int

	// Upload makes a program ready for arming. Uploading a different
	// program under a taken name fails with ProgramOverwriteError unless
	// force is set; uploading an equivalent program is a no-op. When the
	// device memory cannot hold the new waveforms Upload fails with
	// OutOfWaveformMemoryError and leaves the device state untouched.
	Upload(name string, prog *program.Loop, channels []waveform.ChannelID, markers []waveform.ChannelID,
		voltageTransformations []VoltageTransformation, force bool) error

	// Remove deletes a program and frees waveform memory only it used.
	Remove(name string) error

	// Clear deletes all programs and waveforms.
	Clear() error

	// Arm selects the program started by the next trigger; the empty name
	// disarms the device.
	Arm(name string) error

	// Programs returns the names of the uploaded programs.
	Programs() []string

	// AmplitudeOffsetHandling returns the active handling mode.
	AmplitudeOffsetHandling() AmplitudeOffsetHandling

	// SetAmplitudeOffsetHandling switches the handling mode used by
	// subsequent uploads. Unknown modes are rejected.
	SetAmplitudeOffsetHandling(handling AmplitudeOffsetHandling) error

	// SampleRate returns the output sample rate in samples per time unit.
	SampleRate() waveform.TimeType
}

// dedupedWaveforms collects the distinct waveforms of a program in
// first-seen leaf order. Distinctness is instance identity, matching the
// compiler's reuse of waveform values for repeated segments.
func dedupedWaveforms(prog *program.Loop) []waveform.Waveform {
	seen := make(map[waveform.Waveform]struct{})
	var out []waveform.Waveform
	for _, leaf := range prog.Leaves() {
		wf := leaf.Waveform()
		if wf == nil {
			continue
		}
		if _, ok := seen[wf]; ok {
			continue
		}
		seen[wf] = struct{}{}
		out = append(out, wf)
	}
	return out
}
