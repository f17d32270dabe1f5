package hardware

import (
	"fmt"

	"github.com/Nomos11/qupulse/pkg/waveform"
)

// ProgramOverwriteError reports an upload under a name that is already
// taken while force is false.
type ProgramOverwriteError struct {
	Name string
}

// Error implements the error interface.
func (e *ProgramOverwriteError) Error() string {
	return fmt.Sprintf("a program named %q is already present on the device", e.Name)
}

// OutOfWaveformMemoryError reports that the device cannot hold the
// waveforms of a new program. The device state is unchanged.
type OutOfWaveformMemoryError struct {
	Required  int
	Available int
}

// Error implements the error interface.
func (e *OutOfWaveformMemoryError) Error() string {
	return fmt.Sprintf("not enough waveform memory: %d samples required, %d available",
		e.Required, e.Available)
}

// NoSuchProgramError reports an operation on a program name the device
// does not know.
type NoSuchProgramError struct {
	Name string
}

// Error implements the error interface.
func (e *NoSuchProgramError) Error() string {
	return fmt.Sprintf("no program named %q is present on the device", e.Name)
}

// ChannelNotFoundError reports a program channel that is not assigned to
// any channel or marker slot of the device.
type ChannelNotFoundError struct {
	Channel waveform.ChannelID
}

// Error implements the error interface.
func (e *ChannelNotFoundError) Error() string {
	return fmt.Sprintf("program channel %q is not assigned to any device slot", e.Channel)
}

// InvalidAmplitudeOffsetHandlingError reports an unknown handling mode.
type InvalidAmplitudeOffsetHandlingError struct {
	Value string
}

// Error implements the error interface.
func (e *InvalidAmplitudeOffsetHandlingError) Error() string {
	return fmt.Sprintf("invalid amplitude/offset handling %q", e.Value)
}
