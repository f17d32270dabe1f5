package waveform

import (
	"errors"
	"fmt"
)

// ErrNoWaveforms is returned when a multi-channel waveform is constructed
// without components.
var ErrNoWaveforms = errors.New("a multi channel waveform needs at least one component waveform")

// ChannelNotFoundError reports a channel or marker lookup on a waveform
// that does not define it.
type ChannelNotFoundError struct {
	Channel ChannelID
}

// Error implements the error interface.
func (e *ChannelNotFoundError) Error() string {
	return fmt.Sprintf("marker or channel not found: %q", string(e.Channel))
}

// OverlappingChannelsError reports that two component waveforms define the
// same channel.
type OverlappingChannelsError struct {
	Channel ChannelID
}

// Error implements the error interface.
func (e *OverlappingChannelsError) Error() string {
	return fmt.Sprintf("channel %q is defined by more than one component waveform", string(e.Channel))
}

// DurationMismatchError reports component waveforms of unequal duration.
type DurationMismatchError struct {
	Want TimeType
	Got  TimeType
}

// Error implements the error interface.
func (e *DurationMismatchError) Error() string {
	return fmt.Sprintf("component waveform durations differ: %s != %s", e.Want, e.Got)
}
