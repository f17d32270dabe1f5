package waveform

import "fmt"

// ConstantWaveform holds a single channel at a fixed level for its whole
// duration.
type ConstantWaveform struct {
	channel  ChannelID
	level    float64
	duration TimeType
}

// NewConstantWaveform creates a constant waveform on the given channel.
func NewConstantWaveform(channel ChannelID, level float64, duration TimeType) *ConstantWaveform {
	return &ConstantWaveform{channel: channel, level: level, duration: duration}
}

// ConstantFromMapping creates one waveform holding every listed channel at
// its level. A single entry yields a plain ConstantWaveform, several
// entries a MultiChannelWaveform of per-channel constants.
func ConstantFromMapping(duration TimeType, levels map[ChannelID]float64) (Waveform, error) {
	if len(levels) == 0 {
		return nil, ErrNoWaveforms
	}

	channels := make([]ChannelID, 0, len(levels))
	for ch := range levels {
		channels = append(channels, ch)
	}
	// Deterministic component order.
	set := NewChannelSet(channels...)
	components := make([]Waveform, 0, len(levels))
	for _, ch := range set.Sorted() {
		components = append(components, NewConstantWaveform(ch, levels[ch], duration))
	}

	if len(components) == 1 {
		return components[0], nil
	}
	return NewMultiChannelWaveform(components)
}

// Duration returns the playback duration.
func (w *ConstantWaveform) Duration() TimeType {
	return w.duration
}

// DefinedChannels returns the single defined channel.
func (w *ConstantWaveform) DefinedChannels() ChannelSet {
	return NewChannelSet(w.channel)
}

// Level returns the constant voltage level.
func (w *ConstantWaveform) Level() float64 {
	return w.level
}

// Sample fills the output with the constant level.
func (w *ConstantWaveform) Sample(channel ChannelID, times []float64, reuse []float64) ([]float64, error) {
	if channel != w.channel {
		return nil, &ChannelNotFoundError{Channel: channel}
	}
	out := sampleBuffer(reuse, len(times))
	for i := range out {
		out[i] = w.level
	}
	return out, nil
}

// SubsetForChannels returns the waveform itself for its own channel.
func (w *ConstantWaveform) SubsetForChannels(channels ChannelSet) (Waveform, error) {
	for _, ch := range channels.Sorted() {
		if ch != w.channel {
			return nil, &ChannelNotFoundError{Channel: ch}
		}
	}
	if len(channels) == 0 {
		return nil, ErrNoWaveforms
	}
	return w, nil
}

// MeasurementWindows returns nil; constant waveforms carry no windows.
func (w *ConstantWaveform) MeasurementWindows() []MeasurementWindow {
	return nil
}

// CompareKey returns the structural identity of the waveform.
func (w *ConstantWaveform) CompareKey() string {
	return fmt.Sprintf("constant(%s,%g,%s)", w.channel, w.level, w.duration)
}
