package waveform

import "strings"

// MultiChannelWaveform aggregates disjoint single- or multi-channel
// component waveforms of equal duration into one unit. Nested multi-channel
// inputs are flattened at construction, so components are never
// MultiChannelWaveform themselves.
type MultiChannelWaveform struct {
	components []Waveform
	byChannel  map[ChannelID]Waveform
	channels   ChannelSet
	duration   TimeType
}

// NewMultiChannelWaveform validates and creates a multi-channel waveform.
// It fails when components is empty, when two components define the same
// channel, or when component durations differ.
func NewMultiChannelWaveform(components []Waveform) (*MultiChannelWaveform, error) {
	if len(components) == 0 {
		return nil, ErrNoWaveforms
	}

	// Normalization pass: flatten nested multi-channel waveforms into an
	// owned, ordered list of leaf components before any invariant checks.
	flat := make([]Waveform, 0, len(components))
	for _, component := range components {
		if nested, ok := component.(*MultiChannelWaveform); ok {
			flat = append(flat, nested.components...)
			continue
		}
		flat = append(flat, component)
	}

	duration := flat[0].Duration()
	channels := make(ChannelSet)
	byChannel := make(map[ChannelID]Waveform)
	for _, component := range flat {
		if !component.Duration().Equal(duration) {
			return nil, &DurationMismatchError{Want: duration, Got: component.Duration()}
		}
		for _, ch := range component.DefinedChannels().Sorted() {
			if channels.Contains(ch) {
				return nil, &OverlappingChannelsError{Channel: ch}
			}
			channels[ch] = struct{}{}
			byChannel[ch] = component
		}
	}

	return &MultiChannelWaveform{
		components: flat,
		byChannel:  byChannel,
		channels:   channels,
		duration:   duration,
	}, nil
}

// Duration returns the shared duration of all components.
func (w *MultiChannelWaveform) Duration() TimeType {
	return w.duration
}

// DefinedChannels returns the union of the component channel sets.
func (w *MultiChannelWaveform) DefinedChannels() ChannelSet {
	return w.channels
}

// Components returns the flattened component waveforms in construction order.
func (w *MultiChannelWaveform) Components() []Waveform {
	out := make([]Waveform, len(w.components))
	copy(out, w.components)
	return out
}

// Sample dispatches to the single component owning the channel, forwarding
// the reuse buffer unmodified.
func (w *MultiChannelWaveform) Sample(channel ChannelID, times []float64, reuse []float64) ([]float64, error) {
	component, ok := w.byChannel[channel]
	if !ok {
		return nil, &ChannelNotFoundError{Channel: channel}
	}
	return component.Sample(channel, times, reuse)
}

// SubsetForChannels restricts the waveform to the requested channels. When
// the request exactly matches one component's channel set that component is
// returned unchanged; otherwise a new MultiChannelWaveform over the
// matching components is built.
func (w *MultiChannelWaveform) SubsetForChannels(channels ChannelSet) (Waveform, error) {
	if len(channels) == 0 {
		return nil, ErrNoWaveforms
	}
	for _, ch := range channels.Sorted() {
		if !w.channels.Contains(ch) {
			return nil, &ChannelNotFoundError{Channel: ch}
		}
	}

	var subset []Waveform
	for _, component := range w.components {
		defined := component.DefinedChannels()
		if !defined.Intersects(channels) {
			continue
		}
		if defined.IsSubsetOf(channels) {
			subset = append(subset, component)
			continue
		}
		restricted, err := component.SubsetForChannels(defined.Intersection(channels))
		if err != nil {
			return nil, err
		}
		subset = append(subset, restricted)
	}

	if len(subset) == 1 && subset[0].DefinedChannels().Equal(channels) {
		return subset[0], nil
	}
	return NewMultiChannelWaveform(subset)
}

// MeasurementWindows concatenates the component windows in component order.
// Windows are not deduplicated.
func (w *MultiChannelWaveform) MeasurementWindows() []MeasurementWindow {
	var windows []MeasurementWindow
	for _, component := range w.components {
		windows = append(windows, component.MeasurementWindows()...)
	}
	return windows
}

// CompareKey is structural over the ordered component compare keys. Which
// physical waveform instance holds a channel does not matter.
func (w *MultiChannelWaveform) CompareKey() string {
	keys := make([]string, len(w.components))
	for i, component := range w.components {
		keys[i] = component.CompareKey()
	}
	return "multi[" + strings.Join(keys, ";") + "]"
}
