package waveform

// Waveform is an immutable sampled-signal source for one or more named
// channels over a fixed duration.
//
// Implementations must be comparable pointer types: device-side waveform
// bookkeeping deduplicates by instance identity while structural equality
// goes through CompareKey.
type Waveform interface {
	// Duration returns the exact playback duration.
	Duration() TimeType

	// DefinedChannels returns the set of channels this waveform produces.
	DefinedChannels() ChannelSet

	// Sample evaluates the named channel at the given time points. If reuse
	// is non-nil and has the required length it is filled and returned,
	// avoiding an allocation. The channel must be defined on the waveform.
	Sample(channel ChannelID, times []float64, reuse []float64) ([]float64, error)

	// SubsetForChannels restricts the waveform to a subset of its defined
	// channels. Requesting a channel that is not defined fails with a
	// ChannelNotFoundError naming the first missing channel.
	SubsetForChannels(channels ChannelSet) (Waveform, error)

	// MeasurementWindows returns the acquisition windows of the waveform.
	MeasurementWindows() []MeasurementWindow

	// CompareKey returns a stable structural identity used for equality.
	CompareKey() string
}

// Equal reports structural equality of two waveforms via their compare keys.
func Equal(a, b Waveform) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.CompareKey() == b.CompareKey()
}

// sampleBuffer returns reuse when it can hold n samples, else a fresh slice.
func sampleBuffer(reuse []float64, n int) []float64 {
	if reuse != nil && len(reuse) == n {
		return reuse
	}
	return make([]float64, n)
}
