package program

import (
	"fmt"
	"math"

	"github.com/Nomos11/qupulse/pkg/waveform"
)

// SampleTimes computes the shared time grid for a sequence of waveforms at
// the given sample rate. The returned time array covers the longest
// waveform; segmentLengths holds, per waveform, the number of grid points
// valid for it. All waveforms share the grid prefix.
func SampleTimes(waveforms []waveform.Waveform, sampleRate waveform.TimeType) (times []float64, segmentLengths []int, err error) {
	if sampleRate.IsZero() || sampleRate.Float64() <= 0 {
		return nil, nil, fmt.Errorf("sample rate must be positive, got %s", sampleRate)
	}

	segmentLengths = make([]int, len(waveforms))
	maxLength := 0
	for i, wf := range waveforms {
		// Exact rational product; rounding only converts the residual
		// representation error of non-commensurate durations.
		samples := wf.Duration().Mul(sampleRate)
		length := int(math.Round(samples.Float64()))
		if length < 0 {
			return nil, nil, fmt.Errorf("waveform %d has negative duration %s", i, wf.Duration())
		}
		segmentLengths[i] = length
		if length > maxLength {
			maxLength = length
		}
	}

	rate := sampleRate.Float64()
	times = make([]float64, maxLength)
	for i := range times {
		times[i] = float64(i) / rate
	}
	return times, segmentLengths, nil
}
