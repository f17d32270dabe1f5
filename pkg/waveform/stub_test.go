package waveform

import "fmt"

// stubWaveform is a configurable waveform for tests. It records Sample
// calls so dispatch and buffer forwarding can be asserted.
type stubWaveform struct {
	duration TimeType
	channels ChannelSet
	output   []float64
	windows  []MeasurementWindow

	sampleCalls []sampleCall
}

type sampleCall struct {
	channel ChannelID
	times   []float64
	reuse   []float64
}

func newStub(duration float64, channels ...ChannelID) *stubWaveform {
	return &stubWaveform{
		duration: TimeFromFloat(duration),
		channels: NewChannelSet(channels...),
	}
}

func (w *stubWaveform) Duration() TimeType          { return w.duration }
func (w *stubWaveform) DefinedChannels() ChannelSet { return w.channels }

func (w *stubWaveform) Sample(channel ChannelID, times []float64, reuse []float64) ([]float64, error) {
	if !w.channels.Contains(channel) {
		return nil, &ChannelNotFoundError{Channel: channel}
	}
	w.sampleCalls = append(w.sampleCalls, sampleCall{channel: channel, times: times, reuse: reuse})

	out := sampleBuffer(reuse, len(times))
	for i := range out {
		if w.output != nil {
			out[i] = w.output[i]
		}
	}
	return out, nil
}

func (w *stubWaveform) SubsetForChannels(channels ChannelSet) (Waveform, error) {
	for _, ch := range channels.Sorted() {
		if !w.channels.Contains(ch) {
			return nil, &ChannelNotFoundError{Channel: ch}
		}
	}
	return w, nil
}

func (w *stubWaveform) MeasurementWindows() []MeasurementWindow { return w.windows }

func (w *stubWaveform) CompareKey() string {
	return fmt.Sprintf("stub(%p)", w)
}
