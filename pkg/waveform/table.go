package waveform

import (
	"fmt"
	"sort"
	"strings"
)

// TableEntry is one support point of a TableWaveform.
type TableEntry struct {
	Time    float64
	Voltage float64
}

// TableWaveform produces a single channel by linear interpolation between
// support points. The first entry must lie at time zero; the last entry
// defines the duration.
type TableWaveform struct {
	channel  ChannelID
	entries  []TableEntry
	duration TimeType
}

// NewTableWaveform validates and creates a table waveform. At least two
// entries with strictly increasing times are required.
func NewTableWaveform(channel ChannelID, entries []TableEntry) (*TableWaveform, error) {
	if len(entries) < 2 {
		return nil, fmt.Errorf("a table waveform needs at least two entries, got %d", len(entries))
	}
	if entries[0].Time != 0 {
		return nil, fmt.Errorf("the first table entry must lie at time 0, got %g", entries[0].Time)
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Time <= entries[i-1].Time {
			return nil, fmt.Errorf("table entry times must be strictly increasing, got %g after %g",
				entries[i].Time, entries[i-1].Time)
		}
	}

	owned := make([]TableEntry, len(entries))
	copy(owned, entries)

	return &TableWaveform{
		channel:  channel,
		entries:  owned,
		duration: TimeFromFloat(entries[len(entries)-1].Time),
	}, nil
}

// Duration returns the time of the last support point.
func (w *TableWaveform) Duration() TimeType {
	return w.duration
}

// DefinedChannels returns the single defined channel.
func (w *TableWaveform) DefinedChannels() ChannelSet {
	return NewChannelSet(w.channel)
}

// Sample evaluates the interpolated table at the given time points. Times
// outside the table range clamp to the boundary values.
func (w *TableWaveform) Sample(channel ChannelID, times []float64, reuse []float64) ([]float64, error) {
	if channel != w.channel {
		return nil, &ChannelNotFoundError{Channel: channel}
	}
	out := sampleBuffer(reuse, len(times))
	for i, t := range times {
		out[i] = w.interpolate(t)
	}
	return out, nil
}

func (w *TableWaveform) interpolate(t float64) float64 {
	entries := w.entries
	if t <= entries[0].Time {
		return entries[0].Voltage
	}
	if t >= entries[len(entries)-1].Time {
		return entries[len(entries)-1].Voltage
	}

	// First entry with Time > t; its predecessor starts the segment.
	idx := sort.Search(len(entries), func(i int) bool { return entries[i].Time > t })
	lo, hi := entries[idx-1], entries[idx]
	frac := (t - lo.Time) / (hi.Time - lo.Time)
	return lo.Voltage + frac*(hi.Voltage-lo.Voltage)
}

// SubsetForChannels returns the waveform itself for its own channel.
func (w *TableWaveform) SubsetForChannels(channels ChannelSet) (Waveform, error) {
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

// MeasurementWindows returns nil; table waveforms carry no windows.
func (w *TableWaveform) MeasurementWindows() []MeasurementWindow {
	return nil
}

// CompareKey returns the structural identity of the waveform.
func (w *TableWaveform) CompareKey() string {
	var b strings.Builder
	fmt.Fprintf(&b, "table(%s", w.channel)
	for _, e := range w.entries {
		fmt.Fprintf(&b, ",%g:%g", e.Time, e.Voltage)
	}
	b.WriteString(")")
	return b.String()
}
