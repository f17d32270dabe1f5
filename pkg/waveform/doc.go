// Package waveform provides the immutable sampled-signal model for pulse
// programs: single-channel leaf waveforms over an exact rational duration
// and a multi-channel combinator that aggregates disjoint single-channel
// waveforms into one unit.
//
// Waveform values are immutable after construction and safe to share by
// reference across concurrent readers.
package waveform
