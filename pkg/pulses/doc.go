// Package pulses provides parametrized, symbolic pulse templates and their
// multi-channel composition: leaf templates that sample directly to one
// waveform, a mapping wrapper for parameter and channel renaming, and
// composite templates that combine independently defined per-channel
// templates into one consistent multi-channel program.
//
// All structural and mapping invariants are validated at construction
// time; a failed construction leaves no partially built template behind.
package pulses
