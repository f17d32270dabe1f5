// Package dummy provides an in-memory AWG implementation with a finite
// waveform memory budget. It is the reference device for tests and for
// running the compilation pipeline without hardware attached.
package dummy
