// Package hardware defines the arbitrary waveform generator abstraction:
// the AWG device interface, the amplitude/offset handling policy, and the
// ProgramEntry sampling pipeline that turns a compiled program into
// per-channel sample arrays ready for device upload.
package hardware
