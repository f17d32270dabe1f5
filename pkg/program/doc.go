// Package program provides the hardware-agnostic program representation: a
// tree of repetition nodes with waveform leaves (Loop), a stack-based
// builder for assembling such trees, and the shared sample-time grid
// utility used by device drivers.
package program
