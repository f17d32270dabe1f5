// Package telemetry provides structured logging and Prometheus metrics
// for the pulse compilation and hardware layers. Loggers are zerolog
// wrappers carrying domain fields (device, program, template); metrics
// cover device uploads, waveform memory and sampling latency.
package telemetry
