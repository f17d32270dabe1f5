package config

import (
	"github.com/Nomos11/qupulse/pkg/telemetry"
)

// DeviceConfig describes one arbitrary waveform generator.
type DeviceConfig struct {
	// Identifier is the unique device name (e.g., "awg1").
	Identifier string `yaml:"identifier" validate:"required"`

	// Channels is the number of playback channels.
	Channels int `yaml:"channels" validate:"required,min=1"`

	// Markers is the number of marker outputs.
	Markers int `yaml:"markers" validate:"min=0"`

	// SampleRate is the device sample rate in samples per nanosecond.
	SampleRate float64 `yaml:"sample_rate" validate:"required,gt=0"`

	// MemorySamples is the waveform memory budget in samples.
	MemorySamples int `yaml:"memory_samples" validate:"required,min=1"`

	// AmplitudeOffsetHandling selects how channel offsets enter the
	// hardware scaling (ignore_offset, consider_offset).
	AmplitudeOffsetHandling string `yaml:"amplitude_offset_handling" validate:"omitempty,oneof=ignore_offset consider_offset"`

	// Amplitudes are per-channel full-scale amplitudes in volts.
	// When present the list must cover every channel.
	Amplitudes []float64 `yaml:"amplitudes,omitempty"`

	// Offsets are per-channel voltage offsets.
	// When present the list must cover every channel.
	Offsets []float64 `yaml:"offsets,omitempty"`
}

// StorageConfig configures the template and event database.
type StorageConfig struct {
	// Path is the SQLite database path.
	Path string `yaml:"path"`
}

// SetupConfig is the root of the setup file.
type SetupConfig struct {
	// Devices lists the generators available to the session.
	Devices []DeviceConfig `yaml:"devices" validate:"required,min=1,dive"`

	// Storage configures the template database.
	Storage StorageConfig `yaml:"storage"`

	// Logging configures structured logging.
	Logging telemetry.LoggingConfig `yaml:"logging"`

	// Metrics configures metrics collection.
	Metrics telemetry.MetricsConfig `yaml:"metrics"`
}

// DefaultSetupConfig returns a setup with logging and metrics defaults
// and no devices.
func DefaultSetupConfig() SetupConfig {
	return SetupConfig{
		Logging: telemetry.DefaultLoggingConfig(),
		Metrics: telemetry.DefaultMetricsConfig(),
	}
}
