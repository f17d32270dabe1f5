package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Loader parses and validates setup files.
type Loader struct {
	validator *validator.Validate
}

// NewLoader creates a new loader.
func NewLoader() *Loader {
	return &Loader{
		validator: validator.New(),
	}
}

// Load reads a setup file from path.
func (l *Loader) Load(path string) (*SetupConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read setup file: %w", err)
	}
	return l.Parse(data)
}

// Parse decodes and validates setup file contents. Unknown fields are
// rejected so typos surface instead of silently falling back to
// defaults.
func (l *Loader) Parse(data []byte) (*SetupConfig, error) {
	cfg := DefaultSetupConfig()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse setup file: %w", err)
	}

	if err := l.validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (l *Loader) validate(cfg *SetupConfig) error {
	if err := l.validator.Struct(cfg); err != nil {
		return fmt.Errorf("invalid setup: %w", err)
	}

	seen := make(map[string]bool, len(cfg.Devices))
	for i := range cfg.Devices {
		device := &cfg.Devices[i]
		if seen[device.Identifier] {
			return fmt.Errorf("duplicate device identifier %q", device.Identifier)
		}
		seen[device.Identifier] = true

		if len(device.Amplitudes) != 0 && len(device.Amplitudes) != device.Channels {
			return fmt.Errorf("device %q: got %d amplitudes for %d channels",
				device.Identifier, len(device.Amplitudes), device.Channels)
		}
		if len(device.Offsets) != 0 && len(device.Offsets) != device.Channels {
			return fmt.Errorf("device %q: got %d offsets for %d channels",
				device.Identifier, len(device.Offsets), device.Channels)
		}
		for ch, amplitude := range device.Amplitudes {
			if amplitude == 0 {
				return fmt.Errorf("device %q: amplitude for channel %d must not be zero",
					device.Identifier, ch)
			}
		}
	}

	if err := cfg.Logging.Validate(); err != nil {
		return fmt.Errorf("invalid logging config: %w", err)
	}
	if err := cfg.Metrics.Validate(); err != nil {
		return fmt.Errorf("invalid metrics config: %w", err)
	}

	return nil
}
