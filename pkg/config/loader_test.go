package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validSetup = `
devices:
  - identifier: awg1
    channels: 2
    markers: 1
    sample_rate: 2.4
    memory_samples: 8000000
    amplitude_offset_handling: consider_offset
    amplitudes: [1.0, 0.5]
    offsets: [0.0, 0.1]
  - identifier: awg2
    channels: 1
    sample_rate: 1.0
    memory_samples: 4000000
storage:
  path: /var/lib/qupulse/templates.db
logging:
  level: debug
  format: json
metrics:
  enabled: true
  listen_address: ":9191"
`

func TestLoadSetup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "setup.yaml")
	if err := os.WriteFile(path, []byte(validSetup), 0o644); err != nil {
		t.Fatalf("failed to write setup file: %v", err)
	}

	cfg, err := NewLoader().Load(path)
	if err != nil {
		t.Fatalf("failed to load setup: %v", err)
	}

	if len(cfg.Devices) != 2 {
		t.Fatalf("Expected 2 devices, got %d", len(cfg.Devices))
	}
	awg1 := cfg.Devices[0]
	if awg1.Identifier != "awg1" {
		t.Errorf("Expected identifier awg1, got %s", awg1.Identifier)
	}
	if awg1.Channels != 2 || awg1.Markers != 1 {
		t.Errorf("Expected 2 channels and 1 marker, got %d and %d", awg1.Channels, awg1.Markers)
	}
	if awg1.SampleRate != 2.4 {
		t.Errorf("Expected sample rate 2.4, got %v", awg1.SampleRate)
	}
	if awg1.AmplitudeOffsetHandling != "consider_offset" {
		t.Errorf("Expected consider_offset, got %s", awg1.AmplitudeOffsetHandling)
	}
	if cfg.Storage.Path != "/var/lib/qupulse/templates.db" {
		t.Errorf("Expected storage path to be set, got %s", cfg.Storage.Path)
	}

	// Defaults survive a partial logging section.
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected level debug, got %s", cfg.Logging.Level)
	}
	if cfg.Logging.Output != "stderr" {
		t.Errorf("Expected default output stderr, got %s", cfg.Logging.Output)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Expected metrics to be enabled")
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("Expected default metrics path /metrics, got %s", cfg.Metrics.Path)
	}
}

func TestLoadSetupMissingFile(t *testing.T) {
	if _, err := NewLoader().Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing setup file, got nil")
	}
}

func TestParseSetupRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "no devices",
			content: "storage:\n  path: db\n",
			wantErr: "invalid setup",
		},
		{
			name: "missing sample rate",
			content: `
devices:
  - identifier: awg1
    channels: 2
    memory_samples: 100
`,
			wantErr: "invalid setup",
		},
		{
			name: "duplicate identifier",
			content: `
devices:
  - identifier: awg1
    channels: 1
    sample_rate: 1.0
    memory_samples: 100
  - identifier: awg1
    channels: 1
    sample_rate: 1.0
    memory_samples: 100
`,
			wantErr: "duplicate device identifier",
		},
		{
			name: "amplitude count mismatch",
			content: `
devices:
  - identifier: awg1
    channels: 2
    sample_rate: 1.0
    memory_samples: 100
    amplitudes: [1.0]
`,
			wantErr: "got 1 amplitudes for 2 channels",
		},
		{
			name: "zero amplitude",
			content: `
devices:
  - identifier: awg1
    channels: 2
    sample_rate: 1.0
    memory_samples: 100
    amplitudes: [1.0, 0.0]
`,
			wantErr: "must not be zero",
		},
		{
			name: "offset count mismatch",
			content: `
devices:
  - identifier: awg1
    channels: 1
    sample_rate: 1.0
    memory_samples: 100
    offsets: [0.0, 0.1]
`,
			wantErr: "got 2 offsets for 1 channels",
		},
		{
			name: "invalid handling",
			content: `
devices:
  - identifier: awg1
    channels: 1
    sample_rate: 1.0
    memory_samples: 100
    amplitude_offset_handling: subtract
`,
			wantErr: "invalid setup",
		},
		{
			name: "unknown field",
			content: `
devices:
  - identifier: awg1
    channels: 1
    sample_rate: 1.0
    memory_samples: 100
    chanels: 2
`,
			wantErr: "failed to parse setup file",
		},
	}

	loader := NewLoader()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loader.Parse([]byte(tt.content))
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}
