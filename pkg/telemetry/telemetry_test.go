package telemetry

import "testing"

func TestLoggingConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     LoggingConfig
		wantErr bool
	}{
		{"defaults", DefaultLoggingConfig(), false},
		{"empty", LoggingConfig{}, false},
		{"bad level", LoggingConfig{Level: "verbose"}, true},
		{"bad format", LoggingConfig{Format: "xml"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Expected wantErr=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestMetricsConfig_Validate(t *testing.T) {
	cfg := DefaultMetricsConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected the default config to validate, got %v", err)
	}

	cfg.Enabled = true
	cfg.ListenAddress = ""
	if err := cfg.Validate(); err == nil {
		t.Error("Expected an error for enabled metrics without a listen address")
	}
}

func TestMetrics_DisabledIsNoop(t *testing.T) {
	m, err := NewMetrics(MetricsConfig{Enabled: false})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Must not panic on a disabled collector.
	m.RecordUpload("dev", 0)
	m.RecordUploadError("dev")
	m.RecordRemoval("dev")
	m.RecordArm("dev")
	m.SetWaveformMemory("dev", 0)
	m.SetResidentPrograms("dev", 0)
}

func TestNewComponentLogger(t *testing.T) {
	logger, err := NewLogger(LoggingConfig{Level: "debug", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	child := logger.NewComponentLogger("hardware")
	if child == logger {
		t.Error("Expected a child logger instance")
	}
}
