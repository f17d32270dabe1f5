package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the hardware layer. A Metrics
// created from a disabled configuration is a safe no-op.
type Metrics struct {
	config MetricsConfig

	uploads          *prometheus.CounterVec
	removals         *prometheus.CounterVec
	arms             *prometheus.CounterVec
	uploadErrors     *prometheus.CounterVec
	samplingDuration *prometheus.HistogramVec

	waveformMemory   *prometheus.GaugeVec
	residentPrograms *prometheus.GaugeVec

	registry *prometheus.Registry
}

// NewMetrics creates a metrics collector from the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.SamplingBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "program_uploads_total",
				Help:      "Total number of program uploads per device",
			},
			[]string{"device"},
		),
		removals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "program_removals_total",
				Help:      "Total number of program removals per device",
			},
			[]string{"device"},
		),
		arms: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "program_arms_total",
				Help:      "Total number of arm operations per device",
			},
			[]string{"device"},
		),
		uploadErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "program_upload_errors_total",
				Help:      "Total number of failed uploads per device",
			},
			[]string{"device"},
		),
		samplingDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "sampling_duration_seconds",
				Help:      "Duration of program waveform sampling in seconds",
				Buckets:   buckets,
			},
			[]string{"device"},
		),
		waveformMemory: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "waveform_memory_samples",
				Help:      "Waveform memory currently occupied per device, in samples",
			},
			[]string{"device"},
		),
		residentPrograms: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "resident_programs",
				Help:      "Number of programs currently uploaded per device",
			},
			[]string{"device"},
		),
	}

	registry.MustRegister(
		m.uploads,
		m.removals,
		m.arms,
		m.uploadErrors,
		m.samplingDuration,
		m.waveformMemory,
		m.residentPrograms,
	)

	return m, nil
}

// RecordUpload counts a successful upload and its sampling duration.
func (m *Metrics) RecordUpload(device string, samplingDuration time.Duration) {
	if m.uploads == nil {
		return
	}
	m.uploads.WithLabelValues(device).Inc()
	m.samplingDuration.WithLabelValues(device).Observe(samplingDuration.Seconds())
}

// RecordUploadError counts a failed upload.
func (m *Metrics) RecordUploadError(device string) {
	if m.uploadErrors == nil {
		return
	}
	m.uploadErrors.WithLabelValues(device).Inc()
}

// RecordRemoval counts a program removal.
func (m *Metrics) RecordRemoval(device string) {
	if m.removals == nil {
		return
	}
	m.removals.WithLabelValues(device).Inc()
}

// RecordArm counts an arm operation.
func (m *Metrics) RecordArm(device string) {
	if m.arms == nil {
		return
	}
	m.arms.WithLabelValues(device).Inc()
}

// SetWaveformMemory sets the occupied waveform memory of a device.
func (m *Metrics) SetWaveformMemory(device string, samples float64) {
	if m.waveformMemory == nil {
		return
	}
	m.waveformMemory.WithLabelValues(device).Set(samples)
}

// SetResidentPrograms sets the number of uploaded programs of a device.
func (m *Metrics) SetResidentPrograms(device string, count float64) {
	if m.residentPrograms == nil {
		return
	}
	m.residentPrograms.WithLabelValues(device).Set(count)
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// StartMetricsServer exposes the metrics endpoint over HTTP.
func (m *Metrics) StartMetricsServer() error {
	if !m.config.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(m.config.Path, m.Handler())

	server := &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		_ = server.ListenAndServe()
	}()

	return nil
}
