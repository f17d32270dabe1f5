package dummy

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Nomos11/qupulse/pkg/hardware"
	"github.com/Nomos11/qupulse/pkg/program"
	"github.com/Nomos11/qupulse/pkg/telemetry"
	"github.com/Nomos11/qupulse/pkg/waveform"
)

// programRecord is the resident state of one uploaded program.
type programRecord struct {
	entry    *hardware.ProgramEntry
	prog     *program.Loop
	channels []waveform.ChannelID
	markers  []waveform.ChannelID
	// samples is the memory cost per distinct waveform of the program.
	samples map[waveform.Waveform]int
}

// AWG is an in-memory arbitrary waveform generator. Waveform memory is
// accounted in samples; waveforms shared between programs are stored once
// and reference counted by instance identity.
type AWG struct {
	identifier  string
	numChannels int
	numMarkers  int
	sampleRate  waveform.TimeType
	memory      int

	mu          sync.Mutex
	amplitudes  []float64
	offsets     []float64
	handling    hardware.AmplitudeOffsetHandling
	programs    map[string]*programRecord
	refcounts   map[waveform.Waveform]int
	usedSamples int
	armed       string

	logger  *telemetry.Logger
	metrics *telemetry.Metrics
}

var _ hardware.AWG = (*AWG)(nil)

// Option configures an AWG.
type Option func(*AWG)

// WithLogger attaches a logger.
func WithLogger(logger *telemetry.Logger) Option {
	return func(a *AWG) { a.logger = logger.NewComponentLogger("dummy-awg").WithDevice(a.identifier) }
}

// WithMetrics attaches a metrics collector.
func WithMetrics(metrics *telemetry.Metrics) Option {
	return func(a *AWG) { a.metrics = metrics }
}

// WithAmplitudeOffsetHandling sets the offset policy, default IgnoreOffset.
func WithAmplitudeOffsetHandling(handling hardware.AmplitudeOffsetHandling) Option {
	return func(a *AWG) { a.handling = handling }
}

// NewAWG creates a device with the given channel count and waveform memory
// budget in samples. Channel amplitudes default to 1 and offsets to 0.
func NewAWG(identifier string, numChannels, numMarkers int, sampleRate waveform.TimeType, memorySamples int, opts ...Option) *AWG {
	amplitudes := make([]float64, numChannels)
	for i := range amplitudes {
		amplitudes[i] = 1
	}
	a := &AWG{
		identifier:  identifier,
		numChannels: numChannels,
		numMarkers:  numMarkers,
		sampleRate:  sampleRate,
		memory:      memorySamples,
		amplitudes:  amplitudes,
		offsets:     make([]float64, numChannels),
		handling:    hardware.IgnoreOffset,
		programs:    make(map[string]*programRecord),
		refcounts:   make(map[waveform.Waveform]int),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Identifier returns the device name.
func (a *AWG) Identifier() string { return a.identifier }

// NumChannels returns the number of analog output slots.
func (a *AWG) NumChannels() int { return a.numChannels }

// NumMarkers returns the number of marker output slots.
func (a *AWG) NumMarkers() int { return a.numMarkers }

// SampleRate returns the output sample rate.
func (a *AWG) SampleRate() waveform.TimeType { return a.sampleRate }

// SetChannelAmplitude sets the peak amplitude of a channel slot.
func (a *AWG) SetChannelAmplitude(slot int, amplitude float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.amplitudes[slot] = amplitude
}

// SetChannelOffset sets the hardware offset of a channel slot.
func (a *AWG) SetChannelOffset(slot int, offset float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.offsets[slot] = offset
}

// AmplitudeOffsetHandling returns the active handling mode.
func (a *AWG) AmplitudeOffsetHandling() hardware.AmplitudeOffsetHandling {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.handling
}

// SetAmplitudeOffsetHandling switches the handling mode used by
// subsequent uploads.
func (a *AWG) SetAmplitudeOffsetHandling(handling hardware.AmplitudeOffsetHandling) error {
	if err := handling.Validate(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.handling = handling
	return nil
}

// Upload samples a program and stores it under name. See hardware.AWG for
// the overwrite and memory semantics.
func (a *AWG) Upload(name string, prog *program.Loop, channels []waveform.ChannelID, markers []waveform.ChannelID,
	voltageTransformations []hardware.VoltageTransformation, force bool) error {
	if len(channels) != a.numChannels {
		return fmt.Errorf("device has %d channel slots, got %d assignments", a.numChannels, len(channels))
	}
	if len(markers) != a.numMarkers {
		return fmt.Errorf("device has %d marker slots, got %d assignments", a.numMarkers, len(markers))
	}
	if err := checkChannelCoverage(prog, channels, markers); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	previous := a.programs[name]
	if previous != nil {
		if a.equivalentUpload(previous, prog, channels, markers) {
			a.debugf("upload of %q skipped, program is already resident", name)
			return nil
		}
		if !force {
			return &hardware.ProgramOverwriteError{Name: name}
		}
	}

	entry, err := hardware.NewProgramEntry(prog, channels, markers, a.amplitudes, a.offsets,
		voltageTransformations, a.handling, a.sampleRate)
	if err != nil {
		a.recordUploadError()
		return err
	}

	waveforms := entry.Waveforms()
	_, lengths, err := program.SampleTimes(waveforms, a.sampleRate)
	if err != nil {
		a.recordUploadError()
		return err
	}
	samples := make(map[waveform.Waveform]int, len(waveforms))
	for i, wf := range waveforms {
		samples[wf] = lengths[i]
	}

	// Memory check against the state as it would look after the previous
	// program under this name has been released. Nothing is committed yet,
	// so a failure leaves the device untouched.
	used, shared := a.usedAfterRelease(previous)
	required := 0
	for wf, cost := range samples {
		if _, resident := shared[wf]; !resident {
			required += cost
		}
	}
	if used+required > a.memory {
		a.recordUploadError()
		return &hardware.OutOfWaveformMemoryError{Required: required, Available: a.memory - used}
	}

	start := time.Now()
	if err := entry.Sample(0); err != nil {
		a.recordUploadError()
		return err
	}

	if previous != nil {
		a.release(previous)
		if a.armed == name {
			a.armed = ""
		}
	}
	for wf, cost := range samples {
		if a.refcounts[wf] == 0 {
			a.usedSamples += cost
		}
		a.refcounts[wf]++
	}
	a.programs[name] = &programRecord{
		entry:    entry,
		prog:     prog,
		channels: append([]waveform.ChannelID(nil), channels...),
		markers:  append([]waveform.ChannelID(nil), markers...),
		samples:  samples,
	}

	if a.metrics != nil {
		a.metrics.RecordUpload(a.identifier, time.Since(start))
		a.metrics.SetWaveformMemory(a.identifier, float64(a.usedSamples))
		a.metrics.SetResidentPrograms(a.identifier, float64(len(a.programs)))
	}
	a.debugf("uploaded %q, %d distinct waveforms, %d/%d samples used",
		name, len(waveforms), a.usedSamples, a.memory)
	return nil
}

// Remove deletes a program and frees waveforms only it referenced.
func (a *AWG) Remove(name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	record, ok := a.programs[name]
	if !ok {
		return &hardware.NoSuchProgramError{Name: name}
	}
	a.release(record)
	delete(a.programs, name)
	if a.armed == name {
		a.armed = ""
	}

	if a.metrics != nil {
		a.metrics.RecordRemoval(a.identifier)
		a.metrics.SetWaveformMemory(a.identifier, float64(a.usedSamples))
		a.metrics.SetResidentPrograms(a.identifier, float64(len(a.programs)))
	}
	a.debugf("removed %q, %d/%d samples used", name, a.usedSamples, a.memory)
	return nil
}

// Clear deletes all programs and waveforms and disarms the device.
func (a *AWG) Clear() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.programs = make(map[string]*programRecord)
	a.refcounts = make(map[waveform.Waveform]int)
	a.usedSamples = 0
	a.armed = ""

	if a.metrics != nil {
		a.metrics.SetWaveformMemory(a.identifier, 0)
		a.metrics.SetResidentPrograms(a.identifier, 0)
	}
	return nil
}

// Arm selects the program started by the next trigger; the empty name
// disarms the device.
func (a *AWG) Arm(name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if name != "" {
		if _, ok := a.programs[name]; !ok {
			return &hardware.NoSuchProgramError{Name: name}
		}
	}
	a.armed = name
	if a.metrics != nil {
		a.metrics.RecordArm(a.identifier)
	}
	return nil
}

// Armed returns the currently armed program name, or the empty string.
func (a *AWG) Armed() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.armed
}

// Programs returns the uploaded program names in sorted order.
func (a *AWG) Programs() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	names := make([]string, 0, len(a.programs))
	for name := range a.programs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MemoryUsage returns the occupied and total waveform memory in samples.
func (a *AWG) MemoryUsage() (used, total int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.usedSamples, a.memory
}

// ProgramEntry returns the sampled entry of an uploaded program.
func (a *AWG) ProgramEntry(name string) (*hardware.ProgramEntry, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	record, ok := a.programs[name]
	if !ok {
		return nil, false
	}
	return record.entry, true
}

// equivalentUpload reports whether the resident record already holds this
// exact upload, making it a no-op.
func (a *AWG) equivalentUpload(record *programRecord, prog *program.Loop,
	channels, markers []waveform.ChannelID) bool {
	return channelsEqual(record.channels, channels) &&
		channelsEqual(record.markers, markers) &&
		loopEqual(record.prog, prog)
}

// usedAfterRelease computes the memory usage and the resident waveform set
// as they would look once previous is released. It does not mutate state.
func (a *AWG) usedAfterRelease(previous *programRecord) (int, map[waveform.Waveform]struct{}) {
	used := a.usedSamples
	resident := make(map[waveform.Waveform]struct{}, len(a.refcounts))
	for wf := range a.refcounts {
		resident[wf] = struct{}{}
	}
	if previous != nil {
		for wf, cost := range previous.samples {
			if a.refcounts[wf] == 1 {
				used -= cost
				delete(resident, wf)
			}
		}
	}
	return used, resident
}

// release drops one reference per waveform of record and frees the memory
// of waveforms that reach zero references.
func (a *AWG) release(record *programRecord) {
	for wf, cost := range record.samples {
		a.refcounts[wf]--
		if a.refcounts[wf] <= 0 {
			delete(a.refcounts, wf)
			a.usedSamples -= cost
		}
	}
}

func (a *AWG) recordUploadError() {
	if a.metrics != nil {
		a.metrics.RecordUploadError(a.identifier)
	}
}

func (a *AWG) debugf(format string, args ...interface{}) {
	if a.logger != nil {
		a.logger.Debugf(format, args...)
	}
}

// checkChannelCoverage verifies that every channel the program plays is
// assigned to a channel or marker slot.
func checkChannelCoverage(prog *program.Loop, channels, markers []waveform.ChannelID) error {
	assigned := make(map[waveform.ChannelID]struct{}, len(channels)+len(markers))
	for _, ch := range channels {
		if ch != "" {
			assigned[ch] = struct{}{}
		}
	}
	for _, ch := range markers {
		if ch != "" {
			assigned[ch] = struct{}{}
		}
	}
	for _, leaf := range prog.Leaves() {
		wf := leaf.Waveform()
		if wf == nil {
			continue
		}
		for _, ch := range wf.DefinedChannels().Sorted() {
			if _, ok := assigned[ch]; !ok {
				return &hardware.ChannelNotFoundError{Channel: ch}
			}
		}
	}
	return nil
}

// channelsEqual compares two slot assignments.
func channelsEqual(a, b []waveform.ChannelID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// loopEqual compares two program trees structurally: repetition counts,
// waveform compare keys and child shape.
func loopEqual(a, b *program.Loop) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.RepetitionCount() != b.RepetitionCount() {
		return false
	}
	if !waveform.Equal(a.Waveform(), b.Waveform()) {
		return false
	}
	ac, bc := a.Children(), b.Children()
	if len(ac) != len(bc) {
		return false
	}
	for i := range ac {
		if !loopEqual(ac[i], bc[i]) {
			return false
		}
	}
	return true
}
