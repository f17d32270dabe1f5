package hardware

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/Nomos11/qupulse/pkg/program"
	"github.com/Nomos11/qupulse/pkg/waveform"
)

// SampledSegment holds the sample data of one waveform: one voltage array
// per analog slot and one boolean array per marker slot. Unassigned slots
// carry nil.
type SampledSegment struct {
	Channels [][]float64
	Markers  [][]bool
	Length   int
}

// ProgramEntry binds a compiled program to a device channel configuration
// and samples its distinct waveforms into upload-ready segments.
type ProgramEntry struct {
	program         *program.Loop
	channels        []waveform.ChannelID
	markers         []waveform.ChannelID
	amplitudes      []float64
	offsets         []float64
	transformations []VoltageTransformation
	handling        AmplitudeOffsetHandling
	sampleRate      waveform.TimeType

	waveforms []waveform.Waveform
	segments  map[waveform.Waveform]*SampledSegment
}

// NewProgramEntry prepares a program for sampling. The i-th channel,
// amplitude, offset and transformation belong to hardware slot i; the
// slices must have equal length and length mismatches are programming
// errors that panic. A nil transformations slice means identity for every
// slot.
func NewProgramEntry(prog *program.Loop, channels, markers []waveform.ChannelID,
	amplitudes, offsets []float64, transformations []VoltageTransformation,
	handling AmplitudeOffsetHandling, sampleRate waveform.TimeType) (*ProgramEntry, error) {

	if len(amplitudes) != len(channels) {
		panic(fmt.Sprintf("hardware: %d channels but %d amplitudes", len(channels), len(amplitudes)))
	}
	if len(offsets) != len(channels) {
		panic(fmt.Sprintf("hardware: %d channels but %d offsets", len(channels), len(offsets)))
	}
	if transformations == nil {
		transformations = make([]VoltageTransformation, len(channels))
	}
	if len(transformations) != len(channels) {
		panic(fmt.Sprintf("hardware: %d channels but %d transformations", len(channels), len(transformations)))
	}
	if err := handling.Validate(); err != nil {
		return nil, err
	}
	for i, amplitude := range amplitudes {
		if channels[i] != "" && amplitude == 0 {
			return nil, fmt.Errorf("channel slot %d has zero amplitude", i)
		}
	}

	return &ProgramEntry{
		program:         prog,
		channels:        channels,
		markers:         markers,
		amplitudes:      amplitudes,
		offsets:         offsets,
		transformations: transformations,
		handling:        handling,
		sampleRate:      sampleRate,
		waveforms:       dedupedWaveforms(prog),
		segments:        make(map[waveform.Waveform]*SampledSegment),
	}, nil
}

// Program returns the compiled program.
func (e *ProgramEntry) Program() *program.Loop {
	return e.program
}

// Waveforms returns the distinct waveforms in first-seen leaf order.
func (e *ProgramEntry) Waveforms() []waveform.Waveform {
	return e.waveforms
}

// Segment returns the sampled segment of wf after Sample has run.
func (e *ProgramEntry) Segment(wf waveform.Waveform) (*SampledSegment, bool) {
	segment, ok := e.segments[wf]
	return segment, ok
}

// TotalSamples returns the summed segment lengths over all distinct
// waveforms, the device memory cost of the entry.
func (e *ProgramEntry) TotalSamples() (int, error) {
	_, lengths, err := program.SampleTimes(e.waveforms, e.sampleRate)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, length := range lengths {
		total += length
	}
	return total, nil
}

// Sample computes the segments of all distinct waveforms on a shared time
// grid, distributing waveforms over up to maxParallel workers. A
// non-positive maxParallel uses one worker per CPU.
func (e *ProgramEntry) Sample(maxParallel int) error {
	if maxParallel <= 0 {
		maxParallel = runtime.NumCPU()
	}
	if len(e.waveforms) < maxParallel {
		maxParallel = len(e.waveforms)
	}
	if len(e.waveforms) == 0 {
		return nil
	}

	times, lengths, err := program.SampleTimes(e.waveforms, e.sampleRate)
	if err != nil {
		return err
	}

	segments := make([]*SampledSegment, len(e.waveforms))

	workQueue := make(chan int, len(e.waveforms))
	for i := range e.waveforms {
		workQueue <- i
	}
	close(workQueue)

	var wg sync.WaitGroup
	errChan := make(chan error, len(e.waveforms))
	for w := 0; w < maxParallel; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range workQueue {
				segment, err := e.sampleWaveform(e.waveforms[i], times[:lengths[i]])
				if err != nil {
					errChan <- fmt.Errorf("waveform %d: %w", i, err)
					continue
				}
				segments[i] = segment
			}
		}()
	}
	wg.Wait()
	close(errChan)

	for err := range errChan {
		return err
	}

	for i, wf := range e.waveforms {
		e.segments[wf] = segments[i]
	}
	return nil
}

// sampleWaveform samples one waveform over all hardware slots: sampled
// voltages pass the slot transformation, then the offset stage selected by
// the handling mode, then amplitude normalization. Marker samples are
// thresholded against zero.
func (e *ProgramEntry) sampleWaveform(wf waveform.Waveform, times []float64) (*SampledSegment, error) {
	segment := &SampledSegment{
		Channels: make([][]float64, len(e.channels)),
		Markers:  make([][]bool, len(e.markers)),
		Length:   len(times),
	}
	defined := wf.DefinedChannels()

	for slot, ch := range e.channels {
		if ch == "" {
			continue
		}
		samples := make([]float64, len(times))
		if defined.Contains(ch) {
			var err error
			samples, err = wf.Sample(ch, times, samples)
			if err != nil {
				return nil, err
			}
		}

		transformation := e.transformations[slot]
		offset := e.offsets[slot]
		amplitude := e.amplitudes[slot]
		for k, v := range samples {
			if transformation != nil {
				v = transformation(v)
			}
			if e.handling == ConsiderOffset {
				v -= offset
			}
			samples[k] = v / amplitude
		}
		segment.Channels[slot] = samples
	}

	for slot, ch := range e.markers {
		if ch == "" {
			continue
		}
		samples := make([]float64, len(times))
		if defined.Contains(ch) {
			var err error
			samples, err = wf.Sample(ch, times, samples)
			if err != nil {
				return nil, err
			}
		}
		marks := make([]bool, len(samples))
		for k, v := range samples {
			marks[k] = v != 0
		}
		segment.Markers[slot] = marks
	}

	return segment, nil
}
