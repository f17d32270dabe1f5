package hardware

import (
	"testing"

	"github.com/Nomos11/qupulse/pkg/program"
	"github.com/Nomos11/qupulse/pkg/waveform"
)

func constWf(t *testing.T, levels map[waveform.ChannelID]float64, duration float64) waveform.Waveform {
	t.Helper()
	wf, err := waveform.ConstantFromMapping(waveform.TimeFromFloat(duration), levels)
	if err != nil {
		t.Fatalf("Failed to build waveform: %v", err)
	}
	return wf
}

func TestAmplitudeOffsetHandling_Validate(t *testing.T) {
	if err := IgnoreOffset.Validate(); err != nil {
		t.Errorf("Expected %q to validate, got %v", IgnoreOffset, err)
	}
	if err := ConsiderOffset.Validate(); err != nil {
		t.Errorf("Expected %q to validate, got %v", ConsiderOffset, err)
	}
	if err := AmplitudeOffsetHandling("bogus").Validate(); err == nil {
		t.Error("Expected an error for an unknown handling mode")
	}
}

func TestDedupedWaveforms_Identity(t *testing.T) {
	shared := constWf(t, map[waveform.ChannelID]float64{"A": 1}, 4)
	// Structurally equal to shared but a distinct instance.
	twin := constWf(t, map[waveform.ChannelID]float64{"A": 1}, 4)

	root := program.NewLoop(1)
	root.AppendWaveform(shared)
	root.AppendWaveform(shared)
	root.AppendWaveform(twin)

	waveforms := dedupedWaveforms(root)
	if len(waveforms) != 2 {
		t.Fatalf("Expected 2 distinct waveforms, got %d", len(waveforms))
	}
	if waveforms[0] != shared || waveforms[1] != twin {
		t.Error("Expected first-seen leaf order to be preserved")
	}
}

func TestNewProgramEntry_LengthMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected a panic for mismatched slice lengths")
		}
	}()

	root := program.NewLoop(1)
	_, _ = NewProgramEntry(root, []waveform.ChannelID{"A", "B"}, nil,
		[]float64{1}, []float64{0, 0}, nil, IgnoreOffset, waveform.TimeFromInt(1))
}

func TestNewProgramEntry_ZeroAmplitude(t *testing.T) {
	root := program.NewLoop(1)
	_, err := NewProgramEntry(root, []waveform.ChannelID{"A"}, nil,
		[]float64{0}, []float64{0}, nil, IgnoreOffset, waveform.TimeFromInt(1))
	if err == nil {
		t.Error("Expected an error for a zero amplitude on an assigned slot")
	}
}

func TestNewProgramEntry_InvalidHandling(t *testing.T) {
	root := program.NewLoop(1)
	_, err := NewProgramEntry(root, []waveform.ChannelID{"A"}, nil,
		[]float64{1}, []float64{0}, nil, AmplitudeOffsetHandling("bogus"), waveform.TimeFromInt(1))
	if err == nil {
		t.Error("Expected an error for an invalid handling mode")
	}
}

func TestProgramEntry_SamplePipeline(t *testing.T) {
	wf := constWf(t, map[waveform.ChannelID]float64{"A": 2}, 4)
	root := program.NewLoop(1)
	root.AppendWaveform(wf)

	tests := []struct {
		name     string
		handling AmplitudeOffsetHandling
		want     float64
	}{
		{"ignore offset", IgnoreOffset, 2.5},
		{"consider offset", ConsiderOffset, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, err := NewProgramEntry(root, []waveform.ChannelID{"A"}, nil,
				[]float64{2}, []float64{1},
				[]VoltageTransformation{func(v float64) float64 { return v + 3 }},
				tt.handling, waveform.TimeFromInt(1))
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if err := entry.Sample(1); err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			segment, ok := entry.Segment(wf)
			if !ok {
				t.Fatal("Expected a segment for the program waveform")
			}
			if segment.Length != 4 {
				t.Fatalf("Expected 4 samples, got %d", segment.Length)
			}
			for i, v := range segment.Channels[0] {
				if v != tt.want {
					t.Errorf("Expected sample %d to be %g, got %g", i, tt.want, v)
				}
			}
		})
	}
}

func TestProgramEntry_UnassignedAndUndefinedSlots(t *testing.T) {
	wf := constWf(t, map[waveform.ChannelID]float64{"A": 1}, 2)
	root := program.NewLoop(1)
	root.AppendWaveform(wf)

	entry, err := NewProgramEntry(root, []waveform.ChannelID{"A", "", "B"}, nil,
		[]float64{1, 1, 1}, []float64{0, 0, 0}, nil, IgnoreOffset, waveform.TimeFromInt(1))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := entry.Sample(0); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	segment, _ := entry.Segment(wf)
	if segment.Channels[1] != nil {
		t.Error("Expected the unassigned slot to stay nil")
	}
	if segment.Channels[2] == nil {
		t.Fatal("Expected the undefined channel slot to be sampled")
	}
	for i, v := range segment.Channels[2] {
		if v != 0 {
			t.Errorf("Expected zero fill at sample %d, got %g", i, v)
		}
	}
}

func TestProgramEntry_Markers(t *testing.T) {
	wf, err := waveform.NewTableWaveform("M", []waveform.TableEntry{
		{Time: 0, Voltage: 0},
		{Time: 2, Voltage: 2},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	root := program.NewLoop(1)
	root.AppendWaveform(wf)

	entry, err := NewProgramEntry(root, nil, []waveform.ChannelID{"M", ""},
		nil, nil, nil, IgnoreOffset, waveform.TimeFromInt(1))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := entry.Sample(1); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	segment, _ := entry.Segment(wf)
	marks := segment.Markers[0]
	if len(marks) != 2 {
		t.Fatalf("Expected 2 marker samples, got %d", len(marks))
	}
	if marks[0] != false || marks[1] != true {
		t.Errorf("Expected thresholded markers [false true], got %v", marks)
	}
	if segment.Markers[1] != nil {
		t.Error("Expected the unassigned marker slot to stay nil")
	}
}

func TestProgramEntry_TotalSamples(t *testing.T) {
	a := constWf(t, map[waveform.ChannelID]float64{"A": 1}, 4)
	b := constWf(t, map[waveform.ChannelID]float64{"A": 2}, 6)
	root := program.NewLoop(1)
	root.AppendWaveform(a)
	root.AppendWaveform(b)
	root.AppendWaveform(a)

	entry, err := NewProgramEntry(root, []waveform.ChannelID{"A"}, nil,
		[]float64{1}, []float64{0}, nil, IgnoreOffset, waveform.TimeFromInt(1))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	total, err := entry.TotalSamples()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if total != 10 {
		t.Errorf("Expected 10 total samples, got %d", total)
	}
}
