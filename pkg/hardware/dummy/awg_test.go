package dummy

import (
	"errors"
	"testing"

	"github.com/Nomos11/qupulse/pkg/hardware"
	"github.com/Nomos11/qupulse/pkg/program"
	"github.com/Nomos11/qupulse/pkg/waveform"
)

func constWf(t *testing.T, level float64, duration float64) waveform.Waveform {
	t.Helper()
	wf, err := waveform.ConstantFromMapping(waveform.TimeFromFloat(duration),
		map[waveform.ChannelID]float64{"A": level})
	if err != nil {
		t.Fatalf("Failed to build waveform: %v", err)
	}
	return wf
}

func singleLeafProgram(wf waveform.Waveform) *program.Loop {
	root := program.NewLoop(1)
	root.AppendWaveform(wf)
	return root
}

func newTestAWG(memory int) *AWG {
	return NewAWG("dev", 1, 0, waveform.TimeFromInt(1), memory)
}

func upload(t *testing.T, a *AWG, name string, prog *program.Loop) {
	t.Helper()
	if err := a.Upload(name, prog, []waveform.ChannelID{"A"}, nil, nil, false); err != nil {
		t.Fatalf("Failed to upload %q: %v", name, err)
	}
}

func TestAWG_UploadAndPrograms(t *testing.T) {
	a := newTestAWG(100)
	upload(t, a, "p1", singleLeafProgram(constWf(t, 1, 10)))
	upload(t, a, "p2", singleLeafProgram(constWf(t, 2, 10)))

	programs := a.Programs()
	if len(programs) != 2 || programs[0] != "p1" || programs[1] != "p2" {
		t.Errorf("Expected programs [p1 p2], got %v", programs)
	}
	used, total := a.MemoryUsage()
	if used != 20 || total != 100 {
		t.Errorf("Expected 20/100 samples used, got %d/%d", used, total)
	}

	entry, ok := a.ProgramEntry("p1")
	if !ok {
		t.Fatal("Expected a sampled entry for p1")
	}
	if len(entry.Waveforms()) != 1 {
		t.Errorf("Expected 1 distinct waveform, got %d", len(entry.Waveforms()))
	}
}

func TestAWG_UploadChannelCountMismatch(t *testing.T) {
	a := newTestAWG(100)
	err := a.Upload("p", singleLeafProgram(constWf(t, 1, 4)),
		[]waveform.ChannelID{"A", "B"}, nil, nil, false)
	if err == nil {
		t.Error("Expected an error for a wrong channel slot count")
	}
}

func TestAWG_OverwriteRequiresForce(t *testing.T) {
	a := newTestAWG(100)
	upload(t, a, "p", singleLeafProgram(constWf(t, 1, 10)))

	other := singleLeafProgram(constWf(t, 2, 10))
	err := a.Upload("p", other, []waveform.ChannelID{"A"}, nil, nil, false)
	var overwrite *hardware.ProgramOverwriteError
	if !errors.As(err, &overwrite) {
		t.Fatalf("Expected ProgramOverwriteError, got %v", err)
	}

	if err := a.Upload("p", other, []waveform.ChannelID{"A"}, nil, nil, true); err != nil {
		t.Fatalf("Expected force overwrite to succeed, got %v", err)
	}
	if used, _ := a.MemoryUsage(); used != 10 {
		t.Errorf("Expected the overwritten waveforms to be freed, got %d samples used", used)
	}
}

func TestAWG_EquivalentUploadIsNoop(t *testing.T) {
	a := newTestAWG(100)
	upload(t, a, "p", singleLeafProgram(constWf(t, 1, 10)))

	// Structurally identical program built from distinct instances.
	err := a.Upload("p", singleLeafProgram(constWf(t, 1, 10)),
		[]waveform.ChannelID{"A"}, nil, nil, false)
	if err != nil {
		t.Fatalf("Expected an equivalent upload to be a no-op, got %v", err)
	}
	if used, _ := a.MemoryUsage(); used != 10 {
		t.Errorf("Expected memory usage to stay at 10 samples, got %d", used)
	}
}

func TestAWG_OutOfMemoryLeavesStateUntouched(t *testing.T) {
	a := newTestAWG(15)
	upload(t, a, "p1", singleLeafProgram(constWf(t, 1, 10)))

	err := a.Upload("p2", singleLeafProgram(constWf(t, 2, 10)),
		[]waveform.ChannelID{"A"}, nil, nil, false)
	var oom *hardware.OutOfWaveformMemoryError
	if !errors.As(err, &oom) {
		t.Fatalf("Expected OutOfWaveformMemoryError, got %v", err)
	}
	if oom.Required != 10 || oom.Available != 5 {
		t.Errorf("Expected 10 required / 5 available, got %d/%d", oom.Required, oom.Available)
	}

	if programs := a.Programs(); len(programs) != 1 || programs[0] != "p1" {
		t.Errorf("Expected only p1 to stay resident, got %v", programs)
	}
	if used, _ := a.MemoryUsage(); used != 10 {
		t.Errorf("Expected 10 samples used, got %d", used)
	}
}

func TestAWG_ForceOverwriteReusesFreedMemory(t *testing.T) {
	a := newTestAWG(12)
	upload(t, a, "p", singleLeafProgram(constWf(t, 1, 10)))

	// Would not fit next to the resident program, but fits once the old
	// waveforms are released.
	err := a.Upload("p", singleLeafProgram(constWf(t, 2, 12)),
		[]waveform.ChannelID{"A"}, nil, nil, true)
	if err != nil {
		t.Fatalf("Expected the overwrite to fit after release, got %v", err)
	}
	if used, _ := a.MemoryUsage(); used != 12 {
		t.Errorf("Expected 12 samples used, got %d", used)
	}
}

func TestAWG_SharedWaveformsAreStoredOnce(t *testing.T) {
	a := newTestAWG(100)
	shared := constWf(t, 1, 10)
	upload(t, a, "p1", singleLeafProgram(shared))
	upload(t, a, "p2", singleLeafProgram(shared))

	if used, _ := a.MemoryUsage(); used != 10 {
		t.Errorf("Expected the shared waveform to be stored once, got %d samples", used)
	}

	if err := a.Remove("p1"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if used, _ := a.MemoryUsage(); used != 10 {
		t.Errorf("Expected the shared waveform to survive one removal, got %d samples", used)
	}

	if err := a.Remove("p2"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if used, _ := a.MemoryUsage(); used != 0 {
		t.Errorf("Expected all memory to be freed, got %d samples", used)
	}
}

func TestAWG_RemoveUnknown(t *testing.T) {
	a := newTestAWG(100)
	err := a.Remove("ghost")
	var missing *hardware.NoSuchProgramError
	if !errors.As(err, &missing) {
		t.Fatalf("Expected NoSuchProgramError, got %v", err)
	}
}

func TestAWG_ArmAndDisarm(t *testing.T) {
	a := newTestAWG(100)
	upload(t, a, "p", singleLeafProgram(constWf(t, 1, 4)))

	if err := a.Arm("ghost"); err == nil {
		t.Error("Expected an error when arming an unknown program")
	}
	if err := a.Arm("p"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if a.Armed() != "p" {
		t.Errorf("Expected %q to be armed, got %q", "p", a.Armed())
	}
	if err := a.Arm(""); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if a.Armed() != "" {
		t.Errorf("Expected the device to be disarmed, got %q", a.Armed())
	}
}

func TestAWG_RemoveDisarms(t *testing.T) {
	a := newTestAWG(100)
	upload(t, a, "p", singleLeafProgram(constWf(t, 1, 4)))
	if err := a.Arm("p"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := a.Remove("p"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if a.Armed() != "" {
		t.Errorf("Expected removal to disarm the device, got %q", a.Armed())
	}
}

func TestAWG_Clear(t *testing.T) {
	a := newTestAWG(100)
	upload(t, a, "p1", singleLeafProgram(constWf(t, 1, 4)))
	upload(t, a, "p2", singleLeafProgram(constWf(t, 2, 4)))
	if err := a.Arm("p1"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if err := a.Clear(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(a.Programs()) != 0 {
		t.Errorf("Expected no programs after clear, got %v", a.Programs())
	}
	if used, _ := a.MemoryUsage(); used != 0 {
		t.Errorf("Expected 0 samples used after clear, got %d", used)
	}
	if a.Armed() != "" {
		t.Errorf("Expected clear to disarm the device, got %q", a.Armed())
	}
}

func TestAWG_UnassignedProgramChannel(t *testing.T) {
	a := newTestAWG(100)
	wf, err := waveform.ConstantFromMapping(waveform.TimeFromFloat(4),
		map[waveform.ChannelID]float64{"B": 1})
	if err != nil {
		t.Fatalf("Failed to build waveform: %v", err)
	}

	err = a.Upload("p", singleLeafProgram(wf), []waveform.ChannelID{"A"}, nil, nil, false)
	var notFound *hardware.ChannelNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Expected ChannelNotFoundError, got %v", err)
	}
	if notFound.Channel != "B" {
		t.Errorf("Expected channel B in error, got %q", notFound.Channel)
	}
	if len(a.Programs()) != 0 {
		t.Errorf("Expected no resident programs, got %v", a.Programs())
	}
}

func TestAWG_AmplitudeOffsetHandling(t *testing.T) {
	a := newTestAWG(100)
	if got := a.AmplitudeOffsetHandling(); got != hardware.IgnoreOffset {
		t.Errorf("Expected default handling ignore_offset, got %q", got)
	}

	if err := a.SetAmplitudeOffsetHandling(hardware.ConsiderOffset); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := a.AmplitudeOffsetHandling(); got != hardware.ConsiderOffset {
		t.Errorf("Expected consider_offset, got %q", got)
	}

	err := a.SetAmplitudeOffsetHandling("subtract")
	var invalid *hardware.InvalidAmplitudeOffsetHandlingError
	if !errors.As(err, &invalid) {
		t.Fatalf("Expected InvalidAmplitudeOffsetHandlingError, got %v", err)
	}
	if got := a.AmplitudeOffsetHandling(); got != hardware.ConsiderOffset {
		t.Errorf("Expected handling to be unchanged, got %q", got)
	}
}
