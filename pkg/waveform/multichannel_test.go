package waveform

import (
	"errors"
	"testing"
)

func TestNewMultiChannelWaveform_Empty(t *testing.T) {
	_, err := NewMultiChannelWaveform(nil)
	if !errors.Is(err, ErrNoWaveforms) {
		t.Fatalf("Expected ErrNoWaveforms, got: %v", err)
	}

	_, err = NewMultiChannelWaveform([]Waveform{})
	if !errors.Is(err, ErrNoWaveforms) {
		t.Fatalf("Expected ErrNoWaveforms, got: %v", err)
	}
}

func TestNewMultiChannelWaveform_SingleChannel(t *testing.T) {
	wf, err := NewMultiChannelWaveform([]Waveform{newStub(1.3, "A")})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !wf.DefinedChannels().Equal(NewChannelSet("A")) {
		t.Errorf("Expected channels {A}, got %v", wf.DefinedChannels().Sorted())
	}
	if !wf.Duration().Equal(TimeFromFloat(1.3)) {
		t.Errorf("Expected duration 1.3, got %s", wf.Duration())
	}
}

func TestNewMultiChannelWaveform_SeveralChannels(t *testing.T) {
	a := newStub(2.2, "A")
	b := newStub(2.2, "B")
	c := newStub(2.3, "C")

	wf, err := NewMultiChannelWaveform([]Waveform{a, b})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !wf.DefinedChannels().Equal(NewChannelSet("A", "B")) {
		t.Errorf("Expected channels {A B}, got %v", wf.DefinedChannels().Sorted())
	}

	// Unequal durations fail.
	_, err = NewMultiChannelWaveform([]Waveform{a, c})
	var durationErr *DurationMismatchError
	if !errors.As(err, &durationErr) {
		t.Fatalf("Expected DurationMismatchError, got: %v", err)
	}

	// Overlapping channels fail.
	_, err = NewMultiChannelWaveform([]Waveform{a, newStub(2.2, "A")})
	var overlapErr *OverlappingChannelsError
	if !errors.As(err, &overlapErr) {
		t.Fatalf("Expected OverlappingChannelsError, got: %v", err)
	}
	if overlapErr.Channel != "A" {
		t.Errorf("Expected overlap on channel A, got %q", overlapErr.Channel)
	}
}

func TestNewMultiChannelWaveform_Flattening(t *testing.T) {
	a := newStub(2.2, "A")
	b := newStub(2.2, "B")
	c := newStub(2.2, "C")

	inner, err := NewMultiChannelWaveform([]Waveform{a, b})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	flat, err := NewMultiChannelWaveform([]Waveform{inner, c})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(flat.Components()) != 3 {
		t.Fatalf("Expected 3 flattened components, got %d", len(flat.Components()))
	}

	direct, err := NewMultiChannelWaveform([]Waveform{a, b, c})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !Equal(flat, direct) {
		t.Errorf("Expected flattened and direct construction to be equal:\n%s\n%s",
			flat.CompareKey(), direct.CompareKey())
	}
}

func TestMultiChannelWaveform_SampleDispatch(t *testing.T) {
	times := []float64{98.5, 99, 99.5, 100}
	a := newStub(3.2, "A")
	a.output = []float64{4, 4.25, 4.5, 4.75}
	b := newStub(3.2, "B", "C")
	b.output = []float64{2, 2.25, 2.5, 2.75}

	wf, err := NewMultiChannelWaveform([]Waveform{a, b})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	gotA, err := wf.Sample("A", times, nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	for i := range gotA {
		if gotA[i] != a.output[i] {
			t.Fatalf("Expected %v at index %d, got %v", a.output[i], i, gotA[i])
		}
	}

	if _, err := wf.Sample("B", times, nil); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(a.sampleCalls) != 1 || len(b.sampleCalls) != 1 {
		t.Fatalf("Expected exactly one dispatch per component, got %d and %d",
			len(a.sampleCalls), len(b.sampleCalls))
	}
	if a.sampleCalls[0].channel != "A" || b.sampleCalls[0].channel != "B" {
		t.Errorf("Expected dispatch to owning components, got %q and %q",
			a.sampleCalls[0].channel, b.sampleCalls[0].channel)
	}
	if a.sampleCalls[0].reuse != nil {
		t.Error("Expected nil reuse buffer to be forwarded unmodified")
	}

	// The reuse buffer is forwarded to the component and returned.
	reuse := make([]float64, len(times))
	got, err := wf.Sample("A", times, reuse)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if &got[0] != &reuse[0] {
		t.Error("Expected the reuse buffer to be returned")
	}
	if &a.sampleCalls[1].reuse[0] != &reuse[0] {
		t.Error("Expected the reuse buffer to be forwarded to the component")
	}

	_, err = wf.Sample("D", times, nil)
	var notFound *ChannelNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Expected ChannelNotFoundError, got: %v", err)
	}
	if notFound.Channel != "D" {
		t.Errorf("Expected missing channel D, got %q", notFound.Channel)
	}
}

func TestMultiChannelWaveform_Equality(t *testing.T) {
	a := newStub(246.2, "A")
	b := newStub(246.2, "B")
	c := newStub(246.2, "C")

	w1, _ := NewMultiChannelWaveform([]Waveform{a, b})
	w2, _ := NewMultiChannelWaveform([]Waveform{a, b})
	w3, _ := NewMultiChannelWaveform([]Waveform{a, c})

	if !Equal(w1, w1) {
		t.Error("Expected reflexive equality")
	}
	if !Equal(w1, w2) {
		t.Error("Expected equal component lists to compare equal")
	}
	if Equal(w1, w3) {
		t.Error("Expected distinct component lists to compare unequal")
	}
}

func TestMultiChannelWaveform_MeasurementWindows(t *testing.T) {
	a := newStub(246.2, "A")
	a.windows = []MeasurementWindow{{Name: "m1", Start: 1, Length: 2}, {Name: "m2", Start: 2, Length: 3}}
	b := newStub(246.2, "B")
	b.windows = []MeasurementWindow{{Name: "m3", Start: 3, Length: 4}, {Name: "m4", Start: 4, Length: 5}, {Name: "m5", Start: 5, Length: 6}}
	c := newStub(246.2, "C")

	wf, err := NewMultiChannelWaveform([]Waveform{a, b, c})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	windows := wf.MeasurementWindows()
	if len(windows) != 5 {
		t.Fatalf("Expected 5 windows, got %d", len(windows))
	}
	// Component order, then intra-component order.
	expected := []string{"m1", "m2", "m3", "m4", "m5"}
	for i, window := range windows {
		if window.Name != expected[i] {
			t.Errorf("Expected window %q at index %d, got %q", expected[i], i, window.Name)
		}
	}
}

func TestMultiChannelWaveform_SubsetForChannels(t *testing.T) {
	a := newStub(246.2, "A")
	b := newStub(246.2, "B")
	c := newStub(246.2, "C")

	wf, err := NewMultiChannelWaveform([]Waveform{a, b, c})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	var notFound *ChannelNotFoundError
	if _, err := wf.SubsetForChannels(NewChannelSet("D")); !errors.As(err, &notFound) {
		t.Fatalf("Expected ChannelNotFoundError, got: %v", err)
	}
	if _, err := wf.SubsetForChannels(NewChannelSet("A", "D")); !errors.As(err, &notFound) {
		t.Fatalf("Expected ChannelNotFoundError, got: %v", err)
	}
	if notFound.Channel != "D" {
		t.Errorf("Expected missing channel D, got %q", notFound.Channel)
	}

	// A subset matching one component's channel set is that exact component.
	for ch, want := range map[ChannelID]Waveform{"A": a, "B": b, "C": c} {
		got, err := wf.SubsetForChannels(NewChannelSet(ch))
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if got != want {
			t.Errorf("Expected identity-preserving subset for channel %q", ch)
		}
	}

	// A subset spanning two components is a new multi-channel waveform over
	// exactly those components.
	sub, err := wf.SubsetForChannels(NewChannelSet("A", "B"))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	multi, ok := sub.(*MultiChannelWaveform)
	if !ok {
		t.Fatalf("Expected MultiChannelWaveform, got %T", sub)
	}
	if !multi.DefinedChannels().Equal(NewChannelSet("A", "B")) {
		t.Errorf("Expected channels {A B}, got %v", multi.DefinedChannels().Sorted())
	}
	gotA, err := multi.SubsetForChannels(NewChannelSet("A"))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if gotA != Waveform(a) {
		t.Error("Expected component identity to survive nested subsetting")
	}
}
