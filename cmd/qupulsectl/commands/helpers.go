package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Nomos11/qupulse/pkg/config"
	"github.com/Nomos11/qupulse/pkg/hardware"
	"github.com/Nomos11/qupulse/pkg/hardware/dummy"
	"github.com/Nomos11/qupulse/pkg/program"
	"github.com/Nomos11/qupulse/pkg/pulses"
	"github.com/Nomos11/qupulse/pkg/sequencing"
	"github.com/Nomos11/qupulse/pkg/serialization"
	"github.com/Nomos11/qupulse/pkg/stores"
	"github.com/Nomos11/qupulse/pkg/waveform"
)

// loadSetup reads the setup file named by the global --setup flag.
func loadSetup() (*config.SetupConfig, error) {
	if setupPath == "" {
		return nil, fmt.Errorf("no setup file given, use --setup")
	}
	return config.NewLoader().Load(setupPath)
}

// findDevice resolves a device identifier in the setup.
func findDevice(cfg *config.SetupConfig, identifier string) (*config.DeviceConfig, error) {
	for i := range cfg.Devices {
		if cfg.Devices[i].Identifier == identifier {
			return &cfg.Devices[i], nil
		}
	}
	return nil, fmt.Errorf("device %q is not in the setup", identifier)
}

// openStore opens and migrates the template database of the setup.
func openStore(ctx context.Context, cfg *config.SetupConfig) (*stores.SQLiteStore, error) {
	path := cfg.Storage.Path
	if path == "" {
		path = "qupulse.db"
	}
	store, err := stores.NewSQLiteStore(stores.Config{Path: path})
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// loadTemplate deserializes a template from a YAML file. Sibling files in
// the same directory resolve cross references.
func loadTemplate(path string) (pulses.PulseTemplate, error) {
	dir := filepath.Dir(path)
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	backend, err := serialization.NewFileBackend(dir)
	if err != nil {
		return nil, err
	}
	obj, err := serialization.NewSerializer(backend).Deserialize(name)
	if err != nil {
		return nil, err
	}
	template, ok := obj.(pulses.PulseTemplate)
	if !ok {
		return nil, fmt.Errorf("%q does not contain a pulse template", path)
	}
	return template, nil
}

// parseParameters converts repeated name=value flags into a value map.
func parseParameters(args []string) (map[string]float64, error) {
	values := make(map[string]float64, len(args))
	for _, arg := range args {
		name, raw, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("invalid parameter %q, want name=value", arg)
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value for parameter %q: %w", name, err)
		}
		values[name] = value
	}
	return values, nil
}

// buildLoop sequences a template under constant parameter bindings into a
// playback tree.
func buildLoop(template pulses.PulseTemplate, values map[string]float64) (*program.Loop, error) {
	sequencer := sequencing.NewSequencer()
	sequencer.Push(nil, template, pulses.ParametersFromValues(values), nil, nil, nil)
	block, err := sequencer.Build()
	if err != nil {
		return nil, err
	}
	if !sequencer.HasFinished() {
		return nil, fmt.Errorf("sequencing suspended, a parameter binding is not evaluable")
	}
	return sequencing.RenderLoop(block)
}

// slotAssignment turns a comma separated channel list into a slot
// assignment of exactly the device slot count; missing slots stay
// unassigned. Without a request the defined channels fill slots in order.
func slotAssignment(requested string, defined []waveform.ChannelID, slots int) ([]waveform.ChannelID, error) {
	var assignment []waveform.ChannelID
	if requested != "" {
		for _, name := range strings.Split(requested, ",") {
			assignment = append(assignment, waveform.ChannelID(strings.TrimSpace(name)))
		}
	} else {
		assignment = append(assignment, defined...)
	}
	if len(assignment) > slots {
		return nil, fmt.Errorf("%d slot assignments for %d device slots", len(assignment), slots)
	}
	for len(assignment) < slots {
		assignment = append(assignment, "")
	}
	return assignment, nil
}

// newDeviceAWG creates the in-memory device described by the setup entry.
func newDeviceAWG(device *config.DeviceConfig) *dummy.AWG {
	var opts []dummy.Option
	if device.AmplitudeOffsetHandling != "" {
		opts = append(opts, dummy.WithAmplitudeOffsetHandling(
			hardware.AmplitudeOffsetHandling(device.AmplitudeOffsetHandling)))
	}
	awg := dummy.NewAWG(device.Identifier, device.Channels, device.Markers,
		waveform.TimeFromFloat(device.SampleRate), device.MemorySamples, opts...)
	for slot, amplitude := range device.Amplitudes {
		awg.SetChannelAmplitude(slot, amplitude)
	}
	for slot, offset := range device.Offsets {
		awg.SetChannelOffset(slot, offset)
	}
	return awg
}

func slotStrings(assignment []waveform.ChannelID) []string {
	out := make([]string, len(assignment))
	for i, ch := range assignment {
		out[i] = string(ch)
	}
	return out
}
