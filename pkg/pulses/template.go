package pulses

import (
	"sort"

	"github.com/Nomos11/qupulse/pkg/expressions"
	"github.com/Nomos11/qupulse/pkg/sequencing"
	"github.com/Nomos11/qupulse/pkg/waveform"
)

// PulseTemplate is a parametrized, symbolic description of a pulse program
// prior to concrete sampling. Atomic variants sample directly to one
// waveform, composite variants delegate to children; both are dispatched
// through this interface.
type PulseTemplate interface {
	sequencing.SequencingElement

	// Identifier returns the optional name of the template.
	Identifier() string

	// ParameterNames returns the free parameter names of the template.
	ParameterNames() map[string]struct{}

	// MeasurementNames returns the measurement names declared below the
	// template.
	MeasurementNames() map[string]struct{}

	// DefinedChannels returns the channels the template produces.
	DefinedChannels() waveform.ChannelSet

	// Duration returns the symbolic duration expression, or nil when the
	// template has no single well-defined duration.
	Duration() *expressions.Expression

	// IsInterruptable reports whether playback may be interrupted between
	// internal steps.
	IsInterruptable() bool
}

// AtomicPulseTemplate is a template that compiles directly to one waveform
// with no internal branching.
type AtomicPulseTemplate interface {
	PulseTemplate

	// BuildWaveform samples the template under a concrete parameter
	// binding. The channel mapping renames defined channels to output
	// channels; unmapped channels keep their name.
	BuildWaveform(parameters map[string]float64, channelMapping map[waveform.ChannelID]waveform.ChannelID) (waveform.Waveform, error)
}

// IsAtomic reports whether the template compiles to a single waveform.
// A mapping wrapper is atomic exactly when its inner template is.
func IsAtomic(t PulseTemplate) bool {
	if m, ok := t.(*MappingTemplate); ok {
		return IsAtomic(m.template)
	}
	_, ok := t.(AtomicPulseTemplate)
	return ok
}

// newSet builds a string set.
func newSet(names ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

func union(sets ...map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{})
	for _, set := range sets {
		for name := range set {
			out[name] = struct{}{}
		}
	}
	return out
}

func sortedNames(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// mapChannel applies an optional channel renaming.
func mapChannel(mapping map[waveform.ChannelID]waveform.ChannelID, ch waveform.ChannelID) waveform.ChannelID {
	if mapped, ok := mapping[ch]; ok {
		return mapped
	}
	return ch
}

// evaluateParameters resolves the named parameters of a binding to
// concrete values.
func evaluateParameters(parameters map[string]sequencing.Parameter, names map[string]struct{}) (map[string]float64, error) {
	values := make(map[string]float64, len(names))
	for _, name := range sortedNames(names) {
		parameter, ok := parameters[name]
		if !ok {
			return nil, &ParameterNotProvidedError{Name: name}
		}
		value, err := parameter.Get()
		if err != nil {
			return nil, err
		}
		values[name] = value
	}
	return values, nil
}

// anyRequiresStop reports whether any of the named parameters cannot be
// evaluated yet.
func anyRequiresStop(parameters map[string]sequencing.Parameter, names map[string]struct{}) bool {
	for name := range names {
		if parameter, ok := parameters[name]; ok && parameter.RequiresStop() {
			return true
		}
	}
	return false
}
