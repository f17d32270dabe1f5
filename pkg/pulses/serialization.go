package pulses

import (
	"fmt"

	"github.com/Nomos11/qupulse/pkg/serialization"
	"github.com/Nomos11/qupulse/pkg/waveform"
)

// Type tags of the template registry.
const (
	TagConstantPulseTemplate      = "constant_pulse_template"
	TagTablePulseTemplate         = "table_pulse_template"
	TagMappingTemplate            = "mapping_pulse_template"
	TagAtomicMultiChannelTemplate = "atomic_multi_channel_pulse_template"
	TagMultiChannelPulseTemplate  = "multi_channel_pulse_template"
)

func init() {
	serialization.Register(TagConstantPulseTemplate, deserializeConstantPulseTemplate)
	serialization.Register(TagTablePulseTemplate, deserializeTablePulseTemplate)
	serialization.Register(TagMappingTemplate, deserializeMappingTemplate)
	serialization.Register(TagAtomicMultiChannelTemplate, deserializeAtomicMultiChannelTemplate)
	serialization.Register(TagMultiChannelPulseTemplate, deserializeMultiChannelPulseTemplate)
}

// TypeTag implements serialization.Serializable.
func (t *ConstantPulseTemplate) TypeTag() string { return TagConstantPulseTemplate }

// SerializationData implements serialization.Serializable.
func (t *ConstantPulseTemplate) SerializationData(s *serialization.Serializer) (map[string]any, error) {
	return map[string]any{
		"identifier": t.identifier,
		"channel":    string(t.channel),
		"level":      t.level.String(),
		"duration":   t.duration.String(),
	}, nil
}

func deserializeConstantPulseTemplate(s *serialization.Serializer, data map[string]any) (serialization.Serializable, error) {
	channel, err := stringField(data, "channel")
	if err != nil {
		return nil, err
	}
	level, err := stringField(data, "level")
	if err != nil {
		return nil, err
	}
	duration, err := stringField(data, "duration")
	if err != nil {
		return nil, err
	}
	identifier, _ := data["identifier"].(string)
	return NewConstantPulseTemplate(waveform.ChannelID(channel), level, duration, identifier)
}

// TypeTag implements serialization.Serializable.
func (t *TablePulseTemplate) TypeTag() string { return TagTablePulseTemplate }

// SerializationData implements serialization.Serializable.
func (t *TablePulseTemplate) SerializationData(s *serialization.Serializer) (map[string]any, error) {
	entries := make([]any, 0, len(t.entries))
	for _, entry := range t.entries {
		entries = append(entries, []any{entry.Time.String(), entry.Voltage.String()})
	}
	return map[string]any{
		"identifier": t.identifier,
		"channel":    string(t.channel),
		"entries":    entries,
	}, nil
}

func deserializeTablePulseTemplate(s *serialization.Serializer, data map[string]any) (serialization.Serializable, error) {
	channel, err := stringField(data, "channel")
	if err != nil {
		return nil, err
	}
	rawEntries, ok := data["entries"].([]any)
	if !ok {
		return nil, fmt.Errorf("field %q is not a list", "entries")
	}
	entries := make([][2]string, 0, len(rawEntries))
	for _, raw := range rawEntries {
		pair, ok := raw.([]any)
		if !ok || len(pair) != 2 {
			return nil, fmt.Errorf("table entry %v is not a pair", raw)
		}
		time, ok := pair[0].(string)
		if !ok {
			return nil, fmt.Errorf("table entry time %v is not a string", pair[0])
		}
		voltage, ok := pair[1].(string)
		if !ok {
			return nil, fmt.Errorf("table entry voltage %v is not a string", pair[1])
		}
		entries = append(entries, [2]string{time, voltage})
	}
	identifier, _ := data["identifier"].(string)
	return NewTablePulseTemplate(waveform.ChannelID(channel), entries, identifier)
}

// TypeTag implements serialization.Serializable.
func (t *MappingTemplate) TypeTag() string { return TagMappingTemplate }

// SerializationData implements serialization.Serializable.
func (t *MappingTemplate) SerializationData(s *serialization.Serializer) (map[string]any, error) {
	inner, ok := t.template.(serialization.Serializable)
	if !ok {
		return nil, fmt.Errorf("inner template %T is not serializable", t.template)
	}
	ref, err := s.Reference(inner, true)
	if err != nil {
		return nil, err
	}

	parameterMapping := make(map[string]string, len(t.parameterMapping))
	for name, expression := range t.parameterMapping {
		parameterMapping[name] = expression.String()
	}
	channelMapping := make(map[string]string, len(t.channelMapping))
	for ch, mapped := range t.channelMapping {
		channelMapping[string(ch)] = string(mapped)
	}

	return map[string]any{
		"identifier":        t.identifier,
		"template":          ref,
		"parameter_mapping": parameterMapping,
		"channel_mapping":   channelMapping,
	}, nil
}

func deserializeMappingTemplate(s *serialization.Serializer, data map[string]any) (serialization.Serializable, error) {
	ref, err := stringField(data, "template")
	if err != nil {
		return nil, err
	}
	obj, err := s.Deserialize(ref)
	if err != nil {
		return nil, err
	}
	inner, ok := obj.(PulseTemplate)
	if !ok {
		return nil, fmt.Errorf("referenced object %q is not a pulse template", ref)
	}

	parameterMapping, err := stringMapField(data, "parameter_mapping")
	if err != nil {
		return nil, err
	}
	rawChannelMapping, err := stringMapField(data, "channel_mapping")
	if err != nil {
		return nil, err
	}
	channelMapping := make(map[waveform.ChannelID]waveform.ChannelID, len(rawChannelMapping))
	for ch, mapped := range rawChannelMapping {
		channelMapping[waveform.ChannelID(ch)] = waveform.ChannelID(mapped)
	}

	identifier, _ := data["identifier"].(string)
	return NewMappingTemplate(inner, parameterMapping, channelMapping, identifier)
}

// TypeTag implements serialization.Serializable.
func (t *AtomicMultiChannelPulseTemplate) TypeTag() string { return TagAtomicMultiChannelTemplate }

// SerializationData implements serialization.Serializable.
func (t *AtomicMultiChannelPulseTemplate) SerializationData(s *serialization.Serializer) (map[string]any, error) {
	refs, err := referenceSubtemplates(s, t.subtemplates)
	if err != nil {
		return nil, err
	}
	constraints := make([]any, 0, len(t.constraints))
	for _, constraint := range t.constraints {
		constraints = append(constraints, constraint.String())
	}
	return map[string]any{
		"identifier":            t.identifier,
		"subtemplates":          refs,
		"parameter_constraints": constraints,
	}, nil
}

func deserializeAtomicMultiChannelTemplate(s *serialization.Serializer, data map[string]any) (serialization.Serializable, error) {
	subs, err := deserializeSubtemplates(s, data)
	if err != nil {
		return nil, err
	}
	constraints, err := stringSliceField(data, "parameter_constraints")
	if err != nil {
		return nil, err
	}
	identifier, _ := data["identifier"].(string)
	return NewAtomicMultiChannelPulseTemplate(subs,
		WithIdentifier(identifier),
		WithParameterConstraints(constraints...))
}

// TypeTag implements serialization.Serializable.
func (t *MultiChannelPulseTemplate) TypeTag() string { return TagMultiChannelPulseTemplate }

// SerializationData implements serialization.Serializable.
func (t *MultiChannelPulseTemplate) SerializationData(s *serialization.Serializer) (map[string]any, error) {
	refs, err := referenceSubtemplates(s, t.subtemplates)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"identifier":   t.identifier,
		"subtemplates": refs,
		"atomicity":    t.atomicity,
	}, nil
}

func deserializeMultiChannelPulseTemplate(s *serialization.Serializer, data map[string]any) (serialization.Serializable, error) {
	subs, err := deserializeSubtemplates(s, data)
	if err != nil {
		return nil, err
	}
	identifier, _ := data["identifier"].(string)
	template, err := NewMultiChannelPulseTemplate(subs, nil, identifier)
	if err != nil {
		return nil, err
	}
	atomicity, _ := data["atomicity"].(bool)
	template.SetAtomicity(atomicity)
	return template, nil
}

// referenceSubtemplates persists the normalized sub-templates and returns
// their reference names in composition order.
func referenceSubtemplates(s *serialization.Serializer, subtemplates []*MappingTemplate) ([]any, error) {
	refs := make([]any, 0, len(subtemplates))
	for _, template := range subtemplates {
		ref, err := s.Reference(template, true)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// deserializeSubtemplates restores the referenced sub-templates in order.
func deserializeSubtemplates(s *serialization.Serializer, data map[string]any) ([]SubTemplateSpec, error) {
	refs, err := stringSliceField(data, "subtemplates")
	if err != nil {
		return nil, err
	}
	subs := make([]SubTemplateSpec, 0, len(refs))
	for _, ref := range refs {
		obj, err := s.Deserialize(ref)
		if err != nil {
			return nil, err
		}
		template, ok := obj.(PulseTemplate)
		if !ok {
			return nil, fmt.Errorf("referenced object %q is not a pulse template", ref)
		}
		subs = append(subs, Sub(template))
	}
	return subs, nil
}

func stringField(data map[string]any, key string) (string, error) {
	value, ok := data[key].(string)
	if !ok {
		return "", fmt.Errorf("field %q is missing or not a string", key)
	}
	return value, nil
}

func stringSliceField(data map[string]any, key string) ([]string, error) {
	raw, ok := data[key]
	if !ok || raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("field %q is not a list", key)
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		value, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("field %q contains a non-string entry %v", key, item)
		}
		out = append(out, value)
	}
	return out, nil
}

func stringMapField(data map[string]any, key string) (map[string]string, error) {
	raw, ok := data[key]
	if !ok || raw == nil {
		return nil, nil
	}
	mapped, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("field %q is not a map", key)
	}
	out := make(map[string]string, len(mapped))
	for name, item := range mapped {
		value, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("field %q contains a non-string entry %v", key, item)
		}
		out[name] = value
	}
	return out, nil
}
