package serialization

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Serializable is implemented by objects that can be persisted. The
// serialization data must reference nested Serializables through
// Serializer.Reference so they round-trip by name.
type Serializable interface {
	// Identifier is the storage name, or empty for anonymous objects.
	Identifier() string

	// TypeTag names the concrete type for the deserialization registry.
	TypeTag() string

	// SerializationData returns the persisted record, without the type tag.
	SerializationData(s *Serializer) (map[string]any, error)
}

// DeserializeFunc reconstructs an object from its stored record.
type DeserializeFunc func(s *Serializer, data map[string]any) (Serializable, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]DeserializeFunc)
)

// Register installs a deserialization function for a type tag. It is meant
// to be called from package init functions and panics on duplicates.
func Register(tag string, fn DeserializeFunc) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := registry[tag]; ok {
		panic(fmt.Sprintf("serialization: type tag %q registered twice", tag))
	}
	registry[tag] = fn
}

func lookup(tag string) (DeserializeFunc, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	fn, ok := registry[tag]
	return fn, ok
}

// Serializer persists and restores Serializables against a backend. It
// caches deserialized objects by reference so shared sub-objects keep
// their identity.
type Serializer struct {
	backend Backend
	cache   map[string]Serializable
}

// NewSerializer creates a serializer over the given backend.
func NewSerializer(backend Backend) *Serializer {
	return &Serializer{backend: backend, cache: make(map[string]Serializable)}
}

// AddSubelement seeds the cache with an already constructed object so
// later Deserialize calls resolve its reference without hitting the
// backend. The object must have an identifier.
func (s *Serializer) AddSubelement(obj Serializable) error {
	if obj.Identifier() == "" {
		return fmt.Errorf("cannot pre-seed an anonymous object")
	}
	s.cache[obj.Identifier()] = obj
	return nil
}

// Serialize persists obj and returns its reference name. Anonymous
// objects receive a generated reference.
func (s *Serializer) Serialize(obj Serializable, overwrite bool) (string, error) {
	ref := obj.Identifier()
	if ref == "" {
		ref = "anonymous-" + uuid.New().String()
	}

	data, err := obj.SerializationData(s)
	if err != nil {
		return "", fmt.Errorf("failed to serialize %q: %w", ref, err)
	}
	data["type"] = obj.TypeTag()

	encoded, err := yaml.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to encode %q: %w", ref, err)
	}
	if err := s.backend.Put(ref, encoded, overwrite); err != nil {
		return "", err
	}
	s.cache[ref] = obj
	return ref, nil
}

// Reference persists a nested object and returns its reference name; it is
// the hook SerializationData implementations use for children.
func (s *Serializer) Reference(obj Serializable, overwrite bool) (string, error) {
	return s.Serialize(obj, overwrite)
}

// Deserialize restores the object stored under ref.
func (s *Serializer) Deserialize(ref string) (Serializable, error) {
	if obj, ok := s.cache[ref]; ok {
		return obj, nil
	}

	encoded, err := s.backend.Get(ref)
	if err != nil {
		return nil, err
	}

	var data map[string]any
	if err := yaml.Unmarshal(encoded, &data); err != nil {
		return nil, fmt.Errorf("failed to decode %q: %w", ref, err)
	}

	tag, ok := data["type"].(string)
	if !ok {
		return nil, fmt.Errorf("record %q has no type tag", ref)
	}
	fn, ok := lookup(tag)
	if !ok {
		return nil, fmt.Errorf("no deserialization function registered for type %q", tag)
	}

	obj, err := fn(s, data)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize %q: %w", ref, err)
	}
	s.cache[ref] = obj
	return obj, nil
}
