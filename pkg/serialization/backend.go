package serialization

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Backend stores serialized records under a reference name.
type Backend interface {
	Put(name string, data []byte, overwrite bool) error
	Get(name string) ([]byte, error)
	Exists(name string) bool
}

// ErrNotFound style errors are reported per backend with the record name.

// MemoryBackend keeps records in memory; useful for tests and transient
// sessions.
type MemoryBackend struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{records: make(map[string][]byte)}
}

// Put stores data under name.
func (b *MemoryBackend) Put(name string, data []byte, overwrite bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.records[name]; ok && !overwrite {
		return fmt.Errorf("record %q already exists", name)
	}
	owned := make([]byte, len(data))
	copy(owned, data)
	b.records[name] = owned
	return nil
}

// Get returns the record stored under name.
func (b *MemoryBackend) Get(name string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.records[name]
	if !ok {
		return nil, fmt.Errorf("record %q does not exist", name)
	}
	return data, nil
}

// Exists reports whether a record is stored under name.
func (b *MemoryBackend) Exists(name string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.records[name]
	return ok
}

// FileBackend stores one YAML file per record below a root directory.
type FileBackend struct {
	root string
}

// NewFileBackend creates the root directory if needed.
func NewFileBackend(root string) (*FileBackend, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileBackend{root: root}, nil
}

func (b *FileBackend) path(name string) string {
	// Record names become file names; path separators are not allowed.
	return filepath.Join(b.root, strings.ReplaceAll(name, string(filepath.Separator), "_")+".yaml")
}

// Put stores data under name.
func (b *FileBackend) Put(name string, data []byte, overwrite bool) error {
	path := b.path(name)
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("record %q already exists", name)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// Get returns the record stored under name.
func (b *FileBackend) Get(name string) ([]byte, error) {
	data, err := os.ReadFile(b.path(name))
	if err != nil {
		return nil, fmt.Errorf("record %q does not exist: %w", name, err)
	}
	return data, nil
}

// Exists reports whether a record is stored under name.
func (b *FileBackend) Exists(name string) bool {
	_, err := os.Stat(b.path(name))
	return err == nil
}
