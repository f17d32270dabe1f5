package stores

import (
	"context"
)

// TemplateBackend adapts a SQLiteStore to the storage interface used by
// the serialization layer, so template records can be serialized
// directly into the database.
type TemplateBackend struct {
	store *SQLiteStore
}

// NewTemplateBackend wraps an initialized store.
func NewTemplateBackend(store *SQLiteStore) *TemplateBackend {
	return &TemplateBackend{store: store}
}

// Put stores data under name.
func (b *TemplateBackend) Put(name string, data []byte, overwrite bool) error {
	return b.store.PutTemplate(context.Background(), name, data, overwrite)
}

// Get returns the record stored under name.
func (b *TemplateBackend) Get(name string) ([]byte, error) {
	rec, err := b.store.GetTemplate(context.Background(), name)
	if err != nil {
		return nil, err
	}
	return rec.Record, nil
}

// Exists reports whether a record is stored under name.
func (b *TemplateBackend) Exists(name string) bool {
	exists, err := b.store.TemplateExists(context.Background(), name)
	return err == nil && exists
}
