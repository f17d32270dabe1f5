package stores

import (
	"context"
	"testing"
	"time"

	"github.com/Nomos11/qupulse/pkg/pulses"
	"github.com/Nomos11/qupulse/pkg/serialization"
)

// setupTestStore creates an in-memory SQLite store for testing
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	// A single connection keeps every query on the same in-memory
	// database.
	store, err := NewSQLiteStore(Config{
		Path:         ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate store: %v", err)
	}

	return store
}

// TestStoreLifecycle tests database initialization and closure
func TestStoreLifecycle(t *testing.T) {
	store, err := NewSQLiteStore(Config{
		Path: ":memory:",
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}

	if err := store.HealthCheck(ctx); err != nil {
		t.Fatalf("health check failed: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}
}

func TestStoreRequiresPath(t *testing.T) {
	if _, err := NewSQLiteStore(Config{}); err == nil {
		t.Error("Expected error for missing database path, got nil")
	}
}

// TestStoreMigrations tests database migrations
func TestStoreMigrations(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()

	// Check that tables exist by querying them
	tables := []string{"templates", "device_events"}
	for _, table := range tables {
		query := "SELECT COUNT(*) FROM " + table
		var count int
		err := store.db.QueryRowContext(ctx, query).Scan(&count)
		if err != nil {
			t.Errorf("table %s does not exist or is not accessible: %v", table, err)
		}
	}
}

func TestTemplateCRUD(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()

	record := []byte("type: constant_pulse_template\nchannel: A\n")
	if err := store.PutTemplate(ctx, "ramp", record, false); err != nil {
		t.Fatalf("failed to store template: %v", err)
	}

	got, err := store.GetTemplate(ctx, "ramp")
	if err != nil {
		t.Fatalf("failed to get template: %v", err)
	}
	if got.Name != "ramp" {
		t.Errorf("Expected name ramp, got %s", got.Name)
	}
	if string(got.Record) != string(record) {
		t.Errorf("Expected stored record to round trip, got %q", got.Record)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("Expected timestamps to be set")
	}

	exists, err := store.TemplateExists(ctx, "ramp")
	if err != nil {
		t.Fatalf("failed to check template: %v", err)
	}
	if !exists {
		t.Error("Expected template to exist")
	}

	exists, err = store.TemplateExists(ctx, "missing")
	if err != nil {
		t.Fatalf("failed to check template: %v", err)
	}
	if exists {
		t.Error("Expected missing template to not exist")
	}

	if err := store.DeleteTemplate(ctx, "ramp"); err != nil {
		t.Fatalf("failed to delete template: %v", err)
	}
	if _, err := store.GetTemplate(ctx, "ramp"); err == nil {
		t.Error("Expected error for deleted template, got nil")
	}
	if err := store.DeleteTemplate(ctx, "ramp"); err == nil {
		t.Error("Expected error for deleting missing template, got nil")
	}
}

func TestTemplateOverwrite(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()

	if err := store.PutTemplate(ctx, "ramp", []byte("v1"), false); err != nil {
		t.Fatalf("failed to store template: %v", err)
	}
	if err := store.PutTemplate(ctx, "ramp", []byte("v2"), false); err == nil {
		t.Error("Expected error for duplicate template without overwrite, got nil")
	}

	if err := store.PutTemplate(ctx, "ramp", []byte("v2"), true); err != nil {
		t.Fatalf("failed to overwrite template: %v", err)
	}
	got, err := store.GetTemplate(ctx, "ramp")
	if err != nil {
		t.Fatalf("failed to get template: %v", err)
	}
	if string(got.Record) != "v2" {
		t.Errorf("Expected overwritten record v2, got %q", got.Record)
	}
}

func TestListTemplates(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		if err := store.PutTemplate(ctx, name, []byte(name), false); err != nil {
			t.Fatalf("failed to store template %s: %v", name, err)
		}
	}

	records, err := store.ListTemplates(ctx, 10, 0)
	if err != nil {
		t.Fatalf("failed to list templates: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 templates, got %d", len(records))
	}

	records, err = store.ListTemplates(ctx, 2, 0)
	if err != nil {
		t.Fatalf("failed to list templates: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("Expected 2 templates with limit, got %d", len(records))
	}
}

func TestDeviceEventLog(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()

	detail := "2 waveforms, 40 samples"
	events := []*DeviceEvent{
		{Device: "awg1", Program: "rabi", Action: DeviceActionUpload, Detail: &detail},
		{Device: "awg1", Program: "rabi", Action: DeviceActionArm},
		{Device: "awg2", Program: "ramsey", Action: DeviceActionUpload},
	}
	for _, event := range events {
		if err := store.AppendDeviceEvent(ctx, event); err != nil {
			t.Fatalf("failed to append device event: %v", err)
		}
		if event.ID == 0 {
			t.Error("Expected event ID to be assigned")
		}
		if event.CreatedAt.IsZero() {
			t.Error("Expected event timestamp to be set")
		}
	}

	all, err := store.ListDeviceEvents(ctx, "", 10, 0)
	if err != nil {
		t.Fatalf("failed to list device events: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(all))
	}
	// Newest first.
	if all[0].Program != "ramsey" {
		t.Errorf("Expected newest event first, got program %s", all[0].Program)
	}
	if all[2].Detail == nil || *all[2].Detail != detail {
		t.Errorf("Expected detail %q to round trip, got %v", detail, all[2].Detail)
	}

	filtered, err := store.ListDeviceEvents(ctx, "awg1", 10, 0)
	if err != nil {
		t.Fatalf("failed to list device events: %v", err)
	}
	if len(filtered) != 2 {
		t.Fatalf("Expected 2 events for awg1, got %d", len(filtered))
	}
	for _, event := range filtered {
		if event.Device != "awg1" {
			t.Errorf("Expected device awg1, got %s", event.Device)
		}
	}
}

func TestDeviceEventExplicitTimestamp(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()

	when := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	event := &DeviceEvent{Device: "awg1", Program: "rabi", Action: DeviceActionRemove, CreatedAt: when}
	if err := store.AppendDeviceEvent(ctx, event); err != nil {
		t.Fatalf("failed to append device event: %v", err)
	}

	listed, err := store.ListDeviceEvents(ctx, "awg1", 1, 0)
	if err != nil {
		t.Fatalf("failed to list device events: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(listed))
	}
	if !listed[0].CreatedAt.Equal(when) {
		t.Errorf("Expected timestamp %v, got %v", when, listed[0].CreatedAt)
	}
}

// TestTemplateBackend serializes a pulse template straight into the
// database and reads it back through a fresh serializer.
func TestTemplateBackend(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	template, err := pulses.NewConstantPulseTemplate("A", "v", "10", "hold")
	if err != nil {
		t.Fatalf("failed to create template: %v", err)
	}

	backend := NewTemplateBackend(store)
	ref, err := serialization.NewSerializer(backend).Serialize(template, false)
	if err != nil {
		t.Fatalf("failed to serialize template: %v", err)
	}
	if ref != "hold" {
		t.Errorf("Expected reference hold, got %s", ref)
	}

	restored, err := serialization.NewSerializer(backend).Deserialize("hold")
	if err != nil {
		t.Fatalf("failed to deserialize template: %v", err)
	}
	got, ok := restored.(*pulses.ConstantPulseTemplate)
	if !ok {
		t.Fatalf("Expected *pulses.ConstantPulseTemplate, got %T", restored)
	}
	if got.Identifier() != "hold" {
		t.Errorf("Expected identifier hold, got %s", got.Identifier())
	}
}
