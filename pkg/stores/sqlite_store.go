package stores

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// SQLite driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore persists template records and device events in SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string

	maxOpenConns    int
	maxIdleConns    int
	connMaxLifetime time.Duration
}

// Config holds SQLite store configuration
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewSQLiteStore creates a new SQLite store instance
func NewSQLiteStore(cfg Config) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	// Set defaults
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 25
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 5
	}
	if cfg.ConnMaxLifetime == 0 {
		cfg.ConnMaxLifetime = 5 * time.Minute
	}

	return &SQLiteStore{
		path:            cfg.Path,
		maxOpenConns:    cfg.MaxOpenConns,
		maxIdleConns:    cfg.MaxIdleConns,
		connMaxLifetime: cfg.ConnMaxLifetime,
	}, nil
}

// Init initializes the database connection and enables WAL mode.
func (s *SQLiteStore) Init(ctx context.Context) error {
	dsn := fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_txlock=immediate", s.path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(s.maxOpenConns)
	db.SetMaxIdleConns(s.maxIdleConns)
	db.SetConnMaxLifetime(s.connMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	// Ensure foreign keys are enabled (connection-level setting)
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate runs database migrations.
func (s *SQLiteStore) Migrate(_ context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// HealthCheck verifies the database connection is alive.
func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}
	return s.db.PingContext(ctx)
}

// PutTemplate stores a serialized template record. With overwrite set,
// an existing record under the same name is replaced and its creation
// timestamp preserved.
func (s *SQLiteStore) PutTemplate(ctx context.Context, name string, record []byte, overwrite bool) error {
	now := time.Now().UTC()

	if !overwrite {
		query := `
			INSERT INTO templates (name, record, created_at, updated_at)
			VALUES (?, ?, ?, ?)
		`
		if _, err := s.db.ExecContext(ctx, query, name, record, now, now); err != nil {
			exists, existsErr := s.TemplateExists(ctx, name)
			if existsErr == nil && exists {
				return fmt.Errorf("record %q already exists", name)
			}
			return fmt.Errorf("failed to store template: %w", err)
		}
		return nil
	}

	query := `
		INSERT INTO templates (name, record, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET record = excluded.record, updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, name, record, now, now); err != nil {
		return fmt.Errorf("failed to store template: %w", err)
	}

	return nil
}

// GetTemplate retrieves a template record by name.
func (s *SQLiteStore) GetTemplate(ctx context.Context, name string) (*TemplateRecord, error) {
	query := `
		SELECT name, record, created_at, updated_at
		FROM templates
		WHERE name = ?
	`

	rec := &TemplateRecord{}
	err := s.db.QueryRowContext(ctx, query, name).Scan(
		&rec.Name,
		&rec.Record,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("record %q does not exist", name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	return rec, nil
}

// TemplateExists reports whether a record is stored under name.
func (s *SQLiteStore) TemplateExists(ctx context.Context, name string) (bool, error) {
	query := `SELECT COUNT(*) FROM templates WHERE name = ?`

	var count int
	if err := s.db.QueryRowContext(ctx, query, name).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check template: %w", err)
	}

	return count > 0, nil
}

// ListTemplates lists template records with pagination, most recently
// updated first.
func (s *SQLiteStore) ListTemplates(ctx context.Context, limit, offset int) ([]*TemplateRecord, error) {
	query := `
		SELECT name, record, created_at, updated_at
		FROM templates
		ORDER BY updated_at DESC, name ASC
		LIMIT ? OFFSET ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	records := []*TemplateRecord{}
	for rows.Next() {
		rec := &TemplateRecord{}
		err := rows.Scan(
			&rec.Name,
			&rec.Record,
			&rec.CreatedAt,
			&rec.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate templates: %w", err)
	}

	return records, nil
}

// DeleteTemplate removes a template record by name.
func (s *SQLiteStore) DeleteTemplate(ctx context.Context, name string) error {
	query := `DELETE FROM templates WHERE name = ?`

	result, err := s.db.ExecContext(ctx, query, name)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("record %q does not exist", name)
	}

	return nil
}

// AppendDeviceEvent records a device operation in the event log.
func (s *SQLiteStore) AppendDeviceEvent(ctx context.Context, event *DeviceEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO device_events (device, program, action, detail, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		event.Device,
		event.Program,
		event.Action,
		event.Detail,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append device event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get event id: %w", err)
	}
	event.ID = id

	return nil
}

// ListDeviceEvents lists device events with pagination, newest first.
// An empty device selects events for all devices.
func (s *SQLiteStore) ListDeviceEvents(ctx context.Context, device string, limit, offset int) ([]*DeviceEvent, error) {
	query := `
		SELECT id, device, program, action, detail, created_at
		FROM device_events
		WHERE (? = '' OR device = ?)
		ORDER BY id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := s.db.QueryContext(ctx, query, device, device, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list device events: %w", err)
	}
	defer rows.Close()

	events := []*DeviceEvent{}
	for rows.Next() {
		event := &DeviceEvent{}
		err := rows.Scan(
			&event.ID,
			&event.Device,
			&event.Program,
			&event.Action,
			&event.Detail,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan device event: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate device events: %w", err)
	}

	return events, nil
}
