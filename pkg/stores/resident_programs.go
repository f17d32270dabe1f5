package stores

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Slot assignments are stored as one comma separated column; commas
// cannot appear in channel identifiers.

func joinSlots(slots []string) string {
	return strings.Join(slots, ",")
}

func splitSlots(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, ",")
}

// SaveResidentProgram records a program as resident on a device,
// replacing a previous record under the same device and name. A missing
// handle is generated.
func (s *SQLiteStore) SaveResidentProgram(ctx context.Context, prog *ResidentProgram) error {
	if prog.Handle == "" {
		prog.Handle = uuid.New().String()
	}
	if prog.UploadedAt.IsZero() {
		prog.UploadedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO resident_programs (device, name, handle, channels, markers, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(device, name) DO UPDATE SET
			handle = excluded.handle,
			channels = excluded.channels,
			markers = excluded.markers,
			uploaded_at = excluded.uploaded_at
	`

	_, err := s.db.ExecContext(ctx, query,
		prog.Device,
		prog.Name,
		prog.Handle,
		joinSlots(prog.Channels),
		joinSlots(prog.Markers),
		prog.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save resident program: %w", err)
	}

	return nil
}

// GetResidentProgram retrieves one resident program record.
func (s *SQLiteStore) GetResidentProgram(ctx context.Context, device, name string) (*ResidentProgram, error) {
	query := `
		SELECT device, name, handle, channels, markers, uploaded_at
		FROM resident_programs
		WHERE device = ? AND name = ?
	`

	var channels, markers string
	prog := &ResidentProgram{}
	err := s.db.QueryRowContext(ctx, query, device, name).Scan(
		&prog.Device,
		&prog.Name,
		&prog.Handle,
		&channels,
		&markers,
		&prog.UploadedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("program %q is not resident on device %q", name, device)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get resident program: %w", err)
	}

	prog.Channels = splitSlots(channels)
	prog.Markers = splitSlots(markers)
	return prog, nil
}

// ListResidentPrograms lists the programs resident on a device, ordered
// by name. An empty device selects all devices.
func (s *SQLiteStore) ListResidentPrograms(ctx context.Context, device string) ([]*ResidentProgram, error) {
	query := `
		SELECT device, name, handle, channels, markers, uploaded_at
		FROM resident_programs
		WHERE (? = '' OR device = ?)
		ORDER BY device ASC, name ASC
	`

	rows, err := s.db.QueryContext(ctx, query, device, device)
	if err != nil {
		return nil, fmt.Errorf("failed to list resident programs: %w", err)
	}
	defer rows.Close()

	programs := []*ResidentProgram{}
	for rows.Next() {
		var channels, markers string
		prog := &ResidentProgram{}
		err := rows.Scan(
			&prog.Device,
			&prog.Name,
			&prog.Handle,
			&channels,
			&markers,
			&prog.UploadedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resident program: %w", err)
		}
		prog.Channels = splitSlots(channels)
		prog.Markers = splitSlots(markers)
		programs = append(programs, prog)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate resident programs: %w", err)
	}

	return programs, nil
}

// DeleteResidentProgram removes one resident program record.
func (s *SQLiteStore) DeleteResidentProgram(ctx context.Context, device, name string) error {
	query := `DELETE FROM resident_programs WHERE device = ? AND name = ?`

	result, err := s.db.ExecContext(ctx, query, device, name)
	if err != nil {
		return fmt.Errorf("failed to delete resident program: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("program %q is not resident on device %q", name, device)
	}

	return nil
}

// ClearResidentPrograms removes every resident program record of a
// device.
func (s *SQLiteStore) ClearResidentPrograms(ctx context.Context, device string) error {
	query := `DELETE FROM resident_programs WHERE device = ?`

	if _, err := s.db.ExecContext(ctx, query, device); err != nil {
		return fmt.Errorf("failed to clear resident programs: %w", err)
	}

	return nil
}
