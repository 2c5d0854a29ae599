package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// Sighting is one journalled observation of a device.
type Sighting struct {
	ID         int64
	DeviceName string
	SeenAt     time.Time
	State      any
}

// Journal appends device sightings to the sightings table.
type Journal struct {
	db *sql.DB
}

// NewJournal creates a journal over an open SQLite connection.
//
// Parameters:
//   - db: Open SQLite connection used for queries
//
// Returns:
//   - *Journal: Journal instance ready for use
func NewJournal(db *sql.DB) *Journal {
	return &Journal{db: db}
}

// RecordSighting appends one observation of the named device.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - name: The device's config name
//   - at: When the state message arrived
//   - state: The decoded state (JSON object or raw string)
//
// Returns:
//   - error: nil on success, otherwise the underlying database error
func (j *Journal) RecordSighting(ctx context.Context, name string, at time.Time, state any) error {
	if name == "" {
		return fmt.Errorf("device name is required")
	}

	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshalling state: %w", err)
	}

	_, err = j.db.ExecContext(ctx,
		"INSERT INTO sightings (device_name, seen_at, state) VALUES (?, ?, ?)",
		name,
		at.UTC().Format(time.RFC3339),
		string(stateJSON),
	)
	if err != nil {
		return fmt.Errorf("inserting sighting: %w", err)
	}

	return nil
}

// GetHistory returns recent sightings for a device, ordered newest first.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - name: The device's config name
//   - limit: Maximum entries to return (default 50, max 200)
//
// Returns:
//   - []Sighting: Sightings ordered by seen_at DESC
//   - error: nil on success, otherwise the underlying query error
func (j *Journal) GetHistory(ctx context.Context, name string, limit int) ([]Sighting, error) {
	if name == "" {
		return nil, fmt.Errorf("device name is required")
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	rows, err := j.db.QueryContext(ctx,
		`SELECT id, device_name, seen_at, state
		 FROM sightings
		 WHERE device_name = ?
		 ORDER BY seen_at DESC
		 LIMIT ?`,
		name,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying sightings: %w", err)
	}
	defer rows.Close()

	sightings := make([]Sighting, 0, limit)
	for rows.Next() {
		var s Sighting
		var seenAt string
		var stateJSON string

		if err := rows.Scan(&s.ID, &s.DeviceName, &seenAt, &stateJSON); err != nil {
			return nil, fmt.Errorf("scanning sighting: %w", err)
		}

		if err := json.Unmarshal([]byte(stateJSON), &s.State); err != nil {
			return nil, fmt.Errorf("unmarshalling state: %w", err)
		}

		s.SeenAt, err = time.Parse(time.RFC3339, seenAt)
		if err != nil {
			return nil, fmt.Errorf("parsing seen_at: %w", err)
		}

		sightings = append(sightings, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sightings: %w", err)
	}

	return sightings, nil
}

// Prune deletes sightings older than the given duration.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - olderThan: Duration to retain (entries older than now-olderThan are deleted)
//
// Returns:
//   - int64: Number of rows deleted
//   - error: nil on success, otherwise the underlying database error
func (j *Journal) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("olderThan must be positive")
	}

	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339)
	result, err := j.db.ExecContext(ctx,
		"DELETE FROM sightings WHERE seen_at < ?",
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting sightings: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}

	return rowsAffected, nil
}
