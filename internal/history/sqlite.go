package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-ulink/internal/ulink"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteRepository implements Repository on the transmissions table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository on an open, migrated database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// RecordStarted inserts a row for ev. Recording the same start twice is
// a no-op.
func (r *SQLiteRepository) RecordStarted(ctx context.Context, ev ulink.Event) error {
	if ev.TransmissionID == "" {
		return fmt.Errorf("transmission id is required")
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transmissions (id, payload_length, checksum, header_address, started_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		ev.TransmissionID,
		ev.PayloadLength,
		int(ev.Checksum),
		ev.Header,
		formatTime(ev.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("inserting transmission: %w", err)
	}
	return nil
}

// RecordStopped sets the stop time and counters on the row for ev.
func (r *SQLiteRepository) RecordStopped(ctx context.Context, ev ulink.Event) error {
	if ev.TransmissionID == "" {
		return fmt.Errorf("transmission id is required")
	}

	stoppedAt := formatTime(ev.Timestamp)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transmissions (id, payload_length, checksum, header_address, started_at,
		                            stopped_at, cycles, packets, send_failures)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     stopped_at    = excluded.stopped_at,
		     cycles        = excluded.cycles,
		     packets       = excluded.packets,
		     send_failures = excluded.send_failures`,
		ev.TransmissionID,
		ev.PayloadLength,
		int(ev.Checksum),
		ev.Header,
		stoppedAt,
		stoppedAt,
		int64(ev.Stats.Cycles),       //nolint:gosec // counters stay far below 2^63
		int64(ev.Stats.Packets),      //nolint:gosec // counters stay far below 2^63
		int64(ev.Stats.SendFailures), //nolint:gosec // counters stay far below 2^63
	)
	if err != nil {
		return fmt.Errorf("updating transmission: %w", err)
	}
	return nil
}

const selectColumns = `SELECT id, payload_length, checksum, header_address, started_at,
	stopped_at, cycles, packets, send_failures FROM transmissions`

// Get returns the transmission with the given id.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (Record, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// List returns up to limit transmissions ordered by start time, newest first.
func (r *SQLiteRepository) List(ctx context.Context, limit int) ([]Record, error) {
	limit = clampLimit(limit)

	rows, err := r.db.QueryContext(ctx,
		selectColumns+" ORDER BY started_at DESC, id LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying transmissions: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0, limit)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transmissions: %w", err)
	}

	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (Record, error) {
	var (
		rec                     Record
		startedAt               string
		stoppedAt               sql.NullString
		cycles, packets, failed int64
	)

	err := s.Scan(
		&rec.ID,
		&rec.PayloadLength,
		&rec.Checksum,
		&rec.Header,
		&startedAt,
		&stoppedAt,
		&cycles,
		&packets,
		&failed,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, err
	}
	if err != nil {
		return Record{}, fmt.Errorf("scanning transmission: %w", err)
	}

	rec.StartedAt, err = parseTime(startedAt)
	if err != nil {
		return Record{}, err
	}
	if stoppedAt.Valid {
		t, err := parseTime(stoppedAt.String)
		if err != nil {
			return Record{}, err
		}
		rec.StoppedAt = &t
	}

	rec.Stats = ulink.Stats{
		Cycles:       uint64(cycles),  //nolint:gosec // stored from uint64
		Packets:      uint64(packets), //nolint:gosec // stored from uint64
		SendFailures: uint64(failed),  //nolint:gosec // stored from uint64
	}
	return rec, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(timeLayout, value)
	if err == nil {
		return t, nil
	}
	if t, rfcErr := time.Parse(time.RFC3339Nano, value); rfcErr == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", value, err)
}
