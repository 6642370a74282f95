package history

import (
	"context"
	"errors"
	"time"

	"github.com/nerrad567/gray-logic-ulink/internal/ulink"
)

// ErrNotFound is returned when a transmission id has no history row.
var ErrNotFound = errors.New("history: transmission not found")

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// Record is one transmission as stored in the history table.
type Record struct {
	ID            string      `json:"id"`
	PayloadLength int         `json:"payload_length"`
	Checksum      int         `json:"checksum"`
	Header        string      `json:"header"`
	StartedAt     time.Time   `json:"started_at"`
	StoppedAt     *time.Time  `json:"stopped_at,omitempty"`
	Stats         ulink.Stats `json:"stats"`
}

// Running reports whether no stop has been recorded yet.
func (r Record) Running() bool {
	return r.StoppedAt == nil
}

// Repository stores and retrieves transmission history.
//
// Implementations must be safe for concurrent use and store UTC timestamps.
type Repository interface {
	// RecordStarted inserts the row for a started transmission.
	RecordStarted(ctx context.Context, ev ulink.Event) error

	// RecordStopped completes the row for a stopped transmission. A row is
	// created when the start was never recorded.
	RecordStopped(ctx context.Context, ev ulink.Event) error

	// Get returns one transmission, or ErrNotFound.
	Get(ctx context.Context, id string) (Record, error)

	// List returns the most recent transmissions, newest first. limit is
	// clamped to a sane range.
	List(ctx context.Context, limit int) ([]Record, error)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
