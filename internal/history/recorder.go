package history

import (
	"context"
	"time"

	"github.com/nerrad567/gray-logic-ulink/internal/ulink"
)

// DefaultWriteTimeout bounds each database write made by a Recorder.
const DefaultWriteTimeout = 5 * time.Second

// Logger is the logging the Recorder needs.
type Logger interface {
	Error(msg string, args ...any)
}

// Recorder persists controller events into a Repository.
type Recorder struct {
	repo    Repository
	logger  Logger
	timeout time.Duration
}

// NewRecorder creates a Recorder writing to repo. Errors are logged, never
// returned, because subscribers cannot fail the transmission.
func NewRecorder(repo Repository, logger Logger) *Recorder {
	return &Recorder{
		repo:    repo,
		logger:  logger,
		timeout: DefaultWriteTimeout,
	}
}

// Handle is a ulink.Subscriber.
func (r *Recorder) Handle(ev ulink.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	var err error
	switch ev.Type {
	case ulink.EventStarted:
		err = r.repo.RecordStarted(ctx, ev)
	case ulink.EventStopped:
		err = r.repo.RecordStopped(ctx, ev)
	default:
		return
	}

	if err != nil && r.logger != nil {
		r.logger.Error("recording transmission history failed",
			"transmission_id", ev.TransmissionID,
			"event", string(ev.Type),
			"error", err,
		)
	}
}
