package ulink

import (
	"context"
	"sync"
	"time"
)

// ControllerOptions configures a Controller.
type ControllerOptions struct {
	// Transmitter is the template for every transmission. Publish and
	// Logger are supplied by the Controller.
	Transmitter TransmitterOptions

	Logger Logger
}

// Status is a snapshot of the most recent transmission.
type Status struct {
	Running        bool       `json:"running"`
	TransmissionID string     `json:"transmission_id,omitempty"`
	PayloadLength  int        `json:"payload_length"`
	Checksum       byte       `json:"checksum"`
	Header         string     `json:"header,omitempty"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	Stats          Stats      `json:"stats"`
}

// Controller is the facade used by every outer surface. It runs at most
// one transmission at a time and fans lifecycle events out to subscribers.
type Controller struct {
	opts   ControllerOptions
	logger Logger
	events *dispatcher

	mu      sync.Mutex
	current *Transmitter
	closed  bool
}

// NewController creates a Controller and starts its event goroutine.
// Call Shutdown to release it.
func NewController(opts ControllerOptions) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	return &Controller{
		opts:   opts,
		logger: logger,
		events: newDispatcher(logger),
	}
}

// OnEvent registers fn to receive every later lifecycle event, in order,
// on the controller's event goroutine.
func (c *Controller) OnEvent(fn Subscriber) {
	c.events.subscribe(fn)
}

// Start encodes payload and begins transmitting it in the background.
//
// Returns:
//   - ErrPayloadTooLong: payload exceeds MaxPayloadLength; nothing is started
//   - ErrAlreadyRunning: the previous transmission has not stopped yet
//   - ErrControllerClosed: Shutdown has been called
func (c *Controller) Start(payload []byte) error {
	seq, err := Encode(payload)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrControllerClosed
	}
	if c.current != nil && c.current.State() == StateRunning {
		return ErrAlreadyRunning
	}

	txOpts := c.opts.Transmitter
	txOpts.Publish = c.events.publish
	txOpts.Logger = c.logger

	tx := NewTransmitter(seq, txOpts)
	if err := tx.Start(); err != nil {
		return err
	}
	c.current = tx

	c.logger.Info("transmission started",
		"transmission_id", tx.ID(),
		"payload_length", seq.PayloadLength,
		"header", seq.Header.String(),
	)
	return nil
}

// Stop asks the running transmission to finish its current cycle and exit.
// It does not wait and is a no-op when nothing is running.
func (c *Controller) Stop() {
	c.mu.Lock()
	tx := c.current
	c.mu.Unlock()

	if tx != nil && tx.State() == StateRunning {
		tx.Stop()
		c.logger.Info("transmission stop requested", "transmission_id", tx.ID())
	}
}

// IsRunning reports whether a transmission is running right now.
// It stays true until the worker has exited, even after Stop.
func (c *Controller) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil && c.current.State() == StateRunning
}

// Status returns a snapshot of the current or most recent transmission.
func (c *Controller) Status() Status {
	c.mu.Lock()
	tx := c.current
	c.mu.Unlock()

	if tx == nil {
		return Status{}
	}

	seq := tx.Sequence()
	st := Status{
		Running:        tx.State() == StateRunning,
		TransmissionID: tx.ID(),
		PayloadLength:  seq.PayloadLength,
		Checksum:       seq.Checksum,
		Header:         seq.Header.String(),
		Stats:          tx.Stats(),
	}
	if started := tx.StartedAt(); !started.IsZero() {
		st.StartedAt = &started
	}
	return st
}

// Done returns a channel closed when the current transmission has stopped.
// With no transmission the channel is already closed.
func (c *Controller) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return c.current.Done()
}

// Shutdown stops any running transmission, waits for it to exit or ctx to
// expire, then delivers queued events and stops the event goroutine.
func (c *Controller) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	tx := c.current
	c.mu.Unlock()

	var err error
	if tx != nil {
		tx.Stop()
		select {
		case <-tx.Done():
		case <-ctx.Done():
			err = ctx.Err()
		}
	}

	c.events.close()
	return err
}
