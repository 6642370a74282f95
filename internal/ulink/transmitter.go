package ulink

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultInterval is the sleep at the top of every send cycle.
	DefaultInterval = 10 * time.Millisecond

	// DefaultHeaderPause is the gap between the header and the data datagrams.
	DefaultHeaderPause = 3 * time.Millisecond
)

// State is the lifecycle position of a Transmitter.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Logger defines the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Observer is told about every failed socket open or send.
// Implementations must not block.
type Observer interface {
	SendFailed(transmissionID string, dst Address, err error)
}

// TransmitterOptions configures a Transmitter. Zero values select defaults.
type TransmitterOptions struct {
	Port        int
	Interval    time.Duration
	HeaderPause time.Duration

	// Dial opens the socket on the first cycle. Defaults to DialMulticast
	// with OS routing.
	Dial DialFunc

	// Publish receives lifecycle events. It is called from Start and from
	// the worker goroutine and must not block.
	Publish func(Event)

	Observer Observer
	Logger   Logger

	// Sleep replaces time.Sleep.
	Sleep func(time.Duration)
}

func (o TransmitterOptions) withDefaults() TransmitterOptions {
	if o.Port == 0 {
		o.Port = DefaultPort
	}
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.HeaderPause <= 0 {
		o.HeaderPause = DefaultHeaderPause
	}
	if o.Dial == nil {
		o.Dial = DialMulticast(SocketOptions{})
	}
	if o.Publish == nil {
		o.Publish = func(Event) {}
	}
	if o.Logger == nil {
		o.Logger = noopLogger{}
	}
	if o.Sleep == nil {
		o.Sleep = time.Sleep
	}
	return o
}

// Transmitter repeatedly sends one Sequence until stopped.
//
// A Transmitter moves Idle -> Running -> Stopped exactly once. The socket
// is opened lazily by the worker and closed exactly once, before the
// stopped event is published.
type Transmitter struct {
	id     string
	seq    Sequence
	opts   TransmitterOptions
	logger Logger

	state         atomic.Int32
	stopRequested atomic.Bool
	done          chan struct{}

	cycles   atomic.Uint64
	packets  atomic.Uint64
	failures atomic.Uint64

	mu        sync.Mutex
	startedAt time.Time
}

// NewTransmitter creates an idle Transmitter for seq.
func NewTransmitter(seq Sequence, opts TransmitterOptions) *Transmitter {
	opts = opts.withDefaults()
	id := uuid.NewString()
	return &Transmitter{
		id:     id,
		seq:    seq,
		opts:   opts,
		logger: opts.Logger,
		done:   make(chan struct{}),
	}
}

// ID returns the unique transmission identifier.
func (t *Transmitter) ID() string { return t.id }

// Sequence returns the encoded addresses being sent.
func (t *Transmitter) Sequence() Sequence { return t.seq }

// State returns the current lifecycle state.
func (t *Transmitter) State() State { return State(t.state.Load()) }

// Done is closed after the stopped event has been published.
func (t *Transmitter) Done() <-chan struct{} { return t.done }

// StartedAt returns when Start succeeded, or the zero time.
func (t *Transmitter) StartedAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.startedAt
}

// Stats returns a snapshot of the transmitter's counters.
func (t *Transmitter) Stats() Stats {
	return Stats{
		Cycles:       t.cycles.Load(),
		Packets:      t.packets.Load(),
		SendFailures: t.failures.Load(),
	}
}

// Start moves the transmitter to Running, publishes EventStarted and
// launches the send loop. It returns immediately.
//
// Returns ErrAlreadyRunning or ErrTransmitterStopped when not Idle.
func (t *Transmitter) Start() error {
	if !t.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		if t.State() == StateRunning {
			return ErrAlreadyRunning
		}
		return ErrTransmitterStopped
	}

	t.mu.Lock()
	t.startedAt = time.Now()
	t.mu.Unlock()

	t.opts.Publish(t.event(EventStarted))
	go t.run()
	return nil
}

// Stop asks the send loop to exit after the current cycle. It does not
// wait; use Done for that. Calling Stop more than once is harmless.
func (t *Transmitter) Stop() {
	t.stopRequested.Store(true)
}

func (t *Transmitter) run() {
	var conn PacketConn

	defer func() {
		if conn != nil {
			if err := conn.Close(); err != nil {
				t.logger.Warn("closing multicast socket", "transmission_id", t.id, "error", err)
			}
		}
		t.state.Store(int32(StateStopped))
		t.opts.Publish(t.event(EventStopped))
		close(t.done)
	}()

	if t.seq.IsEmpty() {
		return
	}

	header := t.seq.Header.UDPAddr(t.opts.Port)
	data := make([]*net.UDPAddr, len(t.seq.Data))
	for i, a := range t.seq.Data {
		data[i] = a.UDPAddr(t.opts.Port)
	}

	// The flag is only read here, so a cycle that has begun always finishes.
	for !t.stopRequested.Load() {
		t.opts.Sleep(t.opts.Interval)

		if conn == nil {
			c, err := t.opts.Dial()
			if err != nil {
				t.reportFailure(t.seq.Header, err)
				continue
			}
			conn = c
		}

		t.send(conn, t.seq.Header, header)
		t.opts.Sleep(t.opts.HeaderPause)
		for i, dst := range data {
			t.send(conn, t.seq.Data[i], dst)
		}
		t.cycles.Add(1)
	}
}

func (t *Transmitter) send(conn PacketConn, addr Address, dst *net.UDPAddr) {
	if _, err := conn.WriteTo(datagramBody, dst); err != nil {
		t.reportFailure(addr, err)
		return
	}
	t.packets.Add(1)
}

func (t *Transmitter) reportFailure(addr Address, err error) {
	t.failures.Add(1)
	wrapped := fmt.Errorf("%w: %s: %v", ErrTransientSend, addr, err)
	t.logger.Warn("multicast send failed", "transmission_id", t.id, "address", addr.String(), "error", err)
	if t.opts.Observer != nil {
		t.opts.Observer.SendFailed(t.id, addr, wrapped)
	}
}

func (t *Transmitter) event(typ EventType) Event {
	return Event{
		Type:           typ,
		TransmissionID: t.id,
		PayloadLength:  t.seq.PayloadLength,
		Checksum:       t.seq.Checksum,
		Header:         t.seq.Header.String(),
		Timestamp:      time.Now().UTC(),
		Stats:          t.Stats(),
	}
}
