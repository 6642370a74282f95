package ulink

import (
	"fmt"
	"sync"
	"time"
)

// EventType identifies a transmission lifecycle event.
type EventType string

const (
	EventStarted EventType = "started"
	EventStopped EventType = "stopped"
)

// Stats counts the work a transmitter has done.
type Stats struct {
	Cycles       uint64 `json:"cycles"`
	Packets      uint64 `json:"packets"`
	SendFailures uint64 `json:"send_failures"`
}

// Event is delivered to subscribers when a transmission starts or stops.
// Stats is only meaningful on EventStopped.
type Event struct {
	Type           EventType `json:"type"`
	TransmissionID string    `json:"transmission_id"`
	PayloadLength  int       `json:"payload_length"`
	Checksum       byte      `json:"checksum"`
	Header         string    `json:"header"`
	Timestamp      time.Time `json:"timestamp"`
	Stats          Stats     `json:"stats"`
}

// Subscriber receives lifecycle events.
type Subscriber func(Event)

// dispatcher delivers events to subscribers in publish order on its own
// goroutine. publish never blocks: the queue is unbounded.
type dispatcher struct {
	logger Logger

	mu     sync.Mutex
	queue  []Event
	subs   []Subscriber
	closed bool

	wake chan struct{}
	quit chan struct{}
	done chan struct{}
}

func newDispatcher(logger Logger) *dispatcher {
	d := &dispatcher{
		logger: logger,
		wake:   make(chan struct{}, 1),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *dispatcher) subscribe(fn Subscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subs = append(d.subs, fn)
}

func (d *dispatcher) publish(ev Event) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.queue = append(d.queue, ev)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *dispatcher) run() {
	defer close(d.done)
	for {
		select {
		case <-d.wake:
			d.drain()
		case <-d.quit:
			d.drain()
			return
		}
	}
}

func (d *dispatcher) drain() {
	for {
		d.mu.Lock()
		if len(d.queue) == 0 {
			d.mu.Unlock()
			return
		}
		ev := d.queue[0]
		d.queue[0] = Event{}
		d.queue = d.queue[1:]
		subs := make([]Subscriber, len(d.subs))
		copy(subs, d.subs)
		d.mu.Unlock()

		for _, fn := range subs {
			d.deliver(fn, ev)
		}
	}
}

func (d *dispatcher) deliver(fn Subscriber, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("event subscriber panicked",
				"event", string(ev.Type),
				"transmission_id", ev.TransmissionID,
				"panic", fmt.Sprint(r),
			)
		}
	}()
	fn(ev)
}

// close delivers everything already queued, then stops the goroutine.
// Events published afterwards are dropped.
func (d *dispatcher) close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		<-d.done
		return
	}
	d.closed = true
	d.mu.Unlock()

	close(d.quit)
	<-d.done
}
