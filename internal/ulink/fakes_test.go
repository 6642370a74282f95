package ulink

import (
	"errors"
	"net"
	"sync"
	"testing"
	"time"
)

// fakeConn records every datagram written to it.
type fakeConn struct {
	mu       sync.Mutex
	sent     []string
	bodies   [][]byte
	ports    []int
	closes   int
	closeErr error

	// failWrite returns an error for matching destinations.
	failWrite func(dst string) bool

	// onWrite runs after each write attempt with the attempt count.
	onWrite  func(attempt int)
	attempts int
}

func (c *fakeConn) WriteTo(b []byte, dst net.Addr) (int, error) {
	udp := dst.(*net.UDPAddr)
	ip := udp.IP.String()

	c.mu.Lock()
	c.attempts++
	attempt := c.attempts
	var err error
	if c.failWrite != nil && c.failWrite(ip) {
		err = errors.New("network is unreachable")
	} else {
		c.sent = append(c.sent, ip)
		c.bodies = append(c.bodies, append([]byte(nil), b...))
		c.ports = append(c.ports, udp.Port)
	}
	hook := c.onWrite
	c.mu.Unlock()

	if hook != nil {
		hook(attempt)
	}
	if err != nil {
		return 0, err
	}
	return len(b), nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closes++
	return c.closeErr
}

func (c *fakeConn) Sent() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.sent...)
}

func (c *fakeConn) Closes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}

// fakeDialer hands out one fakeConn and counts opens.
type fakeDialer struct {
	mu       sync.Mutex
	conn     *fakeConn
	dials    int
	failures int // number of initial dials that fail
}

func (d *fakeDialer) Dial() (PacketConn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if d.dials <= d.failures {
		return nil, errors.New("no such device")
	}
	return d.conn, nil
}

func (d *fakeDialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

// eventLog collects published events.
type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) add(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) snapshot() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event(nil), l.events...)
}

func (l *eventLog) types() []EventType {
	var out []EventType
	for _, ev := range l.snapshot() {
		out = append(out, ev.Type)
	}
	return out
}

// failureLog implements Observer.
type failureLog struct {
	mu   sync.Mutex
	errs []error
}

func (f *failureLog) SendFailed(_ string, _ Address, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs = append(f.errs, err)
}

func (f *failureLog) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.errs)
}

func noSleep(time.Duration) {}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for transmission to stop")
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
