package bridge

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-ulink/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-ulink/internal/ulink"
)

// MockMQTTClient implements MQTTClient for testing.
type MockMQTTClient struct {
	mu         sync.Mutex
	published  []mockPublish
	handlers   map[string]mqtt.MessageHandler
	connected  bool
	publishErr error
	subErr     error
}

type mockPublish struct {
	Topic    string
	Payload  []byte
	QoS      byte
	Retained bool
}

func NewMockMQTTClient() *MockMQTTClient {
	return &MockMQTTClient{
		connected: true,
		handlers:  make(map[string]mqtt.MessageHandler),
	}
}

func (m *MockMQTTClient) Publish(topic string, payload []byte, qos byte, retained bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishErr != nil {
		return m.publishErr
	}
	m.published = append(m.published, mockPublish{Topic: topic, Payload: payload, QoS: qos, Retained: retained})
	return nil
}

func (m *MockMQTTClient) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subErr != nil {
		return m.subErr
	}
	m.handlers[topic] = handler
	return nil
}

func (m *MockMQTTClient) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *MockMQTTClient) GetPublished() []mockPublish {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mockPublish(nil), m.published...)
}

func (m *MockMQTTClient) publishedTo(topic string) []mockPublish {
	var out []mockPublish
	for _, p := range m.GetPublished() {
		if p.Topic == topic {
			out = append(out, p)
		}
	}
	return out
}

// SimulateMessage delivers payload to the handler subscribed on topic.
func (m *MockMQTTClient) SimulateMessage(t *testing.T, topic string, payload string) error {
	t.Helper()
	m.mu.Lock()
	handler, ok := m.handlers[topic]
	m.mu.Unlock()
	if !ok {
		t.Fatalf("no subscription on %q", topic)
	}
	return handler(topic, []byte(payload))
}

// fakeController records calls and lets tests fire events.
type fakeController struct {
	mu       sync.Mutex
	started  [][]byte
	stops    int
	startErr error
	status   ulink.Status
	subs     []ulink.Subscriber
}

func (f *fakeController) Start(payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.started = append(f.started, payload)
	f.status.Running = true
	return nil
}

func (f *fakeController) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

func (f *fakeController) Status() ulink.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeController) OnEvent(fn ulink.Subscriber) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, fn)
}

func (f *fakeController) fire(ev ulink.Event) {
	f.mu.Lock()
	subs := append([]ulink.Subscriber(nil), f.subs...)
	f.mu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}

var testTopics = mqtt.NewTopics("ulink", "site-1")

func newTestBridge(t *testing.T) (*Bridge, *MockMQTTClient, *fakeController) {
	t.Helper()

	client := NewMockMQTTClient()
	ctrl := &fakeController{}
	b, err := New(Options{
		MQTT:       client,
		Controller: ctrl,
		Topics:     testTopics,
		Site:       "site-1",
		QoS:        1,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	b.now = func() time.Time { return time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC) }

	if err := b.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return b, client, ctrl
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Options{Controller: &fakeController{}}); !errors.Is(err, ErrMQTTClientRequired) {
		t.Errorf("New() without client error = %v, want ErrMQTTClientRequired", err)
	}
	if _, err := New(Options{MQTT: NewMockMQTTClient()}); !errors.Is(err, ErrControllerRequired) {
		t.Errorf("New() without controller error = %v, want ErrControllerRequired", err)
	}
}

func TestStart_SubscribesAndPublishesState(t *testing.T) {
	_, client, ctrl := newTestBridge(t)

	if _, ok := client.handlers[testTopics.Command()]; !ok {
		t.Errorf("no subscription on %s", testTopics.Command())
	}
	if len(ctrl.subs) != 1 {
		t.Errorf("registered %d event subscribers, want 1", len(ctrl.subs))
	}

	states := client.publishedTo(testTopics.State())
	if len(states) != 1 {
		t.Fatalf("published %d state messages, want 1", len(states))
	}
	if !states[0].Retained {
		t.Error("state message must be retained")
	}
}

func TestStart_Idempotent(t *testing.T) {
	b, client, ctrl := newTestBridge(t)

	if err := b.Start(); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}
	if len(ctrl.subs) != 1 {
		t.Errorf("registered %d event subscribers, want 1", len(ctrl.subs))
	}
	if got := len(client.publishedTo(testTopics.State())); got != 1 {
		t.Errorf("published %d state messages, want 1", got)
	}
}

func TestStart_SubscribeError(t *testing.T) {
	client := NewMockMQTTClient()
	client.subErr = mqtt.ErrNotConnected

	b, err := New(Options{MQTT: client, Controller: &fakeController{}, Topics: testTopics})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := b.Start(); !errors.Is(err, mqtt.ErrNotConnected) {
		t.Errorf("Start() error = %v, want ErrNotConnected", err)
	}
}

func TestHandleCommand(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		wantErr   error
		wantStart []byte
		wantStops int
	}{
		{
			name:      "start text",
			payload:   `{"action":"start","text":"hi"}`,
			wantStart: []byte("hi"),
		},
		{
			name:      "start text null terminated",
			payload:   `{"action":"start","text":"hi","null_terminate":true}`,
			wantStart: []byte{'h', 'i', 0},
		},
		{
			name:      "start hex",
			payload:   `{"action":"START","hex":"de:ad"}`,
			wantStart: []byte{0xde, 0xad},
		},
		{
			name:      "stop",
			payload:   `{"action":"stop"}`,
			wantStops: 1,
		},
		{
			name:    "invalid json",
			payload: `{"action":`,
			wantErr: ErrInvalidCommand,
		},
		{
			name:    "missing action",
			payload: `{"text":"hi"}`,
			wantErr: ErrInvalidCommand,
		},
		{
			name:    "unknown action",
			payload: `{"action":"pause"}`,
			wantErr: ErrInvalidCommand,
		},
		{
			name:    "bad hex",
			payload: `{"action":"start","hex":"zz"}`,
			wantErr: ulink.ErrInvalidPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, client, ctrl := newTestBridge(t)

			err := client.SimulateMessage(t, testTopics.Command(), tt.payload)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("handler error = %v, want %v", err, tt.wantErr)
				}
				if len(ctrl.started) != 0 {
					t.Error("controller started on an invalid command")
				}
				return
			}
			if err != nil {
				t.Fatalf("handler error = %v", err)
			}

			if tt.wantStart != nil {
				if len(ctrl.started) != 1 || string(ctrl.started[0]) != string(tt.wantStart) {
					t.Errorf("started = %v, want [%v]", ctrl.started, tt.wantStart)
				}
			}
			if ctrl.stops != tt.wantStops {
				t.Errorf("stops = %d, want %d", ctrl.stops, tt.wantStops)
			}
		})
	}
}

func TestHandleCommand_AlreadyRunningIsNotAnError(t *testing.T) {
	_, client, ctrl := newTestBridge(t)
	ctrl.startErr = ulink.ErrAlreadyRunning

	if err := client.SimulateMessage(t, testTopics.Command(), `{"action":"start","text":"x"}`); err != nil {
		t.Errorf("handler error = %v, want nil", err)
	}
}

func TestHandleCommand_PayloadTooLong(t *testing.T) {
	_, client, ctrl := newTestBridge(t)
	ctrl.startErr = ulink.ErrPayloadTooLong

	err := client.SimulateMessage(t, testTopics.Command(), `{"action":"start","text":"x"}`)
	if !errors.Is(err, ulink.ErrPayloadTooLong) {
		t.Errorf("handler error = %v, want ErrPayloadTooLong", err)
	}
}

func TestHandleEvent_PublishesEventAndState(t *testing.T) {
	_, client, ctrl := newTestBridge(t)

	ctrl.fire(ulink.Event{Type: ulink.EventStarted, TransmissionID: "tx-1", PayloadLength: 2, Header: "239.0.2.3"})
	ctrl.fire(ulink.Event{Type: ulink.EventStopped, TransmissionID: "tx-1"})

	for _, evType := range []string{"started", "stopped"} {
		msgs := client.publishedTo(testTopics.Event(evType))
		if len(msgs) != 1 {
			t.Fatalf("published %d messages to %s, want 1", len(msgs), testTopics.Event(evType))
		}
		if msgs[0].Retained {
			t.Errorf("%s event must not be retained", evType)
		}
		if msgs[0].QoS != 1 {
			t.Errorf("%s event QoS = %d, want 1", evType, msgs[0].QoS)
		}

		var msg EventMessage
		if err := json.Unmarshal(msgs[0].Payload, &msg); err != nil {
			t.Fatalf("unmarshal event: %v", err)
		}
		if msg.Site != "site-1" || msg.Event.TransmissionID != "tx-1" {
			t.Errorf("event message = %+v", msg)
		}
	}

	// One state on Start plus one per event.
	if got := len(client.publishedTo(testTopics.State())); got != 3 {
		t.Errorf("published %d state messages, want 3", got)
	}
}

func TestHandleEvent_PublishErrorIsLogged(t *testing.T) {
	_, client, ctrl := newTestBridge(t)
	client.mu.Lock()
	client.publishErr = mqtt.ErrNotConnected
	client.mu.Unlock()

	ctrl.fire(ulink.Event{Type: ulink.EventStarted, TransmissionID: "tx-1"})
}

func TestClose_StopsPublishing(t *testing.T) {
	b, client, ctrl := newTestBridge(t)
	before := len(client.GetPublished())

	b.Close()
	ctrl.fire(ulink.Event{Type: ulink.EventStarted, TransmissionID: "tx-1"})
	if err := client.SimulateMessage(t, testTopics.Command(), `{"action":"stop"}`); err != nil {
		t.Errorf("handler error after Close = %v", err)
	}

	if got := len(client.GetPublished()); got != before {
		t.Errorf("published %d messages after Close", got-before)
	}
	if ctrl.stops != 0 {
		t.Error("command handled after Close")
	}
}

func TestParseCommand(t *testing.T) {
	cmd, err := ParseCommand([]byte(`{"action":" Start ","text":"abc","null_terminate":true}`))
	if err != nil {
		t.Fatalf("ParseCommand() error = %v", err)
	}
	if cmd.Action != ActionStart || cmd.Text != "abc" || !cmd.NullTerminate {
		t.Errorf("ParseCommand() = %+v", cmd)
	}

	_, err = ParseCommand([]byte(`{"action":"fly"}`))
	if err == nil || !strings.Contains(err.Error(), "fly") {
		t.Errorf("ParseCommand() error = %v, want unknown action", err)
	}
}
