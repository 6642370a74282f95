package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-ulink/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-ulink/internal/ulink"
)

// MQTTClient is the subset of *mqtt.Client the bridge uses.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	IsConnected() bool
}

// Controller is the subset of *ulink.Controller the bridge drives.
type Controller interface {
	Start(payload []byte) error
	Stop()
	Status() ulink.Status
	OnEvent(fn ulink.Subscriber)
}

// Logger is the logging interface used by the bridge.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Options holds what a Bridge needs.
type Options struct {
	MQTT       MQTTClient
	Controller Controller
	Topics     mqtt.Topics
	Site       string
	QoS        byte
	Logger     Logger
}

// Bridge translates MQTT commands into controller calls and controller
// events into MQTT messages.
//
// Thread Safety: All methods are safe for concurrent use.
type Bridge struct {
	mqtt   MQTTClient
	ctrl   Controller
	topics mqtt.Topics
	site   string
	qos    byte
	logger Logger
	now    func() time.Time

	mu      sync.Mutex
	started bool
	closed  bool
}

// New creates a Bridge. Call Start to subscribe.
func New(opts Options) (*Bridge, error) {
	if opts.MQTT == nil {
		return nil, ErrMQTTClientRequired
	}
	if opts.Controller == nil {
		return nil, ErrControllerRequired
	}

	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	return &Bridge{
		mqtt:   opts.MQTT,
		ctrl:   opts.Controller,
		topics: opts.Topics,
		site:   opts.Site,
		qos:    opts.QoS,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Start subscribes to the command topic, registers for controller events
// and publishes the current state. Calling it twice is a no-op.
func (b *Bridge) Start() error {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return nil
	}
	b.started = true
	b.mu.Unlock()

	if err := b.mqtt.Subscribe(b.topics.Command(), b.qos, b.handleCommand); err != nil {
		b.mu.Lock()
		b.started = false
		b.mu.Unlock()
		return fmt.Errorf("subscribing to commands: %w", err)
	}

	b.ctrl.OnEvent(b.handleEvent)
	b.PublishState()

	b.logger.Info("mqtt bridge started", "command_topic", b.topics.Command())
	return nil
}

// Close stops publishing. The controller keeps running.
func (b *Bridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
}

func (b *Bridge) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// handleCommand is the MQTT handler for the command topic. Returned errors
// are logged by the MQTT client.
func (b *Bridge) handleCommand(_ string, payload []byte) error {
	if b.isClosed() {
		return nil
	}

	cmd, err := ParseCommand(payload)
	if err != nil {
		return err
	}

	switch cmd.Action {
	case ActionStart:
		data, err := ulink.ParsePayload(cmd.PayloadInput)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidCommand, err)
		}
		if err := b.ctrl.Start(data); err != nil {
			if errors.Is(err, ulink.ErrAlreadyRunning) {
				b.logger.Warn("start command ignored", "reason", "already running")
				return nil
			}
			return fmt.Errorf("starting transmission: %w", err)
		}
	case ActionStop:
		b.ctrl.Stop()
	}

	b.logger.Debug("mqtt command handled", "action", cmd.Action)
	return nil
}

// ParseCommand decodes and validates a command message.
func ParseCommand(payload []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return Command{}, fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}

	cmd.Action = strings.ToLower(strings.TrimSpace(cmd.Action))
	switch cmd.Action {
	case ActionStart, ActionStop:
		return cmd, nil
	case "":
		return Command{}, fmt.Errorf("%w: missing action", ErrInvalidCommand)
	default:
		return Command{}, fmt.Errorf("%w: unknown action %q", ErrInvalidCommand, cmd.Action)
	}
}

// handleEvent is the controller subscriber.
func (b *Bridge) handleEvent(ev ulink.Event) {
	if b.isClosed() {
		return
	}

	msg := EventMessage{Site: b.site, Event: ev, Timestamp: b.now().UTC()}
	body, err := json.Marshal(msg)
	if err != nil {
		b.logger.Error("marshalling event failed", "error", err)
		return
	}

	topic := b.topics.Event(string(ev.Type))
	if err := b.mqtt.Publish(topic, body, b.qos, false); err != nil {
		b.logger.Warn("publishing event failed", "topic", topic, "error", err)
	}

	b.PublishState()
}

// PublishState publishes the controller status as a retained message.
// main also calls it after every reconnect.
func (b *Bridge) PublishState() {
	if b.isClosed() {
		return
	}

	msg := StateMessage{Site: b.site, Status: b.ctrl.Status(), Timestamp: b.now().UTC()}
	body, err := json.Marshal(msg)
	if err != nil {
		b.logger.Error("marshalling state failed", "error", err)
		return
	}

	if err := b.mqtt.Publish(b.topics.State(), body, b.qos, true); err != nil {
		b.logger.Warn("publishing state failed", "topic", b.topics.State(), "error", err)
	}
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
