package bridge

import "errors"

var (
	// ErrMQTTClientRequired is returned by New without an MQTT client.
	ErrMQTTClientRequired = errors.New("bridge: mqtt client is required")

	// ErrControllerRequired is returned by New without a controller.
	ErrControllerRequired = errors.New("bridge: controller is required")

	// ErrInvalidCommand is returned for a command that cannot be parsed or
	// names an unknown action.
	ErrInvalidCommand = errors.New("bridge: invalid command")
)
