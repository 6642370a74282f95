package bridge

import (
	"time"

	"github.com/nerrad567/gray-logic-ulink/internal/ulink"
)

// Command actions.
const (
	ActionStart = "start"
	ActionStop  = "stop"
)

// Command is the body of a message on the command topic.
type Command struct {
	Action string `json:"action"`
	ulink.PayloadInput
}

// EventMessage is published on the event topics.
type EventMessage struct {
	Site      string      `json:"site"`
	Event     ulink.Event `json:"event"`
	Timestamp time.Time   `json:"timestamp"`
}

// StateMessage is the retained controller status.
type StateMessage struct {
	Site      string       `json:"site"`
	Status    ulink.Status `json:"status"`
	Timestamp time.Time    `json:"timestamp"`
}
