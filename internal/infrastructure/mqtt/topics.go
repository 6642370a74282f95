package mqtt

import "strings"

// Topics builds the topic names used by one ulink sender.
//
//	topics := mqtt.NewTopics("ulink", "bench-01")
//	topics.Event("started") // "ulink/bench-01/event/started"
type Topics struct {
	base string
}

// NewTopics returns builders rooted at {prefix}/{site}. Surrounding
// slashes are trimmed from both parts.
func NewTopics(prefix, site string) Topics {
	prefix = strings.Trim(prefix, "/")
	site = strings.Trim(site, "/")
	if site == "" {
		return Topics{base: prefix}
	}
	return Topics{base: prefix + "/" + site}
}

// Base returns the common root of every topic.
func (t Topics) Base() string { return t.base }

// Command is where start and stop requests arrive.
func (t Topics) Command() string { return t.base + "/command" }

// Event returns the topic for one lifecycle event type.
func (t Topics) Event(eventType string) string { return t.base + "/event/" + eventType }

// AllEvents matches every event topic.
func (t Topics) AllEvents() string { return t.base + "/event/+" }

// State carries the retained running state.
func (t Topics) State() string { return t.base + "/state" }

// SystemStatus carries the retained online/offline status and the LWT.
func (t Topics) SystemStatus() string { return t.base + "/system/status" }
