// Package mqtt publishes scheduler events for home-automation consumers.
// Optional: the daemon runs fine with no broker configured.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/thatsimonsguy/misting-controller/internal/scheduler"
)

// Topic carries scheduler activity events.
const Topic = "garden/mister/events"

// TopicSystem carries daemon lifecycle events.
const TopicSystem = "garden/mister/system"

// Publisher publishes scheduler events to a broker.
type Publisher interface {
	Publish(event scheduler.Event) error
	PublishSystem(event string) error
	Close() error
}

// Payload is the wire shape of a scheduler event.
type Payload struct {
	Mister MisterPayload `json:"mister"`
}

type MisterPayload struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	State     string `json:"state"`
	Epoch     int64  `json:"epoch,omitempty"`
	Enabled   *bool  `json:"enabled,omitempty"`
}

// FormatPayload creates the JSON payload for a scheduler event.
func FormatPayload(event scheduler.Event) ([]byte, error) {
	payload := Payload{
		Mister: MisterPayload{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Event:     string(event.Type),
			State:     string(event.State),
			Epoch:     event.Epoch,
			Enabled:   event.Enabled,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload is the wire shape of a lifecycle event.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
}

func FormatSystemPayload(event string) ([]byte, error) {
	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Event:     event,
		},
	}
	return json.Marshal(payload)
}
