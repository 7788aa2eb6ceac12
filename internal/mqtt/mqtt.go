// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sweeney/ir-receiver/internal/receiver"
)

// Topic is the MQTT topic for key events.
const Topic = "home/ir/receiver/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "home/ir/receiver/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a key event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event receiver.KeyEvent) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT", "OFFLINE"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	IR IRPayload `json:"ir"`
}

// IRPayload contains the key event details.
type IRPayload struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Protocol  string `json:"protocol"`
	Address   string `json:"address"`
	Command   string `json:"command"`
	Toggle    bool   `json:"toggle"`
	Key       string `json:"key"`
	Power     bool   `json:"power"`
}

// FormatPayload creates the JSON payload for a key event.
// Codes are rendered as hex strings, the way remote keymaps list them.
func FormatPayload(event receiver.KeyEvent) ([]byte, error) {
	sc := event.Scancode
	payload := Payload{
		IR: IRPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(event.Type()),
			Protocol:  sc.Protocol.String(),
			Address:   fmt.Sprintf("0x%04x", sc.Address),
			Command:   fmt.Sprintf("0x%02x", sc.Command),
			Toggle:    sc.Toggle,
			Key:       event.Key.Name,
			Power:     event.Key.Power,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// WillPayload is the retained last-will message the broker publishes when
// the connection drops without a clean disconnect.
func WillPayload(now time.Time) []byte {
	// Marshalling a struct of strings cannot fail.
	payload, _ := FormatSystemPayload(SystemEvent{
		Timestamp: now,
		Event:     "OFFLINE",
		Reason:    "MQTT_DISCONNECT",
	})
	return payload
}
