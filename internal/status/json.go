package status

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sweeney/ir-receiver/internal/receiver"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Decoder       string       `json:"decoder"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"counts"`
	LastKey       *KeyJSON     `json:"last_key,omitempty"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of receiver counts.
type CountsJSON struct {
	Frames       int `json:"frames"`
	Keys         int `json:"keys"`
	Repeats      int `json:"repeats"`
	Overflows    int `json:"overflows"`
	Discarded    int `json:"discarded_events"`
	DecodeErrors int `json:"decode_errors"`
	Rejected     int `json:"rejected"`
	NEC          int `json:"nec"`
	RC5          int `json:"rc5"`
}

// KeyJSON is the JSON representation of the last key event.
type KeyJSON struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Protocol  string `json:"protocol"`
	Address   string `json:"address"`
	Command   string `json:"command"`
	Key       string `json:"key"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Chip        string `json:"chip"`
	Line        int    `json:"line"`
	ActiveLow   bool   `json:"active_low"`
	SampleClock string `json:"sample_clock"`
	UnitNs      int64  `json:"unit_ns"`
	IdleMs      int64  `json:"idle_ms"`
	FIFOSize    int    `json:"fifo_size"`
	PollMs      int64  `json:"poll_ms"`
	Protocols   string `json:"protocols"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPPort    string `json:"http_port"`
	WSBroker    string `json:"ws_broker,omitempty"`
}

func buildInner(snap Snapshot) StatusInner {
	c := snap.Counts
	inner := StatusInner{
		Decoder:       snap.State.String(),
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Frames:       c.Frames,
			Keys:         c.Keys,
			Repeats:      c.Repeats,
			Overflows:    c.Overflows,
			Discarded:    c.Discarded,
			DecodeErrors: c.DecodeErrors,
			Rejected:     c.Rejected,
			NEC:          c.NEC,
			RC5:          c.RC5,
		},
		Config: ConfigJSON{
			Chip:        snap.Config.Chip,
			Line:        snap.Config.Line,
			ActiveLow:   snap.Config.ActiveLow,
			SampleClock: snap.Config.SampleClock,
			UnitNs:      snap.Config.UnitNs,
			IdleMs:      snap.Config.IdleMs,
			FIFOSize:    snap.Config.FIFOSize,
			PollMs:      snap.Config.PollMs,
			Protocols:   snap.Config.Protocols,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPPort:    snap.Config.HTTPPort,
			WSBroker:    snap.Config.WSBroker,
		},
	}

	if k := snap.LastKey; k != nil {
		kj := buildKey(*k)
		inner.LastKey = &kj
	}
	return inner
}

func buildKey(k receiver.KeyEvent) KeyJSON {
	return KeyJSON{
		Timestamp: k.Timestamp.UTC().Format(time.RFC3339),
		Event:     string(k.Type()),
		Protocol:  k.Scancode.Protocol.String(),
		Address:   fmt.Sprintf("0x%04x", k.Scancode.Address),
		Command:   fmt.Sprintf("0x%02x", k.Scancode.Command),
		Key:       k.Key.Name,
	}
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}

// FormatLastKey returns the last key as JSON, or nil before the first key.
func FormatLastKey(snap Snapshot) []byte {
	if snap.LastKey == nil {
		return nil
	}
	data, _ := json.Marshal(buildKey(*snap.LastKey))
	return data
}
