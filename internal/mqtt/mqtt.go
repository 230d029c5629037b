// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/metronome/internal/logic"
)

// Topic is the MQTT topic for tempo and beat events.
const Topic = "devices/metronome/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "devices/metronome/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a tempo or beat event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event. Exactly one of Config or
// Heartbeat is set for STARTUP and HEARTBEAT events; WATCHDOG_RESET and
// SHUTDOWN carry a reason.
type SystemEvent struct {
	Timestamp time.Time
	Event     string // "STARTUP", "SHUTDOWN", "HEARTBEAT", "WATCHDOG_RESET", "RECONNECTED"
	Reason    string // e.g. "SIGTERM", "loop hang"
	Retained  bool   // whether the broker should retain the message
	Config    *SystemConfig
	Heartbeat *HeartbeatInfo
	Network   *NetworkInfo
}

// SystemConfig is the daemon configuration reported at startup.
type SystemConfig struct {
	BPM         int    `json:"bpm"`
	WatchdogMs  int64  `json:"watchdog_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Debounce    string `json:"debounce"`
	Backend     string `json:"backend"`
	Broker      string `json:"broker"`
}

// HeartbeatInfo is the periodic liveness report.
type HeartbeatInfo struct {
	UptimeSeconds int64           `json:"uptime_seconds"`
	BPM           int             `json:"bpm"`
	Counts        HeartbeatCounts `json:"counts"`
}

// HeartbeatCounts carries the activity counters since startup.
type HeartbeatCounts struct {
	Beats     int `json:"beats"`
	TempoUp   int `json:"tempo_up"`
	TempoDown int `json:"tempo_down"`
	Rejected  int `json:"rejected"`
}

// NetworkInfo describes the host's network connection.
type NetworkInfo struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Tempo TempoPayload `json:"tempo"`
}

// TempoPayload contains the event details.
type TempoPayload struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	BPM       int    `json:"bpm"`
	PeriodMS  int64  `json:"period_ms"`
}

// FormatPayload creates the JSON payload for a tempo or beat event.
func FormatPayload(event logic.Event) ([]byte, error) {
	payload := Payload{
		Tempo: TempoPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(event.Type),
			BPM:       event.BPM,
			PeriodMS:  event.Period.Milliseconds(),
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string         `json:"timestamp"`
	Event     string         `json:"event"`
	Reason    string         `json:"reason,omitempty"`
	Config    *SystemConfig  `json:"config,omitempty"`
	Heartbeat *HeartbeatInfo `json:"heartbeat,omitempty"`
	Network   *NetworkInfo   `json:"network,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
			Config:    event.Config,
			Heartbeat: event.Heartbeat,
			Network:   event.Network,
		},
	}
	return json.Marshal(payload)
}
