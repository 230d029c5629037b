package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	BPM            int          `json:"bpm"`
	PeriodMs       int64        `json:"period_ms"`
	WakeMs         int64        `json:"wake_ms"`
	Mode           string       `json:"mode"`
	Beats          int          `json:"beats"`
	LastBeat       string       `json:"last_beat,omitempty"`
	WatchdogResets int          `json:"watchdog_resets"`
	UptimeSeconds  int64        `json:"uptime_seconds"`
	StartTime      string       `json:"start_time"`
	Timestamp      string       `json:"timestamp"`
	MQTT           MQTTStatus   `json:"mqtt"`
	Presses        PressesJSON  `json:"press_counts"`
	Network        *NetworkJSON `json:"network,omitempty"`
	Config         ConfigJSON   `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// PressesJSON is the JSON representation of button activity.
type PressesJSON struct {
	Up       int `json:"up"`
	Down     int `json:"down"`
	Spare    int `json:"spare"`
	Rejected int `json:"rejected"`
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
	BPM         int    `json:"bpm"`
	WatchdogMs  int64  `json:"watchdog_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Debounce    string `json:"debounce"`
	Backend     string `json:"backend"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	mode := string(snap.Mode)
	if mode == "" {
		mode = "UNKNOWN"
	}

	lastBeat := ""
	if !snap.LastBeat.IsZero() {
		lastBeat = snap.LastBeat.UTC().Format(time.RFC3339)
	}

	return StatusInner{
		BPM:            snap.BPM,
		PeriodMs:       snap.Period.Milliseconds(),
		WakeMs:         snap.WakeInterval.Milliseconds(),
		Mode:           mode,
		Beats:          snap.Beats,
		LastBeat:       lastBeat,
		WatchdogResets: snap.WatchdogResets,
		UptimeSeconds:  int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:      snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:      snap.Now.UTC().Format(time.RFC3339),
		MQTT:           MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Presses: PressesJSON{
			Up:       snap.Presses.Up,
			Down:     snap.Presses.Down,
			Spare:    snap.Presses.Spare,
			Rejected: snap.Presses.Rejected,
		},
		Config: ConfigJSON{
			BPM:         snap.Config.BPM,
			WatchdogMs:  snap.Config.WatchdogMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Debounce:    snap.Config.Debounce,
			Backend:     snap.Config.Backend,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
		},
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

// FormatJSON returns the JSON status for the web endpoint.
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}
