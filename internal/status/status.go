// Package status provides a thread-safe status tracker for the metronome
// daemon. It is designed to be read by HTTP handlers.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/metronome/internal/logic"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	BPM         int // startup default, restored after a watchdog reset
	WatchdogMs  int64
	HeartbeatMs int64
	Debounce    string
	Backend     string
	Broker      string
	HTTPAddr    string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	BPM            int
	Period         time.Duration
	WakeInterval   time.Duration
	Mode           logic.Mode
	Beats          int
	LastBeat       time.Time
	Presses        logic.PressCounts
	WatchdogResets int
	StartTime      time.Time
	Now            time.Time
	MQTTConnected  bool
	Network        *NetworkInfo
	Config         Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// UpdateTempo sets the current tempo view. Called from the run loop at
// startup and after every accepted tempo change or watchdog reset.
func (t *Tracker) UpdateTempo(bpm int, period, wake time.Duration, mode logic.Mode) {
	t.mu.Lock()
	t.snap.BPM = bpm
	t.snap.Period = period
	t.snap.WakeInterval = wake
	t.snap.Mode = mode
	t.mu.Unlock()
}

// RecordBeat counts an output pulse.
func (t *Tracker) RecordBeat(at time.Time) {
	t.mu.Lock()
	t.snap.Beats++
	t.snap.LastBeat = at
	t.mu.Unlock()
}

// SetPresses sets the button activity counters.
func (t *Tracker) SetPresses(counts logic.PressCounts) {
	t.mu.Lock()
	t.snap.Presses = counts
	t.mu.Unlock()
}

// RecordWatchdogReset counts a supervisor-forced restart of the run loop.
func (t *Tracker) RecordWatchdogReset() {
	t.mu.Lock()
	t.snap.WatchdogResets++
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
