package internal

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/sweeney/metronome/internal/gpio"
	"github.com/sweeney/metronome/internal/logic"
	"github.com/sweeney/metronome/internal/mqtt"
	"github.com/sweeney/metronome/internal/waketimer"
)

// runTicks drives n wake ticks through the tempo controller, pulsing the
// port on each due beat. Returns which ticks produced a beat.
func runTicks(t *testing.T, tempo *logic.Tempo, port *gpio.FakePort, n int) []bool {
	t.Helper()
	beats := make([]bool, n)
	for i := 0; i < n; i++ {
		tempo.OnWakeTick()
		if tempo.TakeBeatDue() {
			beats[i] = true
			if err := port.SetOutput(true); err != nil {
				t.Fatalf("tick %d: output error: %v", i, err)
			}
			if err := port.SetOutput(false); err != nil {
				t.Fatalf("tick %d: output error: %v", i, err)
			}
		}
	}
	return beats
}

// confirmPress walks the settle machine against the port's scripted levels,
// the way the control loop does between wake ticks.
func confirmPress(t *testing.T, deb *logic.Debouncer, port *gpio.FakePort, in gpio.Input, at time.Time) (time.Time, bool) {
	t.Helper()
	if !deb.Trigger(at) {
		t.Fatal("edge did not start a press")
	}
	now := at
	confirmed := false
	for deb.Active() {
		now = now.Add(deb.Waiting(now))
		pressed, err := port.Pressed(in)
		if err != nil {
			t.Fatalf("pressed read error: %v", err)
		}
		if deb.Advance(now, pressed) {
			confirmed = true
		}
	}
	return now, confirmed
}

// TestIntegrationFullFlow runs the complete flow: beats on wake ticks, a
// confirmed button press stepping the tempo, the wake timer reprogrammed,
// and the tempo event published with the exact payload.
func TestIntegrationFullFlow(t *testing.T) {
	tempo := logic.NewTempo(100)
	port := gpio.NewFakePort()
	alarm := waketimer.NewFakeAlarm()
	publisher := mqtt.NewFakePublisher()

	// Two wake ticks at 100 BPM: fast mode, every tick beats.
	pattern := runTicks(t, tempo, port, 2)
	for i, beat := range pattern {
		if !beat {
			t.Errorf("tick %d: expected a beat", i)
		}
	}

	// A clean up press: held through the settle window, released on the
	// first poll.
	port.Script(gpio.InputUp, true, false)
	deb := logic.NewDebouncer(logic.SettleTime, logic.ReleasePoll)
	pressTime := time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC)
	_, confirmed := confirmPress(t, deb, port, gpio.InputUp, pressTime)
	if !confirmed {
		t.Fatal("expected the press to confirm")
	}

	bpm, changed := tempo.RequestDelta(logic.BPMStep)
	if !changed || bpm != 105 {
		t.Fatalf("expected tempo change to 105, got %d (changed=%v)", bpm, changed)
	}
	if err := publisher.Publish(logic.Event{
		Timestamp: pressTime,
		Type:      logic.EventTempoUp,
		BPM:       bpm,
		Period:    tempo.Period(),
	}); err != nil {
		t.Fatalf("publish error: %v", err)
	}

	if !tempo.TakeReconfigure() {
		t.Fatal("expected a pending reconfiguration")
	}
	alarm.Reprogram(tempo.WakeInterval())
	tempo.ResetPhase()

	// Two more ticks at the new cadence: still fast mode, every tick beats.
	pattern = runTicks(t, tempo, port, 2)
	for i, beat := range pattern {
		if !beat {
			t.Errorf("post-change tick %d: expected a beat", i)
		}
	}

	// 4 beats, each a high/low pair.
	if len(port.Outputs) != 8 {
		t.Fatalf("expected 8 output transitions, got %d", len(port.Outputs))
	}
	for i, high := range port.Outputs {
		if high != (i%2 == 0) {
			t.Errorf("output %d: got %v", i, high)
		}
	}

	if alarm.LastProgrammed() != 571*time.Millisecond {
		t.Errorf("wake interval: got %v, want 571ms", alarm.LastProgrammed())
	}

	if len(publisher.Events) != 1 {
		t.Fatalf("expected 1 tempo event, got %d", len(publisher.Events))
	}

	expected := `{"tempo":{"timestamp":"2026-02-02T22:18:12Z","event":"TEMPO_UP","bpm":105,"period_ms":571}}`
	if string(publisher.Payloads[0]) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", string(publisher.Payloads[0]), expected)
	}
}

// TestIntegrationCoarseBeatCadence verifies the 1s accumulator at 40 BPM:
// a 1500ms period beats on every second tick.
func TestIntegrationCoarseBeatCadence(t *testing.T) {
	tempo := logic.NewTempo(40)
	port := gpio.NewFakePort()

	if tempo.Mode() != logic.ModeCoarse {
		t.Fatalf("expected coarse mode, got %s", tempo.Mode())
	}
	if tempo.WakeInterval() != time.Second {
		t.Fatalf("expected 1s wake interval, got %v", tempo.WakeInterval())
	}

	pattern := runTicks(t, tempo, port, 6)
	want := []bool{false, true, false, true, false, true}
	for i := range want {
		if pattern[i] != want[i] {
			t.Errorf("tick %d: beat=%v, want %v", i, pattern[i], want[i])
		}
	}
}

// TestIntegrationReprogramRebasesPhase verifies that a tempo change mid
// accumulation re-bases the beat phase: the next beat is a full new period
// away, not carried over from the old accumulation.
func TestIntegrationReprogramRebasesPhase(t *testing.T) {
	tempo := logic.NewTempo(40)
	port := gpio.NewFakePort()

	// One tick accumulates 1000ms of the 1500ms period: no beat yet.
	pattern := runTicks(t, tempo, port, 1)
	if pattern[0] {
		t.Fatal("tick 0: unexpected beat")
	}

	// Tempo change to 45 BPM (1333ms period, still coarse).
	bpm, changed := tempo.RequestDelta(logic.BPMStep)
	if !changed || bpm != 45 {
		t.Fatalf("expected 45, got %d", bpm)
	}
	if !tempo.TakeReconfigure() {
		t.Fatal("expected a pending reconfiguration")
	}
	if tempo.WakeInterval() != time.Second {
		t.Errorf("expected wake interval to stay 1s, got %v", tempo.WakeInterval())
	}
	tempo.ResetPhase()

	// From the rebased phase the accumulator needs 1333ms: the first tick
	// after the change (1000ms) is silent, the second (2000ms) beats.
	pattern = runTicks(t, tempo, port, 2)
	if pattern[0] {
		t.Error("first tick after change: unexpected beat")
	}
	if !pattern[1] {
		t.Error("second tick after change: expected a beat")
	}
}

// TestIntegrationSettleRejectsTransient verifies a glitch edge is dropped:
// the settle sample reads released, so nothing confirms.
func TestIntegrationSettleRejectsTransient(t *testing.T) {
	tempo := logic.NewTempo(100)
	port := gpio.NewFakePort()
	port.Script(gpio.InputUp, false)

	deb := logic.NewDebouncer(logic.SettleTime, logic.ReleasePoll)
	_, confirmed := confirmPress(t, deb, port, gpio.InputUp, time.Date(2026, 2, 2, 22, 0, 0, 0, time.UTC))
	if confirmed {
		t.Fatal("expected the transient to be rejected")
	}
	if deb.Active() {
		t.Error("expected the machine to return to idle")
	}
	if tempo.BPM() != 100 {
		t.Errorf("tempo: got %d, want 100", tempo.BPM())
	}
}

// TestIntegrationWindowDebounceSequence verifies the window policy over a
// press burst: accept, reject inside the window, accept outside it.
func TestIntegrationWindowDebounceSequence(t *testing.T) {
	tempo := logic.NewTempo(100)
	deb := logic.NewWindowDebouncer(logic.RejectWindow)
	t0 := time.Date(2026, 2, 2, 22, 0, 0, 0, time.UTC)

	rejected := 0
	for _, at := range []time.Time{t0, t0.Add(150 * time.Millisecond), t0.Add(400 * time.Millisecond)} {
		if !deb.Trigger(at) {
			rejected++
			continue
		}
		tempo.RequestDelta(logic.BPMStep)
	}

	if rejected != 1 {
		t.Errorf("rejected: got %d, want 1", rejected)
	}
	if tempo.BPM() != 110 {
		t.Errorf("tempo: got %d, want 110", tempo.BPM())
	}
}

// TestIntegrationClampWalk walks the tempo across both bounds: 11 ups from
// the default reach the ceiling, further ups change nothing, and 23 downs
// reach the floor.
func TestIntegrationClampWalk(t *testing.T) {
	tempo := logic.NewTempo(logic.BPMDefault)
	publisher := mqtt.NewFakePublisher()
	at := time.Date(2026, 2, 2, 22, 0, 0, 0, time.UTC)

	publish := func(typ logic.EventType, bpm int) {
		if err := publisher.Publish(logic.Event{Timestamp: at, Type: typ, BPM: bpm, Period: tempo.Period()}); err != nil {
			t.Fatalf("publish error: %v", err)
		}
	}

	for i := 0; i < 20; i++ {
		if bpm, changed := tempo.RequestDelta(logic.BPMStep); changed {
			publish(logic.EventTempoUp, bpm)
		}
	}
	if tempo.BPM() != logic.BPMMax {
		t.Fatalf("after ups: got %d, want %d", tempo.BPM(), logic.BPMMax)
	}
	if len(publisher.Events) != 11 {
		t.Errorf("up events: got %d, want 11", len(publisher.Events))
	}

	for i := 0; i < 30; i++ {
		if bpm, changed := tempo.RequestDelta(-logic.BPMStep); changed {
			publish(logic.EventTempoDown, bpm)
		}
	}
	if tempo.BPM() != logic.BPMMin {
		t.Fatalf("after downs: got %d, want %d", tempo.BPM(), logic.BPMMin)
	}
	if len(publisher.Events) != 11+23 {
		t.Errorf("total events: got %d, want 34", len(publisher.Events))
	}

	last := publisher.Events[len(publisher.Events)-1]
	if last.BPM != logic.BPMMin || last.Period != 1500*time.Millisecond {
		t.Errorf("last event: bpm=%d period=%v", last.BPM, last.Period)
	}
}

// TestIntegrationTempoPayloadFormat verifies the exact JSON structure.
func TestIntegrationTempoPayloadFormat(t *testing.T) {
	publisher := mqtt.NewFakePublisher()

	event := logic.Event{
		Timestamp: time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
		Type:      logic.EventTempoDown,
		BPM:       95,
		Period:    631 * time.Millisecond,
	}
	if err := publisher.Publish(event); err != nil {
		t.Fatalf("publish error: %v", err)
	}

	expected := `{"tempo":{"timestamp":"2026-02-02T22:18:12Z","event":"TEMPO_DOWN","bpm":95,"period_ms":631}}`
	if string(publisher.Payloads[0]) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", string(publisher.Payloads[0]), expected)
	}
}

// TestIntegrationStartupEvent verifies startup event with config.
func TestIntegrationStartupEvent(t *testing.T) {
	publisher := mqtt.NewFakePublisher()

	startupTime := time.Date(2026, 2, 3, 19, 5, 51, 0, time.UTC)
	event := mqtt.SystemEvent{
		Timestamp: startupTime,
		Event:     "STARTUP",
		Config: &mqtt.SystemConfig{
			BPM:         100,
			WatchdogMs:  8000,
			HeartbeatMs: 900000,
			Debounce:    "settle",
			Backend:     "cdev",
			Broker:      "tcp://192.168.1.200:1883",
		},
	}

	if err := publisher.PublishSystem(event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(publisher.SystemEvents) != 1 {
		t.Fatalf("expected 1 system event, got %d", len(publisher.SystemEvents))
	}

	got := publisher.SystemEvents[0]
	if got.Event != "STARTUP" {
		t.Errorf("expected STARTUP event, got %s", got.Event)
	}
	if got.Config == nil {
		t.Fatal("expected config to be present")
	}
	if got.Config.BPM != 100 {
		t.Errorf("expected BPM 100, got %d", got.Config.BPM)
	}
	if got.Config.WatchdogMs != 8000 {
		t.Errorf("expected WatchdogMs 8000, got %d", got.Config.WatchdogMs)
	}
	if got.Config.HeartbeatMs != 900000 {
		t.Errorf("expected HeartbeatMs 900000, got %d", got.Config.HeartbeatMs)
	}
	if got.Config.Broker != "tcp://192.168.1.200:1883" {
		t.Errorf("expected broker tcp://192.168.1.200:1883, got %s", got.Config.Broker)
	}

	// Verify JSON payload structure
	var parsed mqtt.SystemPayload
	if err := json.Unmarshal(publisher.SystemPayloads[0], &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.System.Event != "STARTUP" {
		t.Errorf("payload event: expected STARTUP, got %s", parsed.System.Event)
	}
	if parsed.System.Config == nil {
		t.Fatal("payload config should be present")
	}
	if parsed.System.Config.BPM != 100 {
		t.Errorf("payload bpm: expected 100, got %d", parsed.System.Config.BPM)
	}
	if parsed.System.Config.Debounce != "settle" {
		t.Errorf("payload debounce: expected settle, got %s", parsed.System.Config.Debounce)
	}
}

// TestIntegrationStartupPayloadFormat verifies the exact JSON structure for startup events.
func TestIntegrationStartupPayloadFormat(t *testing.T) {
	publisher := mqtt.NewFakePublisher()

	event := mqtt.SystemEvent{
		Timestamp: time.Date(2026, 2, 3, 19, 5, 51, 0, time.UTC),
		Event:     "STARTUP",
		Config: &mqtt.SystemConfig{
			BPM:         100,
			WatchdogMs:  8000,
			HeartbeatMs: 900000,
			Debounce:    "settle",
			Backend:     "cdev",
			Broker:      "tcp://192.168.1.200:1883",
		},
	}

	publisher.PublishSystem(event)

	expected := `{"system":{"timestamp":"2026-02-03T19:05:51Z","event":"STARTUP","config":{"bpm":100,"watchdog_ms":8000,"heartbeat_ms":900000,"debounce":"settle","backend":"cdev","broker":"tcp://192.168.1.200:1883"}}}`

	if string(publisher.SystemPayloads[0]) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", string(publisher.SystemPayloads[0]), expected)
	}
}

// TestIntegrationStartupThenShutdown verifies full lifecycle with startup and shutdown events.
func TestIntegrationStartupThenShutdown(t *testing.T) {
	publisher := mqtt.NewFakePublisher()

	startupEvent := mqtt.SystemEvent{
		Timestamp: time.Date(2026, 2, 3, 19, 5, 51, 0, time.UTC),
		Event:     "STARTUP",
		Config: &mqtt.SystemConfig{
			BPM:         100,
			WatchdogMs:  8000,
			HeartbeatMs: 900000,
			Debounce:    "settle",
			Backend:     "cdev",
			Broker:      "tcp://192.168.1.200:1883",
		},
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		t.Fatalf("startup publish error: %v", err)
	}

	tempoEvent := logic.Event{
		Timestamp: time.Date(2026, 2, 3, 19, 6, 0, 0, time.UTC),
		Type:      logic.EventTempoUp,
		BPM:       105,
		Period:    571 * time.Millisecond,
	}
	if err := publisher.Publish(tempoEvent); err != nil {
		t.Fatalf("tempo publish error: %v", err)
	}

	shutdownEvent := mqtt.SystemEvent{
		Timestamp: time.Date(2026, 2, 3, 19, 10, 0, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	}
	if err := publisher.PublishSystem(shutdownEvent); err != nil {
		t.Fatalf("shutdown publish error: %v", err)
	}

	if len(publisher.SystemEvents) != 2 {
		t.Fatalf("expected 2 system events, got %d", len(publisher.SystemEvents))
	}
	if len(publisher.Events) != 1 {
		t.Fatalf("expected 1 tempo event, got %d", len(publisher.Events))
	}

	if publisher.SystemEvents[0].Event != "STARTUP" {
		t.Errorf("first system event should be STARTUP, got %s", publisher.SystemEvents[0].Event)
	}
	if publisher.SystemEvents[1].Event != "SHUTDOWN" {
		t.Errorf("second system event should be SHUTDOWN, got %s", publisher.SystemEvents[1].Event)
	}

	if publisher.SystemEvents[0].Config == nil {
		t.Error("startup event should have config")
	}
	if publisher.SystemEvents[1].Reason != "SIGTERM" {
		t.Errorf("shutdown event should have reason SIGTERM, got %s", publisher.SystemEvents[1].Reason)
	}
}

// TestIntegrationHeartbeatPayloadFormat verifies the exact JSON structure for heartbeat events.
func TestIntegrationHeartbeatPayloadFormat(t *testing.T) {
	publisher := mqtt.NewFakePublisher()

	event := mqtt.SystemEvent{
		Timestamp: time.Date(2026, 2, 4, 12, 15, 0, 0, time.UTC),
		Event:     "HEARTBEAT",
		Heartbeat: &mqtt.HeartbeatInfo{
			UptimeSeconds: 900,
			BPM:           105,
			Counts: mqtt.HeartbeatCounts{
				Beats:     94,
				TempoUp:   2,
				TempoDown: 1,
				Rejected:  3,
			},
		},
	}

	publisher.PublishSystem(event)

	expected := `{"system":{"timestamp":"2026-02-04T12:15:00Z","event":"HEARTBEAT","heartbeat":{"uptime_seconds":900,"bpm":105,"counts":{"beats":94,"tempo_up":2,"tempo_down":1,"rejected":3}}}}`

	if string(publisher.SystemPayloads[0]) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", string(publisher.SystemPayloads[0]), expected)
	}
}

// TestIntegrationStartupWithNetworkInfo verifies startup event includes network info.
func TestIntegrationStartupWithNetworkInfo(t *testing.T) {
	publisher := mqtt.NewFakePublisher()

	event := mqtt.SystemEvent{
		Timestamp: time.Date(2026, 2, 3, 19, 5, 51, 0, time.UTC),
		Event:     "STARTUP",
		Config: &mqtt.SystemConfig{
			BPM:         100,
			WatchdogMs:  8000,
			HeartbeatMs: 900000,
			Debounce:    "settle",
			Backend:     "cdev",
			Broker:      "tcp://192.168.1.200:1883",
		},
		Network: &mqtt.NetworkInfo{
			Type:       "wifi",
			IP:         "192.168.1.100",
			Status:     "connected",
			Gateway:    "192.168.1.1",
			WifiStatus: "connected",
			SSID:       "MyNetwork",
		},
	}

	if err := publisher.PublishSystem(event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed mqtt.SystemPayload
	if err := json.Unmarshal(publisher.SystemPayloads[0], &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.System.Network == nil {
		t.Fatal("payload network should be present")
	}
	if parsed.System.Network.Type != "wifi" {
		t.Errorf("network type: expected wifi, got %s", parsed.System.Network.Type)
	}
	if parsed.System.Network.IP != "192.168.1.100" {
		t.Errorf("network ip: expected 192.168.1.100, got %s", parsed.System.Network.IP)
	}
	if parsed.System.Network.SSID != "MyNetwork" {
		t.Errorf("network ssid: expected MyNetwork, got %s", parsed.System.Network.SSID)
	}
}

// TestIntegrationHeartbeatAfterActivity verifies a heartbeat built from a
// session's counters reflects the beats and presses that happened.
func TestIntegrationHeartbeatAfterActivity(t *testing.T) {
	tempo := logic.NewTempo(100)
	port := gpio.NewFakePort()
	publisher := mqtt.NewFakePublisher()

	var counts logic.PressCounts
	beats := 0

	// Four beats.
	for _, beat := range runTicks(t, tempo, port, 4) {
		if beat {
			beats++
		}
	}

	// One accepted up press, one rejected burst press.
	deb := logic.NewWindowDebouncer(logic.RejectWindow)
	t0 := time.Date(2026, 2, 4, 12, 0, 0, 0, time.UTC)
	if deb.Trigger(t0) {
		counts.Up++
		tempo.RequestDelta(logic.BPMStep)
	}
	if !deb.Trigger(t0.Add(50 * time.Millisecond)) {
		counts.Rejected++
	}

	event := mqtt.SystemEvent{
		Timestamp: t0.Add(15 * time.Minute),
		Event:     "HEARTBEAT",
		Heartbeat: &mqtt.HeartbeatInfo{
			UptimeSeconds: 900,
			BPM:           tempo.BPM(),
			Counts: mqtt.HeartbeatCounts{
				Beats:     beats,
				TempoUp:   counts.Up,
				TempoDown: counts.Down,
				Rejected:  counts.Rejected,
			},
		},
	}
	if err := publisher.PublishSystem(event); err != nil {
		t.Fatalf("publish error: %v", err)
	}

	hb := publisher.SystemEvents[0].Heartbeat
	if hb.BPM != 105 {
		t.Errorf("heartbeat bpm: got %d, want 105", hb.BPM)
	}
	if hb.Counts.Beats != 4 {
		t.Errorf("heartbeat beats: got %d, want 4", hb.Counts.Beats)
	}
	if hb.Counts.TempoUp != 1 {
		t.Errorf("heartbeat tempo_up: got %d, want 1", hb.Counts.TempoUp)
	}
	if hb.Counts.Rejected != 1 {
		t.Errorf("heartbeat rejected: got %d, want 1", hb.Counts.Rejected)
	}
}

// TestIntegrationWatchdogExpiryRestoresDefaults runs the watchdog protocol
// end to end: acknowledged while healthy, expired after a stall, and the
// tempo restored to its startup default by the reset.
func TestIntegrationWatchdogExpiryRestoresDefaults(t *testing.T) {
	tempo := logic.NewTempo(100)
	publisher := mqtt.NewFakePublisher()
	wd := logic.NewWatchdog(8 * time.Second)

	t0 := time.Date(2026, 2, 5, 9, 0, 0, 0, time.UTC)
	wd.Start(t0)
	wd.Acknowledge(t0.Add(time.Second))

	if wd.Expired(t0.Add(5 * time.Second)) {
		t.Fatal("watchdog should not expire while acknowledged")
	}

	// Drift the tempo, then stall past the timeout.
	for i := 0; i < 4; i++ {
		tempo.RequestDelta(logic.BPMStep)
	}
	if tempo.BPM() != 120 {
		t.Fatalf("setup: got %d, want 120", tempo.BPM())
	}

	stall := t0.Add(9*time.Second + 100*time.Millisecond)
	if !wd.Expired(stall) {
		t.Fatal("watchdog should expire after the stall")
	}

	// The reset path: defaults restored, flags cleared, event published.
	tempo.Reset()
	wd.Acknowledge(stall)
	event := mqtt.SystemEvent{
		Timestamp: stall,
		Event:     "WATCHDOG_RESET",
		Reason:    "loop hang",
	}
	if err := publisher.PublishSystem(event); err != nil {
		t.Fatalf("publish error: %v", err)
	}

	if tempo.BPM() != 100 {
		t.Errorf("tempo after reset: got %d, want 100", tempo.BPM())
	}
	if tempo.TakeReconfigure() {
		t.Error("reconfigure flag should be cleared by reset")
	}
	if tempo.TakeBeatDue() {
		t.Error("beat-due flag should be cleared by reset")
	}
	if tempo.Elapsed() != 0 {
		t.Errorf("elapsed after reset: got %v, want 0", tempo.Elapsed())
	}
	if wd.Expired(stall.Add(time.Second)) {
		t.Error("watchdog should be healthy after reset")
	}

	var parsed mqtt.SystemPayload
	if err := json.Unmarshal(publisher.SystemPayloads[0], &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.System.Event != "WATCHDOG_RESET" {
		t.Errorf("payload event: expected WATCHDOG_RESET, got %s", parsed.System.Event)
	}
	if parsed.System.Reason != "loop hang" {
		t.Errorf("payload reason: expected %q, got %q", "loop hang", parsed.System.Reason)
	}
}
