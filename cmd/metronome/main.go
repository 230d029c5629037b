// Command metronome drives a periodic pulse on a GPIO output and adjusts
// its tempo from button presses, publishing tempo changes to MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/metronome/internal/gpio"
	"github.com/sweeney/metronome/internal/logic"
	"github.com/sweeney/metronome/internal/mqtt"
	"github.com/sweeney/metronome/internal/status"
	"github.com/sweeney/metronome/internal/waketimer"
	"github.com/sweeney/metronome/internal/web"
)

const (
	backendCdev = "cdev"
	backendRpio = "rpio"

	debounceSettle = "settle"
	debounceWindow = "window"
)

// errWatchdogExpired is the loop's exit reason when the watchdog caught it
// hanging. The supervisor restarts on it; anything else passes through.
var errWatchdogExpired = errors.New("watchdog expired")

func main() {
	var cfg config
	flag.StringVar(&cfg.broker, "broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	flag.StringVar(&cfg.clientID, "client-id", "metronome", "MQTT client ID")
	flag.StringVar(&cfg.httpAddr, "http", ":8080", "HTTP status address (empty to disable)")
	flag.StringVar(&cfg.chip, "chip", "gpiochip0", "GPIO character device (cdev backend)")
	flag.IntVar(&cfg.pinUp, "pin-up", gpio.PinUp, "BCM pin number for the tempo-up button")
	flag.IntVar(&cfg.pinDown, "pin-down", gpio.PinDown, "BCM pin number for the tempo-down button")
	flag.IntVar(&cfg.pinSpare, "pin-spare", gpio.PinSpare, "BCM pin number for the spare button (-1 to disable)")
	flag.IntVar(&cfg.pinOut, "pin-out", gpio.PinOut, "BCM pin number for the pulse output")
	flag.StringVar(&cfg.backend, "backend", backendCdev, `GPIO backend: "cdev" or "rpio"`)
	flag.StringVar(&cfg.debounce, "debounce", debounceSettle, `debounce policy: "settle" or "window"`)
	flag.DurationVar(&cfg.watchdog, "watchdog", 8*time.Second, "watchdog timeout (0 to disable)")
	flag.DurationVar(&cfg.heartbeat, "heartbeat", 15*time.Minute, "heartbeat interval (0 to disable)")
	flag.IntVar(&cfg.bpm, "bpm", logic.BPMDefault, "startup tempo in beats per minute")
	flag.BoolVar(&cfg.publishBeats, "publish-beats", false, "publish a BEAT event for every pulse")
	flag.BoolVar(&cfg.debug, "debug", false, "log wake ticks and raw edges")
	flag.Parse()

	if err := run(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

type config struct {
	broker       string
	clientID     string
	httpAddr     string
	chip         string
	pinUp        int
	pinDown      int
	pinSpare     int
	pinOut       int
	backend      string
	debounce     string
	watchdog     time.Duration
	heartbeat    time.Duration
	bpm          int
	publishBeats bool
	debug        bool
}

func run(cfg config) error {
	if cfg.debounce != debounceSettle && cfg.debounce != debounceWindow {
		return fmt.Errorf("unknown debounce policy %q", cfg.debounce)
	}

	// Initialize GPIO
	var port gpio.Port
	var err error
	switch cfg.backend {
	case backendCdev:
		port, err = gpio.NewCdevPort(cfg.chip, cfg.pinUp, cfg.pinDown, cfg.pinSpare, cfg.pinOut)
	case backendRpio:
		port, err = gpio.NewRpioPort(cfg.pinUp, cfg.pinDown, cfg.pinSpare, cfg.pinOut)
	default:
		return fmt.Errorf("unknown backend %q", cfg.backend)
	}
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer port.Close()

	tempo := logic.NewTempo(cfg.bpm)
	if tempo.BPM() != cfg.bpm {
		log.Printf("bpm %d out of range, clamped to %d", cfg.bpm, tempo.BPM())
	}

	// Initialize MQTT
	publisher, err := mqtt.NewRealPublisher(cfg.broker, cfg.clientID)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		BPM:         tempo.BPM(),
		WatchdogMs:  cfg.watchdog.Milliseconds(),
		HeartbeatMs: cfg.heartbeat.Milliseconds(),
		Debounce:    cfg.debounce,
		Backend:     cfg.backend,
		Broker:      cfg.broker,
		HTTPAddr:    cfg.httpAddr,
	})
	netInfo := readNetworkInfo()
	if netInfo != nil {
		tracker.SetNetwork(netInfo)
	}

	// Publish startup event with the effective configuration
	startup := mqtt.SystemEvent{
		Timestamp: time.Now(),
		Event:     "STARTUP",
		Retained:  true,
		Config: &mqtt.SystemConfig{
			BPM:         tempo.BPM(),
			WatchdogMs:  cfg.watchdog.Milliseconds(),
			HeartbeatMs: cfg.heartbeat.Milliseconds(),
			Debounce:    cfg.debounce,
			Backend:     cfg.backend,
			Broker:      cfg.broker,
		},
		Network: mqttNetwork(netInfo),
	}
	if err := publisher.PublishSystem(startup); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if cfg.httpAddr != "" {
		srv := web.New(cfg.httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.httpAddr)
	}

	alarm := waketimer.New(tempo.WakeInterval())
	defer alarm.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	wd := logic.NewWatchdog(cfg.watchdog)
	expired := make(chan time.Time, 1)
	if cfg.watchdog > 0 {
		wd.Start(time.Now())
		monitor := time.NewTicker(cfg.watchdog / 4)
		defer monitor.Stop()
		stop := make(chan struct{})
		defer close(stop)
		go watchdogMonitor(wd, monitor.C, time.Now, expired, stop)
	}

	log.Printf("started: bpm=%d period=%v mode=%s backend=%s debounce=%s broker=%s watchdog=%v heartbeat=%v",
		tempo.BPM(), tempo.Period(), tempo.Mode(), cfg.backend, cfg.debounce, cfg.broker, cfg.watchdog, cfg.heartbeat)

	lp := &loop{
		port:         port,
		alarm:        alarm,
		publisher:    publisher,
		mqttStatus:   publisher,
		tracker:      tracker,
		tempo:        tempo,
		wd:           wd,
		policy:       cfg.debounce,
		heartbeat:    cfg.heartbeat,
		publishBeats: cfg.publishBeats,
		debug:        cfg.debug,
		now:          time.Now,
		sleep:        time.Sleep,
	}
	return supervise(lp, expired, sigCh)
}

// loop bundles the control loop's collaborators. Tests assemble one from
// fakes and drive run directly.
type loop struct {
	port         gpio.Port
	alarm        waketimer.Alarm
	publisher    mqtt.Publisher
	mqttStatus   mqtt.ConnectionStatus
	tracker      *status.Tracker
	tempo        *logic.Tempo
	wd           *logic.Watchdog
	policy       string
	heartbeat    time.Duration
	publishBeats bool
	debug        bool
	now          func() time.Time
	sleep        func(time.Duration)
}

// supervise restarts the loop after watchdog expiries; any other exit
// passes through.
func supervise(lp *loop, expired <-chan time.Time, sig <-chan os.Signal) error {
	for {
		err := lp.run(expired, sig)
		if !errors.Is(err, errWatchdogExpired) {
			return err
		}
		lp.reset()
		// Drop a stale expiry raised before the reset acknowledged.
		select {
		case <-expired:
		default:
		}
	}
}

// run is one life of the control loop: it services wake ticks, button
// edges, and signals until shutdown or a watchdog expiry. All waiting
// happens in the select or in the injected sleep, mirroring the firmware
// structure of sleeping between interrupts.
func (l *loop) run(expired <-chan time.Time, sig <-chan os.Signal) error {
	startTime := l.now()
	l.wd.Acknowledge(startTime)
	l.updateTrackerTempo()

	settle := map[gpio.Input]*logic.Debouncer{
		gpio.InputUp:    logic.NewDebouncer(logic.SettleTime, logic.ReleasePoll),
		gpio.InputDown:  logic.NewDebouncer(logic.SettleTime, logic.ReleasePoll),
		gpio.InputSpare: logic.NewDebouncer(logic.SettleTime, logic.ReleasePoll),
	}
	window := map[gpio.Input]*logic.WindowDebouncer{
		gpio.InputUp:    logic.NewWindowDebouncer(logic.RejectWindow),
		gpio.InputDown:  logic.NewWindowDebouncer(logic.RejectWindow),
		gpio.InputSpare: logic.NewWindowDebouncer(logic.RejectWindow),
	}

	var counts logic.PressCounts
	var beats int
	lastHeartbeat := startTime

	for {
		l.wd.Acknowledge(l.now())

		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			event := mqtt.SystemEvent{
				Timestamp: l.now(),
				Event:     "SHUTDOWN",
				Reason:    signalName(s),
				Retained:  true,
			}
			if err := l.publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case t := <-expired:
			log.Printf("watchdog: loop unresponsive at %s (timeout %v)", t.Format(time.RFC3339), l.wd.Timeout())
			return errWatchdogExpired

		case t := <-l.alarm.C():
			if l.debug {
				log.Printf("wake tick at %v", t)
			}
			l.tempo.OnWakeTick()
			if l.tempo.TakeBeatDue() {
				if l.pulse() {
					beats++
				}
			}

		case edge := <-l.port.Edges():
			l.handleEdge(edge, settle, window, &counts)
		}

		// A tempo change from any arm above reprograms the wake timer
		// and re-bases the beat phase.
		if l.tempo.TakeReconfigure() {
			l.alarm.Reprogram(l.tempo.WakeInterval())
			l.tempo.ResetPhase()
			l.updateTrackerTempo()
			if l.debug {
				log.Printf("wake timer reprogrammed to %v", l.tempo.WakeInterval())
			}
		}

		if l.tracker != nil && l.mqttStatus != nil {
			l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
		}

		if l.heartbeat > 0 {
			if t := l.now(); t.Sub(lastHeartbeat) >= l.heartbeat {
				lastHeartbeat = t
				l.publishHeartbeat(t, t.Sub(startTime), beats, counts)
			}
		}
	}
}

// handleEdge routes a falling edge through the configured debounce policy
// and applies the press when it survives.
func (l *loop) handleEdge(edge gpio.Edge, settle map[gpio.Input]*logic.Debouncer, window map[gpio.Input]*logic.WindowDebouncer, counts *logic.PressCounts) {
	if l.debug {
		log.Printf("edge: %s", edge.Input)
	}

	if l.policy == debounceWindow {
		if !window[edge.Input].Trigger(l.now()) {
			counts.Rejected++
			l.updatePresses(*counts)
			return
		}
		l.applyPress(edge.Input, counts)
		return
	}

	d := settle[edge.Input]
	if !d.Trigger(edge.When) {
		// Press already in flight; the new edge is bounce.
		return
	}
	if !l.confirmPress(d, edge.Input) {
		counts.Rejected++
		l.updatePresses(*counts)
		return
	}
	l.applyPress(edge.Input, counts)
}

// confirmPress walks the settle machine to completion, blocking the loop
// for the duration of the press the way the firmware's in-handler delays
// do. The watchdog is acknowledged across each wait so a held button is
// not mistaken for a hang.
func (l *loop) confirmPress(d *logic.Debouncer, in gpio.Input) bool {
	confirmed := false
	for d.Active() {
		if wait := d.Waiting(l.now()); wait > 0 {
			l.sleep(wait)
		}
		l.wd.Acknowledge(l.now())
		pressed, err := l.port.Pressed(in)
		if err != nil {
			log.Printf("gpio read error: %v", err)
			pressed = false
		}
		if d.Advance(l.now(), pressed) {
			confirmed = true
		}
	}
	return confirmed
}

func (l *loop) applyPress(in gpio.Input, counts *logic.PressCounts) {
	t := l.now()
	switch in {
	case gpio.InputUp:
		counts.Up++
		if bpm, changed := l.tempo.RequestDelta(logic.BPMStep); changed {
			l.publishTempo(t, logic.EventTempoUp, bpm)
		}
	case gpio.InputDown:
		counts.Down++
		if bpm, changed := l.tempo.RequestDelta(-logic.BPMStep); changed {
			l.publishTempo(t, logic.EventTempoDown, bpm)
		}
	case gpio.InputSpare:
		counts.Spare++
		if l.debug {
			log.Printf("spare button pressed, no action bound")
		}
	}
	l.updatePresses(*counts)
}

func (l *loop) publishTempo(t time.Time, typ logic.EventType, bpm int) {
	event := logic.Event{Timestamp: t, Type: typ, BPM: bpm, Period: l.tempo.Period()}
	log.Printf("event: %s bpm=%d period=%v", event.Type, event.BPM, event.Period)
	if err := l.publisher.Publish(event); err != nil {
		log.Printf("publish error: %v", err)
	}
}

// pulse drives one output beat: pin high, hold, pin low. Returns whether
// the pulse made it onto the pin.
func (l *loop) pulse() bool {
	t := l.now()
	if err := l.port.SetOutput(true); err != nil {
		log.Printf("gpio output error: %v", err)
		return false
	}
	l.sleep(logic.PulseWidth)
	if err := l.port.SetOutput(false); err != nil {
		log.Printf("gpio output error: %v", err)
	}
	if l.tracker != nil {
		l.tracker.RecordBeat(t)
	}
	if l.publishBeats {
		event := logic.Event{Timestamp: t, Type: logic.EventBeat, BPM: l.tempo.BPM(), Period: l.tempo.Period()}
		if err := l.publisher.Publish(event); err != nil {
			log.Printf("publish error: %v", err)
		}
	}
	return true
}

func (l *loop) publishHeartbeat(t time.Time, uptime time.Duration, beats int, counts logic.PressCounts) {
	log.Printf("heartbeat: uptime=%v bpm=%d beats=%d up=%d down=%d rejected=%d",
		uptime.Truncate(time.Second), l.tempo.BPM(), beats, counts.Up, counts.Down, counts.Rejected)

	// Refresh network info for heartbeat
	netInfo := readNetworkInfo()
	if netInfo != nil && l.tracker != nil {
		l.tracker.SetNetwork(netInfo)
	}

	event := mqtt.SystemEvent{
		Timestamp: t,
		Event:     "HEARTBEAT",
		Heartbeat: &mqtt.HeartbeatInfo{
			UptimeSeconds: int64(uptime.Seconds()),
			BPM:           l.tempo.BPM(),
			Counts: mqtt.HeartbeatCounts{
				Beats:     beats,
				TempoUp:   counts.Up,
				TempoDown: counts.Down,
				Rejected:  counts.Rejected,
			},
		},
		Network: mqttNetwork(netInfo),
	}
	if err := l.publisher.PublishSystem(event); err != nil {
		log.Printf("heartbeat publish error: %v", err)
	}
}

// reset restores startup defaults after a watchdog expiry, the way a
// hardware watchdog reboot clears RAM.
func (l *loop) reset() {
	l.tempo.Reset()
	l.alarm.Reprogram(l.tempo.WakeInterval())
	l.wd.Acknowledge(l.now())
	if l.tracker != nil {
		l.tracker.RecordWatchdogReset()
	}

	event := mqtt.SystemEvent{
		Timestamp: l.now(),
		Event:     "WATCHDOG_RESET",
		Reason:    "loop hang",
	}
	if err := l.publisher.PublishSystem(event); err != nil {
		log.Printf("failed to publish watchdog reset event: %v", err)
	}
	log.Printf("watchdog reset: tempo restored to %d bpm", l.tempo.BPM())
}

func (l *loop) updatePresses(counts logic.PressCounts) {
	if l.tracker != nil {
		l.tracker.SetPresses(counts)
	}
}

func (l *loop) updateTrackerTempo() {
	if l.tracker != nil {
		l.tracker.UpdateTempo(l.tempo.BPM(), l.tempo.Period(), l.tempo.WakeInterval(), l.tempo.Mode())
	}
}

// watchdogMonitor periodically checks the watchdog and reports expiry on
// the expired channel. The send is non-blocking: one pending expiry is
// enough.
func watchdogMonitor(wd *logic.Watchdog, tick <-chan time.Time, now func() time.Time, expired chan<- time.Time, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-tick:
			if t := now(); wd.Expired(t) {
				select {
				case expired <- t:
				default:
				}
			}
		}
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

func mqttNetwork(info *status.NetworkInfo) *mqtt.NetworkInfo {
	if info == nil {
		return nil
	}
	return &mqtt.NetworkInfo{
		Type:       info.Type,
		IP:         info.IP,
		Status:     info.Status,
		Gateway:    info.Gateway,
		WifiStatus: info.WifiStatus,
		SSID:       info.SSID,
	}
}
