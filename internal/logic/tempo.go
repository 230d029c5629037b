package logic

import (
	"sync/atomic"
	"time"
)

// Tempo is the single source of truth for the current BPM and for the flags
// shared between event-delivery goroutines and the control loop. Fields are
// atomic cells because edge callbacks can land at any point in a loop
// iteration; the loop is the only consumer of the Take drains.
type Tempo struct {
	defaultBPM int32
	bpm        atomic.Int32
	reconfig   atomic.Bool
	due        atomic.Bool
	elapsedMS  atomic.Int64
	lastBeatMS atomic.Int64
}

// NewTempo creates a tempo controller starting at defaultBPM, clamped into
// [BPMMin, BPMMax]. The same value is restored by Reset.
func NewTempo(defaultBPM int) *Tempo {
	t := &Tempo{defaultBPM: clampBPM(int32(defaultBPM))}
	t.bpm.Store(t.defaultBPM)
	return t
}

// BPM returns the current tempo.
func (t *Tempo) BPM() int {
	return int(t.bpm.Load())
}

// Period returns the beat period for the current tempo: 60000/bpm
// milliseconds, truncated. The truncation is deliberate (105 BPM is 571 ms,
// 95 BPM is 631 ms) and tests depend on it.
func (t *Tempo) Period() time.Duration {
	return periodFor(t.bpm.Load())
}

// WakeInterval returns the interval the wake timer should be programmed to.
// Short periods drive the timer directly; periods of a second or more use
// the fixed coarse cadence and accumulate.
func (t *Tempo) WakeInterval() time.Duration {
	p := periodFor(t.bpm.Load())
	if p < CoarseWake {
		return p
	}
	return CoarseWake
}

// Mode reports whether the controller is in fast or coarse mode.
func (t *Tempo) Mode() Mode {
	if periodFor(t.bpm.Load()) < CoarseWake {
		return ModeFast
	}
	return ModeCoarse
}

// RequestDelta applies a signed BPM step, clamping into [BPMMin, BPMMax].
// If the clamped value differs from the current one, the
// reconfiguration-pending flag is raised for the loop to drain. Returns the
// resulting BPM and whether it changed. Never touches the timer.
func (t *Tempo) RequestDelta(delta int) (int, bool) {
	for {
		old := t.bpm.Load()
		next := clampBPM(old + int32(delta))
		if next == old {
			return int(old), false
		}
		if t.bpm.CompareAndSwap(old, next) {
			t.reconfig.Store(true)
			return int(next), true
		}
	}
}

// OnWakeTick advances the elapsed counter by the nominal wake interval and
// raises the beat-due flag when a full period has accumulated. In fast mode
// every tick accumulates exactly one period, so every tick is due. Kept
// minimal: this is the timer interrupt's share of the work.
func (t *Tempo) OnWakeTick() {
	bpm := t.bpm.Load()
	period := periodMS(bpm)
	wake := period
	if wake > 1000 {
		wake = 1000
	}
	elapsed := t.elapsedMS.Add(wake)
	if elapsed-t.lastBeatMS.Load() >= period {
		t.lastBeatMS.Store(elapsed)
		t.due.Store(true)
	}
}

// TakeBeatDue consumes the beat-due flag. Ticks that land between drains
// coalesce into a single beat; that loss is deliberate.
func (t *Tempo) TakeBeatDue() bool {
	return t.due.CompareAndSwap(true, false)
}

// TakeReconfigure consumes the reconfiguration-pending flag. Multiple tempo
// changes between drains collapse into one reprogram.
func (t *Tempo) TakeReconfigure() bool {
	return t.reconfig.CompareAndSwap(true, false)
}

// ResetPhase re-bases the accumulation so the next beat is measured from
// now. Called by the loop right after reprogramming the wake timer.
func (t *Tempo) ResetPhase() {
	t.lastBeatMS.Store(t.elapsedMS.Load())
}

// Elapsed returns the nominal time accumulated from wake ticks.
func (t *Tempo) Elapsed() time.Duration {
	return time.Duration(t.elapsedMS.Load()) * time.Millisecond
}

// Reset restores startup state: default tempo, counters zeroed, flags
// cleared. Used by the watchdog reset path.
func (t *Tempo) Reset() {
	t.bpm.Store(t.defaultBPM)
	t.reconfig.Store(false)
	t.due.Store(false)
	t.elapsedMS.Store(0)
	t.lastBeatMS.Store(0)
}

func clampBPM(v int32) int32 {
	if v < BPMMin {
		return BPMMin
	}
	if v > BPMMax {
		return BPMMax
	}
	return v
}

func periodMS(bpm int32) int64 {
	return 60000 / int64(bpm)
}

func periodFor(bpm int32) time.Duration {
	return time.Duration(periodMS(bpm)) * time.Millisecond
}
