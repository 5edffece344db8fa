package main

import (
	"sync"
	"time"
)

// TimerPhase is the shot timer's state.
type TimerPhase string

const (
	PhaseIdle       TimerPhase = "idle"
	PhasePumping    TimerPhase = "pumping"
	PhaseExtracting TimerPhase = "extracting"
)

// displayTickInterval is how often the timer pushes a snapshot to the
// display callback while running. Display only: elapsed values are
// always recomputed from the captured start instants, never accumulated
// per tick, so a delayed or missed tick cannot drift the count.
const displayTickInterval = 100 * time.Millisecond

// TimerSnapshot is the timer state at one instant.
type TimerSnapshot struct {
	Phase      TimerPhase `json:"phase"`
	PumpSec    int        `json:"pump_seconds"`
	ExtractSec int        `json:"extract_seconds"`
}

// ShotTimer tracks a shot through pumping and extraction. Transitions:
// idle -start-> pumping -firstDrop-> extracting -stop-> idle, plus
// reset from anywhere. stop is only honored while extracting; every
// other event outside its source phase is a no-op. There are no error
// states.
type ShotTimer struct {
	mu sync.Mutex

	now    func() time.Time
	onStop func(seconds int)
	onTick func(TimerSnapshot)

	phase        TimerPhase
	pumpStart    time.Time
	extractStart time.Time
	pumpSec      int // frozen at first drop
	stopTick     chan struct{}
}

// NewShotTimer returns an idle timer. onStop, when non-nil, receives
// the final extraction seconds exactly once per extracting->idle stop.
func NewShotTimer(onStop func(seconds int)) *ShotTimer {
	return &ShotTimer{
		now:    time.Now,
		onStop: onStop,
		phase:  PhaseIdle,
	}
}

// OnTick registers a display callback invoked with a fresh snapshot
// every displayTickInterval while the timer is running. Must be set
// before Start.
func (t *ShotTimer) OnTick(fn func(TimerSnapshot)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onTick = fn
}

// Start begins the pumping phase. Both counters restart from zero.
// Returns false if the timer is not idle.
func (t *ShotTimer) Start() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.phase != PhaseIdle {
		return false
	}
	t.phase = PhasePumping
	t.pumpStart = t.now()
	t.pumpSec = 0
	t.startTickerLocked()
	return true
}

// FirstDrop marks the first espresso hitting the cup: the pump counter
// freezes and the extraction counter starts. Returns false if the
// timer is not pumping.
func (t *ShotTimer) FirstDrop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.phase != PhasePumping {
		return false
	}
	t.pumpSec = t.elapsedLocked(t.pumpStart)
	t.phase = PhaseExtracting
	t.extractStart = t.now()
	return true
}

// Stop ends an extraction and returns the whole seconds since the
// first drop, computed from the wall clock at this moment. The value
// is also delivered to the onStop callback, exactly once. Outside the
// extracting phase Stop does nothing and returns (0, false).
func (t *ShotTimer) Stop() (int, bool) {
	t.mu.Lock()
	if t.phase != PhaseExtracting {
		t.mu.Unlock()
		return 0, false
	}
	seconds := t.elapsedLocked(t.extractStart)
	t.resetLocked()
	cb := t.onStop
	t.mu.Unlock()

	if cb != nil {
		cb(seconds)
	}
	return seconds, true
}

// Reset returns the timer to idle from any phase, zeroing both
// counters. Nothing is emitted.
func (t *ShotTimer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetLocked()
}

// Snapshot recomputes the current counters from the captured start
// instants.
func (t *ShotTimer) Snapshot() TimerSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	snap := TimerSnapshot{Phase: t.phase, PumpSec: t.pumpSec}
	switch t.phase {
	case PhasePumping:
		snap.PumpSec = t.elapsedLocked(t.pumpStart)
	case PhaseExtracting:
		snap.ExtractSec = t.elapsedLocked(t.extractStart)
	}
	return snap
}

func (t *ShotTimer) elapsedLocked(anchor time.Time) int {
	return int(t.now().Sub(anchor) / time.Second)
}

func (t *ShotTimer) resetLocked() {
	t.phase = PhaseIdle
	t.pumpStart = time.Time{}
	t.extractStart = time.Time{}
	t.pumpSec = 0
	t.stopTickerLocked()
}

func (t *ShotTimer) startTickerLocked() {
	if t.onTick == nil || t.stopTick != nil {
		return
	}
	stop := make(chan struct{})
	t.stopTick = stop
	fn := t.onTick
	go func() {
		ticker := time.NewTicker(displayTickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fn(t.Snapshot())
			case <-stop:
				return
			}
		}
	}()
}

func (t *ShotTimer) stopTickerLocked() {
	if t.stopTick != nil {
		close(t.stopTick)
		t.stopTick = nil
	}
}
