package logic

import (
	"time"

	"github.com/sweeney/grid-status/internal/timeline"
)

// Watcher detects changes between successive current-state snapshots.
// Unlike Detector it does no debouncing: the upstream source already reports
// settled state and the instant it changed.
type Watcher struct {
	state         State
	since         time.Time
	baselined     bool
	startTime     time.Time
	eventCounts   EventCounts
	lastHeartbeat time.Time
}

// NewWatcher creates a Watcher. The startTime is used for uptime in heartbeats.
func NewWatcher(startTime time.Time) *Watcher {
	return &Watcher{
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Observe records a snapshot taken at now and returns an event if the state
// changed since the previous observation. The first snapshot only sets the
// baseline. A nil snapshot (source unavailable) is ignored.
func (w *Watcher) Observe(snap *timeline.CurrentSnapshot, now time.Time) *Event {
	if snap == nil {
		return nil
	}
	state := StateFromLabel(snap.State)
	since := snap.Since
	if since.IsZero() || since.After(now) {
		since = now
	}

	if !w.baselined {
		w.state = state
		w.since = since
		w.baselined = true
		return nil
	}

	if state == w.state {
		// Same state; keep the upstream since in case it was corrected.
		w.since = since
		return nil
	}

	w.state = state
	w.since = since
	if state == StateOn {
		w.eventCounts.On++
	} else {
		w.eventCounts.Off++
	}

	return &Event{
		Timestamp: now,
		Type:      EventTypeFor(state),
		State:     state,
		Since:     since,
	}
}

// IsBaselined returns whether a snapshot has been observed.
func (w *Watcher) IsBaselined() bool {
	return w.baselined
}

// CurrentState returns the last observed state and when it began.
func (w *Watcher) CurrentState() (State, time.Time) {
	return w.state, w.since
}

// EventCountsSnapshot returns a copy of the event counts.
func (w *Watcher) EventCountsSnapshot() EventCounts {
	return w.eventCounts
}

// CheckHeartbeat behaves like Detector.CheckHeartbeat.
func (w *Watcher) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if !w.baselined {
		return nil
	}
	return checkHeartbeat(&w.lastHeartbeat, w.startTime, w.eventCounts, now, interval)
}
