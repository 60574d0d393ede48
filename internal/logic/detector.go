package logic

import "time"

// Detector tracks the grid input and detects debounced transitions.
type Detector struct {
	debounceDuration time.Duration
	ch               ChannelState
	startTime        time.Time
	eventCounts      EventCounts
	lastHeartbeat    time.Time
}

// NewDetector creates a new transition detector with the given debounce duration.
// The startTime is used for calculating uptime in heartbeat events.
func NewDetector(debounceDuration time.Duration, startTime time.Time) *Detector {
	return &Detector{
		debounceDuration: debounceDuration,
		startTime:        startTime,
		lastHeartbeat:    startTime,
	}
}

// Process takes a new input sample and returns the event to emit, if any.
// Events are only returned after baseline is established and on state transitions.
func (d *Detector) Process(input Input) *Event {
	newState := boolToState(input.On)
	now := input.Time
	ch := &d.ch

	// First time seeing the input
	if !ch.Baselined {
		if ch.Pending != newState {
			// Start observing, or state changed during baseline: restart
			ch.Pending = newState
			ch.PendingSince = now
			return nil
		}

		// Check if debounce period has passed
		if now.Sub(ch.PendingSince) >= d.debounceDuration {
			ch.Stable = newState
			ch.StableSince = ch.PendingSince
			ch.Baselined = true
			ch.Pending = ""
		}
		return nil // No events until baseline established
	}

	// Already baselined - detect transitions
	if newState == ch.Stable {
		// No change from stable state, clear any pending
		ch.Pending = ""
		return nil
	}

	// State differs from stable
	if ch.Pending != newState {
		ch.Pending = newState
		ch.PendingSince = now
		return nil
	}

	// Same pending state, check debounce
	if now.Sub(ch.PendingSince) < d.debounceDuration {
		return nil
	}

	ch.Stable = newState
	ch.StableSince = ch.PendingSince
	ch.Pending = ""

	if newState == StateOn {
		d.eventCounts.On++
	} else {
		d.eventCounts.Off++
	}

	return &Event{
		Timestamp: now,
		Type:      EventTypeFor(newState),
		State:     newState,
		Since:     ch.StableSince,
	}
}

func boolToState(b bool) State {
	if b {
		return StateOn
	}
	return StateOff
}

// IsBaselined returns whether the detector has established a baseline.
func (d *Detector) IsBaselined() bool {
	return d.ch.Baselined
}

// CurrentState returns the current stable state and when it began.
func (d *Detector) CurrentState() (State, time.Time) {
	return d.ch.Stable, d.ch.StableSince
}

// EventCountsSnapshot returns a copy of the event counts.
func (d *Detector) EventCountsSnapshot() EventCounts {
	return d.eventCounts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if not yet baselined, if the
// interval has not elapsed, or if interval is <= 0 (disabled).
func (d *Detector) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if !d.ch.Baselined {
		return nil
	}
	return checkHeartbeat(&d.lastHeartbeat, d.startTime, d.eventCounts, now, interval)
}

func checkHeartbeat(last *time.Time, start time.Time, counts EventCounts, now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}
	if now.Sub(*last) < interval {
		return nil
	}
	*last = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(start),
		Counts:    counts,
	}
}
