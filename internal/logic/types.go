// Package logic contains pure business logic for grid state tracking.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep)
// beyond the pure timeline package.
// Time is always injectable via time.Time parameters.
package logic

import (
	"time"

	"github.com/sweeney/grid-status/internal/timeline"
)

// State represents the logical state of the grid input.
type State string

const (
	StateOn  State = "ON"
	StateOff State = "OFF"
)

// StateFromLabel maps an upstream label onto ON/OFF using the same rule as the chart.
func StateFromLabel(label string) State {
	if timeline.Encode(label) == 1 {
		return StateOn
	}
	return StateOff
}

// Label returns the lowercase label used by event logs.
func (s State) Label() string {
	switch s {
	case StateOn:
		return "on"
	case StateOff:
		return "off"
	}
	return ""
}

// EventType represents a state transition event.
type EventType string

const (
	EventGridOn  EventType = "GRID_ON"
	EventGridOff EventType = "GRID_OFF"
)

// EventTypeFor returns the event emitted on entering to.
func EventTypeFor(to State) EventType {
	if to == StateOn {
		return EventGridOn
	}
	return EventGridOff
}

// Event represents a state transition to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	State     State
	// Since is when the new state began. For debounced GPIO input this is
	// when the pending state was first observed, not when debounce completed.
	Since time.Time
}

// ChannelState tracks debounce state for the input.
type ChannelState struct {
	// Current stable (debounced) state
	Stable State
	// Pending state during debounce
	Pending State
	// Time when pending state was first observed
	PendingSince time.Time
	// Whether we have established a baseline
	Baselined bool
	// When Stable was entered (or baselined)
	StableSince time.Time
}

// Input represents a single sample of the logical grid state.
type Input struct {
	On   bool // true = grid present (already inverted from raw GPIO)
	Time time.Time
}

// EventCounts tracks the number of each event type since startup.
type EventCounts struct {
	On  int
	Off int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}
