// Package timeline turns a sparse log of grid state changes into a step
// function ready for rendering.
// This package has NO external dependencies (no HTTP, MQTT, OS, or wall clock).
// The evaluation instant is always passed in as a time.Time parameter.
package timeline

import (
	"fmt"
	"strings"
	"time"
)

// StateOn is the only label that encodes to 1. Everything else is 0.
const StateOn = "on"

// RawEvent is one recorded state transition as reported by the event log.
// A zero Time marks a record whose timestamp could not be parsed.
type RawEvent struct {
	Time  time.Time
	State string
}

// CurrentSnapshot is the live state and the instant it last changed.
type CurrentSnapshot struct {
	State string
	Since time.Time
}

// Point is a single vertex of the step function. Its value holds from Time
// until the next point.
type Point struct {
	Time  time.Time `json:"time"`
	Value int       `json:"value"`
	Label string    `json:"label"`
}

// Timeline is a time-ordered, right-continuous step function.
type Timeline []Point

// Encode maps a state label to its binary value: 1 for "on" in any case, 0 otherwise.
func Encode(label string) int {
	if strings.EqualFold(label, StateOn) {
		return 1
	}
	return 0
}

// instantLayouts are tried in order. Home Assistant emits RFC 3339 with
// microseconds and a numeric offset; older exports omit the offset.
var instantLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// ParseInstant parses a timestamp as found in event logs. Offset-less values are UTC.
func ParseInstant(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("parse instant: empty")
	}
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse instant %q: unrecognized format", s)
}
