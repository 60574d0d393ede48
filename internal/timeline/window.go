package timeline

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidHorizon is returned for a lookback outside the supported set.
var ErrInvalidHorizon = errors.New("invalid horizon")

// Horizon is a selectable lookback duration.
type Horizon time.Duration

const (
	Horizon6h  = Horizon(6 * time.Hour)
	Horizon12h = Horizon(12 * time.Hour)
	Horizon24h = Horizon(24 * time.Hour)
	Horizon48h = Horizon(48 * time.Hour)
	Horizon7d  = Horizon(7 * 24 * time.Hour)

	DefaultHorizon = Horizon24h
)

var horizons = []Horizon{Horizon6h, Horizon12h, Horizon24h, Horizon48h, Horizon7d}

// Horizons returns the supported horizons, shortest first.
func Horizons() []Horizon {
	out := make([]Horizon, len(horizons))
	copy(out, horizons)
	return out
}

// ParseHorizon accepts a lookback in whole hours.
func ParseHorizon(hours int) (Horizon, error) {
	for _, h := range horizons {
		if h.Hours() == hours {
			return h, nil
		}
	}
	return 0, fmt.Errorf("%w: %d hours (want one of 6, 12, 24, 48, 168)", ErrInvalidHorizon, hours)
}

// Hours returns the horizon in whole hours.
func (h Horizon) Hours() int {
	return int(time.Duration(h) / time.Hour)
}

// Duration returns the horizon as a time.Duration.
func (h Horizon) Duration() time.Duration {
	return time.Duration(h)
}

// Window is the visible range [Start, End] of the chart.
type Window struct {
	Start time.Time
	End   time.Time
	// CrossesDayBoundary selects the longer axis label format.
	CrossesDayBoundary bool
}

// WindowFor returns [now-h, now]. Calendar dates are compared in now's location.
func WindowFor(h Horizon, now time.Time) Window {
	start := now.Add(-h.Duration())
	sy, sm, sd := start.Date()
	ey, em, ed := now.Date()
	return Window{
		Start:              start,
		End:                now,
		CrossesDayBoundary: sy != ey || sm != em || sd != ed,
	}
}

// Contains reports whether t lies inside the window, edges included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}
