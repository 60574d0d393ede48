package source

import (
	"context"
	"sync"
	"time"

	"github.com/sweeney/grid-status/internal/timeline"
)

// Fake is a scripted Source for tests. Safe for concurrent use.
type Fake struct {
	mu sync.Mutex

	// State is returned by Current. Nil means "no state yet".
	State *State

	// Events is returned by History, filtered to the requested range.
	Events []timeline.RawEvent

	// CurrentError and HistoryError, if set, are returned instead.
	CurrentError error
	HistoryError error

	// Entity is returned by EntityID. Empty falls back to State.EntityID.
	Entity string

	// HistoryCalls records the requested ranges.
	HistoryCalls [][2]time.Time
}

// NewFake creates a Fake with the given live state and events.
func NewFake(state *State, events []timeline.RawEvent) *Fake {
	return &Fake{State: state, Events: events}
}

// Name implements Source.
func (f *Fake) Name() string {
	return "fake"
}

// EntityID implements Source.
func (f *Fake) EntityID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Entity == "" && f.State != nil {
		return f.State.EntityID
	}
	return f.Entity
}

// SetState replaces the live state.
func (f *Fake) SetState(st *State) {
	f.mu.Lock()
	f.State = st
	f.mu.Unlock()
}

// Current implements Source.
func (f *Fake) Current(ctx context.Context) (*State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CurrentError != nil {
		return nil, f.CurrentError
	}
	if f.State == nil {
		return nil, nil
	}
	st := *f.State
	return &st, nil
}

// History implements Source. Zero-time records are always returned.
func (f *Fake) History(ctx context.Context, since, until time.Time) ([]timeline.RawEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.HistoryCalls = append(f.HistoryCalls, [2]time.Time{since, until})
	if f.HistoryError != nil {
		return nil, f.HistoryError
	}
	out := make([]timeline.RawEvent, 0, len(f.Events))
	for _, e := range f.Events {
		if !e.Time.IsZero() && (e.Time.Before(since) || e.Time.After(until)) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
