package source

import (
	"context"
	"sync"
	"time"

	"github.com/sweeney/grid-status/internal/timeline"
)

// DefaultRetention covers the longest horizon plus slack for the record
// in force at the window's left edge.
const DefaultRetention = 7*24*time.Hour + time.Hour

// DefaultMaxRecords bounds memory if the input flaps.
const DefaultMaxRecords = 10000

// Local is an in-memory transition log fed by the GPIO detector.
// It is lost on restart. Safe for concurrent use.
type Local struct {
	mu         sync.RWMutex
	entityID   string
	records    []timeline.RawEvent
	retention  time.Duration
	maxRecords int
	now        func() time.Time
}

// NewLocal creates an empty log. Records older than retention (measured
// against now) are pruned on every Record call.
func NewLocal(entityID string, retention time.Duration, maxRecords int, now func() time.Time) *Local {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if maxRecords <= 0 {
		maxRecords = DefaultMaxRecords
	}
	if now == nil {
		now = time.Now
	}
	return &Local{
		entityID:   entityID,
		retention:  retention,
		maxRecords: maxRecords,
		now:        now,
	}
}

// Name implements Source.
func (l *Local) Name() string {
	return "gpio"
}

// EntityID implements Source.
func (l *Local) EntityID() string {
	return l.entityID
}

// Record appends a transition into label at the given instant.
// Records arriving out of order are kept; consumers sort.
func (l *Local) Record(label string, at time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = append(l.records, timeline.RawEvent{Time: at, State: label})

	cutoff := l.now().Add(-l.retention)
	drop := 0
	for drop < len(l.records)-1 && l.records[drop].Time.Before(cutoff) {
		drop++
	}
	if n := len(l.records) - l.maxRecords; n > drop {
		drop = n
	}
	if drop > 0 {
		l.records = append(l.records[:0:0], l.records[drop:]...)
	}
}

// Len returns the number of retained records.
func (l *Local) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Current implements Source. It returns nil until the first record.
func (l *Local) Current(ctx context.Context) (*State, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.records) == 0 {
		return nil, nil
	}
	last := l.records[len(l.records)-1]
	return &State{
		EntityID:    l.entityID,
		Snapshot:    timeline.CurrentSnapshot{State: last.State, Since: last.Time},
		LastUpdated: last.Time,
	}, nil
}

// History implements Source. The state in force at since is included as a
// record at since.
func (l *Local) History(ctx context.Context, since, until time.Time) ([]timeline.RawEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	// Like Home Assistant, start with the state in force at since, pinned there.
	out := make([]timeline.RawEvent, 0, len(l.records))
	var before *timeline.RawEvent
	for i, r := range l.records {
		if r.Time.Before(since) {
			if before == nil || !r.Time.Before(before.Time) {
				before = &l.records[i]
			}
			continue
		}
		if r.Time.After(until) {
			continue
		}
		out = append(out, r)
	}
	if before != nil {
		out = append(out, timeline.RawEvent{Time: since, State: before.State})
	}
	return out, nil
}
