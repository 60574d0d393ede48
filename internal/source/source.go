// Package source fetches grid state history and the live state from an
// upstream: Home Assistant over REST, or the local GPIO transition log.
package source

import (
	"context"
	"fmt"
	"time"

	"github.com/sweeney/grid-status/internal/timeline"
)

// State is the live state of the grid entity.
type State struct {
	EntityID     string
	FriendlyName string
	Snapshot     timeline.CurrentSnapshot
	LastUpdated  time.Time
}

// Source supplies state-change records and the live state.
// Errors are transport failures; callers surface them and do not reconstruct.
type Source interface {
	// Current returns the live state, or nil when the source has none yet.
	Current(ctx context.Context) (*State, error)

	// History returns the records whose timestamps fall in [since, until],
	// in no particular order. Implementations may include the state in force
	// at since as a record stamped since. Records with unparseable timestamps carry a
	// zero Time.
	History(ctx context.Context, since, until time.Time) ([]timeline.RawEvent, error)

	// Name identifies the source in logs and status output.
	Name() string

	// EntityID is the entity whose state is tracked.
	EntityID() string
}

// StatusError reports a non-2xx response from an HTTP upstream.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: HTTP %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.Status, e.Body)
}
