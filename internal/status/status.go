// Package status provides a thread-safe status tracker for the grid-status daemon.
// It is read by HTTP handlers and the MQTT heartbeat.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/grid-status/internal/logic"
	"github.com/sweeney/grid-status/internal/timeline"
)

// Config contains daemon configuration for display.
type Config struct {
	Source      string
	EntityID    string
	RefreshMs   int64
	HeartbeatMs int64
	DebounceMs  int64 // gpio source only
	Broker      string
	HTTPPort    string
	Timezone    string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Grid          logic.State // empty until the first successful refresh
	Since         time.Time
	FriendlyName  string
	Baselined     bool
	Counts        logic.EventCounts
	LastRefresh   time.Time
	LastError     string
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	LiveClients   int
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Known reports whether a grid state has been observed.
func (s Snapshot) Known() bool {
	return s.Grid != ""
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// RecordRefresh stores the outcome of one source query.
// On error the last known state is kept and the error is recorded.
// A nil current with no error means the source has no state yet.
func (t *Tracker) RecordRefresh(at time.Time, current *timeline.CurrentSnapshot, friendlyName string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.snap.LastRefresh = at
	if err != nil {
		t.snap.LastError = err.Error()
		return
	}
	t.snap.LastError = ""
	if current == nil {
		return
	}
	t.snap.Grid = logic.StateFromLabel(current.State)
	t.snap.Since = current.Since
	if friendlyName != "" {
		t.snap.FriendlyName = friendlyName
	}
}

// Update sets baseline status and transition counts.
// Called from runLoop after each observation.
func (t *Tracker) Update(baselined bool, counts logic.EventCounts) {
	t.mu.Lock()
	t.snap.Baselined = baselined
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetLiveClients sets the number of connected websocket clients.
func (t *Tracker) SetLiveClients(n int) {
	t.mu.Lock()
	t.snap.LiveClients = n
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
