package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/sweeney/grid-status/internal/timeline"
)

// errorJSON is the body of every non-2xx API response.
type errorJSON struct {
	Detail string `json:"detail"`
}

// StateJSON is the /api/state response.
type StateJSON struct {
	EntityID     string     `json:"entity_id"`
	State        string     `json:"state"`
	LastChanged  *time.Time `json:"last_changed"`
	LastUpdated  *time.Time `json:"last_updated,omitempty"`
	FriendlyName string     `json:"friendly_name,omitempty"`
}

// HistoryJSON is the /api/history response.
type HistoryJSON struct {
	EntityID string        `json:"entity_id"`
	Hours    int           `json:"hours"`
	History  []HistoryItem `json:"history"`
}

// HistoryItem is one raw state record. LastChanged is null when the
// upstream timestamp could not be parsed.
type HistoryItem struct {
	State       string     `json:"state"`
	LastChanged *time.Time `json:"last_changed"`
}

// LastChangeJSON is the /api/last-change response.
type LastChangeJSON struct {
	State                   string    `json:"state"`
	LastChanged             time.Time `json:"last_changed"`
	FriendlyName            string    `json:"friendly_name,omitempty"`
	ElapsedSeconds          int64     `json:"elapsed_seconds"`
	PreviousState           string    `json:"previous_state,omitempty"`
	PreviousDurationSeconds *int64    `json:"previous_duration_seconds,omitempty"`
}

// WindowJSON describes the visible range.
type WindowJSON struct {
	Start              time.Time `json:"start"`
	End                time.Time `json:"end"`
	CrossesDayBoundary bool      `json:"crosses_day_boundary"`
}

// TimelineJSON is the /api/timeline response.
type TimelineJSON struct {
	Hours  int               `json:"hours"`
	Window WindowJSON        `json:"window"`
	Points timeline.Timeline `json:"points"`
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func windowJSON(w timeline.Window) WindowJSON {
	return WindowJSON{Start: w.Start, End: w.End, CrossesDayBoundary: w.CrossesDayBoundary}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorJSON{Detail: detail})
}
