package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sweeney/grid-status/internal/timeline"
)

const (
	stateTimeout   = 10 * time.Second
	historyTimeout = 15 * time.Second
	maxErrorBody   = 512
)

// HASS reads a binary sensor from the Home Assistant REST API.
type HASS struct {
	baseURL  string
	token    string
	entityID string
	client   *http.Client
}

// NewHASS creates a client for entityID on the Home Assistant at baseURL.
// A nil client uses http.DefaultClient.
func NewHASS(baseURL, token, entityID string, client *http.Client) *HASS {
	if client == nil {
		client = http.DefaultClient
	}
	return &HASS{
		baseURL:  strings.TrimRight(baseURL, "/"),
		token:    token,
		entityID: entityID,
		client:   client,
	}
}

// Name implements Source.
func (h *HASS) Name() string {
	return "hass"
}

// EntityID implements Source.
func (h *HASS) EntityID() string {
	return h.entityID
}

// hassState is the subset of /api/states/<entity> we use.
type hassState struct {
	EntityID    string `json:"entity_id"`
	State       string `json:"state"`
	LastChanged string `json:"last_changed"`
	LastUpdated string `json:"last_updated"`
	Attributes  struct {
		FriendlyName string `json:"friendly_name"`
	} `json:"attributes"`
}

// Current implements Source.
func (h *HASS) Current(ctx context.Context) (*State, error) {
	ctx, cancel := context.WithTimeout(ctx, stateTimeout)
	defer cancel()

	var hs hassState
	if err := h.get(ctx, "get state", "/api/states/"+url.PathEscape(h.entityID), nil, &hs); err != nil {
		return nil, err
	}

	st := &State{
		EntityID:     hs.EntityID,
		FriendlyName: hs.Attributes.FriendlyName,
		Snapshot:     timeline.CurrentSnapshot{State: hs.State},
	}
	if st.EntityID == "" {
		st.EntityID = h.entityID
	}

	// last_updated moves on attribute changes too; only fall back to it.
	changed := hs.LastChanged
	if changed == "" {
		changed = hs.LastUpdated
	}
	if t, err := timeline.ParseInstant(changed); err == nil {
		st.Snapshot.Since = t
	} else if changed != "" {
		log.Printf("hass: bad last_changed %q for %s: %v", changed, h.entityID, err)
	}
	if t, err := timeline.ParseInstant(hs.LastUpdated); err == nil {
		st.LastUpdated = t
	}
	return st, nil
}

// hassRecord is one entry of a minimal_response history list.
type hassRecord struct {
	State       string `json:"state"`
	LastChanged string `json:"last_changed"`
	LastUpdated string `json:"last_updated"`
}

// History implements Source.
func (h *HASS) History(ctx context.Context, since, until time.Time) ([]timeline.RawEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, historyTimeout)
	defer cancel()

	q := url.Values{}
	q.Set("filter_entity_id", h.entityID)
	q.Set("end_time", until.UTC().Format(time.RFC3339))
	q.Set("minimal_response", "")
	q.Set("no_attributes", "")

	// The path carries whole seconds; Home Assistant stamps the state in
	// force at the window start with that instant.
	since = since.UTC().Truncate(time.Second)
	path := "/api/history/period/" + since.Format(time.RFC3339)

	// One list per requested entity.
	var lists [][]hassRecord
	if err := h.get(ctx, "get history", path, q, &lists); err != nil {
		return nil, err
	}
	if len(lists) == 0 {
		return []timeline.RawEvent{}, nil
	}

	out := make([]timeline.RawEvent, 0, len(lists[0]))
	dropped := 0
	for _, rec := range lists[0] {
		ts := rec.LastChanged
		if ts == "" {
			ts = rec.LastUpdated
		}
		t, err := timeline.ParseInstant(ts)
		if err != nil {
			// Kept with a zero Time; reconstruction drops it.
			dropped++
			out = append(out, timeline.RawEvent{State: rec.State})
			continue
		}
		// Home Assistant may return more than requested.
		if t.Before(since) || t.After(until) {
			continue
		}
		out = append(out, timeline.RawEvent{Time: t, State: rec.State})
	}
	if dropped > 0 {
		log.Printf("hass: %d history record(s) for %s with unparseable timestamps", dropped, h.entityID)
	}
	return out, nil
}

func (h *HASS) get(ctx context.Context, op, path string, query url.Values, dst any) error {
	u := h.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+h.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%s: decode: %w", op, err)
	}
	return nil
}
