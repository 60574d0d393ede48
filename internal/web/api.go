package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/sweeney/grid-status/internal/source"
	"github.com/sweeney/grid-status/internal/timeline"
)

// hoursParam reads ?hours=, defaulting to 24.
func hoursParam(r *http.Request) (timeline.Horizon, error) {
	v := r.URL.Query().Get("hours")
	if v == "" {
		return timeline.DefaultHorizon, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", timeline.ErrInvalidHorizon, v)
	}
	return timeline.ParseHorizon(n)
}

func (s *Server) sourceError(w http.ResponseWriter, op string, err error) {
	log.Printf("web: %s: %s: %v", op, s.source.Name(), err)
	writeError(w, http.StatusBadGateway, fmt.Sprintf("%s error: %v", s.source.Name(), err))
}

// window returns the visible range for h ending now, in the display zone.
func (s *Server) window(h timeline.Horizon) (timeline.Window, time.Time) {
	now := s.now().In(s.loc)
	return timeline.WindowFor(h, now), now
}

// load fetches the records in w and the live state.
func (s *Server) load(ctx context.Context, w timeline.Window) ([]timeline.RawEvent, *source.State, error) {
	events, err := s.source.History(ctx, w.Start, w.End)
	if err != nil {
		return nil, nil, fmt.Errorf("history: %w", err)
	}
	st, err := s.source.Current(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("state: %w", err)
	}
	return events, st, nil
}

func snapshotOf(st *source.State) *timeline.CurrentSnapshot {
	if st == nil {
		return nil
	}
	snap := st.Snapshot
	return &snap
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	st, err := s.source.Current(r.Context())
	if err != nil {
		s.sourceError(w, "state", err)
		return
	}
	if st == nil {
		writeJSON(w, http.StatusOK, struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, StateJSON{
		EntityID:     st.EntityID,
		State:        st.Snapshot.State,
		LastChanged:  timePtr(st.Snapshot.Since),
		LastUpdated:  timePtr(st.LastUpdated),
		FriendlyName: st.FriendlyName,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	h, err := hoursParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	win, _ := s.window(h)

	events, err := s.source.History(r.Context(), win.Start, win.End)
	if err != nil {
		s.sourceError(w, "history", err)
		return
	}

	resp := HistoryJSON{
		EntityID: s.source.EntityID(),
		Hours:    h.Hours(),
		History:  make([]HistoryItem, 0, len(events)),
	}
	for _, e := range events {
		resp.History = append(resp.History, HistoryItem{State: e.State, LastChanged: timePtr(e.Time)})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLastChange(w http.ResponseWriter, r *http.Request) {
	win, now := s.window(timeline.Horizon7d)

	st, err := s.source.Current(r.Context())
	if err != nil {
		s.sourceError(w, "last-change", err)
		return
	}
	// History only feeds the previous run; without it the card still works.
	events, err := s.source.History(r.Context(), win.Start, win.End)
	if err != nil {
		log.Printf("web: last-change: history unavailable: %v", err)
		events = nil
	}

	lc, ok := timeline.Summarize(events, snapshotOf(st), now)
	if !ok {
		writeJSON(w, http.StatusOK, struct{}{})
		return
	}
	resp := LastChangeJSON{
		State:          lc.State,
		LastChanged:    lc.Since,
		FriendlyName:   st.FriendlyName,
		ElapsedSeconds: int64(lc.Elapsed / time.Second),
	}
	if lc.HasPrevious {
		secs := int64(lc.PreviousDuration / time.Second)
		resp.PreviousState = lc.PreviousState
		resp.PreviousDurationSeconds = &secs
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	h, err := hoursParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	win, now := s.window(h)

	events, st, err := s.load(r.Context(), win)
	if err != nil {
		s.sourceError(w, "timeline", err)
		return
	}

	writeJSON(w, http.StatusOK, TimelineJSON{
		Hours:  h.Hours(),
		Window: windowJSON(win),
		Points: timeline.Reconstruct(events, snapshotOf(st), now),
	})
}
