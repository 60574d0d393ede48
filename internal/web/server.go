// Package web serves the grid dashboard, the JSON API and the live
// websocket feed.
package web

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sweeney/grid-status/internal/source"
	"github.com/sweeney/grid-status/internal/status"
)

// Options tunes a Server. Zero values pick sensible defaults.
type Options struct {
	// Location decides calendar days for the chart axis. Defaults to time.Local.
	Location *time.Location
	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
	// Refresh is the dashboard auto refresh interval. Defaults to 30s.
	Refresh time.Duration
	// AccessLog receives Apache-style request lines. Nil disables access logging.
	AccessLog io.Writer
}

// Server serves the status page and API over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	source     source.Source
	hub        *Hub
	loc        *time.Location
	now        func() time.Time
	refresh    time.Duration
}

// New creates a Server that reads live state from the tracker and
// history from src.
func New(addr string, tracker *status.Tracker, src source.Source, opts Options) *Server {
	s := &Server{
		tracker: tracker,
		source:  src,
		hub:     NewHub(tracker.SetLiveClients),
		loc:     opts.Location,
		now:     opts.Now,
		refresh: opts.Refresh,
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.refresh <= 0 {
		s.refresh = 30 * time.Second
	}

	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/state", s.handleState).Methods(http.MethodGet)
	r.HandleFunc("/api/history", s.handleHistory).Methods(http.MethodGet)
	r.HandleFunc("/api/last-change", s.handleLastChange).Methods(http.MethodGet)
	r.HandleFunc("/api/timeline", s.handleTimeline).Methods(http.MethodGet)
	r.HandleFunc("/api/live", s.handleLive).Methods(http.MethodGet)
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/index.html", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/index.json", s.handleJSON).Methods(http.MethodGet)

	var h http.Handler = handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
	)(r)
	if opts.AccessLog != nil {
		h = handlers.LoggingHandler(opts.AccessLog, h)
	}

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the root handler. Useful for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Hub returns the live feed hub used to broadcast transitions.
func (s *Server) Hub() *Hub {
	return s.hub
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown disconnects live clients and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}
