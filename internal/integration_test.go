package internal

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/grid-status/internal/gpio"
	"github.com/sweeney/grid-status/internal/logic"
	"github.com/sweeney/grid-status/internal/mqtt"
	"github.com/sweeney/grid-status/internal/source"
	"github.com/sweeney/grid-status/internal/status"
	"github.com/sweeney/grid-status/internal/web"
)

var start = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("GET %s: decode: %v", url, err)
		}
	}
	return resp.StatusCode
}

// TestIntegrationGPIOToTimeline drives the detector from a fake GPIO input,
// logs transitions to the local source, publishes them, and reads the
// resulting timeline back over HTTP.
func TestIntegrationGPIOToTimeline(t *testing.T) {
	// on -> off at 12:04 -> on at 12:08, one sample per minute.
	var samples []bool
	for _, v := range []bool{true, false, true} {
		for i := 0; i < 4; i++ {
			samples = append(samples, v)
		}
	}

	now := start.Add(20 * time.Minute)
	clock := func() time.Time { return now }

	reader := gpio.NewFakeReader(samples)
	local := source.NewLocal("gpio.grid", 0, 0, clock)
	publisher := mqtt.NewFakePublisher()
	detector := logic.NewDetector(3*time.Minute, start)

	for i := range samples {
		on, err := reader.Read()
		if err != nil {
			t.Fatalf("sample %d: gpio read error: %v", i, err)
		}
		wasBaselined := detector.IsBaselined()
		event := detector.Process(logic.Input{On: on, Time: start.Add(time.Duration(i) * time.Minute)})
		if !wasBaselined && detector.IsBaselined() {
			state, since := detector.CurrentState()
			local.Record(state.Label(), since)
		}
		if event != nil {
			local.Record(event.State.Label(), event.Since)
			if err := publisher.Publish(*event); err != nil {
				t.Fatalf("sample %d: publish error: %v", i, err)
			}
		}
	}

	if len(publisher.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(publisher.Events))
	}
	var payload mqtt.Payload
	if err := json.Unmarshal(publisher.Payloads[0], &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload.Grid.Event != "GRID_OFF" {
		t.Errorf("payload event: got %q, want GRID_OFF", payload.Grid.Event)
	}
	if payload.Grid.Since != "2026-01-01T12:04:00Z" {
		t.Errorf("payload since: got %q", payload.Grid.Since)
	}

	tracker := status.NewTracker(start, status.Config{Source: local.Name(), EntityID: "gpio.grid"})
	srv := web.New(":0", tracker, local, web.Options{Location: time.UTC, Now: clock})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	var tl web.TimelineJSON
	if code := getJSON(t, ts.URL+"/api/timeline?hours=6", &tl); code != http.StatusOK {
		t.Fatalf("timeline: status %d", code)
	}
	wantValues := []int{1, 0, 1, 1}
	if len(tl.Points) != len(wantValues) {
		t.Fatalf("expected %d points, got %+v", len(wantValues), tl.Points)
	}
	for i, want := range wantValues {
		if tl.Points[i].Value != want {
			t.Errorf("point %d: got value %d, want %d", i, tl.Points[i].Value, want)
		}
	}
	if !tl.Points[1].Time.Equal(start.Add(4 * time.Minute)) {
		t.Errorf("off point: got %v", tl.Points[1].Time)
	}
	if last := tl.Points[len(tl.Points)-1]; !last.Time.Equal(now) {
		t.Errorf("timeline should end at now, got %v", last.Time)
	}

	var lc web.LastChangeJSON
	if code := getJSON(t, ts.URL+"/api/last-change", &lc); code != http.StatusOK {
		t.Fatalf("last-change: status %d", code)
	}
	if lc.State != "on" {
		t.Errorf("last-change state: got %q, want on", lc.State)
	}
	if lc.ElapsedSeconds != 720 {
		t.Errorf("elapsed: got %d, want 720", lc.ElapsedSeconds)
	}
	if lc.PreviousState != "off" || lc.PreviousDurationSeconds == nil || *lc.PreviousDurationSeconds != 240 {
		t.Errorf("previous: got %q %v, want off 240", lc.PreviousState, lc.PreviousDurationSeconds)
	}
}

func newFakeHomeAssistant(t *testing.T, fail bool) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail {
			http.Error(w, "upstream down", http.StatusServiceUnavailable)
			return
		}
		switch {
		case r.URL.Path == "/api/states/binary_sensor.grid_power":
			io.WriteString(w, `{
				"entity_id": "binary_sensor.grid_power",
				"state": "on",
				"last_changed": "2026-01-01T11:00:00+00:00",
				"last_updated": "2026-01-01T11:00:00+00:00",
				"attributes": {"friendly_name": "Grid Power"}
			}`)
		case strings.HasPrefix(r.URL.Path, "/api/history/period/"):
			io.WriteString(w, `[[
				{"state": "on", "last_changed": "2026-01-01T06:00:00+00:00"},
				{"state": "off", "last_changed": "2026-01-01T09:00:00+00:00"},
				{"state": "on", "last_changed": "2026-01-01T11:00:00+00:00"}
			]]`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

// TestIntegrationHomeAssistantToAPI serves the API over a Home Assistant
// source backed by a fake upstream.
func TestIntegrationHomeAssistantToAPI(t *testing.T) {
	ha := newFakeHomeAssistant(t, false)
	src := source.NewHASS(ha.URL, "token", "binary_sensor.grid_power", ha.Client())

	tracker := status.NewTracker(start, status.Config{Source: src.Name()})
	srv := web.New(":0", tracker, src, web.Options{
		Location: time.UTC,
		Now:      func() time.Time { return start },
	})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	var hist web.HistoryJSON
	if code := getJSON(t, ts.URL+"/api/history?hours=6", &hist); code != http.StatusOK {
		t.Fatalf("history: status %d", code)
	}
	if hist.EntityID != "binary_sensor.grid_power" {
		t.Errorf("entity_id: got %q", hist.EntityID)
	}
	if len(hist.History) != 3 {
		t.Errorf("expected 3 history records, got %d", len(hist.History))
	}

	var lc web.LastChangeJSON
	getJSON(t, ts.URL+"/api/last-change", &lc)
	if lc.FriendlyName != "Grid Power" {
		t.Errorf("friendly_name: got %q", lc.FriendlyName)
	}
	if lc.PreviousState != "off" || lc.PreviousDurationSeconds == nil || *lc.PreviousDurationSeconds != 7200 {
		t.Errorf("previous: got %q %v, want off 7200", lc.PreviousState, lc.PreviousDurationSeconds)
	}

	if code := getJSON(t, ts.URL+"/api/history?hours=5", nil); code != http.StatusBadRequest {
		t.Errorf("invalid hours: got %d, want 400", code)
	}

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "Grid Power") {
		t.Error("dashboard should show the entity's friendly name")
	}
}

func TestIntegrationHomeAssistantDown(t *testing.T) {
	ha := newFakeHomeAssistant(t, true)
	src := source.NewHASS(ha.URL, "token", "binary_sensor.grid_power", ha.Client())

	tracker := status.NewTracker(start, status.Config{Source: src.Name()})
	srv := web.New(":0", tracker, src, web.Options{Location: time.UTC})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	var body struct {
		Detail string `json:"detail"`
	}
	if code := getJSON(t, ts.URL+"/api/state", &body); code != http.StatusBadGateway {
		t.Errorf("state: got %d, want 502", code)
	}
	if !strings.HasPrefix(body.Detail, "hass error:") {
		t.Errorf("detail: got %q", body.Detail)
	}
}
