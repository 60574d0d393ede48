package timeline

import (
	"reflect"
	"testing"
	"time"
)

func at(hour, min int) time.Time {
	return time.Date(2024, 6, 1, hour, min, 0, 0, time.UTC)
}

func assertPoints(t *testing.T, got Timeline, want []Point) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("len: got %d, want %d (%+v)", len(got), len(want), got)
	}
	for i := range want {
		if !got[i].Time.Equal(want[i].Time) {
			t.Errorf("point %d time: got %v, want %v", i, got[i].Time, want[i].Time)
		}
		if got[i].Value != want[i].Value {
			t.Errorf("point %d value: got %d, want %d", i, got[i].Value, want[i].Value)
		}
		if got[i].Label != want[i].Label {
			t.Errorf("point %d label: got %q, want %q", i, got[i].Label, want[i].Label)
		}
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		label string
		want  int
	}{
		{"on", 1},
		{"ON", 1},
		{"On", 1},
		{"off", 0},
		{"OFF", 0},
		{"", 0},
		{"unknown", 0},
		{"unavailable", 0},
		{" on", 0},
	}
	for _, tt := range tests {
		if got := Encode(tt.label); got != tt.want {
			t.Errorf("Encode(%q): got %d, want %d", tt.label, got, tt.want)
		}
	}
}

func TestReconstructEmpty(t *testing.T) {
	got := Reconstruct(nil, nil, at(12, 0))
	if got == nil {
		t.Fatal("expected non-nil empty timeline")
	}
	if len(got) != 0 {
		t.Errorf("expected empty timeline, got %+v", got)
	}
}

func TestReconstructGapFillWithoutEvents(t *testing.T) {
	cur := &CurrentSnapshot{State: "on", Since: at(10, 0)}
	got := Reconstruct(nil, cur, at(12, 0))
	assertPoints(t, got, []Point{
		{Time: at(10, 0), Value: 1, Label: "on"},
		{Time: at(12, 0), Value: 1, Label: "on"},
	})
}

func TestReconstructNoDuplicateAtRecordedTransition(t *testing.T) {
	events := []RawEvent{{Time: at(10, 0), State: "on"}}
	cur := &CurrentSnapshot{State: "on", Since: at(10, 0)}
	got := Reconstruct(events, cur, at(12, 0))
	assertPoints(t, got, []Point{
		{Time: at(10, 0), Value: 1, Label: "on"},
		{Time: at(12, 0), Value: 1, Label: "on"},
	})
}

func TestReconstructScenario(t *testing.T) {
	events := []RawEvent{
		{Time: at(10, 0), State: "on"},
		{Time: at(8, 0), State: "off"},
	}
	cur := &CurrentSnapshot{State: "on", Since: at(10, 0)}
	got := Reconstruct(events, cur, at(12, 0))
	assertPoints(t, got, []Point{
		{Time: at(8, 0), Value: 0, Label: "off"},
		{Time: at(10, 0), Value: 1, Label: "on"},
		{Time: at(12, 0), Value: 1, Label: "on"},
	})
}

func TestReconstructUnreportedTransition(t *testing.T) {
	// Log still says "on"; the live snapshot already saw the outage at 11:30.
	events := []RawEvent{
		{Time: at(8, 0), State: "off"},
		{Time: at(10, 0), State: "on"},
	}
	cur := &CurrentSnapshot{State: "off", Since: at(11, 30)}
	got := Reconstruct(events, cur, at(12, 0))
	assertPoints(t, got, []Point{
		{Time: at(8, 0), Value: 0, Label: "off"},
		{Time: at(10, 0), Value: 1, Label: "on"},
		{Time: at(11, 30), Value: 0, Label: "off"},
		{Time: at(12, 0), Value: 0, Label: "off"},
	})
}

func TestReconstructWithoutCurrentEndsAtLastEvent(t *testing.T) {
	events := []RawEvent{
		{Time: at(8, 0), State: "off"},
		{Time: at(10, 0), State: "on"},
	}
	got := Reconstruct(events, nil, at(12, 0))
	assertPoints(t, got, []Point{
		{Time: at(8, 0), Value: 0, Label: "off"},
		{Time: at(10, 0), Value: 1, Label: "on"},
	})
}

func TestReconstructDropsUnparseableEvents(t *testing.T) {
	events := []RawEvent{
		{Time: at(8, 0), State: "off"},
		{State: "on"}, // timestamp failed to parse upstream
		{Time: at(10, 0), State: "on"},
	}
	got := Reconstruct(events, nil, at(12, 0))
	if len(got) != 2 {
		t.Fatalf("expected malformed record dropped, got %+v", got)
	}
}

func TestReconstructUnknownLabelsEncodeOff(t *testing.T) {
	events := []RawEvent{
		{Time: at(8, 0), State: "unavailable"},
		{Time: at(9, 0), State: ""},
	}
	got := Reconstruct(events, &CurrentSnapshot{State: "unknown", Since: at(9, 0)}, at(12, 0))
	for i, p := range got {
		if p.Value != 0 {
			t.Errorf("point %d: got value %d, want 0", i, p.Value)
		}
	}
	if got[0].Label != "unavailable" {
		t.Errorf("label should be preserved, got %q", got[0].Label)
	}
}

func TestReconstructStableTieOrder(t *testing.T) {
	events := []RawEvent{
		{Time: at(9, 0), State: "on"},
		{Time: at(8, 0), State: "off"},
		{Time: at(9, 0), State: "ON"},
	}
	got := Reconstruct(events, nil, at(12, 0))
	if got[1].Label != "on" || got[2].Label != "ON" {
		t.Errorf("ties should keep input order, got %q then %q", got[1].Label, got[2].Label)
	}
}

func TestReconstructClampsSinceAfterNow(t *testing.T) {
	cur := &CurrentSnapshot{State: "on", Since: at(12, 5)}
	got := Reconstruct(nil, cur, at(12, 0))
	assertPoints(t, got, []Point{
		{Time: at(12, 0), Value: 1, Label: "on"},
		{Time: at(12, 0), Value: 1, Label: "on"},
	})
}

func TestReconstructDropsFutureEvents(t *testing.T) {
	events := []RawEvent{
		{Time: at(8, 0), State: "off"},
		{Time: at(13, 0), State: "on"},
	}
	got := Reconstruct(events, &CurrentSnapshot{State: "off", Since: at(8, 0)}, at(12, 0))
	assertPoints(t, got, []Point{
		{Time: at(8, 0), Value: 0, Label: "off"},
		{Time: at(12, 0), Value: 0, Label: "off"},
	})
}

func TestReconstructZeroSinceStillExtends(t *testing.T) {
	got := Reconstruct(nil, &CurrentSnapshot{State: "on"}, at(12, 0))
	assertPoints(t, got, []Point{
		{Time: at(12, 0), Value: 1, Label: "on"},
	})
}

func TestReconstructInvariants(t *testing.T) {
	events := []RawEvent{
		{Time: at(11, 0), State: "off"},
		{Time: at(3, 0), State: "on"},
		{Time: at(7, 15), State: "off"},
		{Time: at(7, 15), State: "off"},
		{Time: at(9, 45), State: "on"},
	}
	cur := &CurrentSnapshot{State: "On", Since: at(11, 40)}
	now := at(12, 0)

	first := Reconstruct(events, cur, now)
	second := Reconstruct(events, cur, now)
	if !reflect.DeepEqual(first, second) {
		t.Error("reconstruction is not idempotent")
	}

	for i := 1; i < len(first); i++ {
		if first[i].Time.Before(first[i-1].Time) {
			t.Errorf("points %d and %d out of order: %v > %v", i-1, i, first[i-1].Time, first[i].Time)
		}
	}

	last := first[len(first)-1]
	if !last.Time.Equal(now) {
		t.Errorf("last point time: got %v, want %v", last.Time, now)
	}
	if last.Value != 1 {
		t.Errorf("last point value: got %d, want 1", last.Value)
	}
}

func TestReconstructDoesNotMutateInput(t *testing.T) {
	events := []RawEvent{
		{Time: at(10, 0), State: "on"},
		{Time: at(8, 0), State: "off"},
	}
	Reconstruct(events, nil, at(12, 0))
	if !events[0].Time.Equal(at(10, 0)) {
		t.Error("input slice was reordered")
	}
}

func TestValueAt(t *testing.T) {
	tl := Timeline{
		{Time: at(8, 0), Value: 0, Label: "off"},
		{Time: at(10, 0), Value: 1, Label: "on"},
		{Time: at(12, 0), Value: 1, Label: "on"},
	}

	if _, ok := tl.ValueAt(at(7, 59)); ok {
		t.Error("expected no value before first point")
	}
	if p, _ := tl.ValueAt(at(8, 0)); p.Value != 0 {
		t.Errorf("at 08:00: got %d, want 0", p.Value)
	}
	if p, _ := tl.ValueAt(at(9, 59)); p.Value != 0 {
		t.Errorf("at 09:59: got %d, want 0", p.Value)
	}
	if p, _ := tl.ValueAt(at(10, 0)); p.Value != 1 {
		t.Errorf("at 10:00: got %d, want 1 (right-continuous)", p.Value)
	}
}

func TestClip(t *testing.T) {
	tl := Timeline{
		{Time: at(2, 0), Value: 1, Label: "on"},
		{Time: at(8, 0), Value: 0, Label: "off"},
		{Time: at(10, 0), Value: 1, Label: "on"},
		{Time: at(12, 0), Value: 1, Label: "on"},
	}
	w := WindowFor(Horizon6h, at(12, 0))

	got := tl.Clip(w)
	assertPoints(t, got, []Point{
		{Time: at(6, 0), Value: 1, Label: "on"},
		{Time: at(8, 0), Value: 0, Label: "off"},
		{Time: at(10, 0), Value: 1, Label: "on"},
		{Time: at(12, 0), Value: 1, Label: "on"},
	})

	if len(tl) != 4 || !tl[0].Time.Equal(at(2, 0)) {
		t.Error("Clip modified the source timeline")
	}
}

func TestClipStartsInsideWindow(t *testing.T) {
	tl := Timeline{
		{Time: at(9, 0), Value: 0, Label: "off"},
		{Time: at(12, 0), Value: 0, Label: "off"},
	}
	got := tl.Clip(WindowFor(Horizon6h, at(12, 0)))
	if len(got) != 2 || !got[0].Time.Equal(at(9, 0)) {
		t.Errorf("expected no synthetic left edge, got %+v", got)
	}
}

func TestParseInstant(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-06-01T08:00:00Z", at(8, 0)},
		{"2024-06-01T08:00:00+00:00", at(8, 0)},
		{"2024-06-01T10:00:00.123456+02:00", time.Date(2024, 6, 1, 8, 0, 0, 123456000, time.UTC)},
		{"2024-06-01T08:00:00.5", time.Date(2024, 6, 1, 8, 0, 0, 500000000, time.UTC)},
		{"2024-06-01 08:00:00", at(8, 0)},
	}
	for _, tt := range tests {
		got, err := ParseInstant(tt.in)
		if err != nil {
			t.Errorf("ParseInstant(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseInstant(%q): got %v, want %v", tt.in, got, tt.want)
		}
	}

	for _, bad := range []string{"", "yesterday", "2024-13-01T00:00:00Z", "1717228800"} {
		if _, err := ParseInstant(bad); err == nil {
			t.Errorf("ParseInstant(%q): expected error", bad)
		}
	}
}
