package timeline

import (
	"errors"
	"testing"
	"time"
)

func TestWindowForCrossesDayBoundary(t *testing.T) {
	now := time.Date(2024, 1, 2, 1, 0, 0, 0, time.UTC)
	w := WindowFor(Horizon24h, now)

	wantStart := time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC)
	if !w.Start.Equal(wantStart) {
		t.Errorf("Start: got %v, want %v", w.Start, wantStart)
	}
	if !w.End.Equal(now) {
		t.Errorf("End: got %v, want %v", w.End, now)
	}
	if !w.CrossesDayBoundary {
		t.Error("expected CrossesDayBoundary=true")
	}
}

func TestWindowForSameDay(t *testing.T) {
	now := time.Date(2024, 1, 2, 18, 0, 0, 0, time.UTC)
	w := WindowFor(Horizon6h, now)
	if w.CrossesDayBoundary {
		t.Error("12:00..18:00 should not cross a day boundary")
	}
}

func TestWindowForStartsAtMidnight(t *testing.T) {
	now := time.Date(2024, 1, 2, 6, 0, 0, 0, time.UTC)
	w := WindowFor(Horizon6h, now)
	if w.CrossesDayBoundary {
		t.Error("00:00..06:00 is a single calendar day")
	}
}

func TestWindowForUsesCallerLocation(t *testing.T) {
	kyiv := time.FixedZone("EET", 2*60*60)
	// 23:30 UTC on Jan 1 is 01:30 on Jan 2 in Kyiv.
	now := time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC)

	if WindowFor(Horizon6h, now).CrossesDayBoundary {
		t.Error("UTC: 17:30..23:30 should stay on Jan 1")
	}
	if !WindowFor(Horizon6h, now.In(kyiv)).CrossesDayBoundary {
		t.Error("EET: 19:30..01:30 should cross into Jan 2")
	}
}

func TestWindowForSevenDays(t *testing.T) {
	now := time.Date(2024, 6, 8, 12, 0, 0, 0, time.UTC)
	w := WindowFor(Horizon7d, now)
	if want := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC); !w.Start.Equal(want) {
		t.Errorf("Start: got %v, want %v", w.Start, want)
	}
	if !w.CrossesDayBoundary {
		t.Error("expected 7d window to cross a day boundary")
	}
}

func TestWindowContains(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	w := WindowFor(Horizon6h, now)
	if !w.Contains(w.Start) || !w.Contains(w.End) {
		t.Error("window edges should be contained")
	}
	if w.Contains(w.Start.Add(-time.Second)) || w.Contains(w.End.Add(time.Second)) {
		t.Error("instants outside the window should not be contained")
	}
}

func TestParseHorizon(t *testing.T) {
	tests := []struct {
		hours int
		want  Horizon
	}{
		{6, Horizon6h},
		{12, Horizon12h},
		{24, Horizon24h},
		{48, Horizon48h},
		{168, Horizon7d},
	}
	for _, tt := range tests {
		got, err := ParseHorizon(tt.hours)
		if err != nil {
			t.Errorf("ParseHorizon(%d): unexpected error: %v", tt.hours, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseHorizon(%d): got %v, want %v", tt.hours, got, tt.want)
		}
		if got.Hours() != tt.hours {
			t.Errorf("Hours(): got %d, want %d", got.Hours(), tt.hours)
		}
	}

	for _, bad := range []int{0, -6, 1, 7, 72, 169} {
		_, err := ParseHorizon(bad)
		if !errors.Is(err, ErrInvalidHorizon) {
			t.Errorf("ParseHorizon(%d): got %v, want ErrInvalidHorizon", bad, err)
		}
	}
}

func TestHorizonsIsCopy(t *testing.T) {
	hs := Horizons()
	if len(hs) != 5 {
		t.Fatalf("expected 5 horizons, got %d", len(hs))
	}
	hs[0] = 0
	if Horizons()[0] != Horizon6h {
		t.Error("Horizons should return a copy")
	}
}
