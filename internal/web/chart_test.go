package web

import (
	"strings"
	"testing"
	"time"

	"github.com/sweeney/grid-status/internal/timeline"
)

func TestBuildChartStepPath(t *testing.T) {
	w := timeline.WindowFor(timeline.Horizon6h, testNow)
	tl := timeline.Timeline{
		{Time: at(6, 0), Value: 0, Label: "off"},
		{Time: at(9, 0), Value: 1, Label: "on"},
		{Time: at(12, 0), Value: 1, Label: "on"},
	}

	c := buildChart(tl, w)
	if c.Empty {
		t.Fatal("chart should not be empty")
	}
	// Plot spans x 40..790, so 09:00 is the midpoint 415.
	want := "M40.0,150.0 H415.0 V10.0 H790.0 V10.0 H790.0"
	if c.Path != want {
		t.Errorf("path:\ngot:  %s\nwant: %s", c.Path, want)
	}
	if len(c.Segments) != 2 {
		t.Fatalf("segments: got %+v", c.Segments)
	}
	if c.Segments[0].On || !c.Segments[1].On {
		t.Errorf("segment states: got %+v", c.Segments)
	}
	if c.Segments[1].X != "415.0" || c.Segments[1].Width != "375.0" {
		t.Errorf("on segment: got %+v", c.Segments[1])
	}
}

func TestBuildChartTicks(t *testing.T) {
	w := timeline.WindowFor(timeline.Horizon6h, testNow)
	c := buildChart(nil, w)
	if !c.Empty {
		t.Error("nil timeline should be empty")
	}
	if len(c.Ticks) != chartTicks+1 {
		t.Fatalf("ticks: got %d", len(c.Ticks))
	}
	if c.Ticks[0].Label != "06:00" || c.Ticks[chartTicks].Label != "12:00" {
		t.Errorf("tick labels: got %q .. %q", c.Ticks[0].Label, c.Ticks[chartTicks].Label)
	}
}

func TestBuildChartTicksAcrossDays(t *testing.T) {
	w := timeline.WindowFor(timeline.Horizon48h, testNow)
	c := buildChart(nil, w)
	if !strings.Contains(c.Ticks[0].Label, "/") {
		t.Errorf("expected dated labels, got %q", c.Ticks[0].Label)
	}
	if c.Ticks[0].Label != "30/05 12:00" {
		t.Errorf("first tick: got %q", c.Ticks[0].Label)
	}
}

func TestBuildChartClampsOutOfWindow(t *testing.T) {
	w := timeline.WindowFor(timeline.Horizon6h, testNow)
	tl := timeline.Timeline{{Time: testNow.Add(time.Hour), Value: 1, Label: "on"}}
	c := buildChart(tl, w)
	if !strings.HasPrefix(c.Path, "M790.0,10.0") {
		t.Errorf("point after the window should pin to the right edge, got %s", c.Path)
	}
	if len(c.Segments) != 0 {
		t.Errorf("zero-width segment should be skipped, got %+v", c.Segments)
	}
}
