package web

import (
	"strconv"
	"strings"
	"time"

	"github.com/sweeney/grid-status/internal/i18n"
	"github.com/sweeney/grid-status/internal/timeline"
)

const (
	chartWidth  = 800.0
	chartHeight = 180.0
	chartLeft   = 40.0
	chartRight  = 10.0
	chartTop    = 10.0
	chartBottom = 30.0
	chartTicks  = 6
)

type chartTick struct {
	X     string
	Label string
}

type chartSegment struct {
	X     string
	Width string
	On    bool
}

// chart is the geometry of the step chart, formatted for the template.
type chart struct {
	Width    string
	Height   string
	Left     string
	Right    string
	YOn      string
	YOff     string
	Baseline string
	Path     string
	Segments []chartSegment
	Ticks    []chartTick
	Empty    bool
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', 1, 64)
}

// buildChart lays out tl (already clipped to w) as a step-after line with
// shaded ON runs. Ticks are labelled in the zone of w.End.
func buildChart(tl timeline.Timeline, w timeline.Window) chart {
	plotW := chartWidth - chartLeft - chartRight
	yOn := chartTop
	yOff := chartHeight - chartBottom
	c := chart{
		Width:    num(chartWidth),
		Height:   num(chartHeight),
		Left:     num(chartLeft),
		Right:    num(chartWidth - chartRight),
		YOn:      num(yOn),
		YOff:     num(yOff),
		Baseline: num(yOff + 18),
	}

	span := w.End.Sub(w.Start)
	x := func(t time.Time) float64 {
		if span <= 0 {
			return chartLeft
		}
		off := t.Sub(w.Start)
		if off < 0 {
			off = 0
		}
		if off > span {
			off = span
		}
		return chartLeft + plotW*float64(off)/float64(span)
	}
	y := func(v int) float64 {
		if v == 1 {
			return yOn
		}
		return yOff
	}

	for i := 0; i <= chartTicks; i++ {
		t := w.Start.Add(span * time.Duration(i) / chartTicks)
		c.Ticks = append(c.Ticks, chartTick{X: num(x(t)), Label: i18n.AxisLabel(t.In(w.End.Location()), w)})
	}

	if len(tl) == 0 {
		c.Empty = true
		return c
	}

	var b strings.Builder
	b.WriteString("M" + num(x(tl[0].Time)) + "," + num(y(tl[0].Value)))
	for i, p := range tl {
		end := w.End
		if i+1 < len(tl) {
			end = tl[i+1].Time
		}
		if i > 0 {
			b.WriteString(" H" + num(x(p.Time)) + " V" + num(y(p.Value)))
		}
		x0, x1 := x(p.Time), x(end)
		if x1 > x0 {
			c.Segments = append(c.Segments, chartSegment{X: num(x0), Width: num(x1 - x0), On: p.Value == 1})
		}
	}
	b.WriteString(" H" + num(x(w.End)))
	c.Path = b.String()
	return c
}
