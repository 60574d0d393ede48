package timeline

import (
	"sort"
	"time"
)

// Reconstruct builds the step function for the given events, optionally
// extended to now with the live snapshot. It holds no state between calls.
//
// Events with a zero Time (unparseable upstream) or dated after now are
// dropped. When current is non-nil the last point is always at now.
func Reconstruct(events []RawEvent, current *CurrentSnapshot, now time.Time) Timeline {
	sorted := make([]RawEvent, 0, len(events))
	for _, e := range events {
		if e.Time.IsZero() || e.Time.After(now) {
			continue
		}
		sorted = append(sorted, e)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	out := make(Timeline, 0, len(sorted)+2)
	for _, e := range sorted {
		out = append(out, Point{Time: e.Time, Value: Encode(e.State), Label: e.State})
	}

	if current == nil {
		return out
	}

	// Gap-fill: the snapshot has seen a transition the log has not indexed yet.
	if since := current.Since; !since.IsZero() {
		if since.After(now) {
			since = now
		}
		if len(out) == 0 || out[len(out)-1].Time.Before(since) {
			out = append(out, Point{Time: since, Value: Encode(current.State), Label: current.State})
		}
	}

	return append(out, Point{Time: now, Value: Encode(current.State), Label: current.State})
}

// ValueAt returns the point in force at t. It reports false before the first point.
func (tl Timeline) ValueAt(t time.Time) (Point, bool) {
	i := sort.Search(len(tl), func(i int) bool { return tl[i].Time.After(t) })
	if i == 0 {
		return Point{}, false
	}
	return tl[i-1], true
}

// Clip restricts the timeline to w for drawing. The value in force at
// w.Start is pinned there so the first segment starts at the left edge.
// Reconstruct never clips; callers do.
func (tl Timeline) Clip(w Window) Timeline {
	out := make(Timeline, 0, len(tl)+1)
	if p, ok := tl.ValueAt(w.Start); ok && p.Time.Before(w.Start) {
		p.Time = w.Start
		out = append(out, p)
	}
	for _, p := range tl {
		if p.Time.Before(w.Start) || p.Time.After(w.End) {
			continue
		}
		out = append(out, p)
	}
	return out
}
