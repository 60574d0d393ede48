package timeline

import "time"

// LastChange describes the most recent transition and what preceded it.
type LastChange struct {
	State string
	Since time.Time
	// Elapsed is now - Since, never negative.
	Elapsed time.Duration

	// HasPrevious is false when the log holds nothing before Since.
	HasPrevious      bool
	PreviousState    string
	PreviousDuration time.Duration
}

// Summarize reconstructs the timeline and reports the last transition.
// It returns false when current is nil or carries no Since.
func Summarize(events []RawEvent, current *CurrentSnapshot, now time.Time) (LastChange, bool) {
	if current == nil || current.Since.IsZero() {
		return LastChange{}, false
	}
	since := current.Since
	if since.After(now) {
		since = now
	}
	lc := LastChange{
		State:   current.State,
		Since:   since,
		Elapsed: now.Sub(since),
	}

	tl := Reconstruct(events, current, now)
	value := Encode(current.State)

	// Walk back past the current run, then past the previous one.
	i := len(tl) - 1
	for i >= 0 && tl[i].Value == value {
		i--
	}
	if i < 0 {
		return lc, true
	}
	prev := tl[i]
	j := i
	for j >= 0 && tl[j].Value == prev.Value {
		j--
	}
	lc.HasPrevious = true
	lc.PreviousState = prev.Label
	// The previous run started at the point after j; a run reaching the
	// start of the log is measured from there.
	lc.PreviousDuration = since.Sub(tl[j+1].Time)
	// A log entry stamped after the snapshot's since cannot make it negative.
	if lc.PreviousDuration < 0 {
		lc.PreviousDuration = 0
	}
	return lc, true
}
