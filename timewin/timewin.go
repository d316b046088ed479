// Package timewin provides the fixed observation windows used throughout the
// analysis. Transmissions start on even minutes, so times are binned into
// two-minute slots aligned to even UTC minutes.
package timewin

import (
	"sort"
	"time"
)

// Width is the canonical window width.
const Width = 2 * time.Minute

// Floor returns the start of the window containing t: sub-minute units
// zeroed and the minute rounded down to even, in UTC.
func Floor(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute()-t.Minute()%2, 0, 0, time.UTC)
}

// Window is a half-open [Start, Start+Width) observation slot.
type Window struct {
	Start time.Time
}

// At returns the window containing t.
func At(t time.Time) Window {
	return Window{Start: Floor(t)}
}

// End returns the exclusive end of the window.
func (w Window) End() time.Time {
	return w.Start.Add(Width)
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(w.Start) && t.Before(w.End())
}

// Steps returns the instants from start to end inclusive in step increments.
func Steps(start, end time.Time, step time.Duration) []time.Time {
	if step <= 0 || end.Before(start) {
		return nil
	}
	var out []time.Time
	for t := start; !t.After(end); t = t.Add(step) {
		out = append(out, t)
	}
	return out
}

// Dedupe returns the times sorted ascending with duplicates removed. The
// input is not modified.
func Dedupe(times []time.Time) []time.Time {
	out := make([]time.Time, len(times))
	copy(out, times)
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	n := 0
	for _, t := range out {
		if n == 0 || !t.Equal(out[n-1]) {
			out[n] = t
			n++
		}
	}
	return out[:n]
}
