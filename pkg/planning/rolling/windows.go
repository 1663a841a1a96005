package rolling

import (
	"time"

	"coldplan/pkg/domain/entities"
	"coldplan/pkg/planning"
)

// Window is one rolling-horizon solve region. The committed region
// [Start, CommittedEnd] is written into the final plan; the remainder
// overlaps the next window and is re-solved there.
type Window struct {
	Index        int
	Start        time.Time
	End          time.Time
	CommittedEnd time.Time
}

// Days returns the window length.
func (w Window) Days() int {
	return entities.DaysBetween(w.Start, w.End) + 1
}

// CommittedDays returns the committed-region length.
func (w Window) CommittedDays() int {
	return entities.DaysBetween(w.Start, w.CommittedEnd) + 1
}

// Committed reports whether a date falls in the committed region.
func (w Window) Committed(date time.Time) bool {
	return !date.Before(w.Start) && !date.After(w.CommittedEnd)
}

// makeWindows partitions [start, end] into overlapping windows. Each
// window spans windowSize days; consecutive windows share overlap days.
// The last window is committed in full.
func makeWindows(start, end time.Time, windowSize, overlap int) ([]Window, error) {
	if windowSize <= 0 {
		return nil, planning.NewInvalidInput("window size must be positive, got %d", windowSize)
	}
	if overlap < 0 || overlap >= windowSize {
		return nil, planning.NewInvalidInput(
			"overlap days (%d) must be non-negative and smaller than window size (%d)", overlap, windowSize)
	}
	step := windowSize - overlap
	var windows []Window
	for i, cur := 0, start; !cur.After(end); i, cur = i+1, entities.AddDays(cur, step) {
		w := Window{
			Index: i,
			Start: cur,
			End:   entities.AddDays(cur, windowSize-1),
		}
		if w.End.After(end) {
			w.End = end
		}
		if w.End.Equal(end) {
			w.CommittedEnd = w.End
		} else {
			w.CommittedEnd = entities.AddDays(w.End, -overlap)
		}
		windows = append(windows, w)
		if w.End.Equal(end) {
			break
		}
	}
	return windows, nil
}
