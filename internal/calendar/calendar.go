package calendar

import "time"

// Calendar computes elapsed minutes between two instants, optionally
// counting only time inside the business window.
//
// The window is one daily span (open..close, minutes from midnight) in a
// fixed civil timezone, applied Monday through Friday. Weekends and
// out-of-window time count zero.
//
// Pure and deterministic: no clock reads, no side effects.
type Calendar struct {
	OpenMinutes  int
	CloseMinutes int
	Location     *time.Location
}

// Default is the stock 08:00-17:00 UTC window.
func Default() Calendar {
	return Calendar{OpenMinutes: 8 * 60, CloseMinutes: 17 * 60, Location: time.UTC}
}

// Minutes returns whole elapsed minutes from start to end.
// end <= start returns 0.
func (c Calendar) Minutes(start, end time.Time, businessOnly bool) int {
	if !end.After(start) {
		return 0
	}
	if !businessOnly {
		return int(end.Sub(start).Minutes())
	}
	return int(c.businessOverlap(start, end).Minutes())
}

func (c Calendar) businessOverlap(start, end time.Time) time.Duration {
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	start = start.In(loc)
	end = end.In(loc)

	var total time.Duration

	// Walk day by day from start's date to end's date, accumulating the
	// overlap between [start,end] and each business day's window.
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
	for !day.After(end) {
		if wd := day.Weekday(); wd != time.Saturday && wd != time.Sunday {
			open := day.Add(time.Duration(c.OpenMinutes) * time.Minute)
			closeAt := day.Add(time.Duration(c.CloseMinutes) * time.Minute)

			lo := maxTime(start, open)
			hi := minTime(end, closeAt)
			if hi.After(lo) {
				total += hi.Sub(lo)
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return total
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
