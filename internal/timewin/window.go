// Package timewin computes day boundaries and 7-day windows over
// epoch-millis timestamps.
//
// All truncation uses a fixed 24-hour day anchored at the Unix epoch, which
// makes day buckets UTC calendar days. Every window is inclusive on both
// ends and day-aligned.
package timewin

// DayMillis is the fixed day length used for all bucketing.
const DayMillis int64 = 24 * 60 * 60 * 1000

// DayStart floors ts to the start of the UTC day containing it.
// Idempotent and monotonic; handles pre-epoch timestamps.
func DayStart(ts int64) int64 {
	rem := ts % DayMillis
	if rem < 0 {
		rem += DayMillis
	}
	return ts - rem
}

// DayWindow returns the inclusive [start, end] range of the day containing ts.
func DayWindow(ts int64) (start, end int64) {
	start = DayStart(ts)
	return start, start + DayMillis - 1
}

// Last7Window returns the inclusive range spanning exactly the 7 day buckets
// ending at anchor's day.
func Last7Window(anchor int64) (start, end int64) {
	day := DayStart(anchor)
	return day - 6*DayMillis, day + DayMillis - 1
}
