// Package aggregate derives summary views from raw expense records.
//
// Everything here is a pure function of its inputs: aggregates are
// recomputed on every read and never stored.
package aggregate

import (
	"spendlog/internal/core"
	"spendlog/internal/timewin"
)

// DayPoint pairs a day bucket (epoch millis of its start) with the total
// spent on that day.
type DayPoint struct {
	Day   int64
	Total core.Money
}

// DayTotal sums the amounts of all records. Zero for empty input.
func DayTotal(records []core.Expense) core.Money {
	var total core.Money
	for _, r := range records {
		total = total.Add(r.Amount)
	}
	return total
}

// CategoryTotals groups records by exact category string and sums each
// group's amount. Ordering is the caller's concern.
func CategoryTotals(records []core.Expense) map[string]core.Money {
	totals := make(map[string]core.Money)
	for _, r := range records {
		totals[r.Category] = totals[r.Category].Add(r.Amount)
	}
	return totals
}

// RollingSeries builds the 7-day series ending at anchor's day, oldest
// first. Days with no records get an explicit zero entry; naive grouping
// would drop them and break chart contiguity. Records outside the window
// are ignored.
func RollingSeries(records []core.Expense, anchor int64) []DayPoint {
	end := timewin.DayStart(anchor)
	start := end - 6*timewin.DayMillis

	byDay := make(map[int64]core.Money)
	for _, r := range records {
		day := timewin.DayStart(r.Date)
		if day < start || day > end {
			continue
		}
		byDay[day] = byDay[day].Add(r.Amount)
	}

	series := make([]DayPoint, 0, 7)
	for day := start; day <= end; day += timewin.DayMillis {
		series = append(series, DayPoint{Day: day, Total: byDay[day]})
	}
	return series
}
