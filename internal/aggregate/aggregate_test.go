package aggregate

import (
	"testing"
	"time"

	"spendlog/internal/core"
	"spendlog/internal/timewin"
)

var day0 = time.Date(2025, 8, 26, 0, 0, 0, 0, time.UTC).UnixMilli()

func expense(title string, cents int64, category string, date int64) core.Expense {
	return core.Expense{
		Title:    title,
		Amount:   core.Money{Cents: cents},
		Category: category,
		Date:     date,
	}
}

func TestDayTotal(t *testing.T) {
	records := []core.Expense{
		expense("Lunch", 1250, "Food", day0),
		expense("Taxi", 2000, "Travel", day0),
	}
	if got := DayTotal(records); got.Cents != 3250 {
		t.Fatalf("DayTotal = %d, want 3250", got.Cents)
	}
	if got := DayTotal(nil); got.Cents != 0 {
		t.Fatalf("DayTotal(nil) = %d, want 0", got.Cents)
	}
}

func TestCategoryTotals(t *testing.T) {
	records := []core.Expense{
		expense("Lunch", 1250, "Food", day0),
		expense("Taxi", 2000, "Travel", day0),
		expense("Dinner", 800, "Food", day0),
	}
	totals := CategoryTotals(records)
	if len(totals) != 2 {
		t.Fatalf("got %d categories, want 2", len(totals))
	}
	if totals["Food"].Cents != 2050 {
		t.Fatalf("Food = %d, want 2050", totals["Food"].Cents)
	}
	if totals["Travel"].Cents != 2000 {
		t.Fatalf("Travel = %d, want 2000", totals["Travel"].Cents)
	}
}

func TestCategoryTotalsCaseSensitive(t *testing.T) {
	records := []core.Expense{
		expense("a", 100, "food", day0),
		expense("b", 200, "Food", day0),
	}
	totals := CategoryTotals(records)
	if len(totals) != 2 {
		t.Fatalf("category match must be case-sensitive, got %d groups", len(totals))
	}
}

func TestCategoryTotalsPartitionDayTotal(t *testing.T) {
	records := []core.Expense{
		expense("a", 1250, "Food", day0),
		expense("b", 2000, "Travel", day0),
		expense("c", 5, "Food", day0),
	}
	var sum int64
	for _, m := range CategoryTotals(records) {
		sum += m.Cents
	}
	if total := DayTotal(records); sum != total.Cents {
		t.Fatalf("category totals sum to %d, day total is %d", sum, total.Cents)
	}
}

func TestRollingSeriesAlwaysSevenEntries(t *testing.T) {
	cases := []struct {
		name    string
		records []core.Expense
	}{
		{"empty", nil},
		{"single day", []core.Expense{expense("a", 100, "Food", day0)}},
		{"sparse", []core.Expense{
			expense("a", 100, "Food", day0),
			expense("b", 300, "Food", day0-3*timewin.DayMillis),
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			series := RollingSeries(tc.records, day0)
			if len(series) != 7 {
				t.Fatalf("got %d entries, want 7", len(series))
			}
			for i := 1; i < len(series); i++ {
				if series[i].Day <= series[i-1].Day {
					t.Fatalf("series not strictly ascending at %d", i)
				}
			}
			if series[6].Day != day0 {
				t.Fatalf("last entry day = %d, want anchor day %d", series[6].Day, day0)
			}
			if series[0].Day != day0-6*timewin.DayMillis {
				t.Fatalf("first entry day = %d, want %d", series[0].Day, day0-6*timewin.DayMillis)
			}
		})
	}
}

func TestRollingSeriesZeroFill(t *testing.T) {
	series := RollingSeries(nil, day0)
	for i, p := range series {
		if p.Total.Cents != 0 {
			t.Fatalf("entry %d total = %d, want 0", i, p.Total.Cents)
		}
	}
}

func TestRollingSeriesGroupsByDayBucket(t *testing.T) {
	// Two instants of the same calendar day land in the same bucket.
	records := []core.Expense{
		expense("morning", 100, "Food", day0+3_600_000),
		expense("evening", 250, "Food", day0+82_800_000),
		expense("three days ago", 500, "Travel", day0-3*timewin.DayMillis),
	}
	series := RollingSeries(records, day0)
	if series[6].Total.Cents != 350 {
		t.Fatalf("anchor day total = %d, want 350", series[6].Total.Cents)
	}
	if series[3].Total.Cents != 500 {
		t.Fatalf("day-3 total = %d, want 500", series[3].Total.Cents)
	}
}

func TestRollingSeriesSumMatchesWindowTotal(t *testing.T) {
	records := []core.Expense{
		expense("a", 100, "Food", day0),
		expense("b", 300, "Food", day0-6*timewin.DayMillis),
		expense("outside", 999, "Food", day0-7*timewin.DayMillis), // before window
	}
	series := RollingSeries(records, day0)
	var sum int64
	for _, p := range series {
		sum += p.Total.Cents
	}
	if sum != 400 {
		t.Fatalf("series sums to %d, want 400 (out-of-window record excluded)", sum)
	}
}
