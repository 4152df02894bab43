// Package export renders the aggregate views as shareable text. The
// functions are pure: they consume exactly the aggregation engine's output
// types and produce bytes, leaving file handling to the caller.
package export

import (
	"sort"
	"strings"
	"time"

	"spendlog/internal/aggregate"
	"spendlog/internal/core"
)

const dateLayout = "2006-01-02"

// CSV renders the report as comma-separated text with a "Last 7 Days"
// section and a "Category Totals (Selected Day)" section.
func CSV(series []aggregate.DayPoint, categoryTotals map[string]core.Money) string {
	var b strings.Builder
	b.WriteString("Expense Report\n\n")

	b.WriteString("Last 7 Days\n")
	b.WriteString("Date,Total\n")
	for _, p := range series {
		b.WriteString(formatDay(p.Day))
		b.WriteByte(',')
		b.WriteString(p.Total.String())
		b.WriteByte('\n')
	}

	b.WriteString("\nCategory Totals (Selected Day)\n")
	b.WriteString("Category,Total\n")
	for _, name := range sortedCategories(categoryTotals) {
		b.WriteString(name)
		b.WriteByte(',')
		b.WriteString(categoryTotals[name].String())
		b.WriteByte('\n')
	}

	return b.String()
}

// Report renders a plain-text summary of the same views, with the 7-day
// grand total up front.
func Report(series []aggregate.DayPoint, categoryTotals map[string]core.Money) string {
	var total core.Money
	for _, p := range series {
		total = total.Add(p.Total)
	}

	var b strings.Builder
	b.WriteString("Expense Report\n\n")
	b.WriteString("Last 7 Days Total: ")
	b.WriteString(total.String())
	b.WriteString("\n\nDaily Totals\n")
	for _, p := range series {
		b.WriteString("- ")
		b.WriteString(formatDay(p.Day))
		b.WriteString(": ")
		b.WriteString(p.Total.String())
		b.WriteByte('\n')
	}

	b.WriteString("\nCategory Totals (Selected Day)\n")
	for _, name := range sortedCategories(categoryTotals) {
		b.WriteString("- ")
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(categoryTotals[name].String())
		b.WriteByte('\n')
	}

	return b.String()
}

func formatDay(day int64) string {
	return time.UnixMilli(day).UTC().Format(dateLayout)
}

// sortedCategories orders names case-insensitively for stable output, the
// way the report presentation lists them.
func sortedCategories(totals map[string]core.Money) []string {
	names := make([]string, 0, len(totals))
	for name := range totals {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := strings.ToLower(names[i]), strings.ToLower(names[j])
		if a == b {
			return names[i] < names[j]
		}
		return a < b
	})
	return names
}
