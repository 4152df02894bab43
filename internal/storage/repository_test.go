package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"spendlog/internal/core"
	"spendlog/internal/timewin"
)

var day0 = time.Date(2025, 8, 26, 0, 0, 0, 0, time.UTC).UnixMilli()

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "spendlog.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func draft(title string, cents int64, category string, date int64) core.Expense {
	return core.Expense{
		Title:    title,
		Amount:   core.Money{Cents: cents},
		Category: category,
		Date:     date,
	}
}

func TestInsertAssignsMonotonicIDs(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first, err := repo.Insert(ctx, draft("Lunch", 1250, "Food", day0))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	second, err := repo.Insert(ctx, draft("Taxi", 2000, "Travel", day0))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if first.ID <= 0 || second.ID <= first.ID {
		t.Fatalf("ids not monotonic: %d, %d", first.ID, second.ID)
	}
}

func TestInsertRejectsInvalidRecords(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	cases := []core.Expense{
		draft("", 100, "Food", day0),
		draft("Lunch", -500, "Food", day0),
		draft("Lunch", 0, "Food", day0),
		draft("Lunch", 100, "", day0),
	}
	for i, e := range cases {
		if _, err := repo.Insert(ctx, e); !core.IsValidationError(err) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}

	// Store state is unchanged: count over any window is unaffected
	n, err := repo.CountRange(ctx, 0, day0+timewin.DayMillis)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("count = %d after rejected inserts, want 0", n)
	}
}

func TestQueryRangeDayWindowMembership(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	// Record at an arbitrary time of day
	at := day0 + 13*3_600_000
	inserted, err := repo.Insert(ctx, draft("Lunch", 1250, "Food", at))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	start, end := timewin.DayWindow(at)
	got, err := repo.QueryRange(ctx, start, end)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 1 || got[0].ID != inserted.ID {
		t.Fatalf("expected exactly the inserted record, got %+v", got)
	}

	// The previous day's window must not see it
	prevStart, prevEnd := timewin.DayWindow(at - timewin.DayMillis)
	got, err = repo.QueryRange(ctx, prevStart, prevEnd)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("previous day window should be empty, got %d records", len(got))
	}
}

func TestQueryRangeOrderedByDateDescending(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	times := []int64{day0 + 1000, day0 + 50_000_000, day0 + 2000}
	for _, ts := range times {
		if _, err := repo.Insert(ctx, draft("x", 100, "Food", ts)); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	got, err := repo.QueryRange(ctx, day0, day0+timewin.DayMillis-1)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d records, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Date > got[i-1].Date {
			t.Fatalf("records not ordered by date descending")
		}
	}
}

func TestSumAndCountConsistentWithQueryRange(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	cents := []int64{1250, 2000, 5}
	for i, c := range cents {
		if _, err := repo.Insert(ctx, draft("x", c, "Food", day0+int64(i))); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	start, end := timewin.DayWindow(day0)
	records, err := repo.QueryRange(ctx, start, end)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	var want int64
	for _, r := range records {
		want += r.Amount.Cents
	}

	sum, err := repo.SumRange(ctx, start, end)
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if sum.Cents != want {
		t.Fatalf("SumRange = %d, QueryRange sums to %d", sum.Cents, want)
	}

	n, err := repo.CountRange(ctx, start, end)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != int64(len(records)) {
		t.Fatalf("CountRange = %d, QueryRange returned %d", n, len(records))
	}
}

func TestInsertRoundTripsOptionalFields(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	e := draft("Lunch", 1250, "Food", day0)
	e.Notes = "client meeting"
	e.AttachmentRef = "receipts/42.jpg"
	if _, err := repo.Insert(ctx, e); err != nil {
		t.Fatalf("insert: %v", err)
	}
	// Second record with empty optionals exercises the NULL path
	if _, err := repo.Insert(ctx, draft("Water", 100, "Food", day0+1)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := repo.QueryRange(ctx, day0, day0+10)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	// Newest first, so got[1] is the one with notes
	if got[1].Notes != "client meeting" || got[1].AttachmentRef != "receipts/42.jpg" {
		t.Fatalf("optional fields lost: %+v", got[1])
	}
	if got[0].Notes != "" || got[0].AttachmentRef != "" {
		t.Fatalf("NULL optionals should scan as empty strings: %+v", got[0])
	}
}

func waitSignal(t *testing.T, ch <-chan struct{}) bool {
	t.Helper()
	select {
	case <-ch:
		return true
	case <-time.After(time.Second):
		return false
	}
}

func TestWatchSignalsInsertInsideRange(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	start, end := timewin.DayWindow(day0)
	w := repo.Watch(start, end)
	defer w.Close()

	if _, err := repo.Insert(ctx, draft("Lunch", 1250, "Food", day0+500)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if !waitSignal(t, w.C()) {
		t.Fatalf("watcher not signalled for in-range insert")
	}
}

func TestWatchIgnoresInsertOutsideRange(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	start, end := timewin.DayWindow(day0)
	w := repo.Watch(start, end)
	defer w.Close()

	if _, err := repo.Insert(ctx, draft("Taxi", 2000, "Travel", day0+timewin.DayMillis)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	select {
	case <-w.C():
		t.Fatalf("watcher signalled for out-of-range insert")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWatchCoalescesSignals(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	start, end := timewin.DayWindow(day0)
	w := repo.Watch(start, end)
	defer w.Close()

	for i := 0; i < 5; i++ {
		if _, err := repo.Insert(ctx, draft("x", 100, "Food", day0+int64(i))); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	if !waitSignal(t, w.C()) {
		t.Fatalf("expected at least one signal")
	}
	// The signal after a drain reflects everything committed so far
	got, err := repo.QueryRange(ctx, start, end)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("re-read after signal saw %d records, want 5", len(got))
	}
}

func TestWatchClosedStopsSignals(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	start, end := timewin.DayWindow(day0)
	w := repo.Watch(start, end)
	w.Close()

	if _, err := repo.Insert(ctx, draft("Lunch", 1250, "Food", day0)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	select {
	case <-w.C():
		t.Fatalf("closed watcher received a signal")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestConcurrentInsertsAllVisible(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	start, end := timewin.DayWindow(day0)
	w := repo.Watch(start, end)
	defer w.Close()

	const n = 20
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func(i int) {
			_, err := repo.Insert(ctx, draft("x", 100, "Food", day0+int64(i)))
			errs <- err
		}(i)
	}
	for i := 0; i < n; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("concurrent insert: %v", err)
		}
	}

	got, err := repo.QueryRange(ctx, start, end)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != n {
		t.Fatalf("saw %d records, want %d", len(got), n)
	}
}

func TestQueryRangeAfterClose(t *testing.T) {
	repo := newTestRepo(t)
	repo.Close()
	_, err := repo.QueryRange(context.Background(), 0, day0)
	if err == nil {
		t.Fatalf("expected error querying closed repository")
	}
	if core.IsValidationError(err) {
		t.Fatalf("store failure must not look like a validation error: %v", err)
	}
}
