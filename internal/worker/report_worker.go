package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"spendlog/internal/aggregate"
	"spendlog/internal/amqp"
	"spendlog/internal/core"
	"spendlog/internal/storage"
	"spendlog/internal/timewin"
)

// ReportWriter publishes a computed report somewhere external.
type ReportWriter interface {
	WriteDailyReport(ctx context.Context, day int64, series []aggregate.DayPoint, categoryTotals map[string]core.Money) error
}

// ReportWorker keeps an external report in step with the store. It reacts
// to expense-created events and also refreshes on a timer, which covers
// events lost while the worker was down.
type ReportWorker struct {
	storage  *storage.SQLiteRepository
	writer   ReportWriter
	interval time.Duration
}

func NewReportWorker(storage *storage.SQLiteRepository, writer ReportWriter, interval time.Duration) *ReportWorker {
	return &ReportWorker{
		storage:  storage,
		writer:   writer,
		interval: interval,
	}
}

// Run consumes events and refreshes periodically until ctx is done.
func (w *ReportWorker) Run(ctx context.Context, events *amqp.Client) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := events.ConsumeExpenseCreated(ctx, func(msg *amqp.ExpenseCreatedMessage) error {
			return w.RefreshFor(ctx, msg.Day)
		})
		if err != nil && ctx.Err() != nil {
			return nil // shutdown, not a failure
		}
		return err
	})

	g.Go(func() error {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := w.RefreshFor(ctx, time.Now().UnixMilli()); err != nil {
					slog.ErrorContext(ctx, "Periodic report refresh failed", "error", err)
					// Keep ticking; the next event or tick retries
				}
			}
		}
	})

	return g.Wait()
}

// RefreshFor recomputes the 7-day report ending at anchor's day and
// publishes it.
func (w *ReportWorker) RefreshFor(ctx context.Context, anchor int64) error {
	if w.writer == nil {
		slog.DebugContext(ctx, "No report writer configured, skipping refresh")
		return nil
	}

	day := timewin.DayStart(anchor)
	weekStart, weekEnd := timewin.Last7Window(day)
	week, err := w.storage.QueryRange(ctx, weekStart, weekEnd)
	if err != nil {
		return fmt.Errorf("query report window: %w", err)
	}

	dayStart, dayEnd := timewin.DayWindow(day)
	var dayRecords []core.Expense
	for _, r := range week {
		if r.Date >= dayStart && r.Date <= dayEnd {
			dayRecords = append(dayRecords, r)
		}
	}

	series := aggregate.RollingSeries(week, day)
	totals := aggregate.CategoryTotals(dayRecords)

	if err := w.writer.WriteDailyReport(ctx, day, series, totals); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	slog.InfoContext(ctx, "Report refreshed",
		"day", day,
		"records_in_window", len(week))
	return nil
}
