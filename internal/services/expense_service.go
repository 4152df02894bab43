package services

import (
	"context"
	"fmt"
	"log/slog"

	"spendlog/internal/core"
	"spendlog/internal/timewin"
)

// Store is the mutation surface the service needs from the expense store.
type Store interface {
	Insert(ctx context.Context, e core.Expense) (core.Expense, error)
}

// Publisher broadcasts committed inserts to external consumers (the
// report worker). Optional: a nil Publisher disables event publication.
type Publisher interface {
	PublishExpenseCreated(ctx context.Context, id, day, amountCents int64, category string) error
}

// ExpenseService validates drafts, persists them, and announces the
// result. It never touches the derived views: those update through the
// store's own change notifications.
type ExpenseService struct {
	store  Store
	events Publisher
}

func NewExpenseService(store Store, events Publisher) *ExpenseService {
	return &ExpenseService{
		store:  store,
		events: events,
	}
}

// AddExpense validates and persists a draft, returning the stored record
// with its assigned ID. Validation and store errors both propagate to the
// caller; event publication failures do not, since the record is already
// durable.
func (s *ExpenseService) AddExpense(ctx context.Context, draft core.Expense) (core.Expense, error) {
	if err := draft.Validate(); err != nil {
		return core.Expense{}, err
	}

	stored, err := s.store.Insert(ctx, draft)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	if s.events != nil {
		day := timewin.DayStart(stored.Date)
		if err := s.events.PublishExpenseCreated(ctx, stored.ID, day, stored.Amount.Cents, stored.Category); err != nil {
			slog.ErrorContext(ctx, "Failed to publish expense created event",
				"id", stored.ID, "error", err)
			// Don't fail the request - the expense is saved locally
		}
	}

	return stored, nil
}
