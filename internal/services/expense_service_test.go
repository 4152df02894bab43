package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"spendlog/internal/core"
	"spendlog/internal/timewin"
)

type fakeStore struct {
	nextID   int64
	inserted []core.Expense
	failWith error
}

func (s *fakeStore) Insert(ctx context.Context, e core.Expense) (core.Expense, error) {
	if s.failWith != nil {
		return core.Expense{}, s.failWith
	}
	s.nextID++
	e.ID = s.nextID
	s.inserted = append(s.inserted, e)
	return e, nil
}

type fakePublisher struct {
	published []int64
	days      []int64
	failWith  error
}

func (p *fakePublisher) PublishExpenseCreated(ctx context.Context, id, day, amountCents int64, category string) error {
	if p.failWith != nil {
		return p.failWith
	}
	p.published = append(p.published, id)
	p.days = append(p.days, day)
	return nil
}

var day0 = time.Date(2025, 8, 26, 0, 0, 0, 0, time.UTC).UnixMilli()

func validDraft() core.Expense {
	return core.Expense{
		Title:    "Lunch",
		Amount:   core.Money{Cents: 1250},
		Category: "Food",
		Date:     day0 + 12*3_600_000,
	}
}

func TestAddExpensePersistsAndPublishes(t *testing.T) {
	store := &fakeStore{}
	events := &fakePublisher{}
	svc := NewExpenseService(store, events)

	stored, err := svc.AddExpense(context.Background(), validDraft())
	if err != nil {
		t.Fatalf("AddExpense: %v", err)
	}
	if stored.ID != 1 {
		t.Fatalf("stored.ID = %d, want 1", stored.ID)
	}
	if len(events.published) != 1 || events.published[0] != 1 {
		t.Fatalf("event not published: %+v", events.published)
	}
	if events.days[0] != timewin.DayStart(stored.Date) {
		t.Fatalf("event day = %d, want day bucket %d", events.days[0], timewin.DayStart(stored.Date))
	}
}

func TestAddExpenseRejectsInvalidDraftBeforeStore(t *testing.T) {
	store := &fakeStore{}
	svc := NewExpenseService(store, nil)

	draft := validDraft()
	draft.Amount = core.Money{Cents: -500}
	_, err := svc.AddExpense(context.Background(), draft)
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("err = %v, want ErrInvalidAmount", err)
	}
	if len(store.inserted) != 0 {
		t.Fatalf("invalid draft reached the store")
	}
}

func TestAddExpensePropagatesStoreErrors(t *testing.T) {
	storeErr := errors.New("database locked")
	svc := NewExpenseService(&fakeStore{failWith: storeErr}, &fakePublisher{})

	_, err := svc.AddExpense(context.Background(), validDraft())
	if !errors.Is(err, storeErr) {
		t.Fatalf("err = %v, want wrapped %v", err, storeErr)
	}
}

func TestAddExpenseSurvivesPublishFailure(t *testing.T) {
	store := &fakeStore{}
	events := &fakePublisher{failWith: errors.New("broker down")}
	svc := NewExpenseService(store, events)

	stored, err := svc.AddExpense(context.Background(), validDraft())
	if err != nil {
		t.Fatalf("AddExpense should not fail on publish error: %v", err)
	}
	if stored.ID != 1 || len(store.inserted) != 1 {
		t.Fatalf("expense not persisted despite publish failure")
	}
}

func TestAddExpenseNilPublisher(t *testing.T) {
	svc := NewExpenseService(&fakeStore{}, nil)
	if _, err := svc.AddExpense(context.Background(), validDraft()); err != nil {
		t.Fatalf("AddExpense with nil publisher: %v", err)
	}
}
