package core

import (
	"errors"
	"strings"
)

// MaxNotesLen bounds the free-text notes field on an expense.
const MaxNotesLen = 100

type (
	Money struct {
		Cents int64
	}

	// Expense is one logged spend entry. ID is assigned by the store on
	// insert and is zero on drafts. Date is an epoch-millis instant; all
	// per-day grouping truncates it to its day bucket.
	Expense struct {
		ID            int64
		Title         string
		Amount        Money
		Category      string
		Notes         string // optional
		Date          int64  // epoch millis
		AttachmentRef string // optional opaque reference (receipt image etc)
	}
)

var (
	ErrEmptyTitle    = errors.New("empty title")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrEmptyCategory = errors.New("empty category")
	ErrNotesTooLong  = errors.New("notes too long")
	ErrInvalidDate   = errors.New("invalid date")
)

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Add returns the sum of two amounts.
func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

func (e Expense) Validate() error {
	if len(strings.TrimSpace(e.Title)) == 0 {
		return ErrEmptyTitle
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if len(e.Notes) > MaxNotesLen {
		return ErrNotesTooLong
	}
	if e.Date <= 0 {
		return ErrInvalidDate
	}
	return nil
}

// IsValidationError reports whether err is one of the domain validation
// errors, as opposed to a storage or transport failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmptyTitle) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrEmptyCategory) ||
		errors.Is(err, ErrNotesTooLong) ||
		errors.Is(err, ErrInvalidDate)
}
