package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"spendlog/internal/core"
	"spendlog/internal/views"
)

type expenseResponse struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Amount        string `json:"amount"`
	AmountCents   int64  `json:"amount_cents"`
	Category      string `json:"category"`
	Notes         string `json:"notes,omitempty"`
	Date          int64  `json:"date"`
	AttachmentRef string `json:"attachment_ref,omitempty"`
}

type dayPointResponse struct {
	Day        int64  `json:"day"`
	Total      string `json:"total"`
	TotalCents int64  `json:"total_cents"`
}

type snapshotResponse struct {
	Day            int64              `json:"day"`
	State          string             `json:"state"`
	Error          string             `json:"error,omitempty"`
	Expenses       []expenseResponse  `json:"expenses"`
	Total          string             `json:"total"`
	TotalCents     int64              `json:"total_cents"`
	CategoryTotals map[string]string  `json:"category_totals"`
	Rolling        []dayPointResponse `json:"rolling"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func expenseJSON(e core.Expense) expenseResponse {
	return expenseResponse{
		ID:            e.ID,
		Title:         e.Title,
		Amount:        e.Amount.String(),
		AmountCents:   e.Amount.Cents,
		Category:      e.Category,
		Notes:         e.Notes,
		Date:          e.Date,
		AttachmentRef: e.AttachmentRef,
	}
}

func snapshotJSON(snap views.Snapshot) snapshotResponse {
	resp := snapshotResponse{
		Day:            snap.Day,
		State:          snap.State.String(),
		Expenses:       make([]expenseResponse, 0, len(snap.Expenses)),
		Total:          snap.Total.String(),
		TotalCents:     snap.Total.Cents,
		CategoryTotals: make(map[string]string, len(snap.CategoryTotals)),
		Rolling:        make([]dayPointResponse, 0, len(snap.Rolling)),
	}
	if snap.Err != nil {
		resp.Error = snap.Err.Error()
	}
	for _, e := range snap.Expenses {
		resp.Expenses = append(resp.Expenses, expenseJSON(e))
	}
	for name, total := range snap.CategoryTotals {
		resp.CategoryTotals[name] = total.String()
	}
	for _, p := range snap.Rolling {
		resp.Rolling = append(resp.Rolling, dayPointResponse{
			Day:        p.Day,
			Total:      p.Total.String(),
			TotalCents: p.Total.Cents,
		})
	}
	return resp
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrEmptyTitle):
		return "enter a title"
	case errors.Is(err, core.ErrInvalidAmount):
		return "enter a valid amount"
	case errors.Is(err, core.ErrEmptyCategory):
		return "choose a category"
	case errors.Is(err, core.ErrNotesTooLong):
		return "notes are too long"
	case errors.Is(err, core.ErrInvalidDate):
		return "enter a valid date"
	default:
		return err.Error()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
