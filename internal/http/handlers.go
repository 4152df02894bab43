package http

import (
	"encoding/json"
	"net/http"
	"time"

	"spendlog/internal/aggregate"
	"spendlog/internal/core"
	"spendlog/internal/export"
	applog "spendlog/internal/log"
	"spendlog/internal/views"
)

type createExpenseRequest struct {
	Title         string `json:"title"`
	Amount        string `json:"amount"` // decimal string, e.g. "12.50"
	Category      string `json:"category"`
	Notes         string `json:"notes,omitempty"`
	Date          int64  `json:"date,omitempty"` // epoch millis; defaults to now
	AttachmentRef string `json:"attachment_ref,omitempty"`
}

type setDateRequest struct {
	Date int64 `json:"date"` // epoch millis, any instant of the target day
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req createExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "enter a valid amount")
		return
	}

	date := req.Date
	if date == 0 {
		date = time.Now().UnixMilli()
	}

	draft := core.Expense{
		Title:         req.Title,
		Amount:        core.Money{Cents: cents},
		Category:      req.Category,
		Notes:         req.Notes,
		Date:          date,
		AttachmentRef: req.AttachmentRef,
	}

	stored, err := s.expenses.AddExpense(r.Context(), draft)
	if err != nil {
		if core.IsValidationError(err) {
			writeError(w, http.StatusUnprocessableEntity, validationMessage(err))
			return
		}
		logger := applog.FromContext(r.Context())
		logger.ErrorContext(r.Context(), "Failed to save expense", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to save expense")
		return
	}

	writeJSON(w, http.StatusCreated, expenseJSON(stored))
}

func (s *Server) handleViews(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, snapshotJSON(s.views.Current()))
}

func (s *Server) handleSetDate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.Header().Set("Allow", "PUT")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req setDateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Date <= 0 {
		writeError(w, http.StatusUnprocessableEntity, "enter a valid date")
		return
	}

	s.views.SetDate(req.Date)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	s.handleExport(w, r, "text/csv; charset=utf-8", "expense_report.csv", export.CSV)
}

func (s *Server) handleExportReport(w http.ResponseWriter, r *http.Request) {
	s.handleExport(w, r, "text/plain; charset=utf-8", "expense_report.txt", export.Report)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, contentType, filename string, render func([]aggregate.DayPoint, map[string]core.Money) string) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	snap := s.views.Current()
	switch snap.State {
	case views.StateLoading:
		writeError(w, http.StatusServiceUnavailable, "views are still loading")
		return
	case views.StateError:
		writeError(w, http.StatusServiceUnavailable, "views are unavailable")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename=\""+filename+"\"")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(render(snap.Rolling, snap.CategoryTotals)))
}
