// Package http exposes the expense service and the reactive views over a
// small JSON API. It is a thin boundary: validation lives in the domain,
// derivation in the views controller; handlers only translate.
package http

import (
	"context"
	"net/http"
	"time"

	"spendlog/internal/core"
	applog "spendlog/internal/log"
	"spendlog/internal/views"
)

// Expenses is the write surface handlers go through.
type Expenses interface {
	AddExpense(ctx context.Context, draft core.Expense) (core.Expense, error)
}

// ViewReader is the slice of the selection controller the API exposes.
type ViewReader interface {
	Current() views.Snapshot
	SetDate(ts int64)
	SelectedDay() int64
}

type Server struct {
	expenses Expenses
	views    ViewReader
}

// NewServer wires the API routes and returns a configured http.Server.
func NewServer(addr string, expenses Expenses, viewReader ViewReader, logger *applog.Logger) *http.Server {
	s := &Server{
		expenses: expenses,
		views:    viewReader,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/api/expenses", s.handleCreateExpense)
	mux.HandleFunc("/api/views", s.handleViews)
	mux.HandleFunc("/api/date", s.handleSetDate)
	mux.HandleFunc("/api/export/csv", s.handleExportCSV)
	mux.HandleFunc("/api/export/report", s.handleExportReport)

	handler := applog.Middleware(logger)(requestLogger(mux))

	return &http.Server{
		Addr:           addr,
		Handler:        handler,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16, // 64KB
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// requestLogger logs one line per request with method, path, status and
// duration.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		logger := applog.FromContext(r.Context())
		logger.InfoContext(r.Context(), "Request handled",
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, sw.status,
			applog.FieldDuration, time.Since(start).Milliseconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
