// Package google publishes the daily expense report to a Google
// Spreadsheet so the numbers are shareable outside the app.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"spendlog/internal/aggregate"
	"spendlog/internal/core"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	reportSheet   string
}

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID.
// Optional: REPORT_SHEET_NAME (default "Report").
// Auth: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	reportSheet := strings.TrimSpace(os.Getenv("REPORT_SHEET_NAME"))
	if reportSheet == "" {
		reportSheet = "Report"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		reportSheet:   reportSheet,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))

	// Also check the standard Google Cloud environment variable
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return service, nil
}

// WriteDailyReport replaces the report sheet's contents with the 7-day
// series and the selected day's category totals.
func (c *Client) WriteDailyReport(ctx context.Context, day int64, series []aggregate.DayPoint, categoryTotals map[string]core.Money) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A1", c.reportSheet)

	// Clear first so a shrinking category list doesn't leave stale rows
	clearRange := fmt.Sprintf("%s!A:C", c.reportSheet)
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear report sheet: %w", err)
	}

	vr := &gsheet.ValueRange{Values: reportRows(day, series, categoryTotals)}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write report sheet: %w", err)
	}

	slog.InfoContext(ctx, "Report published to Google Sheets",
		"spreadsheet_id", c.spreadsheetID,
		"sheet", c.reportSheet,
		"day", day,
		"categories", len(categoryTotals))

	return nil
}

// reportRows lays the report out as sheet rows: header, the 7-day series,
// a blank spacer, then the category section sorted case-insensitively.
func reportRows(day int64, series []aggregate.DayPoint, categoryTotals map[string]core.Money) [][]any {
	dayLabel := time.UnixMilli(day).UTC().Format("2006-01-02")

	rows := [][]any{
		{"Expense Report", dayLabel},
		{},
		{"Last 7 Days"},
		{"Date", "Total"},
	}
	for _, p := range series {
		rows = append(rows, []any{
			time.UnixMilli(p.Day).UTC().Format("2006-01-02"),
			p.Total.Float64(),
		})
	}

	rows = append(rows, []any{}, []any{"Category Totals (Selected Day)"}, []any{"Category", "Total"})

	names := make([]string, 0, len(categoryTotals))
	for name := range categoryTotals {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
	for _, name := range names {
		rows = append(rows, []any{name, categoryTotals[name].Float64()})
	}

	return rows
}
