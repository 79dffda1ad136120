package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kanakku/kanakku/kanakku-backend/internal/service"
	"github.com/kanakku/kanakku/kanakku-backend/internal/testutil"
	"github.com/labstack/echo/v4"
)

func TestGetPendingReport_Weekly(t *testing.T) {
	e := echo.New()
	f := newCollectionFixture()
	f.loans.AddLoan(testWeeklyLoan(1, "W-1"))
	f.addCollection(1, "W-1", 120, 100, time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC))
	handler := NewPendingHandler(service.NewPendingService(f.loans, f.collections, time.UTC))

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/pending/weekly?asOf=2026-01-29", nil), rec)
	c.SetParamNames("collectionType")
	c.SetParamValues("weekly")
	setWorkspaceInContext(c, 1)

	if err := handler.GetPendingReport(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response PendingReportResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.AsOf != "2026-01-29" {
		t.Errorf("Expected asOf 2026-01-29, got %s", response.AsOf)
	}
	if len(response.Rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(response.Rows))
	}

	row := response.Rows[0]
	if row.Due != 4 || row.Paid != 1 || row.Pending != 3 {
		t.Errorf("Expected due/paid/pending 4/1/3, got %d/%d/%d", row.Due, row.Paid, row.Pending)
	}
	if row.PendingAmount != "360.00" {
		t.Errorf("Expected pending amount 360.00, got %s", row.PendingAmount)
	}
	if row.NextDueDate != "2026-01-15" {
		t.Errorf("Expected next due 2026-01-15, got %s", row.NextDueDate)
	}
	if row.RemainingBalance == nil || *row.RemainingBalance != "1080.00" {
		t.Errorf("Expected remaining balance 1080.00, got %v", row.RemainingBalance)
	}
	if response.TotalPending != 3 || response.TotalAmount != "360.00" {
		t.Errorf("Expected totals 3/360.00, got %d/%s", response.TotalPending, response.TotalAmount)
	}
}

func TestGetPendingReport_Rejections(t *testing.T) {
	tests := []struct {
		name           string
		collectionType string
		query          string
		status         int
	}{
		{"daily has no cycle count", "daily", "", http.StatusUnprocessableEntity},
		{"unknown type", "yearly", "", http.StatusBadRequest},
		{"bad date", "weekly", "?asOf=yesterday", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			loans := testutil.NewMockLoanRepository()
			handler := NewPendingHandler(service.NewPendingService(loans, testutil.NewMockCollectionRepository(loans), time.UTC))

			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/pending/"+tt.collectionType+tt.query, nil), rec)
			c.SetParamNames("collectionType")
			c.SetParamValues(tt.collectionType)
			setWorkspaceInContext(c, 1)

			if err := handler.GetPendingReport(c); err != nil {
				t.Fatalf("Expected JSON response, got error: %v", err)
			}
			if rec.Code != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, rec.Code)
			}
		})
	}
}
