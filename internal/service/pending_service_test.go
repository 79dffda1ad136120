package service

import (
	"context"
	"testing"
	"time"

	"github.com/kanakku/kanakku/kanakku-backend/internal/domain"
	"github.com/kanakku/kanakku/kanakku-backend/internal/engine"
	"github.com/kanakku/kanakku/kanakku-backend/internal/testutil"
	"github.com/shopspring/decimal"
)

func TestGetPendingReport_Weekly(t *testing.T) {
	loans := testutil.NewMockLoanRepository()
	collections := testutil.NewMockCollectionRepository(loans)
	svc := NewPendingService(loans, collections, time.UTC)
	svc.now = func() time.Time { return time.Date(2024, 1, 29, 18, 30, 0, 0, time.UTC) }

	// four weeks elapsed, one paid
	loans.AddLoan(weeklyLoan(1, "W-1", 100))
	// four weeks elapsed, none paid
	loans.AddLoan(weeklyLoan(2, "W-2", 0))
	// closed loans never appear
	closed := weeklyLoan(3, "W-3", 1000)
	closed.Status = domain.LoanStatusClosed
	loans.AddLoan(closed)
	// another workspace
	other := weeklyLoan(4, "W-4", 0)
	other.WorkspaceID = 2
	loans.AddLoan(other)

	collections.AddCollection(&domain.Collection{ID: 1, WorkspaceID: 1, LoanNo: "W-1", CollectionType: domain.CollectionTypeWeekly,
		Amount: decimal.NewFromInt(120), PrincipalPaid: decimal.NewFromInt(100), InterestPaid: decimal.NewFromInt(20), Date: day(2024, 1, 8)})

	report, err := svc.GetPendingReport(context.Background(), 1, domain.CollectionTypeWeekly)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(report.Rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(report.Rows))
	}
	if report.Rows[0].LoanNo != "W-2" || report.Rows[0].Pending != 4 {
		t.Errorf("Expected W-2 with 4 pending first, got %s with %d", report.Rows[0].LoanNo, report.Rows[0].Pending)
	}
	if report.Rows[1].LoanNo != "W-1" || report.Rows[1].Pending != 3 {
		t.Errorf("Expected W-1 with 3 pending second, got %s with %d", report.Rows[1].LoanNo, report.Rows[1].Pending)
	}
	if report.TotalPending != 7 {
		t.Errorf("Expected 7 pending cycles, got %d", report.TotalPending)
	}
	if !report.TotalAmount.Equal(decimal.NewFromInt(840)) {
		t.Errorf("Expected pending amount 840, got %s", report.TotalAmount)
	}
}

func TestGetPendingReport_UsesBusinessTimeZone(t *testing.T) {
	kolkata := time.FixedZone("IST", 5*3600+1800)
	loans := testutil.NewMockLoanRepository()
	collections := testutil.NewMockCollectionRepository(loans)
	svc := NewPendingService(loans, collections, kolkata)

	// 2024-01-07 20:00 UTC is already 2024-01-08 in IST: one full week
	svc.now = func() time.Time { return time.Date(2024, 1, 7, 20, 0, 0, 0, time.UTC) }
	loans.AddLoan(weeklyLoan(1, "W-1", 0))

	report, err := svc.GetPendingReport(context.Background(), 1, domain.CollectionTypeWeekly)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if report.TotalPending != 1 {
		t.Errorf("Expected 1 pending cycle once the IST day turns, got %d", report.TotalPending)
	}
}

func TestGetPendingReport_RejectsDaily(t *testing.T) {
	loans := testutil.NewMockLoanRepository()
	svc := NewPendingService(loans, testutil.NewMockCollectionRepository(loans), time.UTC)

	if _, err := svc.GetPendingReport(context.Background(), 1, domain.CollectionTypeDaily); err != engine.ErrCycleCountingUnsupported {
		t.Errorf("Expected ErrCycleCountingUnsupported, got %v", err)
	}
	if _, err := svc.GetPendingReport(context.Background(), 1, "yearly"); err != domain.ErrInvalidCollectionType {
		t.Errorf("Expected ErrInvalidCollectionType, got %v", err)
	}
}
