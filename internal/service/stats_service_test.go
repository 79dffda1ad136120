package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kanakku/kanakku/kanakku-backend/internal/domain"
	"github.com/kanakku/kanakku/kanakku-backend/internal/testutil"
	"github.com/shopspring/decimal"
)

type statsFixture struct {
	loans       *testutil.MockLoanRepository
	collections *testutil.MockCollectionRepository
	investments *testutil.MockInvestmentRepository
	expenses    *testutil.MockExpenseRepository
	profit      *testutil.MockProfitRepository
	publisher   *testutil.MockEventPublisher
	svc         *StatsService
}

func newStatsFixture() *statsFixture {
	f := &statsFixture{
		loans:       testutil.NewMockLoanRepository(),
		investments: testutil.NewMockInvestmentRepository(),
		expenses:    testutil.NewMockExpenseRepository(),
		publisher:   testutil.NewMockEventPublisher(),
	}
	f.collections = testutil.NewMockCollectionRepository(f.loans)
	f.profit = testutil.NewMockProfitRepository(f.investments, f.expenses)
	f.svc = NewStatsService(f.loans, f.collections, f.investments, f.expenses, f.profit)
	f.svc.now = func() time.Time { return day(2024, 3, 1) }
	f.svc.SetEventPublisher(f.publisher)
	return f
}

// seed builds a book with 10000 owner money, one active and one closed loan,
// 1400 collected (1200 principal, 200 interest) and 150 of expenses.
func (f *statsFixture) seed() {
	ctx := context.Background()
	f.investments.Create(ctx, &domain.Investment{WorkspaceID: 1, Amount: decimal.NewFromInt(10000), Source: domain.InvestmentSourceOwner})

	active := weeklyLoan(1, "W-1", 200)
	active.AdvanceInterest = decimal.NewFromInt(50)
	f.loans.AddLoan(active)

	closed := weeklyLoan(2, "W-2", 1000)
	closed.Status = domain.LoanStatusClosed
	f.loans.AddLoan(closed)

	f.collections.AddCollection(&domain.Collection{ID: 1, WorkspaceID: 1, LoanID: 1, LoanNo: "W-1",
		Amount: decimal.NewFromInt(240), PrincipalPaid: decimal.NewFromInt(200), InterestPaid: decimal.NewFromInt(40)})
	f.collections.AddCollection(&domain.Collection{ID: 2, WorkspaceID: 1, LoanID: 2, LoanNo: "W-2",
		Amount: decimal.NewFromInt(1160), PrincipalPaid: decimal.NewFromInt(1000), InterestPaid: decimal.NewFromInt(160)})

	f.expenses.Create(ctx, &domain.Expense{WorkspaceID: 1, Title: "Rent", Amount: decimal.NewFromInt(150), Category: domain.ExpenseCategoryOffice})
}

func TestGetStats(t *testing.T) {
	f := newStatsFixture()
	f.seed()

	stats, err := f.svc.GetStats(context.Background(), 1)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	checks := []struct {
		name string
		got  decimal.Decimal
		want string
	}{
		{"pendingAmount", stats.PendingAmount, "800"},
		{"totalDisbursed", stats.TotalDisbursed, "2000"},
		{"totalAdvanceInterest", stats.TotalAdvanceInterest, "50"},
		{"totalCollection", stats.TotalCollection, "1400"},
		{"totalCollectionPrincipal", stats.TotalCollectionPrincipal, "1200"},
		{"totalCollectionInterest", stats.TotalCollectionInterest, "200"},
		{"totalExpense", stats.TotalExpense, "150"},
		// 200 + 50 - 150
		{"netProfit", stats.NetProfit, "100"},
		// 10000 - 2000 + 50 + 1400 - 150
		{"cashBalance", stats.CashBalance, "9300"},
		{"availableProfit", stats.AvailableProfit, "100"},
	}
	for _, c := range checks {
		if !c.got.Equal(decimal.RequireFromString(c.want)) {
			t.Errorf("Expected %s %s, got %s", c.name, c.want, c.got)
		}
	}
	if stats.ActiveLoans != 1 {
		t.Errorf("Expected 1 active loan, got %d", stats.ActiveLoans)
	}
}

func TestGetStats_AvailableProfitFloorsAtZero(t *testing.T) {
	f := newStatsFixture()
	f.seed()
	f.investments.Create(context.Background(), &domain.Investment{WorkspaceID: 1, Amount: decimal.NewFromInt(500), Source: domain.InvestmentSourceReinvestProfit})

	stats, err := f.svc.GetStats(context.Background(), 1)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !stats.AvailableProfit.IsZero() {
		t.Errorf("Expected available profit 0, got %s", stats.AvailableProfit)
	}
	if !stats.ReinvestedProfit.Equal(decimal.NewFromInt(500)) {
		t.Errorf("Expected reinvested profit 500, got %s", stats.ReinvestedProfit)
	}
}

func TestAllocateProfit(t *testing.T) {
	f := newStatsFixture()
	f.seed()

	result, err := f.svc.AllocateProfit(context.Background(), 1, domain.ProfitAllocation{
		ReinvestAmount: decimal.NewFromInt(60),
		ExpenseAmount:  decimal.NewFromInt(40),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.Investment == nil || result.Investment.Source != domain.InvestmentSourceReinvestProfit {
		t.Fatalf("Expected a reinvest_profit investment, got %+v", result.Investment)
	}
	if !result.Investment.Date.Equal(day(2024, 3, 1)) {
		t.Errorf("Expected allocation dated today, got %s", result.Investment.Date)
	}
	if result.Expense == nil || result.Expense.Category != domain.ExpenseCategoryProfitAllocation {
		t.Fatalf("Expected a profit_allocation expense, got %+v", result.Expense)
	}

	types := f.publisher.Types()
	if len(types) != 2 || types[0] != "investment.created" || types[1] != "expense.created" {
		t.Errorf("Expected investment.created then expense.created, got %v", types)
	}

	// The allocation consumed everything available.
	stats, _ := f.svc.GetStats(context.Background(), 1)
	if !stats.AvailableProfit.IsZero() {
		t.Errorf("Expected no profit left, got %s", stats.AvailableProfit)
	}
}

func TestAllocateProfit_ReinvestOnly(t *testing.T) {
	f := newStatsFixture()
	f.seed()

	result, err := f.svc.AllocateProfit(context.Background(), 1, domain.ProfitAllocation{ReinvestAmount: decimal.NewFromInt(25)})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.Expense != nil {
		t.Errorf("Expected no expense, got %+v", result.Expense)
	}
	if result.Investment.Note != "Profit reinvested" {
		t.Errorf("Expected default note, got %q", result.Investment.Note)
	}
}

func TestAllocateProfit_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		alloc   domain.ProfitAllocation
		wantErr error
	}{
		{"nothing allocated", domain.ProfitAllocation{}, domain.ErrAllocationAmountInvalid},
		{"negative part", domain.ProfitAllocation{ReinvestAmount: decimal.NewFromInt(-1), ExpenseAmount: decimal.NewFromInt(10)}, domain.ErrAllocationAmountInvalid},
		{"more than available", domain.ProfitAllocation{ReinvestAmount: decimal.NewFromInt(80), ExpenseAmount: decimal.RequireFromString("20.01")}, domain.ErrInsufficientProfit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newStatsFixture()
			f.seed()
			if _, err := f.svc.AllocateProfit(context.Background(), 1, tt.alloc); !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
			if len(f.publisher.Events) != 0 {
				t.Errorf("Expected no events, got %v", f.publisher.Types())
			}
		})
	}
}

func TestAllocateProfit_RepositoryError(t *testing.T) {
	f := newStatsFixture()
	f.seed()
	f.profit.AllocateErr = errors.New("tx aborted")

	if _, err := f.svc.AllocateProfit(context.Background(), 1, domain.ProfitAllocation{ExpenseAmount: decimal.NewFromInt(10)}); err == nil {
		t.Fatal("Expected error, got nil")
	}
	if len(f.publisher.Events) != 0 {
		t.Errorf("Expected no events, got %v", f.publisher.Types())
	}
}
