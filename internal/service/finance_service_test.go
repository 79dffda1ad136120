package service

import (
	"context"
	"testing"

	"github.com/kanakku/kanakku/kanakku-backend/internal/domain"
	"github.com/kanakku/kanakku/kanakku-backend/internal/testutil"
	"github.com/shopspring/decimal"
)

func TestCreateInvestment_NormalisesLegacySource(t *testing.T) {
	repo := testutil.NewMockInvestmentRepository()
	publisher := testutil.NewMockEventPublisher()
	svc := NewInvestmentService(repo)
	svc.SetEventPublisher(publisher)

	inv, err := svc.CreateInvestment(context.Background(), 1, InvestmentInput{
		Amount: decimal.NewFromInt(10000),
		Source: "reinvest",
		Date:   day(2024, 1, 1),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if inv.Source != domain.InvestmentSourceReinvestProfit {
		t.Errorf("Expected reinvest_profit, got %s", inv.Source)
	}
	if types := publisher.Types(); len(types) != 1 || types[0] != "investment.created" {
		t.Errorf("Expected [investment.created], got %v", types)
	}
}

func TestCreateInvestment_Validation(t *testing.T) {
	svc := NewInvestmentService(testutil.NewMockInvestmentRepository())

	if _, err := svc.CreateInvestment(context.Background(), 1, InvestmentInput{Amount: decimal.Zero}); err != domain.ErrInvestmentAmountInvalid {
		t.Errorf("Expected ErrInvestmentAmountInvalid, got %v", err)
	}
	if _, err := svc.CreateInvestment(context.Background(), 1, InvestmentInput{Amount: decimal.NewFromInt(1), Source: "lottery"}); err != domain.ErrInvalidInvestmentSource {
		t.Errorf("Expected ErrInvalidInvestmentSource, got %v", err)
	}
}

func TestInvestment_DefaultsAndUpdate(t *testing.T) {
	repo := testutil.NewMockInvestmentRepository()
	svc := NewInvestmentService(repo)

	inv, err := svc.CreateInvestment(context.Background(), 1, InvestmentInput{Amount: decimal.NewFromInt(500)})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if inv.Source != domain.InvestmentSourceOwner {
		t.Errorf("Expected owner source by default, got %s", inv.Source)
	}
	if inv.Date.IsZero() {
		t.Error("Expected date to default to today")
	}

	updated, err := svc.UpdateInvestment(context.Background(), 1, inv.ID, InvestmentInput{Amount: decimal.NewFromInt(750), Note: " top-up "})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !updated.Amount.Equal(decimal.NewFromInt(750)) || updated.Note != "top-up" {
		t.Errorf("Expected amount 750 and trimmed note, got %s %q", updated.Amount, updated.Note)
	}

	if _, err := svc.UpdateInvestment(context.Background(), 2, inv.ID, InvestmentInput{Amount: decimal.NewFromInt(1)}); err != domain.ErrInvestmentNotFound {
		t.Errorf("Expected ErrInvestmentNotFound from another workspace, got %v", err)
	}

	if err := svc.DeleteInvestment(context.Background(), 1, inv.ID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	list, _ := svc.GetInvestments(context.Background(), 1)
	if len(list) != 0 {
		t.Errorf("Expected no investments after delete, got %d", len(list))
	}
}

func TestGetExpenses_CategoryAndTotal(t *testing.T) {
	repo := testutil.NewMockExpenseRepository()
	svc := NewExpenseService(repo)
	ctx := context.Background()

	inputs := []ExpenseInput{
		{Title: "Rent", Amount: decimal.NewFromInt(8000), Category: "office", Date: day(2024, 1, 1)},
		{Title: "Bus fare", Amount: decimal.RequireFromString("45.50"), Category: "TRAVEL", Date: day(2024, 1, 2)},
		{Title: "Auto", Amount: decimal.NewFromInt(120), Category: "travel", Date: day(2024, 1, 3)},
	}
	for _, in := range inputs {
		if _, err := svc.CreateExpense(ctx, 1, in); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
	}

	all, err := svc.GetExpenses(ctx, 1, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(all.Expenses) != 3 || !all.Total.Equal(decimal.RequireFromString("8165.50")) {
		t.Errorf("Expected 3 expenses totalling 8165.50, got %d totalling %s", len(all.Expenses), all.Total)
	}

	travel := domain.ExpenseCategoryTravel
	filtered, err := svc.GetExpenses(ctx, 1, &travel)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(filtered.Expenses) != 2 || !filtered.Total.Equal(decimal.RequireFromString("165.50")) {
		t.Errorf("Expected 2 travel expenses totalling 165.50, got %d totalling %s", len(filtered.Expenses), filtered.Total)
	}
}

func TestCreateExpense_Validation(t *testing.T) {
	svc := NewExpenseService(testutil.NewMockExpenseRepository())
	ctx := context.Background()

	tests := []struct {
		name    string
		input   ExpenseInput
		wantErr error
	}{
		{"missing title", ExpenseInput{Title: " ", Amount: decimal.NewFromInt(1)}, domain.ErrExpenseTitleRequired},
		{"zero amount", ExpenseInput{Title: "Tea", Amount: decimal.Zero}, domain.ErrExpenseAmountInvalid},
		{"unknown category", ExpenseInput{Title: "Tea", Amount: decimal.NewFromInt(1), Category: "snacks"}, domain.ErrInvalidExpenseCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateExpense(ctx, 1, tt.input); err != tt.wantErr {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
