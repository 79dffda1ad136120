package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrExpenseNotFound        = errors.New("expense not found")
	ErrExpenseTitleRequired   = errors.New("expense title is required")
	ErrExpenseTitleTooLong    = errors.New("expense title must be 200 characters or less")
	ErrExpenseAmountInvalid   = errors.New("expense amount must be positive")
	ErrInvalidExpenseCategory = errors.New("invalid expense category")
	ErrNoteTooLong            = errors.New("note must be 1000 characters or less")
)

// ExpenseCategory groups business expenses
type ExpenseCategory string

const (
	ExpenseCategoryOffice           ExpenseCategory = "office"
	ExpenseCategorySalary           ExpenseCategory = "salary"
	ExpenseCategoryTravel           ExpenseCategory = "travel"
	ExpenseCategoryUtilities        ExpenseCategory = "utilities"
	ExpenseCategoryLegal            ExpenseCategory = "legal"
	ExpenseCategoryMisc             ExpenseCategory = "misc"
	ExpenseCategoryProfitAllocation ExpenseCategory = "profit_allocation"
)

var expenseCategories = map[ExpenseCategory]struct{}{
	ExpenseCategoryOffice:           {},
	ExpenseCategorySalary:           {},
	ExpenseCategoryTravel:           {},
	ExpenseCategoryUtilities:        {},
	ExpenseCategoryLegal:            {},
	ExpenseCategoryMisc:             {},
	ExpenseCategoryProfitAllocation: {},
}

// ParseExpenseCategory normalises a category; empty means misc
func ParseExpenseCategory(s string) (ExpenseCategory, error) {
	c := ExpenseCategory(strings.ToLower(strings.TrimSpace(s)))
	if c == "" {
		return ExpenseCategoryMisc, nil
	}
	if _, ok := expenseCategories[c]; !ok {
		return "", ErrInvalidExpenseCategory
	}
	return c, nil
}

// Expense is money spent running the business
type Expense struct {
	ID          int32           `json:"id"`
	WorkspaceID int32           `json:"workspaceId"`
	Title       string          `json:"title"`
	Amount      decimal.Decimal `json:"amount"`
	Category    ExpenseCategory `json:"category"`
	Note        string          `json:"note"`
	Date        time.Time       `json:"date"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Validate checks an expense before it is persisted
func (e *Expense) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return ErrExpenseTitleRequired
	}
	if len(e.Title) > MaxTitleLength {
		return ErrExpenseTitleTooLong
	}
	if e.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrExpenseAmountInvalid
	}
	if _, ok := expenseCategories[e.Category]; !ok {
		return ErrInvalidExpenseCategory
	}
	if len(e.Note) > MaxNoteLength {
		return ErrNoteTooLong
	}
	return nil
}

type ExpenseRepository interface {
	Create(ctx context.Context, expense *Expense) (*Expense, error)
	GetByID(ctx context.Context, workspaceID int32, id int32) (*Expense, error)
	GetAllByWorkspace(ctx context.Context, workspaceID int32, category *ExpenseCategory) ([]*Expense, error)
	Update(ctx context.Context, expense *Expense) (*Expense, error)
	Delete(ctx context.Context, workspaceID int32, id int32) error
	GetTotal(ctx context.Context, workspaceID int32) (decimal.Decimal, error)
}
