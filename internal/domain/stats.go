package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientProfit      = errors.New("allocation exceeds available profit")
	ErrAllocationAmountInvalid = errors.New("allocation amounts must not be negative and must not both be zero")
)

// Stats is the business summary shown on the dashboard
type Stats struct {
	ActiveLoans              int64           `json:"activeLoans"`
	PendingAmount            decimal.Decimal `json:"pendingAmount"`
	TotalDisbursed           decimal.Decimal `json:"totalDisbursed"`
	TotalAdvanceInterest     decimal.Decimal `json:"totalAdvanceInterest"`
	TotalInvestment          decimal.Decimal `json:"totalInvestment"`
	OwnerInvestment          decimal.Decimal `json:"ownerInvestment"`
	ReinvestedProfit         decimal.Decimal `json:"reinvestedProfit"`
	TotalCollection          decimal.Decimal `json:"totalCollection"`
	TotalCollectionPrincipal decimal.Decimal `json:"totalCollectionPrincipal"`
	TotalCollectionInterest  decimal.Decimal `json:"totalCollectionInterest"`
	TotalExpense             decimal.Decimal `json:"totalExpense"`
	NetProfit                decimal.Decimal `json:"netProfit"`
	CashBalance              decimal.Decimal `json:"cashBalance"`
	AvailableProfit          decimal.Decimal `json:"availableProfit"`
}

// ProfitAllocation splits available profit between reinvestment and a
// profit_allocation expense
type ProfitAllocation struct {
	ReinvestAmount decimal.Decimal `json:"reinvestAmount"`
	ExpenseAmount  decimal.Decimal `json:"expenseAmount"`
	Note           string          `json:"note"`
}

// Total returns the combined allocation
func (a ProfitAllocation) Total() decimal.Decimal {
	return a.ReinvestAmount.Add(a.ExpenseAmount)
}

// Validate checks that both parts are non-negative and something is allocated
func (a ProfitAllocation) Validate() error {
	if a.ReinvestAmount.IsNegative() || a.ExpenseAmount.IsNegative() {
		return ErrAllocationAmountInvalid
	}
	if !a.Total().IsPositive() {
		return ErrAllocationAmountInvalid
	}
	return nil
}

// ProfitRepository records a profit allocation atomically. Either part may be nil.
type ProfitRepository interface {
	Allocate(ctx context.Context, investment *Investment, expense *Expense) (*Investment, *Expense, error)
}
