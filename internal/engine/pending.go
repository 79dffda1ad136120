package engine

import (
	"time"

	"github.com/kanakku/kanakku/kanakku-backend/internal/domain"
	"github.com/kanakku/kanakku/kanakku-backend/internal/util"
	"github.com/shopspring/decimal"
)

// PendingCycles is the due/paid/pending state of one loan as of a given day
type PendingCycles struct {
	LoanID         int32                 `json:"loanId"`
	LoanNo         string                `json:"loanNo"`
	PartyName      string                `json:"partyName"`
	Mobile         string                `json:"mobile"`
	CollectionType domain.CollectionType `json:"collectionType"`
	Status         domain.LoanStatus     `json:"status"`
	LoanDate       time.Time             `json:"loanDate"`
	Amount         decimal.Decimal       `json:"amount"`
	CycleLength    int                   `json:"cycleLength"`
	ElapsedDays    int                   `json:"elapsedDays"`
	Due            int                   `json:"due"`
	Paid           int                   `json:"paid"`
	Pending        int                   `json:"pending"`
	NextDueDate    time.Time             `json:"nextDueDate"`
	CycleAmount    decimal.Decimal       `json:"cycleAmount"`
	PendingAmount  decimal.Decimal       `json:"pendingAmount"`
	// RemainingBalance is set for weekly loans only
	RemainingBalance *decimal.Decimal `json:"remainingBalance,omitempty"`
}

// CountPending counts the cycles of loan that have fully elapsed by today
// and how many of them history has paid. Daily loans are not counted.
//
// A loan without a usable date is treated as having no elapsed days.
func CountPending(loan *domain.Loan, today time.Time, history []*domain.Collection) (PendingCycles, error) {
	if loan == nil {
		return PendingCycles{}, ErrLoanRequired
	}
	params, ok := loan.CollectionType.Params()
	if !ok {
		return PendingCycles{}, domain.ErrInvalidCollectionType
	}
	if !params.CountsCycles {
		return PendingCycles{}, ErrCycleCountingUnsupported
	}

	cycle := loan.CollectionType.CycleLength(loan.Duration)

	start := util.TruncateToDay(loan.Date)
	elapsed := 0
	if !loan.Date.IsZero() {
		elapsed = util.DaysBetween(start, util.TruncateToDay(today))
		if elapsed < 0 {
			elapsed = 0
		}
	}

	due := 0
	if elapsed >= cycle {
		due = elapsed / cycle
	}

	paid := 0
	collected := decimal.Zero
	for _, c := range history {
		if c == nil || c.LoanNo != loan.LoanNumber || c.CollectionType != loan.CollectionType {
			continue
		}
		// an empty row pays no cycle
		if !c.Amount.IsPositive() {
			continue
		}
		collected = collected.Add(c.Amount)
		if params.InterestOnly && !c.PrincipalPaid.IsZero() {
			continue
		}
		paid++
	}

	pending := due - paid
	if pending < 0 {
		pending = 0
	}

	result := PendingCycles{
		LoanID:         loan.ID,
		LoanNo:         loan.LoanNumber,
		PartyName:      loan.PartyName,
		Mobile:         loan.Mobile,
		CollectionType: loan.CollectionType,
		Status:         loan.Status,
		LoanDate:       loan.Date,
		Amount:         loan.Amount,
		CycleLength:    cycle,
		ElapsedDays:    elapsed,
		Due:            due,
		Paid:           paid,
		Pending:        pending,
		NextDueDate:    util.AddDays(start, (paid+1)*cycle),
	}

	pendingCount := decimal.NewFromInt(int64(pending))
	if params.InterestOnly {
		result.CycleAmount = CycleInterest(loan)
		result.PendingAmount = round2(pendingCount.Mul(result.CycleAmount))
		return result, nil
	}

	remaining := loan.TotalPayable.Sub(collected)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	remaining = round2(remaining)
	result.CycleAmount = round2(loan.InstallmentAmount)
	result.PendingAmount = round2(decimal.Min(pendingCount.Mul(loan.InstallmentAmount), remaining))
	result.RemainingBalance = &remaining
	return result, nil
}
