package engine

import (
	"github.com/kanakku/kanakku/kanakku-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// DefaultAmount suggests the amount to collect for a loan. It seeds an
// editable input and is never enforced.
func DefaultAmount(loan *domain.Loan, cycleType domain.CollectionType, mode domain.PaymentMode) (decimal.Decimal, error) {
	if loan == nil {
		return decimal.Zero, ErrLoanRequired
	}
	if !cycleType.IsValid() {
		return decimal.Zero, domain.ErrInvalidCollectionType
	}

	switch mode {
	case domain.PaymentModeClose:
		// whole cents that still cover the remaining principal
		return loan.RemainingPrincipal().RoundCeil(2), nil
	case domain.PaymentModeRegular:
	default:
		return decimal.Zero, domain.ErrInvalidPaymentMode
	}

	if cycleType.IsInterestOnly() {
		return CycleInterest(loan), nil
	}
	return round2(loan.InstallmentAmount), nil
}

// CycleInterest is the flat interest billed for one cycle:
// amount * rate / 100, rounded to cents
func CycleInterest(loan *domain.Loan) decimal.Decimal {
	return round2(loan.Amount.Mul(loan.InterestRate).Div(hundred))
}
