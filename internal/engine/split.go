package engine

import (
	"fmt"

	"github.com/kanakku/kanakku/kanakku-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// ClosingAmountError is returned when a close payment does not cover the
// remaining principal
type ClosingAmountError struct {
	Required decimal.Decimal
}

func (e *ClosingAmountError) Error() string {
	return fmt.Sprintf("closing amount must be at least %s", e.Required.String())
}

// Split is a payment divided into principal and interest.
// PrincipalPaid + InterestPaid always equals the payment amount.
type Split struct {
	PrincipalPaid decimal.Decimal `json:"principalPaid"`
	InterestPaid  decimal.Decimal `json:"interestPaid"`
}

// ComputeSplit divides payment between principal and interest for a loan.
//
// A close payment must cover the remaining principal and any excess is
// interest. Regular payments on monthly and fire loans are pure interest.
// Regular payments on daily and weekly loans are split so that
// interest/principal equals the loan's rate.
func ComputeSplit(loan *domain.Loan, payment decimal.Decimal, cycleType domain.CollectionType, mode domain.PaymentMode) (Split, error) {
	if !ValidPayment(payment) {
		return Split{}, ErrInvalidPaymentAmount
	}
	if loan == nil {
		return Split{}, ErrLoanRequired
	}
	if !cycleType.IsValid() {
		return Split{}, domain.ErrInvalidCollectionType
	}

	remaining := loan.RemainingPrincipal()
	var principal decimal.Decimal

	switch mode {
	case domain.PaymentModeClose:
		if payment.LessThan(remaining) {
			return Split{}, &ClosingAmountError{Required: remaining}
		}
		principal = decimal.Min(payment, remaining)
	case domain.PaymentModeRegular:
		if cycleType.IsInterestOnly() {
			principal = decimal.Zero
		} else {
			ratio := decimal.NewFromInt(1).Add(loan.InterestRate.Div(hundred))
			principal = payment.Div(ratio)
		}
	default:
		return Split{}, domain.ErrInvalidPaymentMode
	}

	principal = clamp(round2(principal), decimal.Zero, round2(remaining))

	return Split{
		PrincipalPaid: principal,
		InterestPaid:  payment.Sub(principal),
	}, nil
}

func clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}
