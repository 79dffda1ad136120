// Package engine holds the loan cycle calculations: splitting a payment
// into principal and interest, suggesting a collection amount and counting
// the cycles a loan still owes. Every function is pure and reads only its
// arguments, so callers may use them concurrently.
package engine

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Errors returned by the split and cycle calculations
var (
	ErrInvalidPaymentAmount     = errors.New("payment amount must be positive with at most two decimal places")
	ErrLoanRequired             = errors.New("loan is required")
	ErrCycleCountingUnsupported = errors.New("cycle counting is not supported for this collection type")
)

var hundred = decimal.NewFromInt(100)

// round2 rounds to cents, half away from zero
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ValidPayment reports whether d is a positive amount in whole cents
func ValidPayment(d decimal.Decimal) bool {
	return d.IsPositive() && d.Equal(round2(d))
}
