package domain

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidCollectionType = errors.New("collection type must be one of: daily, weekly, monthly, fire")
	ErrInvalidPaymentMode    = errors.New("payment mode must be one of: regular, close")
)

// CollectionType is the billing cycle a loan is collected on
type CollectionType string

const (
	CollectionTypeDaily   CollectionType = "daily"
	CollectionTypeWeekly  CollectionType = "weekly"
	CollectionTypeMonthly CollectionType = "monthly"
	CollectionTypeFire    CollectionType = "fire"
)

// PaymentMode distinguishes a normal per-cycle payment from a loan closure
type PaymentMode string

const (
	PaymentModeRegular PaymentMode = "regular"
	PaymentModeClose   PaymentMode = "close"
)

// CycleParams holds the per collection-type constants.
// CycleDays of 0 means the cycle length is taken from the loan's duration.
type CycleParams struct {
	CycleDays           int
	DefaultDuration     int32
	DefaultInterestRate decimal.Decimal
	// TermDays is the fixed loan term; 0 means the term equals the duration.
	TermDays int
	// InterestOnly types bill flat interest per cycle and only repay
	// principal through a close payment.
	InterestOnly bool
	// CountsCycles is false for types excluded from the pending report.
	CountsCycles bool
}

var cycleTable = map[CollectionType]CycleParams{
	CollectionTypeDaily: {
		CycleDays:           1,
		DefaultDuration:     100,
		DefaultInterestRate: decimal.RequireFromString("0.000001"),
		TermDays:            100,
	},
	CollectionTypeWeekly: {
		CycleDays:           7,
		DefaultDuration:     10,
		DefaultInterestRate: decimal.NewFromInt(20),
		TermDays:            70,
		CountsCycles:        true,
	},
	CollectionTypeMonthly: {
		CycleDays:           30,
		DefaultDuration:     30,
		DefaultInterestRate: decimal.NewFromInt(10),
		InterestOnly:        true,
		CountsCycles:        true,
	},
	CollectionTypeFire: {
		CycleDays:           0,
		DefaultDuration:     10,
		DefaultInterestRate: decimal.NewFromInt(10),
		InterestOnly:        true,
		CountsCycles:        true,
	},
}

// ParseCollectionType normalises and validates a collection type string
func ParseCollectionType(s string) (CollectionType, error) {
	ct := CollectionType(strings.ToLower(strings.TrimSpace(s)))
	if !ct.IsValid() {
		return "", ErrInvalidCollectionType
	}
	return ct, nil
}

// IsValid reports whether the collection type is known
func (t CollectionType) IsValid() bool {
	_, ok := cycleTable[t]
	return ok
}

// Params returns the cycle parameters for the type
func (t CollectionType) Params() (CycleParams, bool) {
	p, ok := cycleTable[t]
	return p, ok
}

// CycleLength returns the cycle length in days for a loan of this type.
// Fire loans use their own duration, never less than one day.
func (t CollectionType) CycleLength(duration int32) int {
	p, ok := cycleTable[t]
	if !ok {
		return 0
	}
	if p.CycleDays > 0 {
		return p.CycleDays
	}
	if duration < 1 {
		return 1
	}
	return int(duration)
}

// TermDays returns the number of days from the loan date to its end date
func (t CollectionType) TermDays(duration int32) int {
	p, ok := cycleTable[t]
	if !ok {
		return 0
	}
	if p.TermDays > 0 {
		return p.TermDays
	}
	if duration < 0 {
		return 0
	}
	return int(duration)
}

// IsInterestOnly reports whether regular payments of this type are pure interest
func (t CollectionType) IsInterestOnly() bool {
	return cycleTable[t].InterestOnly
}

// ParsePaymentMode normalises a payment mode; empty means regular
func ParsePaymentMode(s string) (PaymentMode, error) {
	switch PaymentMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", PaymentModeRegular:
		return PaymentModeRegular, nil
	case PaymentModeClose:
		return PaymentModeClose, nil
	default:
		return "", ErrInvalidPaymentMode
	}
}
