package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrLoanNotFound            = errors.New("loan not found")
	ErrLoanNumberRequired      = errors.New("loan number is required")
	ErrLoanNumberTooLong       = errors.New("loan number must be 50 characters or less")
	ErrLoanNumberTaken         = errors.New("loan number already exists")
	ErrPartyNameRequired       = errors.New("party name is required")
	ErrPartyNameTooLong        = errors.New("party name must be 200 characters or less")
	ErrLoanAmountInvalid       = errors.New("loan amount must be positive")
	ErrLoanDateRequired        = errors.New("loan date is required")
	ErrLoanDurationInvalid     = errors.New("duration must be at least 1")
	ErrInterestRateInvalid     = errors.New("interest rate must not be negative")
	ErrAdvanceInterestNegative = errors.New("advance interest must not be negative")
	ErrLoanClosed              = errors.New("loan is closed")
)

// LoanStatus is the lifecycle state of a loan
type LoanStatus string

const (
	LoanStatusActive LoanStatus = "active"
	LoanStatusClosed LoanStatus = "closed"
)

// DocumentKind identifies an uploaded loan document
type DocumentKind string

const (
	DocumentKindPhoto DocumentKind = "photo"
	DocumentKindProof DocumentKind = "proof"
)

// IsValid reports whether the document kind is known
func (k DocumentKind) IsValid() bool {
	return k == DocumentKindPhoto || k == DocumentKindProof
}

// Loan is a single lending record owned by a workspace
type Loan struct {
	ID                int32           `json:"id"`
	WorkspaceID       int32           `json:"workspaceId"`
	LoanNumber        string          `json:"loanNumber"`
	PartyName         string          `json:"partyName"`
	FatherName        string          `json:"fatherName"`
	DateOfBirth       *time.Time      `json:"dateOfBirth,omitempty"`
	Age               int32           `json:"age"`
	Occupation        string          `json:"occupation"`
	Address           string          `json:"address"`
	Mobile            string          `json:"mobile"`
	Aadhar            string          `json:"aadhar"`
	WitnessMobile     string          `json:"witnessMobile"`
	Amount            decimal.Decimal `json:"amount"`
	AdvanceInterest   decimal.Decimal `json:"advanceInterest"`
	Date              time.Time       `json:"date"`
	EndDate           *time.Time      `json:"endDate,omitempty"`
	CollectionType    CollectionType  `json:"collectionType"`
	Duration          int32           `json:"duration"`
	InterestRate      decimal.Decimal `json:"interestRate"`
	InstallmentAmount decimal.Decimal `json:"installmentAmount"`
	TotalPayable      decimal.Decimal `json:"totalPayable"`
	PrincipalPaid     decimal.Decimal `json:"principalPaid"`
	Status            LoanStatus      `json:"status"`
	PhotoKey          *string         `json:"photoKey,omitempty"`
	ProofKey          *string         `json:"proofKey,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// Validate checks the fields a loan must carry before it is persisted
func (l *Loan) Validate() error {
	if l.LoanNumber == "" {
		return ErrLoanNumberRequired
	}
	if len(l.LoanNumber) > MaxLoanNumberLength {
		return ErrLoanNumberTooLong
	}
	if l.PartyName == "" {
		return ErrPartyNameRequired
	}
	if len(l.PartyName) > MaxPartyNameLength {
		return ErrPartyNameTooLong
	}
	if l.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrLoanAmountInvalid
	}
	if l.Date.IsZero() {
		return ErrLoanDateRequired
	}
	if !l.CollectionType.IsValid() {
		return ErrInvalidCollectionType
	}
	if l.Duration < 1 {
		return ErrLoanDurationInvalid
	}
	if l.InterestRate.IsNegative() {
		return ErrInterestRateInvalid
	}
	if l.AdvanceInterest.IsNegative() {
		return ErrAdvanceInterestNegative
	}
	return nil
}

// RemainingPrincipal returns amount - principalPaid, floored at zero
func (l *Loan) RemainingPrincipal() decimal.Decimal {
	remaining := l.Amount.Sub(l.PrincipalPaid)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// IsClosed reports whether the loan has been closed
func (l *Loan) IsClosed() bool {
	return l.Status == LoanStatusClosed
}

// DocumentKey returns the stored object key for a document kind
func (l *Loan) DocumentKey(kind DocumentKind) *string {
	switch kind {
	case DocumentKindPhoto:
		return l.PhotoKey
	case DocumentKindProof:
		return l.ProofKey
	}
	return nil
}

// LoanFilters narrows a loan listing
type LoanFilters struct {
	CollectionType *CollectionType
	Status         *LoanStatus
	PartyName      *string
}

// LoanTotals aggregates loan amounts for the stats view
type LoanTotals struct {
	ActiveCount          int64
	TotalDisbursed       decimal.Decimal
	TotalAdvanceInterest decimal.Decimal
	ActiveRemaining      decimal.Decimal
}

type LoanRepository interface {
	Create(ctx context.Context, loan *Loan) (*Loan, error)
	GetByID(ctx context.Context, workspaceID int32, id int32) (*Loan, error)
	GetByLoanNumber(ctx context.Context, workspaceID int32, loanNumber string) (*Loan, error)
	GetAllByWorkspace(ctx context.Context, workspaceID int32, filters *LoanFilters) ([]*Loan, error)
	Update(ctx context.Context, loan *Loan) (*Loan, error)
	UpdateDocumentKey(ctx context.Context, workspaceID int32, id int32, kind DocumentKind, key string) error
	Delete(ctx context.Context, workspaceID int32, id int32) error
	GetTotals(ctx context.Context, workspaceID int32) (*LoanTotals, error)
	GetActiveWorkspaceIDs(ctx context.Context) ([]int32, error)
}
