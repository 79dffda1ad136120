package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrCollectionNotFound      = errors.New("collection not found")
	ErrCollectionAmountInvalid = errors.New("collection amount must be positive with at most two decimal places")
	ErrCollectionDateRequired  = errors.New("collection date is required")
	ErrCollectionTypeMismatch  = errors.New("collection type does not match the loan")
)

// Collection is one recorded payment against a loan.
// Amount always equals PrincipalPaid + InterestPaid when written by the server.
type Collection struct {
	ID             int32           `json:"id"`
	WorkspaceID    int32           `json:"workspaceId"`
	LoanID         int32           `json:"loanId"`
	LoanNo         string          `json:"loanNo"`
	PartyName      string          `json:"partyName"`
	CollectionType CollectionType  `json:"collectionType"`
	PaymentMode    PaymentMode     `json:"paymentMode"`
	Amount         decimal.Decimal `json:"amount"`
	PrincipalPaid  decimal.Decimal `json:"principalPaid"`
	InterestPaid   decimal.Decimal `json:"interestPaid"`
	Date           time.Time       `json:"date"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// CollectionFilters narrows a collection listing. Nil fields are ignored.
type CollectionFilters struct {
	Date           *time.Time
	StartDate      *time.Time
	EndDate        *time.Time
	LoanNo         *string
	PartyName      *string
	CollectionType *CollectionType
}

// CollectionTotals aggregates collected money for the stats view
type CollectionTotals struct {
	Total     decimal.Decimal
	Principal decimal.Decimal
	Interest  decimal.Decimal
}

// LoanPosting is the loan state written together with a new collection
type LoanPosting struct {
	PrincipalPaid decimal.Decimal
	Status        LoanStatus
}

// PostingFunc derives a collection and the loan's new state from the loan
// as currently stored. It runs while the loan row is locked.
type PostingFunc func(loan *Loan) (*Collection, LoanPosting, error)

type CollectionRepository interface {
	// Post locks the loan identified by loanNo, calls build and stores the
	// returned collection and posting in one transaction.
	Post(ctx context.Context, workspaceID int32, loanNo string, build PostingFunc) (*Collection, *Loan, error)
	GetByID(ctx context.Context, workspaceID int32, id int32) (*Collection, error)
	GetAllByWorkspace(ctx context.Context, workspaceID int32, filters *CollectionFilters) ([]*Collection, error)
	Update(ctx context.Context, collection *Collection) (*Collection, error)
	Delete(ctx context.Context, workspaceID int32, id int32) error
	GetTotals(ctx context.Context, workspaceID int32) (*CollectionTotals, error)
}
