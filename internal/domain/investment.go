package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvestmentNotFound      = errors.New("investment not found")
	ErrInvestmentAmountInvalid = errors.New("investment amount must be positive")
	ErrInvalidInvestmentSource = errors.New("invalid investment source")
)

// InvestmentSource records where invested money came from
type InvestmentSource string

const (
	InvestmentSourceOwner                       InvestmentSource = "owner"
	InvestmentSourceReinvestProfit              InvestmentSource = "reinvest_profit"
	InvestmentSourceReinvestCollectionPrincipal InvestmentSource = "reinvest_collection_principal"
	InvestmentSourceReinvestCollectionInterest  InvestmentSource = "reinvest_collection_interest"

	legacyInvestmentSourceReinvest = "reinvest"
)

// ParseInvestmentSource normalises a source string. Empty means owner and
// the legacy "reinvest" value maps to reinvest_profit.
func ParseInvestmentSource(s string) (InvestmentSource, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "":
		return InvestmentSourceOwner, nil
	case legacyInvestmentSourceReinvest:
		return InvestmentSourceReinvestProfit, nil
	}
	src := InvestmentSource(v)
	switch src {
	case InvestmentSourceOwner, InvestmentSourceReinvestProfit,
		InvestmentSourceReinvestCollectionPrincipal, InvestmentSourceReinvestCollectionInterest:
		return src, nil
	}
	return "", ErrInvalidInvestmentSource
}

// IsReinvestment reports whether the money was recycled from the business
func (s InvestmentSource) IsReinvestment() bool {
	return s != InvestmentSourceOwner
}

// Investment is money put into the lending pool
type Investment struct {
	ID          int32            `json:"id"`
	WorkspaceID int32            `json:"workspaceId"`
	Amount      decimal.Decimal  `json:"amount"`
	Source      InvestmentSource `json:"source"`
	Note        string           `json:"note"`
	Date        time.Time        `json:"date"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// InvestmentTotals sums investments per source
type InvestmentTotals struct {
	Total            decimal.Decimal
	Owner            decimal.Decimal
	ReinvestedProfit decimal.Decimal
}

type InvestmentRepository interface {
	Create(ctx context.Context, investment *Investment) (*Investment, error)
	GetByID(ctx context.Context, workspaceID int32, id int32) (*Investment, error)
	GetAllByWorkspace(ctx context.Context, workspaceID int32) ([]*Investment, error)
	Update(ctx context.Context, investment *Investment) (*Investment, error)
	Delete(ctx context.Context, workspaceID int32, id int32) error
	GetTotals(ctx context.Context, workspaceID int32) (*InvestmentTotals, error)
}

// Validate checks an investment before it is persisted
func (i *Investment) Validate() error {
	if i.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvestmentAmountInvalid
	}
	if src, err := ParseInvestmentSource(string(i.Source)); err != nil || src != i.Source {
		return ErrInvalidInvestmentSource
	}
	if len(i.Note) > MaxNoteLength {
		return ErrNoteTooLong
	}
	return nil
}
