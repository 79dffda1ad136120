package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/kanakku/kanakku/kanakku-backend/internal/domain"
)

// ProfitRepository writes profit allocations across the investments and
// expenses tables
type ProfitRepository struct {
	db DBPool
}

// NewProfitRepository creates a new ProfitRepository
func NewProfitRepository(db DBPool) *ProfitRepository {
	return &ProfitRepository{db: db}
}

// Allocate records the reinvestment and the allocation expense atomically
func (r *ProfitRepository) Allocate(ctx context.Context, investment *domain.Investment, expense *domain.Expense) (*domain.Investment, *domain.Expense, error) {
	var (
		inv *domain.Investment
		exp *domain.Expense
	)
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		var err error
		if investment != nil {
			if inv, err = insertInvestment(ctx, tx, investment); err != nil {
				return fmt.Errorf("insert reinvestment: %w", err)
			}
		}
		if expense != nil {
			if exp, err = insertExpense(ctx, tx, expense); err != nil {
				return fmt.Errorf("insert allocation expense: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return inv, exp, nil
}
