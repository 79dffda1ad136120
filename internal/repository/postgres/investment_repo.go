package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kanakku/kanakku/kanakku-backend/internal/domain"
)

const investmentColumns = `id, workspace_id, amount, source, note, investment_date, created_at, updated_at`

const (
	insertInvestmentSQL = `INSERT INTO investments (workspace_id, amount, source, note, investment_date)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + investmentColumns

	selectInvestmentByIDSQL = `SELECT ` + investmentColumns + ` FROM investments WHERE workspace_id = $1 AND id = $2`
	listInvestmentsSQL      = `SELECT ` + investmentColumns + ` FROM investments WHERE workspace_id = $1 ORDER BY investment_date DESC, id DESC`

	updateInvestmentSQL = `UPDATE investments SET amount = $3, source = $4, note = $5, investment_date = $6, updated_at = NOW()
WHERE workspace_id = $1 AND id = $2
RETURNING ` + investmentColumns

	deleteInvestmentSQL = `DELETE FROM investments WHERE workspace_id = $1 AND id = $2`

	investmentTotalsSQL = `SELECT
	COALESCE(SUM(amount), 0),
	COALESCE(SUM(amount) FILTER (WHERE source = 'owner'), 0),
	COALESCE(SUM(amount) FILTER (WHERE source = 'reinvest_profit'), 0)
FROM investments WHERE workspace_id = $1`
)

// InvestmentRepository implements domain.InvestmentRepository using PostgreSQL
type InvestmentRepository struct {
	db DBPool
}

// NewInvestmentRepository creates a new InvestmentRepository
func NewInvestmentRepository(db DBPool) *InvestmentRepository {
	return &InvestmentRepository{db: db}
}

// Create inserts a new investment
func (r *InvestmentRepository) Create(ctx context.Context, inv *domain.Investment) (*domain.Investment, error) {
	return insertInvestment(ctx, r.db, inv)
}

func insertInvestment(ctx context.Context, q querier, inv *domain.Investment) (*domain.Investment, error) {
	return scanInvestment(q.QueryRow(ctx, insertInvestmentSQL,
		inv.WorkspaceID, inv.Amount, string(inv.Source), inv.Note, timeToPgDate(inv.Date),
	))
}

// GetByID retrieves an investment by its ID within a workspace
func (r *InvestmentRepository) GetByID(ctx context.Context, workspaceID int32, id int32) (*domain.Investment, error) {
	inv, err := scanInvestment(r.db.QueryRow(ctx, selectInvestmentByIDSQL, workspaceID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInvestmentNotFound
		}
		return nil, err
	}
	return inv, nil
}

// GetAllByWorkspace lists investments, newest first
func (r *InvestmentRepository) GetAllByWorkspace(ctx context.Context, workspaceID int32) ([]*domain.Investment, error) {
	rows, err := r.db.Query(ctx, listInvestmentsSQL, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	investments := []*domain.Investment{}
	for rows.Next() {
		inv, err := scanInvestment(rows)
		if err != nil {
			return nil, err
		}
		investments = append(investments, inv)
	}
	return investments, rows.Err()
}

// Update overwrites an investment
func (r *InvestmentRepository) Update(ctx context.Context, inv *domain.Investment) (*domain.Investment, error) {
	updated, err := scanInvestment(r.db.QueryRow(ctx, updateInvestmentSQL,
		inv.WorkspaceID, inv.ID, inv.Amount, string(inv.Source), inv.Note, timeToPgDate(inv.Date),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInvestmentNotFound
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes an investment
func (r *InvestmentRepository) Delete(ctx context.Context, workspaceID int32, id int32) error {
	tag, err := r.db.Exec(ctx, deleteInvestmentSQL, workspaceID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvestmentNotFound
	}
	return nil
}

// GetTotals sums investments by source
func (r *InvestmentRepository) GetTotals(ctx context.Context, workspaceID int32) (*domain.InvestmentTotals, error) {
	var total, owner, reinvested pgtype.Numeric
	if err := r.db.QueryRow(ctx, investmentTotalsSQL, workspaceID).Scan(&total, &owner, &reinvested); err != nil {
		return nil, err
	}
	return &domain.InvestmentTotals{
		Total:            pgNumericToDecimal(total),
		Owner:            pgNumericToDecimal(owner),
		ReinvestedProfit: pgNumericToDecimal(reinvested),
	}, nil
}

func scanInvestment(row rowScanner) (*domain.Investment, error) {
	var (
		inv    domain.Investment
		amount pgtype.Numeric
		source string
		date   pgtype.Date
	)
	if err := row.Scan(&inv.ID, &inv.WorkspaceID, &amount, &source, &inv.Note, &date, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
		return nil, err
	}
	inv.Amount = pgNumericToDecimal(amount)
	inv.Source = domain.InvestmentSource(source)
	inv.Date = pgDateToTime(date)
	return &inv, nil
}
