package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kanakku/kanakku/kanakku-backend/internal/domain"
	"github.com/shopspring/decimal"
)

const expenseColumns = `id, workspace_id, title, amount, category, note, expense_date, created_at, updated_at`

const (
	insertExpenseSQL = `INSERT INTO expenses (workspace_id, title, amount, category, note, expense_date)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + expenseColumns

	selectExpenseByIDSQL = `SELECT ` + expenseColumns + ` FROM expenses WHERE workspace_id = $1 AND id = $2`

	listExpensesSQL = `SELECT ` + expenseColumns + ` FROM expenses
WHERE workspace_id = $1 AND ($2::text IS NULL OR category = $2)
ORDER BY expense_date DESC, id DESC`

	updateExpenseSQL = `UPDATE expenses SET title = $3, amount = $4, category = $5, note = $6, expense_date = $7, updated_at = NOW()
WHERE workspace_id = $1 AND id = $2
RETURNING ` + expenseColumns

	deleteExpenseSQL = `DELETE FROM expenses WHERE workspace_id = $1 AND id = $2`
	expenseTotalSQL  = `SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE workspace_id = $1`
)

// ExpenseRepository implements domain.ExpenseRepository using PostgreSQL
type ExpenseRepository struct {
	db DBPool
}

// NewExpenseRepository creates a new ExpenseRepository
func NewExpenseRepository(db DBPool) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

// Create inserts a new expense
func (r *ExpenseRepository) Create(ctx context.Context, e *domain.Expense) (*domain.Expense, error) {
	return insertExpense(ctx, r.db, e)
}

func insertExpense(ctx context.Context, q querier, e *domain.Expense) (*domain.Expense, error) {
	return scanExpense(q.QueryRow(ctx, insertExpenseSQL,
		e.WorkspaceID, e.Title, e.Amount, string(e.Category), e.Note, timeToPgDate(e.Date),
	))
}

// GetByID retrieves an expense by its ID within a workspace
func (r *ExpenseRepository) GetByID(ctx context.Context, workspaceID int32, id int32) (*domain.Expense, error) {
	e, err := scanExpense(r.db.QueryRow(ctx, selectExpenseByIDSQL, workspaceID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrExpenseNotFound
		}
		return nil, err
	}
	return e, nil
}

// GetAllByWorkspace lists expenses, optionally of one category
func (r *ExpenseRepository) GetAllByWorkspace(ctx context.Context, workspaceID int32, category *domain.ExpenseCategory) ([]*domain.Expense, error) {
	var cat pgtype.Text
	if category != nil {
		cat = pgtype.Text{String: string(*category), Valid: true}
	}

	rows, err := r.db.Query(ctx, listExpensesSQL, workspaceID, cat)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := []*domain.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// Update overwrites an expense
func (r *ExpenseRepository) Update(ctx context.Context, e *domain.Expense) (*domain.Expense, error) {
	updated, err := scanExpense(r.db.QueryRow(ctx, updateExpenseSQL,
		e.WorkspaceID, e.ID, e.Title, e.Amount, string(e.Category), e.Note, timeToPgDate(e.Date),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrExpenseNotFound
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes an expense
func (r *ExpenseRepository) Delete(ctx context.Context, workspaceID int32, id int32) error {
	tag, err := r.db.Exec(ctx, deleteExpenseSQL, workspaceID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrExpenseNotFound
	}
	return nil
}

// GetTotal sums all expenses of the workspace
func (r *ExpenseRepository) GetTotal(ctx context.Context, workspaceID int32) (decimal.Decimal, error) {
	var total pgtype.Numeric
	if err := r.db.QueryRow(ctx, expenseTotalSQL, workspaceID).Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return pgNumericToDecimal(total), nil
}

func scanExpense(row rowScanner) (*domain.Expense, error) {
	var (
		e        domain.Expense
		amount   pgtype.Numeric
		category string
		date     pgtype.Date
	)
	if err := row.Scan(&e.ID, &e.WorkspaceID, &e.Title, &amount, &category, &e.Note, &date, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.Amount = pgNumericToDecimal(amount)
	e.Category = domain.ExpenseCategory(category)
	e.Date = pgDateToTime(date)
	return &e, nil
}
