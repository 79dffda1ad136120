package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kanakku/kanakku/kanakku-backend/internal/domain"
)

const collectionColumns = `id, workspace_id, loan_id, loan_no, party_name, collection_type, payment_mode,
	amount, principal_paid, interest_paid, collection_date, created_at, updated_at`

const (
	lockLoanByNumberSQL = `SELECT ` + loanColumns + ` FROM loans WHERE workspace_id = $1 AND loan_number = $2 FOR UPDATE`

	insertCollectionSQL = `INSERT INTO collections (workspace_id, loan_id, loan_no, party_name, collection_type,
	payment_mode, amount, principal_paid, interest_paid, collection_date)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + collectionColumns

	postLoanSQL = `UPDATE loans SET principal_paid = $3, status = $4, updated_at = NOW()
WHERE workspace_id = $1 AND id = $2
RETURNING ` + loanColumns

	selectCollectionByIDSQL = `SELECT ` + collectionColumns + ` FROM collections WHERE workspace_id = $1 AND id = $2`

	updateCollectionSQL = `UPDATE collections SET amount = $3, principal_paid = $4, interest_paid = $5,
	collection_date = $6, updated_at = NOW()
WHERE workspace_id = $1 AND id = $2
RETURNING ` + collectionColumns

	deleteCollectionSQL = `DELETE FROM collections WHERE workspace_id = $1 AND id = $2`

	collectionTotalsSQL = `SELECT COALESCE(SUM(amount), 0), COALESCE(SUM(principal_paid), 0), COALESCE(SUM(interest_paid), 0)
FROM collections WHERE workspace_id = $1`
)

// CollectionRepository implements domain.CollectionRepository using PostgreSQL
type CollectionRepository struct {
	db DBPool
}

// NewCollectionRepository creates a new CollectionRepository
func NewCollectionRepository(db DBPool) *CollectionRepository {
	return &CollectionRepository{db: db}
}

// Post locks the loan row, derives the collection from its current state
// and writes the collection and the loan's new principal in one transaction
func (r *CollectionRepository) Post(ctx context.Context, workspaceID int32, loanNo string, build domain.PostingFunc) (*domain.Collection, *domain.Loan, error) {
	var (
		created *domain.Collection
		updated *domain.Loan
	)

	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		loan, err := getLoanByNumber(ctx, tx, lockLoanByNumberSQL, workspaceID, loanNo)
		if err != nil {
			return err
		}

		collection, posting, err := build(loan)
		if err != nil {
			return err
		}

		created, err = scanCollection(tx.QueryRow(ctx, insertCollectionSQL,
			workspaceID, loan.ID, loan.LoanNumber, loan.PartyName, string(collection.CollectionType),
			string(collection.PaymentMode), collection.Amount, collection.PrincipalPaid, collection.InterestPaid,
			timeToPgDate(collection.Date),
		))
		if err != nil {
			return fmt.Errorf("insert collection: %w", err)
		}

		updated, err = scanLoan(tx.QueryRow(ctx, postLoanSQL, workspaceID, loan.ID, posting.PrincipalPaid, string(posting.Status)))
		if err != nil {
			return fmt.Errorf("post collection to loan: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return created, updated, nil
}

// GetByID retrieves a collection by its ID within a workspace
func (r *CollectionRepository) GetByID(ctx context.Context, workspaceID int32, id int32) (*domain.Collection, error) {
	c, err := scanCollection(r.db.QueryRow(ctx, selectCollectionByIDSQL, workspaceID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCollectionNotFound
		}
		return nil, err
	}
	return c, nil
}

// GetAllByWorkspace lists collections, newest first
func (r *CollectionRepository) GetAllByWorkspace(ctx context.Context, workspaceID int32, filters *domain.CollectionFilters) ([]*domain.Collection, error) {
	where := []string{"workspace_id = $1"}
	args := []any{workspaceID}
	add := func(clause string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if filters != nil {
		if filters.Date != nil {
			add("collection_date = $%d", timeToPgDate(*filters.Date))
		}
		if filters.StartDate != nil {
			add("collection_date >= $%d", timeToPgDate(*filters.StartDate))
		}
		if filters.EndDate != nil {
			add("collection_date <= $%d", timeToPgDate(*filters.EndDate))
		}
		if filters.LoanNo != nil {
			add("loan_no = $%d", *filters.LoanNo)
		}
		if filters.PartyName != nil {
			add("lower(party_name) = lower($%d)", *filters.PartyName)
		}
		if filters.CollectionType != nil {
			add("collection_type = $%d", string(*filters.CollectionType))
		}
	}

	sql := `SELECT ` + collectionColumns + ` FROM collections WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY collection_date DESC, id DESC`
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	collections := []*domain.Collection{}
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		collections = append(collections, c)
	}
	return collections, rows.Err()
}

// Update corrects the amount, split and date of a collection.
// The owning loan is left untouched.
func (r *CollectionRepository) Update(ctx context.Context, c *domain.Collection) (*domain.Collection, error) {
	updated, err := scanCollection(r.db.QueryRow(ctx, updateCollectionSQL,
		c.WorkspaceID, c.ID, c.Amount, c.PrincipalPaid, c.InterestPaid, timeToPgDate(c.Date),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCollectionNotFound
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes a collection without touching the loan
func (r *CollectionRepository) Delete(ctx context.Context, workspaceID int32, id int32) error {
	tag, err := r.db.Exec(ctx, deleteCollectionSQL, workspaceID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCollectionNotFound
	}
	return nil
}

// GetTotals sums collected money for the workspace
func (r *CollectionRepository) GetTotals(ctx context.Context, workspaceID int32) (*domain.CollectionTotals, error) {
	var total, principal, interest pgtype.Numeric
	if err := r.db.QueryRow(ctx, collectionTotalsSQL, workspaceID).Scan(&total, &principal, &interest); err != nil {
		return nil, err
	}
	return &domain.CollectionTotals{
		Total:     pgNumericToDecimal(total),
		Principal: pgNumericToDecimal(principal),
		Interest:  pgNumericToDecimal(interest),
	}, nil
}

func scanCollection(row rowScanner) (*domain.Collection, error) {
	var (
		c                           domain.Collection
		collectionType, mode        string
		amount, principal, interest pgtype.Numeric
		date                        pgtype.Date
	)
	err := row.Scan(
		&c.ID, &c.WorkspaceID, &c.LoanID, &c.LoanNo, &c.PartyName, &collectionType, &mode,
		&amount, &principal, &interest, &date, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.CollectionType = domain.CollectionType(collectionType)
	c.PaymentMode = domain.PaymentMode(mode)
	c.Amount = pgNumericToDecimal(amount)
	c.PrincipalPaid = pgNumericToDecimal(principal)
	c.InterestPaid = pgNumericToDecimal(interest)
	c.Date = pgDateToTime(date)
	return &c, nil
}
