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

const loanColumns = `id, workspace_id, loan_number, party_name, father_name, date_of_birth, age,
	occupation, address, mobile, aadhar, witness_mobile, amount, advance_interest,
	loan_date, end_date, collection_type, duration, interest_rate, installment_amount,
	total_payable, principal_paid, status, photo_key, proof_key, created_at, updated_at`

const (
	insertLoanSQL = `INSERT INTO loans (workspace_id, loan_number, party_name, father_name, date_of_birth, age,
	occupation, address, mobile, aadhar, witness_mobile, amount, advance_interest,
	loan_date, end_date, collection_type, duration, interest_rate, installment_amount,
	total_payable, principal_paid, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
RETURNING ` + loanColumns

	updateLoanSQL = `UPDATE loans SET loan_number = $3, party_name = $4, father_name = $5, date_of_birth = $6,
	age = $7, occupation = $8, address = $9, mobile = $10, aadhar = $11, witness_mobile = $12,
	amount = $13, advance_interest = $14, loan_date = $15, end_date = $16, collection_type = $17,
	duration = $18, interest_rate = $19, installment_amount = $20, total_payable = $21,
	status = $22, updated_at = NOW()
WHERE workspace_id = $1 AND id = $2
RETURNING ` + loanColumns

	selectLoanByIDSQL     = `SELECT ` + loanColumns + ` FROM loans WHERE workspace_id = $1 AND id = $2`
	selectLoanByNumberSQL = `SELECT ` + loanColumns + ` FROM loans WHERE workspace_id = $1 AND loan_number = $2`
	deleteLoanSQL         = `DELETE FROM loans WHERE workspace_id = $1 AND id = $2`
	updatePhotoKeySQL     = `UPDATE loans SET photo_key = $3, updated_at = NOW() WHERE workspace_id = $1 AND id = $2`
	updateProofKeySQL     = `UPDATE loans SET proof_key = $3, updated_at = NOW() WHERE workspace_id = $1 AND id = $2`

	loanTotalsSQL = `SELECT
	COUNT(*) FILTER (WHERE status = 'active'),
	COALESCE(SUM(amount), 0),
	COALESCE(SUM(advance_interest), 0),
	COALESCE(SUM(GREATEST(amount - principal_paid, 0)) FILTER (WHERE status = 'active'), 0)
FROM loans WHERE workspace_id = $1`

	activeWorkspaceIDsSQL = `SELECT DISTINCT workspace_id FROM loans WHERE status = 'active' ORDER BY workspace_id`
)

// LoanRepository implements domain.LoanRepository using PostgreSQL
type LoanRepository struct {
	db DBPool
}

// NewLoanRepository creates a new LoanRepository
func NewLoanRepository(db DBPool) *LoanRepository {
	return &LoanRepository{db: db}
}

// Create inserts a new loan
func (r *LoanRepository) Create(ctx context.Context, loan *domain.Loan) (*domain.Loan, error) {
	row := r.db.QueryRow(ctx, insertLoanSQL,
		loan.WorkspaceID, loan.LoanNumber, loan.PartyName, loan.FatherName, timePtrToPgDate(loan.DateOfBirth), loan.Age,
		loan.Occupation, loan.Address, loan.Mobile, loan.Aadhar, loan.WitnessMobile, loan.Amount, loan.AdvanceInterest,
		timeToPgDate(loan.Date), timePtrToPgDate(loan.EndDate), string(loan.CollectionType), loan.Duration, loan.InterestRate,
		loan.InstallmentAmount, loan.TotalPayable, loan.PrincipalPaid, string(loan.Status),
	)
	created, err := scanLoan(row)
	if err != nil {
		if isPgUniqueViolation(err) {
			return nil, domain.ErrLoanNumberTaken
		}
		return nil, fmt.Errorf("insert loan: %w", err)
	}
	return created, nil
}

// GetByID retrieves a loan by its ID within a workspace
func (r *LoanRepository) GetByID(ctx context.Context, workspaceID int32, id int32) (*domain.Loan, error) {
	loan, err := scanLoan(r.db.QueryRow(ctx, selectLoanByIDSQL, workspaceID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}
	return loan, nil
}

// GetByLoanNumber retrieves a loan by its business number within a workspace
func (r *LoanRepository) GetByLoanNumber(ctx context.Context, workspaceID int32, loanNumber string) (*domain.Loan, error) {
	return getLoanByNumber(ctx, r.db, selectLoanByNumberSQL, workspaceID, loanNumber)
}

func getLoanByNumber(ctx context.Context, q querier, sql string, workspaceID int32, loanNumber string) (*domain.Loan, error) {
	loan, err := scanLoan(q.QueryRow(ctx, sql, workspaceID, loanNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}
	return loan, nil
}

// GetAllByWorkspace lists loans, newest first
func (r *LoanRepository) GetAllByWorkspace(ctx context.Context, workspaceID int32, filters *domain.LoanFilters) ([]*domain.Loan, error) {
	where := []string{"workspace_id = $1"}
	args := []any{workspaceID}
	if filters != nil {
		if filters.CollectionType != nil {
			args = append(args, string(*filters.CollectionType))
			where = append(where, fmt.Sprintf("collection_type = $%d", len(args)))
		}
		if filters.Status != nil {
			args = append(args, string(*filters.Status))
			where = append(where, fmt.Sprintf("status = $%d", len(args)))
		}
		if filters.PartyName != nil {
			args = append(args, *filters.PartyName)
			where = append(where, fmt.Sprintf("lower(party_name) = lower($%d)", len(args)))
		}
	}

	sql := `SELECT ` + loanColumns + ` FROM loans WHERE ` + strings.Join(where, " AND ") + ` ORDER BY loan_date DESC, id DESC`
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	loans := []*domain.Loan{}
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}
	return loans, rows.Err()
}

// Update overwrites the editable and derived fields of a loan.
// principal_paid is only changed by posting collections.
func (r *LoanRepository) Update(ctx context.Context, loan *domain.Loan) (*domain.Loan, error) {
	row := r.db.QueryRow(ctx, updateLoanSQL,
		loan.WorkspaceID, loan.ID, loan.LoanNumber, loan.PartyName, loan.FatherName, timePtrToPgDate(loan.DateOfBirth),
		loan.Age, loan.Occupation, loan.Address, loan.Mobile, loan.Aadhar, loan.WitnessMobile,
		loan.Amount, loan.AdvanceInterest, timeToPgDate(loan.Date), timePtrToPgDate(loan.EndDate), string(loan.CollectionType),
		loan.Duration, loan.InterestRate, loan.InstallmentAmount, loan.TotalPayable, string(loan.Status),
	)
	updated, err := scanLoan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLoanNotFound
		}
		if isPgUniqueViolation(err) {
			return nil, domain.ErrLoanNumberTaken
		}
		return nil, fmt.Errorf("update loan: %w", err)
	}
	return updated, nil
}

// UpdateDocumentKey stores the object key of an uploaded document
func (r *LoanRepository) UpdateDocumentKey(ctx context.Context, workspaceID int32, id int32, kind domain.DocumentKind, key string) error {
	var sql string
	switch kind {
	case domain.DocumentKindPhoto:
		sql = updatePhotoKeySQL
	case domain.DocumentKindProof:
		sql = updateProofKeySQL
	default:
		return domain.ErrInvalidInput
	}

	tag, err := r.db.Exec(ctx, sql, workspaceID, id, key)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLoanNotFound
	}
	return nil
}

// Delete removes a loan and, through the foreign key, its collections
func (r *LoanRepository) Delete(ctx context.Context, workspaceID int32, id int32) error {
	tag, err := r.db.Exec(ctx, deleteLoanSQL, workspaceID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLoanNotFound
	}
	return nil
}

// GetTotals aggregates loan amounts for the workspace
func (r *LoanRepository) GetTotals(ctx context.Context, workspaceID int32) (*domain.LoanTotals, error) {
	var (
		totals                        domain.LoanTotals
		disbursed, advance, remaining pgtype.Numeric
	)
	err := r.db.QueryRow(ctx, loanTotalsSQL, workspaceID).Scan(&totals.ActiveCount, &disbursed, &advance, &remaining)
	if err != nil {
		return nil, err
	}
	totals.TotalDisbursed = pgNumericToDecimal(disbursed)
	totals.TotalAdvanceInterest = pgNumericToDecimal(advance)
	totals.ActiveRemaining = pgNumericToDecimal(remaining)
	return &totals, nil
}

// GetActiveWorkspaceIDs lists the workspaces that have at least one active loan
func (r *LoanRepository) GetActiveWorkspaceIDs(ctx context.Context) ([]int32, error) {
	rows, err := r.db.Query(ctx, activeWorkspaceIDsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int32{}
	for rows.Next() {
		var id int32
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanLoan(row rowScanner) (*domain.Loan, error) {
	var (
		l                                                      domain.Loan
		dob, loanDate, endDate                                 pgtype.Date
		amount, advance, rate, installment, payable, principal pgtype.Numeric
		collectionType, status                                 string
		photoKey, proofKey                                     pgtype.Text
	)
	err := row.Scan(
		&l.ID, &l.WorkspaceID, &l.LoanNumber, &l.PartyName, &l.FatherName, &dob, &l.Age,
		&l.Occupation, &l.Address, &l.Mobile, &l.Aadhar, &l.WitnessMobile, &amount, &advance,
		&loanDate, &endDate, &collectionType, &l.Duration, &rate, &installment,
		&payable, &principal, &status, &photoKey, &proofKey, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	l.DateOfBirth = pgDateToTimePtr(dob)
	l.Date = pgDateToTime(loanDate)
	l.EndDate = pgDateToTimePtr(endDate)
	l.Amount = pgNumericToDecimal(amount)
	l.AdvanceInterest = pgNumericToDecimal(advance)
	l.InterestRate = pgNumericToDecimal(rate)
	l.InstallmentAmount = pgNumericToDecimal(installment)
	l.TotalPayable = pgNumericToDecimal(payable)
	l.PrincipalPaid = pgNumericToDecimal(principal)
	l.CollectionType = domain.CollectionType(collectionType)
	l.Status = domain.LoanStatus(status)
	l.PhotoKey = pgTextToStringPtr(photoKey)
	l.ProofKey = pgTextToStringPtr(proofKey)
	return &l, nil
}
