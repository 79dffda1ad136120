package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kanakku/kanakku/kanakku-backend/internal/domain"
)

const workspaceColumns = `w.id, w.user_id, w.name, w.created_at, w.updated_at`

const (
	selectWorkspaceByIDSQL = `SELECT ` + workspaceColumns + ` FROM workspaces w WHERE w.id = $1`

	selectWorkspaceByAuth0IDSQL = `SELECT ` + workspaceColumns + ` FROM workspaces w
JOIN users u ON u.id = w.user_id
WHERE u.auth0_id = $1`

	insertWorkspaceSQL = `INSERT INTO workspaces AS w (user_id, name) VALUES ($1, $2)
RETURNING ` + workspaceColumns

	updateWorkspaceNameSQL = `UPDATE workspaces AS w SET name = $2, updated_at = NOW() WHERE w.id = $1
RETURNING ` + workspaceColumns
)

// clearWorkspaceSQL deletes child rows before parents
var clearWorkspaceSQL = []string{
	`DELETE FROM collections WHERE workspace_id = $1`,
	`DELETE FROM loans WHERE workspace_id = $1`,
	`DELETE FROM investments WHERE workspace_id = $1`,
	`DELETE FROM expenses WHERE workspace_id = $1`,
}

// WorkspaceRepository implements domain.WorkspaceRepository using PostgreSQL
type WorkspaceRepository struct {
	db DBPool
}

// NewWorkspaceRepository creates a new WorkspaceRepository
func NewWorkspaceRepository(db DBPool) *WorkspaceRepository {
	return &WorkspaceRepository{db: db}
}

// GetByID retrieves a workspace by its ID
func (r *WorkspaceRepository) GetByID(ctx context.Context, id int32) (*domain.Workspace, error) {
	return r.get(ctx, selectWorkspaceByIDSQL, id)
}

// GetByUserAuth0ID retrieves a workspace by user's Auth0 ID
func (r *WorkspaceRepository) GetByUserAuth0ID(ctx context.Context, auth0ID string) (*domain.Workspace, error) {
	return r.get(ctx, selectWorkspaceByAuth0IDSQL, auth0ID)
}

func (r *WorkspaceRepository) get(ctx context.Context, sql string, arg any) (*domain.Workspace, error) {
	workspace, err := scanWorkspace(r.db.QueryRow(ctx, sql, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWorkspaceNotFound
		}
		return nil, err
	}
	return workspace, nil
}

// Create creates a new workspace
func (r *WorkspaceRepository) Create(ctx context.Context, workspace *domain.Workspace) (*domain.Workspace, error) {
	created, err := scanWorkspace(r.db.QueryRow(ctx, insertWorkspaceSQL,
		pgtype.UUID{Bytes: workspace.UserID, Valid: true}, workspace.Name,
	))
	if err != nil {
		if isPgUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	return created, nil
}

// UpdateName renames a workspace
func (r *WorkspaceRepository) UpdateName(ctx context.Context, id int32, name string) (*domain.Workspace, error) {
	workspace, err := scanWorkspace(r.db.QueryRow(ctx, updateWorkspaceNameSQL, id, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWorkspaceNotFound
		}
		return nil, err
	}
	return workspace, nil
}

// ClearAllData deletes all business data of a workspace in one transaction
func (r *WorkspaceRepository) ClearAllData(ctx context.Context, id int32) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		for _, sql := range clearWorkspaceSQL {
			if _, err := tx.Exec(ctx, sql, id); err != nil {
				return err
			}
		}
		return nil
	})
}

func scanWorkspace(row rowScanner) (*domain.Workspace, error) {
	var (
		w      domain.Workspace
		userID pgtype.UUID
	)
	if err := row.Scan(&w.ID, &userID, &w.Name, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}
	w.UserID = uuid.UUID(userID.Bytes)
	return &w, nil
}
