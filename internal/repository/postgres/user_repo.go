package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kanakku/kanakku/kanakku-backend/internal/domain"
)

const userColumns = `id, auth0_id, email, name, picture_url, created_at, updated_at`

const (
	selectUserByAuth0IDSQL = `SELECT ` + userColumns + ` FROM users WHERE auth0_id = $1`

	// Existing users keep their row; email, name and picture follow the latest login.
	upsertUserSQL = `INSERT INTO users (auth0_id, email, name, picture_url)
VALUES ($1, $2, $3, $4)
ON CONFLICT (auth0_id) DO UPDATE SET
	email = EXCLUDED.email,
	name = COALESCE(EXCLUDED.name, users.name),
	picture_url = COALESCE(EXCLUDED.picture_url, users.picture_url),
	updated_at = NOW()
RETURNING ` + userColumns
)

// UserRepository implements domain.UserRepository using PostgreSQL
type UserRepository struct {
	db DBPool
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db DBPool) *UserRepository {
	return &UserRepository{db: db}
}

// GetByAuth0ID retrieves a user by their Auth0 ID
func (r *UserRepository) GetByAuth0ID(ctx context.Context, auth0ID string) (*domain.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, selectUserByAuth0IDSQL, auth0ID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) UpsertFromLogin(ctx context.Context, profile domain.LoginProfile) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, upsertUserSQL,
		profile.Auth0ID, profile.Email, stringPtrToPgText(profile.NamePtr()), stringPtrToPgText(profile.PicturePtr()),
	))
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		u          domain.User
		id         pgtype.UUID
		name       pgtype.Text
		pictureURL pgtype.Text
	)
	if err := row.Scan(&id, &u.Auth0ID, &u.Email, &name, &pictureURL, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.ID = uuid.UUID(id.Bytes)
	u.Name = pgTextToStringPtr(name)
	u.PictureURL = pgTextToStringPtr(pictureURL)
	return &u, nil
}
