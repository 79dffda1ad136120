package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrEmailRequired = errors.New("email claim is required")

// User is a lender's staff login. Each user owns exactly one workspace.
type User struct {
	ID         uuid.UUID `json:"id"`
	Auth0ID    string    `json:"auth0Id"`
	Email      string    `json:"email"`
	Name       *string   `json:"name"`
	PictureURL *string   `json:"pictureUrl"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// DisplayName is the profile name, or the local part of the email when the
// identity provider sent none
func (u *User) DisplayName() string {
	if u.Name != nil && strings.TrimSpace(*u.Name) != "" {
		return strings.TrimSpace(*u.Name)
	}
	if at := strings.IndexByte(u.Email, '@'); at > 0 {
		return u.Email[:at]
	}
	return u.Email
}

// LoginProfile is what an Auth0 access token tells us about the caller
type LoginProfile struct {
	Auth0ID string
	Email   string
	Name    string
	Picture string
}

func (p LoginProfile) Validate() error {
	if strings.TrimSpace(p.Email) == "" {
		return ErrEmailRequired
	}
	return nil
}

// NamePtr and PicturePtr return nil for blank claims so the upsert keeps
// whatever was stored before
func (p LoginProfile) NamePtr() *string {
	return optionalString(p.Name)
}

func (p LoginProfile) PicturePtr() *string {
	return optionalString(p.Picture)
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

type UserRepository interface {
	GetByAuth0ID(ctx context.Context, auth0ID string) (*User, error)
	// UpsertFromLogin inserts the user on first login and refreshes the
	// profile fields on later ones
	UpsertFromLogin(ctx context.Context, profile LoginProfile) (*User, error)
}
