package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrWorkspaceNameRequired = errors.New("workspace name is required")

// Workspace is one lending business. Every loan, collection, investment
// and expense belongs to exactly one workspace.
type Workspace struct {
	ID        int32     `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// WorkspaceRepository defines the interface for workspace persistence operations
type WorkspaceRepository interface {
	GetByID(ctx context.Context, id int32) (*Workspace, error)
	GetByUserAuth0ID(ctx context.Context, auth0ID string) (*Workspace, error)
	Create(ctx context.Context, workspace *Workspace) (*Workspace, error)
	UpdateName(ctx context.Context, id int32, name string) (*Workspace, error)
	// ClearAllData removes every loan, collection, investment and expense
	// but keeps the workspace itself
	ClearAllData(ctx context.Context, id int32) error
}

// ValidateWorkspaceName trims and checks a workspace name
func ValidateWorkspaceName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrWorkspaceNameRequired
	}
	if len(name) > MaxTitleLength {
		return "", ErrNameTooLong
	}
	return name, nil
}
