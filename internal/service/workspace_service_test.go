package service

import (
	"context"
	"strings"
	"testing"

	"github.com/kanakku/kanakku/kanakku-backend/internal/domain"
	"github.com/kanakku/kanakku/kanakku-backend/internal/testutil"
)

func TestRenameWorkspace(t *testing.T) {
	repo := testutil.NewMockWorkspaceRepository()
	repo.AddWorkspace(&domain.Workspace{ID: 1, Name: DefaultWorkspaceName}, "auth0|1")
	svc := NewWorkspaceService(repo)

	ws, err := svc.RenameWorkspace(context.Background(), 1, "  Sri Finance ")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if ws.Name != "Sri Finance" {
		t.Errorf("Expected trimmed name, got %q", ws.Name)
	}

	if _, err := svc.RenameWorkspace(context.Background(), 1, " "); err != domain.ErrWorkspaceNameRequired {
		t.Errorf("Expected ErrWorkspaceNameRequired, got %v", err)
	}
	if _, err := svc.RenameWorkspace(context.Background(), 1, strings.Repeat("a", 201)); err != domain.ErrNameTooLong {
		t.Errorf("Expected ErrNameTooLong, got %v", err)
	}
	if _, err := svc.RenameWorkspace(context.Background(), 2, "Other"); err != domain.ErrWorkspaceNotFound {
		t.Errorf("Expected ErrWorkspaceNotFound, got %v", err)
	}
}

func TestClearAllData(t *testing.T) {
	repo := testutil.NewMockWorkspaceRepository()
	repo.AddWorkspace(&domain.Workspace{ID: 1, Name: DefaultWorkspaceName}, "auth0|1")
	svc := NewWorkspaceService(repo)

	if err := svc.ClearAllData(context.Background(), 1); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(repo.Cleared) != 1 || repo.Cleared[0] != 1 {
		t.Errorf("Expected workspace 1 cleared, got %v", repo.Cleared)
	}

	if err := svc.ClearAllData(context.Background(), 9); err != domain.ErrWorkspaceNotFound {
		t.Errorf("Expected ErrWorkspaceNotFound, got %v", err)
	}
}
