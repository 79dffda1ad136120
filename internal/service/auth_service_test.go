package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/kanakku/kanakku/kanakku-backend/internal/domain"
	"github.com/kanakku/kanakku/kanakku-backend/internal/testutil"
)

func TestAuthenticateUser_NewUser(t *testing.T) {
	userRepo := testutil.NewMockUserRepository()
	workspaceRepo := testutil.NewMockWorkspaceRepository()
	service := NewAuthService(userRepo, workspaceRepo)

	auth0ID := "auth0|12345"
	email := "test@example.com"
	name := "Test User"

	result, err := service.AuthenticateUser(context.Background(), domain.LoginProfile{Auth0ID: auth0ID, Email: email, Name: name})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !result.IsNewUser {
		t.Error("Expected IsNewUser to be true for new user")
	}

	if result.User.Auth0ID != auth0ID {
		t.Errorf("Expected auth0ID %s, got %s", auth0ID, result.User.Auth0ID)
	}

	if result.User.Email != email {
		t.Errorf("Expected email %s, got %s", email, result.User.Email)
	}

	if result.Workspace == nil {
		t.Fatal("Expected workspace, got nil")
	}

	if result.Workspace.Name != DefaultWorkspaceName {
		t.Errorf("Expected workspace name %q, got %s", DefaultWorkspaceName, result.Workspace.Name)
	}

	if result.Workspace.UserID != result.User.ID {
		t.Error("Expected workspace to belong to the new user")
	}
}

func TestAuthenticateUser_ExistingUser(t *testing.T) {
	userRepo := testutil.NewMockUserRepository()
	workspaceRepo := testutil.NewMockWorkspaceRepository()
	service := NewAuthService(userRepo, workspaceRepo)

	auth0ID := "auth0|existing"
	name := "Existing User"

	existingUser := &domain.User{
		ID:      uuid.New(),
		Auth0ID: auth0ID,
		Email:   "existing@example.com",
		Name:    &name,
	}
	userRepo.AddUser(existingUser)
	workspaceRepo.AddWorkspace(&domain.Workspace{ID: 3, UserID: existingUser.ID, Name: "Sri Finance"}, auth0ID)

	result, err := service.AuthenticateUser(context.Background(), domain.LoginProfile{Auth0ID: auth0ID, Email: existingUser.Email})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if result.IsNewUser {
		t.Error("Expected IsNewUser to be false for existing user")
	}

	if result.Workspace.ID != 3 || result.Workspace.Name != "Sri Finance" {
		t.Errorf("Expected existing workspace, got %+v", result.Workspace)
	}
	if result.User.Name == nil || *result.User.Name != name {
		t.Error("Expected a login without a name claim to keep the stored name")
	}
}

func TestAuthenticateUser_MissingEmail(t *testing.T) {
	userRepo := testutil.NewMockUserRepository()
	workspaceRepo := testutil.NewMockWorkspaceRepository()
	service := NewAuthService(userRepo, workspaceRepo)

	_, err := service.AuthenticateUser(context.Background(), domain.LoginProfile{Auth0ID: "auth0|x", Email: "  "})
	if !errors.Is(err, domain.ErrEmailRequired) {
		t.Fatalf("Expected ErrEmailRequired, got %v", err)
	}
	if len(userRepo.Users) != 0 {
		t.Error("Expected no user to be stored")
	}
}

func TestUser_DisplayName(t *testing.T) {
	blank := "  "
	named := "Kavya"
	tests := []struct {
		user domain.User
		want string
	}{
		{domain.User{Email: "kavya@example.com", Name: &named}, "Kavya"},
		{domain.User{Email: "kavya@example.com", Name: &blank}, "kavya"},
		{domain.User{Email: "kavya@example.com"}, "kavya"},
		{domain.User{Email: "no-at-sign"}, "no-at-sign"},
	}
	for _, tt := range tests {
		if got := tt.user.DisplayName(); got != tt.want {
			t.Errorf("DisplayName() = %q, want %q", got, tt.want)
		}
	}
}

// racingWorkspaceRepo simulates another callback inserting the workspace
// between the lookup and the insert
type racingWorkspaceRepo struct {
	*testutil.MockWorkspaceRepository
	auth0ID string
}

func (r *racingWorkspaceRepo) Create(ctx context.Context, workspace *domain.Workspace) (*domain.Workspace, error) {
	r.AddWorkspace(&domain.Workspace{ID: 9, UserID: workspace.UserID, Name: workspace.Name}, r.auth0ID)
	return nil, domain.ErrAlreadyExists
}

func TestAuthenticateUser_ConcurrentProvisioning(t *testing.T) {
	userRepo := testutil.NewMockUserRepository()
	auth0ID := "auth0|race"
	workspaceRepo := &racingWorkspaceRepo{MockWorkspaceRepository: testutil.NewMockWorkspaceRepository(), auth0ID: auth0ID}
	service := NewAuthService(userRepo, workspaceRepo)

	result, err := service.AuthenticateUser(context.Background(), domain.LoginProfile{Auth0ID: auth0ID, Email: "race@example.com"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.Workspace.ID != 9 {
		t.Errorf("Expected the concurrently created workspace 9, got %d", result.Workspace.ID)
	}
	if result.IsNewUser {
		t.Error("Expected IsNewUser to be false when another request provisioned the workspace")
	}
}

func TestAuthenticateUser_WorkspaceLookupError(t *testing.T) {
	userRepo := testutil.NewMockUserRepository()
	workspaceRepo := testutil.NewMockWorkspaceRepository()
	workspaceRepo.LookupErr = errors.New("connection reset")
	service := NewAuthService(userRepo, workspaceRepo)

	if _, err := service.AuthenticateUser(context.Background(), domain.LoginProfile{Auth0ID: "auth0|x", Email: "x@example.com"}); err == nil {
		t.Error("Expected error, got nil")
	}
	if len(workspaceRepo.Workspaces) != 0 {
		t.Error("Expected no workspace to be created on lookup failure")
	}
}

func TestAuthenticateUser_UserRepoError(t *testing.T) {
	userRepo := testutil.NewMockUserRepository()
	workspaceRepo := testutil.NewMockWorkspaceRepository()
	service := NewAuthService(userRepo, workspaceRepo)

	userRepo.UpsertFn = func(profile domain.LoginProfile) (*domain.User, error) {
		return nil, errors.New("database unavailable")
	}

	if _, err := service.AuthenticateUser(context.Background(), domain.LoginProfile{Auth0ID: "auth0|x", Email: "x@example.com"}); err == nil {
		t.Error("Expected error, got nil")
	}
}

func TestGetUserByAuth0ID(t *testing.T) {
	userRepo := testutil.NewMockUserRepository()
	workspaceRepo := testutil.NewMockWorkspaceRepository()
	service := NewAuthService(userRepo, workspaceRepo)

	auth0ID := "auth0|findme"
	userRepo.AddUser(&domain.User{ID: uuid.New(), Auth0ID: auth0ID, Email: "findme@example.com"})

	found, err := service.GetUserByAuth0ID(context.Background(), auth0ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if found.Auth0ID != auth0ID {
		t.Errorf("Expected auth0ID %s, got %s", auth0ID, found.Auth0ID)
	}

	_, err = service.GetUserByAuth0ID(context.Background(), "auth0|notexist")
	if err != domain.ErrUserNotFound {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}
}

func TestGetWorkspaceByAuth0ID(t *testing.T) {
	userRepo := testutil.NewMockUserRepository()
	workspaceRepo := testutil.NewMockWorkspaceRepository()
	service := NewAuthService(userRepo, workspaceRepo)

	auth0ID := "auth0|workspace-test"
	workspaceRepo.AddWorkspace(&domain.Workspace{ID: 4, Name: "Test Workspace"}, auth0ID)

	t.Run("returns workspace id for valid auth0_id", func(t *testing.T) {
		id, err := service.GetWorkspaceByAuth0ID(context.Background(), auth0ID)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if id != 4 {
			t.Errorf("Expected workspace ID 4, got %d", id)
		}
	})

	t.Run("returns error for unknown auth0_id", func(t *testing.T) {
		id, err := service.GetWorkspaceByAuth0ID(context.Background(), "auth0|unknown")
		if err != domain.ErrWorkspaceNotFound {
			t.Errorf("Expected ErrWorkspaceNotFound, got %v", err)
		}
		if id != 0 {
			t.Errorf("Expected workspace ID 0, got %d", id)
		}
	})

	t.Run("returns full workspace", func(t *testing.T) {
		ws, err := service.GetWorkspace(context.Background(), auth0ID)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if ws.Name != "Test Workspace" {
			t.Errorf("Expected workspace name 'Test Workspace', got %s", ws.Name)
		}
	})
}
