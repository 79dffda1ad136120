package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/kanakku/kanakku/kanakku-backend/internal/domain"
	"github.com/rs/zerolog/log"
)

// DefaultWorkspaceName is given to the workspace created on first login
const DefaultWorkspaceName = "My Business"

// AuthService handles authentication-related business logic
type AuthService struct {
	userRepo      domain.UserRepository
	workspaceRepo domain.WorkspaceRepository
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo domain.UserRepository, workspaceRepo domain.WorkspaceRepository) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		workspaceRepo: workspaceRepo,
	}
}

// AuthResult represents the result of an authentication operation
type AuthResult struct {
	User      *domain.User
	Workspace *domain.Workspace
	IsNewUser bool
}

// AuthenticateUser runs after every Auth0 login. The first login of a user
// also provisions their workspace.
func (s *AuthService) AuthenticateUser(ctx context.Context, profile domain.LoginProfile) (*AuthResult, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	auth0ID := profile.Auth0ID

	user, err := s.userRepo.UpsertFromLogin(ctx, profile)
	if err != nil {
		log.Error().Err(err).Str("auth0_id", auth0ID).Msg("Failed to create or get user")
		return nil, err
	}

	workspace, err := s.workspaceRepo.GetByUserAuth0ID(ctx, auth0ID)
	if err == nil {
		log.Info().Str("user_id", user.ID.String()).Msg("Existing user authenticated")
		return &AuthResult{User: user, Workspace: workspace}, nil
	}
	if !errors.Is(err, domain.ErrWorkspaceNotFound) {
		log.Error().Err(err).Str("user_id", user.ID.String()).Msg("Failed to get workspace")
		return nil, err
	}

	workspace, err = s.createDefaultWorkspace(ctx, user.ID)
	if errors.Is(err, domain.ErrAlreadyExists) {
		// a concurrent callback provisioned it first
		workspace, err = s.workspaceRepo.GetByUserAuth0ID(ctx, auth0ID)
		if err != nil {
			return nil, err
		}
		return &AuthResult{User: user, Workspace: workspace}, nil
	}
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID.String()).Msg("Failed to create default workspace")
		return nil, err
	}

	log.Info().
		Str("user_id", user.ID.String()).
		Int32("workspace_id", workspace.ID).
		Msg("Created new user with default workspace")
	return &AuthResult{User: user, Workspace: workspace, IsNewUser: true}, nil
}

// GetUserByAuth0ID retrieves a user by their Auth0 ID
func (s *AuthService) GetUserByAuth0ID(ctx context.Context, auth0ID string) (*domain.User, error) {
	return s.userRepo.GetByAuth0ID(ctx, auth0ID)
}

// GetWorkspace retrieves a user's workspace by their Auth0 ID
func (s *AuthService) GetWorkspace(ctx context.Context, auth0ID string) (*domain.Workspace, error) {
	return s.workspaceRepo.GetByUserAuth0ID(ctx, auth0ID)
}

// GetWorkspaceByAuth0ID resolves the caller's workspace ID. It satisfies
// middleware.WorkspaceProvider and websocket.WorkspaceLookup.
func (s *AuthService) GetWorkspaceByAuth0ID(ctx context.Context, auth0ID string) (int32, error) {
	workspace, err := s.workspaceRepo.GetByUserAuth0ID(ctx, auth0ID)
	if err != nil {
		return 0, err
	}
	return workspace.ID, nil
}

// GetWorkspaceByID retrieves a workspace by its ID
func (s *AuthService) GetWorkspaceByID(ctx context.Context, id int32) (*domain.Workspace, error) {
	return s.workspaceRepo.GetByID(ctx, id)
}

func (s *AuthService) createDefaultWorkspace(ctx context.Context, userID uuid.UUID) (*domain.Workspace, error) {
	workspace := &domain.Workspace{
		UserID: userID,
		Name:   DefaultWorkspaceName,
	}
	return s.workspaceRepo.Create(ctx, workspace)
}
