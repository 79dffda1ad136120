package service

import (
	"context"

	"github.com/kanakku/kanakku/kanakku-backend/internal/domain"
	"github.com/rs/zerolog/log"
)

// WorkspaceService handles workspace-related business logic
type WorkspaceService struct {
	workspaceRepo domain.WorkspaceRepository
}

// NewWorkspaceService creates a new WorkspaceService
func NewWorkspaceService(workspaceRepo domain.WorkspaceRepository) *WorkspaceService {
	return &WorkspaceService{workspaceRepo: workspaceRepo}
}

// GetWorkspace retrieves a workspace by ID
func (s *WorkspaceService) GetWorkspace(ctx context.Context, workspaceID int32) (*domain.Workspace, error) {
	return s.workspaceRepo.GetByID(ctx, workspaceID)
}

// RenameWorkspace changes the business name shown to the user
func (s *WorkspaceService) RenameWorkspace(ctx context.Context, workspaceID int32, name string) (*domain.Workspace, error) {
	name, err := domain.ValidateWorkspaceName(name)
	if err != nil {
		return nil, err
	}
	return s.workspaceRepo.UpdateName(ctx, workspaceID, name)
}

// ClearAllData deletes all data for a workspace (but keeps the workspace itself)
// This is a destructive operation that removes all loans, collections, investments and expenses.
func (s *WorkspaceService) ClearAllData(ctx context.Context, workspaceID int32) error {
	if _, err := s.workspaceRepo.GetByID(ctx, workspaceID); err != nil {
		return err
	}
	if err := s.workspaceRepo.ClearAllData(ctx, workspaceID); err != nil {
		return err
	}
	log.Warn().Int32("workspace_id", workspaceID).Msg("Workspace data cleared")
	return nil
}
