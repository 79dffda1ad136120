package handler

import (
	"net/http"

	"github.com/kanakku/kanakku/kanakku-backend/internal/middleware"
	"github.com/kanakku/kanakku/kanakku-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// WorkspaceHandler handles workspace-related HTTP requests
type WorkspaceHandler struct {
	workspaceService *service.WorkspaceService
}

// NewWorkspaceHandler creates a new WorkspaceHandler
func NewWorkspaceHandler(workspaceService *service.WorkspaceService) *WorkspaceHandler {
	return &WorkspaceHandler{workspaceService: workspaceService}
}

// RenameWorkspaceRequest represents the rename request body
type RenameWorkspaceRequest struct {
	Name string `json:"name"`
}

// GetWorkspace handles GET /api/v1/workspace
// @Summary The caller's workspace
// @Tags workspace
// @Produce json
// @Success 200 {object} WorkspaceResponse
// @Security BearerAuth
// @Router /workspace [get]
func (h *WorkspaceHandler) GetWorkspace(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	workspace, err := h.workspaceService.GetWorkspace(c.Request().Context(), workspaceID)
	if err != nil {
		return respondError(c, err, "Failed to get workspace")
	}
	return c.JSON(http.StatusOK, toWorkspaceResponse(workspace))
}

// RenameWorkspace handles PUT /api/v1/workspace
// @Summary Rename the workspace
// @Tags workspace
// @Accept json
// @Produce json
// @Param workspace body RenameWorkspaceRequest true "New name"
// @Success 200 {object} WorkspaceResponse
// @Failure 400 {object} ProblemDetails
// @Security BearerAuth
// @Router /workspace [put]
func (h *WorkspaceHandler) RenameWorkspace(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	var req RenameWorkspaceRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	workspace, err := h.workspaceService.RenameWorkspace(c.Request().Context(), workspaceID, req.Name)
	if err != nil {
		return respondError(c, err, "Failed to rename workspace")
	}
	return c.JSON(http.StatusOK, toWorkspaceResponse(workspace))
}

// ClearAllData handles DELETE /api/v1/workspace/clear
// @Summary Delete all business data
// @Description Removes every loan, collection, investment and expense. The workspace itself is kept.
// @Tags workspace
// @Success 204
// @Failure 404 {object} ProblemDetails
// @Security BearerAuth
// @Router /workspace/clear [delete]
func (h *WorkspaceHandler) ClearAllData(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	if err := h.workspaceService.ClearAllData(c.Request().Context(), workspaceID); err != nil {
		return respondError(c, err, "Failed to clear workspace data")
	}
	return c.NoContent(http.StatusNoContent)
}
