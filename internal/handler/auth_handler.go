package handler

import (
	"errors"
	"net/http"

	"github.com/kanakku/kanakku/kanakku-backend/internal/domain"
	"github.com/kanakku/kanakku/kanakku-backend/internal/middleware"
	"github.com/kanakku/kanakku/kanakku-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// AuthCallbackResponse represents the response from the auth callback
type AuthCallbackResponse struct {
	User      UserResponse      `json:"user"`
	Workspace WorkspaceResponse `json:"workspace"`
	IsNewUser bool              `json:"isNewUser"`
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	Name        *string `json:"name"`
	DisplayName string  `json:"displayName"`
	PictureURL  *string `json:"pictureUrl"`
}

// WorkspaceResponse represents a workspace in API responses
type WorkspaceResponse struct {
	ID   int32  `json:"id"`
	Name string `json:"name"`
}

// Callback handles POST /api/v1/auth/callback
// @Summary Provision the caller
// @Description Called by the frontend after Auth0 login. Creates the user and a default workspace on first login.
// @Tags auth
// @Produce json
// @Success 200 {object} AuthCallbackResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Security BearerAuth
// @Router /auth/callback [post]
func (h *AuthHandler) Callback(c echo.Context) error {
	auth0ID := middleware.GetAuth0ID(c)
	if auth0ID == "" {
		log.Error().Msg("No Auth0 ID in context - middleware may not be configured")
		return NewUnauthorizedError(c, "Authentication required")
	}

	profile := domain.LoginProfile{Auth0ID: auth0ID}
	if claims := middleware.GetCustomClaims(c); claims != nil {
		profile.Email = claims.Email
		profile.Name = claims.Name
		profile.Picture = claims.Picture
	}

	result, err := h.authService.AuthenticateUser(c.Request().Context(), profile)
	if errors.Is(err, domain.ErrEmailRequired) {
		log.Warn().Str("auth0_id", auth0ID).Msg("No email in JWT claims")
		return NewValidationError(c, "Email is required for authentication", []ValidationError{
			{Field: "email", Message: "Email claim is missing from token"},
		})
	}
	if err != nil {
		log.Error().Err(err).Str("auth0_id", auth0ID).Msg("Failed to authenticate user")
		return NewInternalError(c, "Failed to authenticate user")
	}

	return c.JSON(http.StatusOK, AuthCallbackResponse{
		User:      toUserResponse(result.User),
		Workspace: toWorkspaceResponse(result.Workspace),
		IsNewUser: result.IsNewUser,
	})
}

// Me handles GET /api/v1/auth/me
// @Summary The authenticated user and workspace
// @Tags auth
// @Produce json
// @Success 200 {object} AuthCallbackResponse
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Security BearerAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	auth0ID := middleware.GetAuth0ID(c)
	if auth0ID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	ctx := c.Request().Context()
	user, err := h.authService.GetUserByAuth0ID(ctx, auth0ID)
	if err != nil {
		return respondError(c, err, "Failed to get user")
	}

	var workspace *domain.Workspace
	if workspaceID := middleware.GetWorkspaceID(c); workspaceID != 0 {
		workspace, err = h.authService.GetWorkspaceByID(ctx, workspaceID)
	} else {
		workspace, err = h.authService.GetWorkspace(ctx, auth0ID)
	}
	if err != nil {
		return respondError(c, err, "Failed to get workspace")
	}

	return c.JSON(http.StatusOK, AuthCallbackResponse{
		User:      toUserResponse(user),
		Workspace: toWorkspaceResponse(workspace),
	})
}

// LogoutResponse represents the response from logout
type LogoutResponse struct {
	Message string `json:"message"`
}

// Logout handles POST /api/v1/auth/logout
// @Summary Log out
// @Description Auth0 terminates the session; this only records the event.
// @Tags auth
// @Produce json
// @Success 200 {object} LogoutResponse
// @Security BearerAuth
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	auth0ID := middleware.GetAuth0ID(c)
	if auth0ID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	log.Info().Str("auth0_id", auth0ID).Msg("User logged out")

	return c.JSON(http.StatusOK, LogoutResponse{
		Message: "Logged out successfully",
	})
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:          u.ID.String(),
		Email:       u.Email,
		Name:        u.Name,
		DisplayName: u.DisplayName(),
		PictureURL:  u.PictureURL,
	}
}

func toWorkspaceResponse(w *domain.Workspace) WorkspaceResponse {
	return WorkspaceResponse{ID: w.ID, Name: w.Name}
}
