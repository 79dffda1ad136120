package websocket

import (
	"context"
	"errors"

	"github.com/auth0/go-jwt-middleware/v2/validator"
)

// ErrInvalidToken is returned when JWT validation fails
var ErrInvalidToken = errors.New("invalid token")

// ErrWorkspaceNotFound is returned when workspace lookup fails
var ErrWorkspaceNotFound = errors.New("workspace not found")

// WorkspaceLookup provides workspace lookup by Auth0 ID
type WorkspaceLookup interface {
	GetWorkspaceByAuth0ID(ctx context.Context, auth0ID string) (workspaceID int32, err error)
}

// TokenValidator validates a raw JWT. *validator.Validator satisfies it.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (interface{}, error)
}

// Auth0JWTValidator resolves the access token of a WebSocket upgrade to a workspace
type Auth0JWTValidator struct {
	validator       TokenValidator
	workspaceLookup WorkspaceLookup
}

// NewAuth0JWTValidator wraps the API's JWT validator for WebSocket use
func NewAuth0JWTValidator(v TokenValidator, workspaceLookup WorkspaceLookup) *Auth0JWTValidator {
	return &Auth0JWTValidator{
		validator:       v,
		workspaceLookup: workspaceLookup,
	}
}

// ValidateToken validates a JWT token and returns the associated workspace ID
func (v *Auth0JWTValidator) ValidateToken(ctx context.Context, token string) (workspaceID int32, err error) {
	claims, err := v.validator.ValidateToken(ctx, token)
	if err != nil {
		return 0, ErrInvalidToken
	}

	validatedClaims, ok := claims.(*validator.ValidatedClaims)
	if !ok {
		return 0, ErrInvalidToken
	}

	wsID, err := v.workspaceLookup.GetWorkspaceByAuth0ID(ctx, validatedClaims.RegisteredClaims.Subject)
	if err != nil || wsID == 0 {
		return 0, ErrWorkspaceNotFound
	}

	return wsID, nil
}
