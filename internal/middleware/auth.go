package middleware

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/kanakku/kanakku/kanakku-backend/internal/domain"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// CustomClaims contains the custom claims from Auth0 JWT
type CustomClaims struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// Validate implements validator.CustomClaims
func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// ClaimsKey is the context key for JWT claims
	ClaimsKey contextKey = "claims"
	// SessionKey is the context key for the resolved *Session
	SessionKey contextKey = "session"
)

// Session is the authenticated caller of a request. WorkspaceID is 0 until
// the user has been provisioned through the auth callback.
type Session struct {
	Auth0ID     string
	WorkspaceID int32
	Email       string
	Name        string
}

// WorkspaceProvider provides workspace lookup by Auth0 ID
type WorkspaceProvider interface {
	GetWorkspaceByAuth0ID(ctx context.Context, auth0ID string) (workspaceID int32, err error)
}

// TokenValidator validates a raw bearer token. *validator.Validator satisfies it.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (interface{}, error)
}

// AuthMiddleware provides JWT validation middleware
type AuthMiddleware struct {
	validator         TokenValidator
	workspaceProvider WorkspaceProvider
}

// NewAuthMiddleware creates a new AuthMiddleware with Auth0 configuration
func NewAuthMiddleware(domain, audience string, workspaceProvider WorkspaceProvider) (*AuthMiddleware, error) {
	jwtValidator, err := NewAuth0Validator(domain, audience)
	if err != nil {
		return nil, err
	}
	return NewAuthMiddlewareWithValidator(jwtValidator, workspaceProvider), nil
}

// NewAuthMiddlewareWithValidator creates an AuthMiddleware around an existing validator
func NewAuthMiddlewareWithValidator(v TokenValidator, workspaceProvider WorkspaceProvider) *AuthMiddleware {
	return &AuthMiddleware{
		validator:         v,
		workspaceProvider: workspaceProvider,
	}
}

// NewAuth0Validator builds an RS256 validator backed by the tenant's JWKS
func NewAuth0Validator(domain, audience string) (*validator.Validator, error) {
	issuerURL, err := url.Parse("https://" + domain + "/")
	if err != nil {
		return nil, err
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	return validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{audience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &CustomClaims{}
		}),
		validator.WithAllowedClockSkew(time.Minute),
	)
}

// Authenticate returns an Echo middleware that validates JWT tokens and
// stores the caller's Session in the request context
func (m *AuthMiddleware) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return writeProblem(c, problemUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				return writeProblem(c, problemUnauthorized, "invalid authorization header format")
			}

			ctx := c.Request().Context()
			claims, err := m.validator.ValidateToken(ctx, parts[1])
			if err != nil {
				log.Debug().Err(err).Msg("Token validation failed")
				return writeProblem(c, problemUnauthorized, "invalid token")
			}

			validatedClaims, ok := claims.(*validator.ValidatedClaims)
			if !ok {
				return writeProblem(c, problemUnauthorized, "invalid claims")
			}

			session := &Session{Auth0ID: validatedClaims.RegisteredClaims.Subject}
			if custom, ok := validatedClaims.CustomClaims.(*CustomClaims); ok {
				session.Email = custom.Email
				session.Name = custom.Name
			}

			if m.workspaceProvider != nil {
				workspaceID, err := m.workspaceProvider.GetWorkspaceByAuth0ID(ctx, session.Auth0ID)
				switch {
				case err == nil:
					session.WorkspaceID = workspaceID
				case errors.Is(err, domain.ErrWorkspaceNotFound):
					// not provisioned yet; RequireWorkspace rejects business routes
				default:
					log.Error().Err(err).Str("auth0_id", session.Auth0ID).Msg("Workspace lookup failed")
					return writeProblem(c, problemInternal, "failed to resolve workspace")
				}
			}

			ctx = context.WithValue(ctx, ClaimsKey, validatedClaims)
			SetSession(c, ctx, session)

			return next(c)
		}
	}
}

// RequireWorkspace rejects sessions that have no workspace yet
func RequireWorkspace() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if GetWorkspaceID(c) == 0 {
				return writeProblem(c, problemUnauthorized, "workspace not found")
			}
			return next(c)
		}
	}
}

// SetSession stores the session on the request, deriving from ctx
func SetSession(c echo.Context, ctx context.Context, session *Session) {
	c.SetRequest(c.Request().WithContext(context.WithValue(ctx, SessionKey, session)))
}

// GetSession returns the request's session, or nil when unauthenticated
func GetSession(c echo.Context) *Session {
	if s, ok := c.Request().Context().Value(SessionKey).(*Session); ok {
		return s
	}
	return nil
}

// GetAuth0ID extracts the Auth0 user ID from the session
func GetAuth0ID(c echo.Context) string {
	if s := GetSession(c); s != nil {
		return s.Auth0ID
	}
	return ""
}

// GetWorkspaceID extracts the workspace ID from the session
func GetWorkspaceID(c echo.Context) int32 {
	if s := GetSession(c); s != nil {
		return s.WorkspaceID
	}
	return 0
}

// GetClaims extracts the validated claims from the context
func GetClaims(c echo.Context) *validator.ValidatedClaims {
	if claims, ok := c.Request().Context().Value(ClaimsKey).(*validator.ValidatedClaims); ok {
		return claims
	}
	return nil
}

// GetCustomClaims extracts the custom claims from the context
func GetCustomClaims(c echo.Context) *CustomClaims {
	claims := GetClaims(c)
	if claims == nil {
		return nil
	}
	if custom, ok := claims.CustomClaims.(*CustomClaims); ok {
		return custom
	}
	return nil
}
