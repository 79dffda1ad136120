package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/kanakku/kanakku/kanakku-backend/internal/domain"
	"github.com/labstack/echo/v4"
)

// fakeValidator accepts the token "good" and rejects everything else
type fakeValidator struct {
	subject string
	email   string
}

func (f *fakeValidator) ValidateToken(ctx context.Context, token string) (interface{}, error) {
	if token != "good" {
		return nil, errors.New("bad signature")
	}
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{Subject: f.subject},
		CustomClaims:     &CustomClaims{Email: f.email, Name: "Asha"},
	}, nil
}

// MockWorkspaceProvider implements WorkspaceProvider for testing
type MockWorkspaceProvider struct {
	workspaceID int32
	err         error
	calls       int
}

func (m *MockWorkspaceProvider) GetWorkspaceByAuth0ID(ctx context.Context, auth0ID string) (int32, error) {
	m.calls++
	if m.err != nil {
		return 0, m.err
	}
	return m.workspaceID, nil
}

func runAuth(t *testing.T, m *AuthMiddleware, header string) (*httptest.ResponseRecorder, *Session, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/loans", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var session *Session
	called := false
	err := m.Authenticate()(func(c echo.Context) error {
		called = true
		session = GetSession(c)
		return c.String(http.StatusOK, "ok")
	})(c)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	return rec, session, called
}

func TestAuthenticate_RejectsBadHeaders(t *testing.T) {
	m := NewAuthMiddlewareWithValidator(&fakeValidator{subject: "auth0|1"}, &MockWorkspaceProvider{workspaceID: 1})

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"no bearer prefix", "invalid-token"},
		{"wrong prefix", "Basic token123"},
		{"invalid token", "Bearer forged"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _, called := runAuth(t, m, tt.header)
			if called {
				t.Error("Expected handler not to be called")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("Expected status 401, got %d", rec.Code)
			}
		})
	}
}

func TestAuthenticate_StoresSession(t *testing.T) {
	provider := &MockWorkspaceProvider{workspaceID: 42}
	m := NewAuthMiddlewareWithValidator(&fakeValidator{subject: "auth0|1", email: "asha@example.com"}, provider)

	rec, session, called := runAuth(t, m, "Bearer good")
	if !called {
		t.Fatal("Expected handler to be called")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	if session == nil {
		t.Fatal("Expected session, got nil")
	}
	if session.Auth0ID != "auth0|1" {
		t.Errorf("Expected auth0 id 'auth0|1', got %q", session.Auth0ID)
	}
	if session.WorkspaceID != 42 {
		t.Errorf("Expected workspace 42, got %d", session.WorkspaceID)
	}
	if session.Email != "asha@example.com" {
		t.Errorf("Expected email, got %q", session.Email)
	}
	if provider.calls != 1 {
		t.Errorf("Expected one workspace lookup, got %d", provider.calls)
	}
}

func TestAuthenticate_UnprovisionedUser(t *testing.T) {
	m := NewAuthMiddlewareWithValidator(&fakeValidator{subject: "auth0|new"}, &MockWorkspaceProvider{err: domain.ErrWorkspaceNotFound})

	_, session, called := runAuth(t, m, "Bearer good")
	if !called {
		t.Fatal("Expected handler to be called for first login")
	}
	if session.WorkspaceID != 0 {
		t.Errorf("Expected workspace 0, got %d", session.WorkspaceID)
	}
}

func TestAuthenticate_WorkspaceLookupFailure(t *testing.T) {
	m := NewAuthMiddlewareWithValidator(&fakeValidator{subject: "auth0|1"}, &MockWorkspaceProvider{err: errors.New("db down")})

	rec, _, called := runAuth(t, m, "Bearer good")
	if called {
		t.Error("Expected handler not to be called")
	}
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", rec.Code)
	}
}

func TestRequireWorkspace(t *testing.T) {
	e := echo.New()

	tests := []struct {
		name     string
		session  *Session
		expected int
	}{
		{"no session", nil, http.StatusUnauthorized},
		{"session without workspace", &Session{Auth0ID: "auth0|1"}, http.StatusUnauthorized},
		{"session with workspace", &Session{Auth0ID: "auth0|1", WorkspaceID: 3}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			if tt.session != nil {
				SetSession(c, req.Context(), tt.session)
			}

			err := RequireWorkspace()(func(c echo.Context) error {
				return c.String(http.StatusOK, "ok")
			})(c)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if rec.Code != tt.expected {
				t.Errorf("Expected status %d, got %d", tt.expected, rec.Code)
			}
		})
	}
}

func TestGetSessionAccessors(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	if GetSession(c) != nil {
		t.Error("Expected nil session")
	}
	if GetAuth0ID(c) != "" {
		t.Error("Expected empty auth0 id")
	}
	if GetWorkspaceID(c) != 0 {
		t.Error("Expected workspace 0")
	}

	SetSession(c, req.Context(), &Session{Auth0ID: "auth0|12345", WorkspaceID: 7})
	if GetAuth0ID(c) != "auth0|12345" {
		t.Errorf("Expected 'auth0|12345', got %q", GetAuth0ID(c))
	}
	if GetWorkspaceID(c) != 7 {
		t.Errorf("Expected 7, got %d", GetWorkspaceID(c))
	}
}

func TestGetCustomClaims(t *testing.T) {
	e := echo.New()

	t.Run("returns custom claims when present", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		c := e.NewContext(req, httptest.NewRecorder())

		claims := &validator.ValidatedClaims{
			RegisteredClaims: validator.RegisteredClaims{Subject: "auth0|test"},
			CustomClaims: &CustomClaims{
				Email:   "test@example.com",
				Name:    "Test User",
				Picture: "https://example.com/pic.jpg",
			},
		}
		ctx := context.WithValue(c.Request().Context(), ClaimsKey, claims)
		c.SetRequest(c.Request().WithContext(ctx))

		result := GetCustomClaims(c)
		if result == nil {
			t.Fatal("Expected custom claims, got nil")
		}
		if result.Email != "test@example.com" {
			t.Errorf("Expected email 'test@example.com', got %q", result.Email)
		}
		if GetClaims(c).RegisteredClaims.Subject != "auth0|test" {
			t.Errorf("Expected subject 'auth0|test'")
		}
	})

	t.Run("returns nil when claims not present", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		c := e.NewContext(req, httptest.NewRecorder())

		if GetCustomClaims(c) != nil {
			t.Error("Expected nil, got custom claims")
		}
	})
}
