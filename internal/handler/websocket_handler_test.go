package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kanakku/kanakku/kanakku-backend/internal/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTokenValidator accepts exactly one token
type stubTokenValidator struct {
	token       string
	workspaceID int32
	seen        string
}

func (s *stubTokenValidator) ValidateToken(ctx context.Context, token string) (int32, error) {
	s.seen = token
	if token != s.token {
		return 0, errors.New("token rejected")
	}
	return s.workspaceID, nil
}

var testAllowedOrigins = []string{"http://localhost:3000", "https://kanakku.app/"}

func wsStatus(t *testing.T, err error) int {
	t.Helper()
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	return httpErr.Code
}

func TestWebSocketHandler_HandleWS_Rejections(t *testing.T) {
	full := websocket.NewHubWithConfig(websocket.HubConfig{MaxClientsPerWorkspace: 1})
	require.NoError(t, full.Register(websocket.NewClient(nil, 7, full, nil)))

	tests := []struct {
		name       string
		hub        *websocket.Hub
		target     string
		wantStatus int
	}{
		{"missing token", websocket.NewHub(), "/ws", http.StatusUnauthorized},
		{"bad token", websocket.NewHub(), "/ws?token=forged", http.StatusUnauthorized},
		{"unknown topic", websocket.NewHub(), "/ws?token=good&topics=pending,budget", http.StatusBadRequest},
		{"workspace at capacity", full, "/ws?token=good", http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validator := &stubTokenValidator{token: "good", workspaceID: 7}
			h := NewWebSocketHandler(tt.hub, validator, testAllowedOrigins)

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			c := echo.New().NewContext(req, httptest.NewRecorder())

			assert.Equal(t, tt.wantStatus, wsStatus(t, h.HandleWS(c)))
		})
	}
}

func TestWebSocketHandler_HandleWS_AuthPassesBeforeUpgrade(t *testing.T) {
	hub := websocket.NewHub()
	validator := &stubTokenValidator{token: "good", workspaceID: 7}
	h := NewWebSocketHandler(hub, validator, testAllowedOrigins)

	// a plain GET cannot be upgraded, so the failure must come from gorilla
	req := httptest.NewRequest(http.MethodGet, "/ws?token=good&topics=pending", nil)
	c := echo.New().NewContext(req, httptest.NewRecorder())

	err := h.HandleWS(c)
	require.Error(t, err)
	var httpErr *echo.HTTPError
	assert.False(t, errors.As(err, &httpErr))
	assert.Zero(t, hub.ClientCount(7))
}

func TestTokenFromRequest(t *testing.T) {
	tests := []struct {
		name      string
		target    string
		protocols string
		want      string
	}{
		{"query parameter", "/ws?token=abc", "", "abc"},
		{"bearer subprotocol", "/ws", "bearer, eyJ.token", "eyJ.token"},
		{"query wins over header", "/ws?token=abc", "bearer, other", "abc"},
		{"bearer without token", "/ws", "bearer", ""},
		{"unrelated subprotocol", "/ws", "graphql-ws", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.protocols != "" {
				req.Header.Set("Sec-WebSocket-Protocol", tt.protocols)
			}
			assert.Equal(t, tt.want, tokenFromRequest(req))
		})
	}
}

func TestWebSocketHandler_CheckOrigin(t *testing.T) {
	h := NewWebSocketHandler(websocket.NewHub(), &stubTokenValidator{}, testAllowedOrigins)
	open := NewWebSocketHandler(websocket.NewHub(), &stubTokenValidator{}, []string{"*"})

	tests := []struct {
		name    string
		handler *WebSocketHandler
		origin  string
		want    bool
	}{
		{"listed origin", h, "http://localhost:3000", true},
		{"trailing slash ignored", h, "https://kanakku.app", true},
		{"unlisted origin", h, "https://evil.example", false},
		{"no origin header", h, "", true},
		{"wildcard", open, "https://anything.example", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, tt.handler.checkOrigin(req))
		})
	}
}
