package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	ws "github.com/gorilla/websocket"
	"github.com/kanakku/kanakku/kanakku-backend/internal/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// bearerSubprotocol lets browsers pass the token as
// Sec-WebSocket-Protocol: bearer, <token> instead of in the URL
const bearerSubprotocol = "bearer"

// JWTValidator resolves an access token to the caller's workspace
type JWTValidator interface {
	ValidateToken(ctx context.Context, token string) (workspaceID int32, err error)
}

type WebSocketHandler struct {
	hub       *websocket.Hub
	validator JWTValidator
	origins   map[string]struct{}
	anyOrigin bool
	upgrader  ws.Upgrader
}

func NewWebSocketHandler(hub *websocket.Hub, validator JWTValidator, allowedOrigins []string) *WebSocketHandler {
	h := &WebSocketHandler{
		hub:       hub,
		validator: validator,
		origins:   make(map[string]struct{}, len(allowedOrigins)),
	}
	for _, origin := range allowedOrigins {
		if origin == "*" {
			h.anyOrigin = true
			continue
		}
		h.origins[strings.TrimRight(origin, "/")] = struct{}{}
	}

	h.upgrader = ws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		Subprotocols:    []string{bearerSubprotocol},
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// checkOrigin accepts requests without an Origin header, which come from
// non-browser clients
func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || h.anyOrigin {
		return true
	}
	if _, ok := h.origins[strings.TrimRight(origin, "/")]; ok {
		return true
	}

	log.Warn().Str("origin", origin).Msg("WebSocket connection rejected: origin not allowed")
	return false
}

// tokenFromRequest reads ?token= first, then the bearer subprotocol
func tokenFromRequest(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	protocols := ws.Subprotocols(r)
	for i := 0; i+1 < len(protocols); i++ {
		if strings.EqualFold(protocols[i], bearerSubprotocol) {
			return protocols[i+1]
		}
	}
	return ""
}

// topicsFromRequest parses ?topics=pending,collection
func topicsFromRequest(r *http.Request) (websocket.Topics, error) {
	raw := r.URL.Query().Get("topics")
	if raw == "" {
		return websocket.Topics{}, nil
	}
	return websocket.ParseTopics(strings.Split(raw, ","))
}

// HandleWS upgrades GET /ws into a live event stream for the caller's
// workspace. ?topics= narrows it to some entity types.
func (h *WebSocketHandler) HandleWS(c echo.Context) error {
	req := c.Request()

	token := tokenFromRequest(req)
	if token == "" {
		log.Debug().Msg("WebSocket connection rejected: missing token")
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}

	topics, err := topicsFromRequest(req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	workspaceID, err := h.validator.ValidateToken(req.Context(), token)
	if err != nil {
		log.Debug().Err(err).Msg("WebSocket connection rejected: invalid token")
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	if !h.hub.HasCapacity(workspaceID) {
		log.Warn().Int32("workspace_id", workspaceID).Msg("WebSocket connection rejected: workspace at capacity")
		return echo.NewHTTPError(http.StatusTooManyRequests, websocket.ErrWorkspaceFull.Error())
	}

	conn, err := h.upgrader.Upgrade(c.Response(), req, nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return err
	}

	client := websocket.NewClient(conn, workspaceID, h.hub, topics)
	if err := h.hub.Register(client); err != nil {
		// lost a race for the last slot after the capacity check
		if errors.Is(err, websocket.ErrWorkspaceFull) {
			conn.WriteMessage(ws.CloseMessage, ws.FormatCloseMessage(ws.ClosePolicyViolation, err.Error()))
		}
		conn.Close()
		return nil
	}

	log.Info().
		Int32("workspace_id", workspaceID).
		Str("client_id", client.ID()).
		Strs("topics", client.TopicNames()).
		Msg("WebSocket client connected")

	go client.WritePump()
	go client.ReadPump()

	if err := client.SendEvent(websocket.Connected(client.ID(), client.TopicNames())); err != nil {
		log.Debug().Err(err).Str("client_id", client.ID()).Msg("WebSocket connected event dropped")
	}
	return nil
}
