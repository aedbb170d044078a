package server

import (
	"net/http"
	"strings"

	"linkup-chat/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler upgrades connections and binds them to the caller's
// messaging session.
type WebSocketHandler struct {
	chat   *services.ChatService
	auth   *services.AuthService
	logger *zap.Logger
}

// NewWebSocketHandler creates a WebSocket handler.
func NewWebSocketHandler(chat *services.ChatService, auth *services.AuthService, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{chat: chat, auth: auth, logger: logger}
}

// Handle upgrades HTTP to WebSocket and streams session updates.
func (h *WebSocketHandler) Handle(c *gin.Context) {
	token := h.extractToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	claims, err := h.auth.ParseAccessToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
		return
	}

	session, err := h.chat.Session(c.Request.Context(), userID)
	if err != nil {
		c.JSON(services.HTTPStatus(err), gin.H{"error": "session unavailable"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed",
			zap.String("user_id", userID.String()), zap.Error(err))
		return
	}

	client := newWSClient(conn, session, userID, h.logger)
	go client.run()
}

func (h *WebSocketHandler) extractToken(c *gin.Context) string {
	token := c.Query("token")
	if token != "" {
		return token
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}

	return ""
}
