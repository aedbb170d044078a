package handler

import (
	"net/http"

	"linkup-chat/internal/services"
	"linkup-chat/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

// UserHandler handles the peer directory endpoints.
type UserHandler struct {
	users *services.UserService
}

// NewUserHandler creates a user handler.
func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Me returns the authenticated user's profile.
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	u, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromUser(u)))
}

// Peers lists every other user the caller can message.
func (h *UserHandler) Peers(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	peers, err := h.users.Peers(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.PeersResponse{
		Peers: httpdto.FromUserSlice(peers),
	}))
}
