package handler

import (
	"net/http"

	"linkup-chat/internal/chat"
	"linkup-chat/internal/services"
	"linkup-chat/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ChatHandler handles the live-messaging endpoints. Every endpoint operates
// on the caller's session, materializing it on first use.
type ChatHandler struct {
	chat  *services.ChatService
	users *services.UserService
}

// NewChatHandler creates a chat handler.
func NewChatHandler(chatSvc *services.ChatService, users *services.UserService) *ChatHandler {
	return &ChatHandler{chat: chatSvc, users: users}
}

func (h *ChatHandler) session(c *gin.Context) (*chat.Session, bool) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return nil, false
	}

	session, err := h.chat.Session(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return session, true
}

// Open switches the caller's foreground conversation to the given peer.
func (h *ChatHandler) Open(c *gin.Context) {
	var req httpdto.OpenConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	peerID, err := uuid.Parse(req.PeerID)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid peer id", "INVALID_REQUEST"))
		return
	}

	peer, err := h.users.GetByID(c.Request.Context(), peerID)
	if err != nil {
		writeError(c, err)
		return
	}

	session, ok := h.session(c)
	if !ok {
		return
	}

	conversationID, err := session.OpenConversation(peer)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.OpenConversationResponse{
		ConversationID: conversationID,
		Peer:           httpdto.FromUser(peer),
	}))
}

// Close leaves the foreground conversation.
func (h *ChatHandler) Close(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	if err := session.CloseConversation(); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

// Send appends a message to the foreground conversation.
func (h *ChatHandler) Send(c *gin.Context) {
	var req httpdto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	session, ok := h.session(c)
	if !ok {
		return
	}

	id, err := session.SendMessage(c.Request.Context(), req.Text, req.AttachmentURL)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.SendMessageResponse{
		MessageID: id.String(),
	}))
}

// SetBlocked flips the caller's block entry for the foreground conversation.
func (h *ChatHandler) SetBlocked(c *gin.Context) {
	var req httpdto.SetBlockedRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Blocked == nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	session, ok := h.session(c)
	if !ok {
		return
	}

	if err := session.SetBlocked(c.Request.Context(), *req.Blocked); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

// Unread reports the aggregate unread flag.
func (h *ChatHandler) Unread(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.UnreadResponse{
		Unread: session.Unread(),
	}))
}

// ClearUnread resets the unread flag, as navigating into the messaging view
// does.
func (h *ChatHandler) ClearUnread(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	session.ClearUnread()
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}
