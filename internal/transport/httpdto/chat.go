package httpdto

import (
	"time"

	"linkup-chat/internal/domain"
)

// OpenConversationRequest is used for POST /chat/open
type OpenConversationRequest struct {
	PeerID string `json:"peer_id" binding:"required"`
}

// OpenConversationResponse is returned after opening a conversation
type OpenConversationResponse struct {
	ConversationID string  `json:"conversation_id"`
	Peer           UserDTO `json:"peer"`
}

// SendMessageRequest is used for POST /chat/messages
type SendMessageRequest struct {
	Text          string `json:"text,omitempty"`
	AttachmentURL string `json:"attachment_url,omitempty"`
}

// SendMessageResponse is returned after sending a message
type SendMessageResponse struct {
	MessageID string `json:"message_id"`
}

// SetBlockedRequest is used for PUT /chat/block
type SetBlockedRequest struct {
	Blocked *bool `json:"blocked" binding:"required"`
}

// UnreadResponse is returned when querying the aggregate unread flag
type UnreadResponse struct {
	Unread bool `json:"unread"`
}

// MessageDTO represents a message in API responses
type MessageDTO struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	SenderID       string `json:"sender_id"`
	ReceiverID     string `json:"receiver_id"`
	Text           string `json:"text,omitempty"`
	AttachmentURL  string `json:"attachment_url,omitempty"`
	Read           bool   `json:"read"`
	CreatedAt      string `json:"created_at"`
}

// FromMessage converts a domain message to MessageDTO
func FromMessage(m domain.Message) MessageDTO {
	dto := MessageDTO{
		ID:             m.ID.String(),
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID.String(),
		ReceiverID:     m.ReceiverID.String(),
		Read:           m.Read,
		CreatedAt:      m.CreatedAt.Format(time.RFC3339Nano),
	}
	if m.Text != nil {
		dto.Text = *m.Text
	}
	if m.AttachmentURL != nil {
		dto.AttachmentURL = *m.AttachmentURL
	}
	return dto
}

// FromMessageSlice converts a slice of domain messages to MessageDTO slice
func FromMessageSlice(msgs []domain.Message) []MessageDTO {
	dtos := make([]MessageDTO, len(msgs))
	for i, m := range msgs {
		dtos[i] = FromMessage(m)
	}
	return dtos
}
