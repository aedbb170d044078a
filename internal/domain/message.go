package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message is one direct message inside a pairwise conversation. Rows are
// append-only: the sender creates them and only the receiver mutates them,
// and only to flip Read. Ordering within a conversation is (created_at, id).
type Message struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID string    `gorm:"type:varchar(128);not null;index:idx_messages_conversation,priority:1" json:"conversation_id"`
	SenderID       uuid.UUID `gorm:"type:uuid;not null" json:"sender_id"`
	ReceiverID     uuid.UUID `gorm:"type:uuid;not null;index:idx_messages_receiver_unread" json:"receiver_id"`
	Text           *string   `gorm:"type:text" json:"text,omitempty"`
	AttachmentURL  *string   `gorm:"type:text" json:"attachment_url,omitempty"`
	Read           bool      `gorm:"default:false;not null;index:idx_messages_receiver_unread" json:"read"`
	CreatedAt      time.Time `gorm:"not null;index:idx_messages_conversation,priority:2" json:"created_at"`
}

// Empty reports whether the message carries neither text nor an attachment.
// Such messages are rejected before any store write.
func (m Message) Empty() bool {
	return (m.Text == nil || *m.Text == "") && (m.AttachmentURL == nil || *m.AttachmentURL == "")
}
