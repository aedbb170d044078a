package domain

import (
	"time"

	"github.com/google/uuid"
)

// BlockStatus is one participant's private index entry for a conversation:
// the blocked flag plus last-message preview metadata used to order the
// conversation list. Each participant owns an independent row, so the two
// sides' Blocked flags can disagree; the sender's own row is what gates a
// send. That asymmetry is a property of the data model, not a bug to unify.
type BlockStatus struct {
	OwnerID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"owner_id"`
	ConversationID string     `gorm:"type:varchar(128);primaryKey" json:"conversation_id"`
	Blocked        bool       `gorm:"default:false;not null" json:"blocked"`
	LastMessage    *string    `gorm:"type:varchar(512)" json:"last_message,omitempty"`
	LastMessageAt  *time.Time `json:"last_message_at,omitempty"`
}
