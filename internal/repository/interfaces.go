package repository

import (
	"context"

	"github.com/google/uuid"

	"linkup-chat/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	// ListOthers returns every user except the given one, for the peer
	// directory and the unread scan.
	ListOthers(ctx context.Context, userID uuid.UUID) ([]domain.User, error)
}

type MessageRepository interface {
	Create(ctx context.Context, m *domain.Message) error
	// ListByConversation returns the full message history of a conversation
	// ordered by (created_at, id) ascending.
	ListByConversation(ctx context.Context, conversationID string) ([]domain.Message, error)
	// MarkRead flips the read flag. It is idempotent and reports ErrNotFound
	// only when the row does not exist at all.
	MarkRead(ctx context.Context, messageID uuid.UUID) error
}

type BlockStatusRepository interface {
	// UpsertPreview creates or refreshes the owner's index row with the
	// last-message preview without touching the blocked flag.
	UpsertPreview(ctx context.Context, ownerID uuid.UUID, conversationID string, preview string) error
	Get(ctx context.Context, ownerID uuid.UUID, conversationID string) (domain.BlockStatus, error)
	SetBlocked(ctx context.Context, ownerID uuid.UUID, conversationID string, blocked bool) error
}
