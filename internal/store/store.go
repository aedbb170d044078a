package store

import (
	"context"

	"github.com/google/uuid"

	"linkup-chat/internal/domain"
)

// Unsubscribe tears down a live subscription. It blocks until the feed has
// stopped, so no snapshot callback can arrive after it returns.
type Unsubscribe func()

// Store is the document-store adapter for the messaging subsystem: append-only
// message writes and live full-snapshot reads. Subscriptions deliver the
// complete, ordered message list on every change rather than deltas; the
// caller reconciles by replacing its entire view.
type Store interface {
	// Append persists a new message with a server-assigned id, creation time
	// and read=false, and refreshes the sender's conversation-index preview.
	// Writes are at-most-once: the adapter never retries internally.
	Append(ctx context.Context, conversationID string, msg domain.Message) (uuid.UUID, error)

	// SubscribeMessages delivers the full ordered history of the conversation
	// immediately and again after every change. Transient store failures go
	// to onError and do not stop the subscription.
	SubscribeMessages(ctx context.Context, conversationID string, onSnapshot func([]domain.Message), onError func(error)) (Unsubscribe, error)

	// SubscribeBlockStatus delivers the owner's own index row for the
	// conversation, initially and on every change. A missing row is reported
	// as an unblocked zero entry.
	SubscribeBlockStatus(ctx context.Context, ownerID uuid.UUID, conversationID string, onStatus func(domain.BlockStatus), onError func(error)) (Unsubscribe, error)

	// MarkRead flips a message's read flag. Idempotent; silent when the
	// message no longer exists.
	MarkRead(ctx context.Context, conversationID string, messageID uuid.UUID) error

	// OwnBlockStatus is the point read backing the send gate. A missing row
	// means not blocked.
	OwnBlockStatus(ctx context.Context, ownerID uuid.UUID, conversationID string) (domain.BlockStatus, error)

	// SetBlocked flips the owner's blocked flag for the conversation and
	// notifies that owner's block-status subscribers.
	SetBlocked(ctx context.Context, ownerID uuid.UUID, conversationID string, blocked bool) error
}
