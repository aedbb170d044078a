package chat

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"linkup-chat/internal/domain"
	"linkup-chat/internal/store"
)

// ReadTracker owns per-message read state for one user: it flips inbound
// unread messages when they become visible and answers the unread queries
// the background scan needs.
type ReadTracker struct {
	userID uuid.UUID
	store  store.Store
	logger *zap.Logger
}

func NewReadTracker(userID uuid.UUID, st store.Store, logger *zap.Logger) *ReadTracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReadTracker{userID: userID, store: st, logger: logger}
}

// MarkInboundRead issues MarkRead for every unread message addressed to the
// user. Fire-and-forget: the messages are already on screen, so the local
// view treats them as read whether or not the remote flip lands. Failures
// are logged and left for the next snapshot to retry naturally.
func (t *ReadTracker) MarkInboundRead(ctx context.Context, conversationID string, msgs []domain.Message) {
	var pending []uuid.UUID
	for _, m := range msgs {
		if m.ReceiverID == t.userID && !m.Read {
			pending = append(pending, m.ID)
		}
	}
	if len(pending) == 0 {
		return
	}

	go func() {
		for _, id := range pending {
			if err := t.store.MarkRead(ctx, conversationID, id); err != nil {
				t.logger.Warn("failed to mark message read",
					zap.String("conversation_id", conversationID),
					zap.String("message_id", id.String()),
					zap.Error(err))
			}
		}
	}()
}

// HasUnreadInbound reports whether the snapshot contains at least one unread
// message addressed to the user.
func (t *ReadTracker) HasUnreadInbound(msgs []domain.Message) bool {
	for _, m := range msgs {
		if m.ReceiverID == t.userID && !m.Read {
			return true
		}
	}
	return false
}
