package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"linkup-chat/internal/domain"
	chat_errors "linkup-chat/pkg/errors"
)

// Memory is an in-process Store with the same live-snapshot contract as
// LiveStore. Snapshot callbacks run synchronously on the mutating goroutine,
// which makes it deterministic for tests and handy for local runs without
// Postgres and Redis.
type Memory struct {
	mu        sync.Mutex
	messages  map[string][]domain.Message
	blocks    map[string]domain.BlockStatus
	msgSubs   map[string]map[int]func([]domain.Message)
	blockSubs map[string]map[int]func(domain.BlockStatus)
	nextSub   int
}

func NewMemory() *Memory {
	return &Memory{
		messages:  make(map[string][]domain.Message),
		blocks:    make(map[string]domain.BlockStatus),
		msgSubs:   make(map[string]map[int]func([]domain.Message)),
		blockSubs: make(map[string]map[int]func(domain.BlockStatus)),
	}
}

func blockKey(ownerID uuid.UUID, conversationID string) string {
	return ownerID.String() + "/" + conversationID
}

func (m *Memory) Append(ctx context.Context, conversationID string, msg domain.Message) (uuid.UUID, error) {
	if conversationID == "" {
		return uuid.Nil, chat_errors.ErrInvalidInput
	}
	if msg.Empty() {
		return uuid.Nil, chat_errors.ErrEmptyMessage
	}

	m.mu.Lock()
	msg.ID = uuid.New()
	msg.ConversationID = conversationID
	msg.CreatedAt = time.Now()
	msg.Read = false
	// Append order is the tie-break for equal timestamps; the slice is never
	// reordered.
	m.messages[conversationID] = append(m.messages[conversationID], msg)

	key := blockKey(msg.SenderID, conversationID)
	bs := m.blocks[key]
	bs.OwnerID = msg.SenderID
	bs.ConversationID = conversationID
	p := preview(msg)
	bs.LastMessage = &p
	bs.LastMessageAt = &msg.CreatedAt
	m.blocks[key] = bs

	msgFns, blockFns := m.msgSubscribers(conversationID), m.blockSubscribers(key)
	snapshot := m.snapshotLocked(conversationID)
	m.mu.Unlock()

	for _, fn := range msgFns {
		fn(snapshot)
	}
	for _, fn := range blockFns {
		fn(bs)
	}
	return msg.ID, nil
}

func (m *Memory) SubscribeMessages(ctx context.Context, conversationID string, onSnapshot func([]domain.Message), onError func(error)) (Unsubscribe, error) {
	m.mu.Lock()
	if m.msgSubs[conversationID] == nil {
		m.msgSubs[conversationID] = make(map[int]func([]domain.Message))
	}
	id := m.nextSub
	m.nextSub++
	m.msgSubs[conversationID][id] = onSnapshot
	snapshot := m.snapshotLocked(conversationID)
	m.mu.Unlock()

	onSnapshot(snapshot)
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.msgSubs[conversationID], id)
	}, nil
}

func (m *Memory) SubscribeBlockStatus(ctx context.Context, ownerID uuid.UUID, conversationID string, onStatus func(domain.BlockStatus), onError func(error)) (Unsubscribe, error) {
	key := blockKey(ownerID, conversationID)

	m.mu.Lock()
	if m.blockSubs[key] == nil {
		m.blockSubs[key] = make(map[int]func(domain.BlockStatus))
	}
	id := m.nextSub
	m.nextSub++
	m.blockSubs[key][id] = onStatus
	bs := m.ownBlockStatusLocked(ownerID, conversationID)
	m.mu.Unlock()

	onStatus(bs)
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.blockSubs[key], id)
	}, nil
}

func (m *Memory) MarkRead(ctx context.Context, conversationID string, messageID uuid.UUID) error {
	m.mu.Lock()
	msgs := m.messages[conversationID]
	found := false
	changed := false
	for i := range msgs {
		if msgs[i].ID == messageID {
			found = true
			if !msgs[i].Read {
				msgs[i].Read = true
				changed = true
			}
			break
		}
	}
	if !found || !changed {
		// Missing rows fail silently; re-flipping a read message is a no-op.
		m.mu.Unlock()
		return nil
	}
	fns := m.msgSubscribers(conversationID)
	snapshot := m.snapshotLocked(conversationID)
	m.mu.Unlock()

	for _, fn := range fns {
		fn(snapshot)
	}
	return nil
}

func (m *Memory) OwnBlockStatus(ctx context.Context, ownerID uuid.UUID, conversationID string) (domain.BlockStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ownBlockStatusLocked(ownerID, conversationID), nil
}

// SetBlocked flips an owner's blocked flag and notifies that owner's
// block-status subscribers.
func (m *Memory) SetBlocked(ctx context.Context, ownerID uuid.UUID, conversationID string, blocked bool) error {
	key := blockKey(ownerID, conversationID)

	m.mu.Lock()
	bs := m.blocks[key]
	bs.OwnerID = ownerID
	bs.ConversationID = conversationID
	bs.Blocked = blocked
	m.blocks[key] = bs
	fns := m.blockSubscribers(key)
	m.mu.Unlock()

	for _, fn := range fns {
		fn(bs)
	}
	return nil
}

func (m *Memory) snapshotLocked(conversationID string) []domain.Message {
	return append([]domain.Message(nil), m.messages[conversationID]...)
}

func (m *Memory) ownBlockStatusLocked(ownerID uuid.UUID, conversationID string) domain.BlockStatus {
	if bs, ok := m.blocks[blockKey(ownerID, conversationID)]; ok {
		return bs
	}
	return domain.BlockStatus{OwnerID: ownerID, ConversationID: conversationID}
}

func (m *Memory) msgSubscribers(conversationID string) []func([]domain.Message) {
	fns := make([]func([]domain.Message), 0, len(m.msgSubs[conversationID]))
	for _, fn := range m.msgSubs[conversationID] {
		fns = append(fns, fn)
	}
	return fns
}

func (m *Memory) blockSubscribers(key string) []func(domain.BlockStatus) {
	fns := make([]func(domain.BlockStatus), 0, len(m.blockSubs[key]))
	for _, fn := range m.blockSubs[key] {
		fns = append(fns, fn)
	}
	return fns
}
