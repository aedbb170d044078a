package store_test

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"linkup-chat/internal/domain"
	"linkup-chat/pkg/events"
)

// MockMessageRepository is a testify double for repository.MessageRepository.
type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Create(ctx context.Context, msg *domain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockMessageRepository) ListByConversation(ctx context.Context, conversationID string) ([]domain.Message, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Message), args.Error(1)
}

func (m *MockMessageRepository) MarkRead(ctx context.Context, messageID uuid.UUID) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

// MockBlockStatusRepository is a testify double for repository.BlockStatusRepository.
type MockBlockStatusRepository struct {
	mock.Mock
}

func (m *MockBlockStatusRepository) UpsertPreview(ctx context.Context, ownerID uuid.UUID, conversationID string, preview string) error {
	args := m.Called(ctx, ownerID, conversationID, preview)
	return args.Error(0)
}

func (m *MockBlockStatusRepository) Get(ctx context.Context, ownerID uuid.UUID, conversationID string) (domain.BlockStatus, error) {
	args := m.Called(ctx, ownerID, conversationID)
	return args.Get(0).(domain.BlockStatus), args.Error(1)
}

func (m *MockBlockStatusRepository) SetBlocked(ctx context.Context, ownerID uuid.UUID, conversationID string, blocked bool) error {
	args := m.Called(ctx, ownerID, conversationID, blocked)
	return args.Error(0)
}

// fakeBroker is a synchronous in-process events.Broker: Publish invokes every
// matching handler before returning, which makes delivery order deterministic
// in tests.
type fakeBroker struct {
	mu        sync.Mutex
	nextID    int
	handlers  map[string]map[int]events.Handler
	published map[string]int
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{
		handlers:  make(map[string]map[int]events.Handler),
		published: make(map[string]int),
	}
}

func (b *fakeBroker) publishCount(channel string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.published[channel]
}

func (b *fakeBroker) Publish(ctx context.Context, channel string, event events.Event) error {
	b.mu.Lock()
	b.published[channel]++
	handlers := make([]events.Handler, 0, len(b.handlers[channel]))
	for _, h := range b.handlers[channel] {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()
	for _, h := range handlers {
		h(ctx, event)
	}
	return nil
}

func (b *fakeBroker) Subscribe(ctx context.Context, channel string, handler events.Handler) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handlers[channel] == nil {
		b.handlers[channel] = make(map[int]events.Handler)
	}
	id := b.nextID
	b.nextID++
	b.handlers[channel][id] = handler
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers[channel], id)
	}, nil
}
