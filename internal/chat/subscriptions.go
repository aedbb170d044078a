package chat

import (
	"sync"

	"go.uber.org/zap"

	"linkup-chat/internal/store"
)

// SubscriptionState tracks the lifecycle of one keyed live subscription.
type SubscriptionState int

const (
	SubscriptionInactive SubscriptionState = iota
	SubscriptionActive
	SubscriptionCancelled
)

// SubscriptionManager owns every live subscription a session holds: the
// foreground conversation's message and block-status feeds plus one unread
// scan feed per peer. Keys identify subscriptions; at most one Active
// subscription exists per key, and opening an already-Active key is a no-op
// rather than a duplicate.
type SubscriptionManager struct {
	mu     sync.Mutex
	subs   map[string]store.Unsubscribe
	logger *zap.Logger
}

func NewSubscriptionManager(logger *zap.Logger) *SubscriptionManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubscriptionManager{
		subs:   make(map[string]store.Unsubscribe),
		logger: logger,
	}
}

// Open transitions key from Inactive to Active by invoking start. Returns
// false without calling start when the key is already Active. start runs
// under the manager lock so two racing opens cannot both subscribe.
func (m *SubscriptionManager) Open(key string, start func() (store.Unsubscribe, error)) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.subs[key]; ok {
		return false, nil
	}
	cancel, err := start()
	if err != nil {
		return false, err
	}
	m.subs[key] = cancel
	m.logger.Debug("subscription opened", zap.String("key", key))
	return true, nil
}

// Cancel transitions key to Cancelled. It returns only after the feed has
// fully stopped, so no callback for this key can run after Cancel returns.
func (m *SubscriptionManager) Cancel(key string) bool {
	m.mu.Lock()
	cancel, ok := m.subs[key]
	if ok {
		delete(m.subs, key)
	}
	m.mu.Unlock()

	if !ok {
		return false
	}
	cancel()
	m.logger.Debug("subscription cancelled", zap.String("key", key))
	return true
}

// CancelAll tears down every active subscription. Used at session end; it
// must complete before any subscription for a new session is opened.
func (m *SubscriptionManager) CancelAll() {
	m.mu.Lock()
	cancels := make([]store.Unsubscribe, 0, len(m.subs))
	for key, cancel := range m.subs {
		cancels = append(cancels, cancel)
		delete(m.subs, key)
	}
	m.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

// State reports the lifecycle state of key. Cancelled and never-opened keys
// are indistinguishable from the outside; both read as Inactive until opened.
func (m *SubscriptionManager) State(key string) SubscriptionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subs[key]; ok {
		return SubscriptionActive
	}
	return SubscriptionInactive
}

func (m *SubscriptionManager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}
