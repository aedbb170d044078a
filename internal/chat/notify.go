package chat

import "sync"

// UnreadNotifier is the process-wide unread signal for one session: a single
// boolean that flips true when any peer has unread inbound messages and is
// cleared when the user navigates into the messaging view. Subscribers get a
// stream of transition values; intermediate values may be coalesced but the
// latest one is always delivered.
type UnreadNotifier struct {
	mu     sync.Mutex
	value  bool
	subs   map[int]chan bool
	nextID int
	closed bool
}

func NewUnreadNotifier() *UnreadNotifier {
	return &UnreadNotifier{subs: make(map[int]chan bool)}
}

// Set updates the signal. Subscribers are only notified on transitions.
func (n *UnreadNotifier) Set(unread bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed || n.value == unread {
		return
	}
	n.value = unread
	for _, ch := range n.subs {
		// Keep only the latest value: drop a stale buffered one, then push.
		select {
		case <-ch:
		default:
		}
		ch <- unread
	}
}

// Clear resets the signal, used when the user opens the messaging view. The
// background scan re-raises it if unread messages remain.
func (n *UnreadNotifier) Clear() {
	n.Set(false)
}

func (n *UnreadNotifier) Value() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.value
}

// Subscribe returns a stream of signal transitions and a cancel func. The
// channel is closed when the notifier shuts down with the session.
func (n *UnreadNotifier) Subscribe() (<-chan bool, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch := make(chan bool, 1)
	if n.closed {
		close(ch)
		return ch, func() {}
	}
	id := n.nextID
	n.nextID++
	n.subs[id] = ch

	return ch, func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if _, ok := n.subs[id]; ok {
			delete(n.subs, id)
			close(ch)
		}
	}
}

// Close tears the notifier down at session end. The signal is never
// persisted across sessions.
func (n *UnreadNotifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	n.value = false
	for id, ch := range n.subs {
		delete(n.subs, id)
		close(ch)
	}
}
