package chat

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"linkup-chat/internal/domain"
	"linkup-chat/internal/store"
	chat_errors "linkup-chat/pkg/errors"
)

// UpdateKind discriminates the updates a session pushes to its listeners.
type UpdateKind int

const (
	UpdateMessages UpdateKind = iota
	UpdateBlockStatus
	UpdateUnread
)

// Update is one state change pushed to session listeners: a fresh full
// snapshot of the foreground conversation, a block-status change, or an
// aggregate unread transition.
type Update struct {
	Kind           UpdateKind       `json:"kind"`
	ConversationID string           `json:"conversation_id,omitempty"`
	Messages       []domain.Message `json:"messages,omitempty"`
	Blocked        bool             `json:"blocked,omitempty"`
	Unread         bool             `json:"unread,omitempty"`
}

const listenerBuffer = 16

// Session is the messaging state of one signed-in user: the foreground
// conversation, the per-peer unread scan, and the unread signal. It replaces
// ambient global state with an object whose lifetime matches the sign-in.
//
// All session state is owned by a single run-loop goroutine; external calls
// and subscription callbacks are serialized through its command queue, so no
// locking is needed on the state itself. Closing the session cancels every
// subscription before the loop stops, which is what prevents a stale
// callback from leaking into the next user's session on the same process.
type Session struct {
	user     domain.User
	store    store.Store
	subs     *SubscriptionManager
	tracker  *ReadTracker
	notifier *UnreadNotifier
	logger   *zap.Logger

	ctx        context.Context
	cancelCtx  context.CancelFunc
	queueMu    sync.Mutex
	queue      []func()
	wake       chan struct{}
	done       chan struct{}
	loopDone   chan struct{}
	closeOnce  sync.Once
	listenerMu sync.Mutex
	listeners  map[int]chan Update
	nextLis    int

	// run-loop-owned state
	foregroundConv string
	foregroundPeer uuid.UUID
	messages       []domain.Message
	blocked        bool
	unreadByPeer   map[uuid.UUID]bool
}

func NewSession(user domain.User, st store.Store, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("user_id", user.ID.String()))

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		user:         user,
		store:        st,
		subs:         NewSubscriptionManager(logger),
		tracker:      NewReadTracker(user.ID, st, logger),
		notifier:     NewUnreadNotifier(),
		logger:       logger,
		ctx:          ctx,
		cancelCtx:    cancel,
		wake:         make(chan struct{}, 1),
		done:         make(chan struct{}),
		loopDone:     make(chan struct{}),
		listeners:    make(map[int]chan Update),
		unreadByPeer: make(map[uuid.UUID]bool),
	}
	go s.run()
	return s
}

func (s *Session) User() domain.User { return s.user }

// run drains the command queue until the session closes. Every mutation of
// session state happens here.
func (s *Session) run() {
	defer close(s.loopDone)
	for {
		select {
		case <-s.wake:
			s.drain()
		case <-s.done:
			s.drain()
			return
		}
	}
}

func (s *Session) drain() {
	for {
		s.queueMu.Lock()
		if len(s.queue) == 0 {
			s.queueMu.Unlock()
			return
		}
		fn := s.queue[0]
		s.queue = s.queue[1:]
		s.queueMu.Unlock()
		fn()
	}
}

// enqueue schedules fn on the run loop. Never blocks, so subscription
// callbacks and the loop itself can safely post follow-up work.
func (s *Session) enqueue(fn func()) {
	s.queueMu.Lock()
	s.queue = append(s.queue, fn)
	s.queueMu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// do runs fn on the loop and waits for it. Fails once the session is closed.
func (s *Session) do(fn func()) error {
	select {
	case <-s.done:
		return chat_errors.ErrSessionClosed
	default:
	}
	reply := make(chan struct{})
	s.enqueue(func() {
		fn()
		close(reply)
	})
	select {
	case <-reply:
		return nil
	case <-s.loopDone:
		return chat_errors.ErrSessionClosed
	}
}

// OpenConversation makes peer's conversation the foreground one: the
// previous foreground subscriptions are cancelled first, then a message feed
// and a block-status feed are opened under the derived id. Reopening the
// current conversation is a no-op.
func (s *Session) OpenConversation(peer domain.User) (string, error) {
	conversationID, err := DeriveConversationID(s.user.ID.String(), peer.ID.String())
	if err != nil {
		return "", err
	}

	var openErr error
	err = s.do(func() {
		if s.foregroundConv == conversationID {
			return
		}
		s.closeForegroundLocked()

		s.foregroundConv = conversationID
		s.foregroundPeer = peer.ID

		_, openErr = s.subs.Open(messagesKey(conversationID), func() (store.Unsubscribe, error) {
			return s.store.SubscribeMessages(s.ctx, conversationID,
				func(msgs []domain.Message) {
					s.enqueue(func() { s.handleForegroundSnapshot(conversationID, msgs) })
				},
				func(err error) { s.subscriptionError(conversationID, err) })
		})
		if openErr != nil {
			s.foregroundConv = ""
			s.foregroundPeer = uuid.Nil
			return
		}

		_, openErr = s.subs.Open(blockKey(conversationID), func() (store.Unsubscribe, error) {
			return s.store.SubscribeBlockStatus(s.ctx, s.user.ID, conversationID,
				func(bs domain.BlockStatus) {
					s.enqueue(func() { s.handleBlockStatus(conversationID, bs) })
				},
				func(err error) { s.subscriptionError(conversationID, err) })
		})
		if openErr != nil {
			s.subs.Cancel(messagesKey(conversationID))
			s.foregroundConv = ""
			s.foregroundPeer = uuid.Nil
		}
	})
	if err != nil {
		return "", err
	}
	if openErr != nil {
		return "", openErr
	}
	return conversationID, nil
}

// CloseConversation drops the foreground conversation and synchronously
// cancels its subscriptions.
func (s *Session) CloseConversation() error {
	return s.do(s.closeForegroundLocked)
}

func (s *Session) closeForegroundLocked() {
	if s.foregroundConv == "" {
		return
	}
	s.subs.Cancel(messagesKey(s.foregroundConv))
	s.subs.Cancel(blockKey(s.foregroundConv))
	s.foregroundConv = ""
	s.foregroundPeer = uuid.Nil
	s.messages = nil
	s.blocked = false
}

// SendMessage appends a message to the foreground conversation. The send is
// gated on the sender's own block entry; when blocked, no store write is
// attempted. There is no automatic retry: a transient failure surfaces to
// the caller, who keeps the composed text.
func (s *Session) SendMessage(ctx context.Context, text, attachmentURL string) (uuid.UUID, error) {
	var conversationID string
	var peerID uuid.UUID
	if err := s.do(func() {
		conversationID = s.foregroundConv
		peerID = s.foregroundPeer
	}); err != nil {
		return uuid.Nil, err
	}
	if conversationID == "" {
		return uuid.Nil, chat_errors.ErrNoConversation
	}

	msg := domain.Message{
		SenderID:   s.user.ID,
		ReceiverID: peerID,
	}
	if text != "" {
		msg.Text = &text
	}
	if attachmentURL != "" {
		msg.AttachmentURL = &attachmentURL
	}
	if msg.Empty() {
		return uuid.Nil, chat_errors.ErrEmptyMessage
	}

	// The gate reads the sender's own entry; the peer's copy never blocks an
	// outgoing send. Client policy, not a security boundary.
	bs, err := s.store.OwnBlockStatus(ctx, s.user.ID, conversationID)
	if err != nil {
		return uuid.Nil, err
	}
	if bs.Blocked {
		return uuid.Nil, chat_errors.ErrBlocked
	}

	return s.store.Append(ctx, conversationID, msg)
}

// SetBlocked flips the user's own block entry for the foreground
// conversation. The live block subscription delivers the resulting state, so
// the caller does not update its view optimistically.
func (s *Session) SetBlocked(ctx context.Context, blocked bool) error {
	var conversationID string
	if err := s.do(func() {
		conversationID = s.foregroundConv
	}); err != nil {
		return err
	}
	if conversationID == "" {
		return chat_errors.ErrNoConversation
	}
	return s.store.SetBlocked(ctx, s.user.ID, conversationID, blocked)
}

// WatchPeers opens one lightweight scan subscription per peer so unread
// state is detected without opening full conversations. The watch list is
// owned here: peers already watched are no-ops, and peers absent from the
// new list are unwatched.
func (s *Session) WatchPeers(peers []domain.User) error {
	return s.do(func() {
		keep := make(map[uuid.UUID]bool, len(peers))
		for _, peer := range peers {
			keep[peer.ID] = true
			s.watchPeerLocked(peer)
		}
		for peerID := range s.unreadByPeer {
			if !keep[peerID] {
				s.subs.Cancel(scanKey(peerID))
				delete(s.unreadByPeer, peerID)
			}
		}
		s.recomputeUnreadLocked()
	})
}

func (s *Session) watchPeerLocked(peer domain.User) {
	conversationID, err := DeriveConversationID(s.user.ID.String(), peer.ID.String())
	if err != nil {
		s.logger.Warn("skipping unwatchable peer",
			zap.String("peer_id", peer.ID.String()), zap.Error(err))
		return
	}

	peerID := peer.ID
	opened, err := s.subs.Open(scanKey(peerID), func() (store.Unsubscribe, error) {
		return s.store.SubscribeMessages(s.ctx, conversationID,
			func(msgs []domain.Message) {
				s.enqueue(func() { s.handleScanSnapshot(peerID, msgs) })
			},
			func(err error) { s.subscriptionError(conversationID, err) })
	})
	if err != nil {
		s.logger.Warn("failed to open unread scan",
			zap.String("peer_id", peerID.String()), zap.Error(err))
		return
	}
	if opened {
		if _, ok := s.unreadByPeer[peerID]; !ok {
			s.unreadByPeer[peerID] = false
		}
	}
}

func (s *Session) handleForegroundSnapshot(conversationID string, msgs []domain.Message) {
	if s.foregroundConv != conversationID {
		// A snapshot from a conversation that was closed while the delivery
		// was in flight. Drop it.
		return
	}
	s.messages = msgs
	// Everything in the snapshot is on screen now, so inbound unread
	// messages are read, optimistically here and via MarkRead remotely.
	s.tracker.MarkInboundRead(s.ctx, conversationID, msgs)
	if _, ok := s.unreadByPeer[s.foregroundPeer]; ok {
		s.unreadByPeer[s.foregroundPeer] = false
		s.recomputeUnreadLocked()
	}
	s.emit(Update{Kind: UpdateMessages, ConversationID: conversationID, Messages: msgs})
}

func (s *Session) handleScanSnapshot(peerID uuid.UUID, msgs []domain.Message) {
	if _, ok := s.unreadByPeer[peerID]; !ok {
		// Scan was cancelled for this peer; a late delivery must not
		// resurrect its flag.
		return
	}
	unread := s.tracker.HasUnreadInbound(msgs)
	if peerID == s.foregroundPeer && unread {
		// The foreground snapshot handler is about to flip these; the scan
		// rechecks on the next change event anyway.
		unread = false
	}
	if s.unreadByPeer[peerID] == unread {
		return
	}
	s.unreadByPeer[peerID] = unread
	s.recomputeUnreadLocked()
}

func (s *Session) handleBlockStatus(conversationID string, bs domain.BlockStatus) {
	if s.foregroundConv != conversationID {
		return
	}
	if s.blocked == bs.Blocked {
		return
	}
	s.blocked = bs.Blocked
	s.emit(Update{Kind: UpdateBlockStatus, ConversationID: conversationID, Blocked: bs.Blocked})
}

func (s *Session) recomputeUnreadLocked() {
	any := false
	for _, unread := range s.unreadByPeer {
		if unread {
			any = true
			break
		}
	}
	if s.notifier.Value() != any {
		s.notifier.Set(any)
		s.emit(Update{Kind: UpdateUnread, Unread: any})
	}
}

func (s *Session) subscriptionError(conversationID string, err error) {
	// Per-subscription failures are surfaced and contained; unrelated
	// subscriptions keep running.
	s.logger.Warn("live subscription error",
		zap.String("conversation_id", conversationID), zap.Error(err))
}

// UnreadSignal streams aggregate unread transitions.
func (s *Session) UnreadSignal() (<-chan bool, func()) {
	return s.notifier.Subscribe()
}

func (s *Session) Unread() bool { return s.notifier.Value() }

// ClearUnread resets the signal when the user navigates into the messaging
// view. The scan re-raises it if unread conversations remain.
func (s *Session) ClearUnread() { s.notifier.Clear() }

// Updates streams session updates (snapshots, block changes, unread
// transitions) until cancelled or the session closes. Slow listeners have
// updates dropped rather than stalling the session.
func (s *Session) Updates() (<-chan Update, func()) {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()

	ch := make(chan Update, listenerBuffer)
	select {
	case <-s.done:
		close(ch)
		return ch, func() {}
	default:
	}
	id := s.nextLis
	s.nextLis++
	s.listeners[id] = ch

	return ch, func() {
		s.listenerMu.Lock()
		defer s.listenerMu.Unlock()
		if _, ok := s.listeners[id]; ok {
			delete(s.listeners, id)
			close(ch)
		}
	}
}

func (s *Session) emit(update Update) {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	for _, ch := range s.listeners {
		select {
		case ch <- update:
		default:
			s.logger.Warn("listener buffer full, dropping update")
		}
	}
}

// Close ends the session: every live subscription is cancelled before the
// loop stops, then the notifier and listener streams shut down. Safe to call
// more than once. After Close returns, no callback from this session can
// mutate anything, so a new session for a different user may start.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.subs.CancelAll()
		s.cancelCtx()
		<-s.loopDone

		s.notifier.Close()
		s.listenerMu.Lock()
		for id, ch := range s.listeners {
			delete(s.listeners, id)
			close(ch)
		}
		s.listenerMu.Unlock()
	})
}

func messagesKey(conversationID string) string { return "messages/" + conversationID }
func blockKey(conversationID string) string    { return "block/" + conversationID }
func scanKey(peerID uuid.UUID) string          { return "scan/" + peerID.String() }
