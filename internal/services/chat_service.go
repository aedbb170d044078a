package services

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"linkup-chat/internal/chat"
	"linkup-chat/internal/repository"
	"linkup-chat/internal/store"
)

// ChatService owns one messaging session per signed-in user. Sessions are
// built lazily on first use and torn down at sign-out; teardown cancels
// every live subscription the user held before a new session for the same
// slot can exist.
type ChatService struct {
	store    store.Store
	userRepo repository.UserRepository
	logger   *zap.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*chat.Session
}

func NewChatService(st store.Store, userRepo repository.UserRepository, logger *zap.Logger) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{
		store:    st,
		userRepo: userRepo,
		logger:   logger,
		sessions: make(map[uuid.UUID]*chat.Session),
	}
}

// Session returns the user's messaging session, creating it on first use.
// Creation loads the peer directory and starts the background unread scan.
func (s *ChatService) Session(ctx context.Context, userID uuid.UUID) (*chat.Session, error) {
	s.mu.Lock()
	if session, ok := s.sessions[userID]; ok {
		s.mu.Unlock()
		return session, nil
	}
	s.mu.Unlock()

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	peers, err := s.userRepo.ListOthers(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[userID]; ok {
		// Lost the race against a concurrent first request; use theirs.
		return session, nil
	}
	session := chat.NewSession(user, s.store, s.logger)
	if err := session.WatchPeers(peers); err != nil {
		session.Close()
		return nil, err
	}
	s.sessions[userID] = session
	s.logger.Info("chat session started", zap.String("user_id", userID.String()))
	return session, nil
}

// RefreshPeers re-reads the directory and updates the session's scan watch
// list, picking up newly registered users.
func (s *ChatService) RefreshPeers(ctx context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	session, ok := s.sessions[userID]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	peers, err := s.userRepo.ListOthers(ctx, userID)
	if err != nil {
		return err
	}
	return session.WatchPeers(peers)
}

// EndSession tears the user's session down at sign-out. It blocks until all
// of the session's subscriptions are cancelled.
func (s *ChatService) EndSession(userID uuid.UUID) {
	s.mu.Lock()
	session, ok := s.sessions[userID]
	if ok {
		delete(s.sessions, userID)
	}
	s.mu.Unlock()

	if ok {
		session.Close()
		s.logger.Info("chat session ended", zap.String("user_id", userID.String()))
	}
}

// Shutdown closes every live session, used at process exit.
func (s *ChatService) Shutdown() {
	s.mu.Lock()
	sessions := make([]*chat.Session, 0, len(s.sessions))
	for id, session := range s.sessions {
		sessions = append(sessions, session)
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	for _, session := range sessions {
		session.Close()
	}
}
