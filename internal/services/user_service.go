package services

import (
	"context"

	"github.com/google/uuid"

	"linkup-chat/internal/domain"
	"linkup-chat/internal/repository"
)

// UserService exposes the peer directory: every other registered user is a
// potential conversation partner and an entry in the unread scan.
type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) Peers(ctx context.Context, userID uuid.UUID) ([]domain.User, error) {
	return s.userRepo.ListOthers(ctx, userID)
}
