package services_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"linkup-chat/internal/domain"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserRepository) ListOthers(ctx context.Context, userID uuid.UUID) ([]domain.User, error) {
	args := m.Called(ctx, userID)
	users, _ := args.Get(0).([]domain.User)
	return users, args.Error(1)
}
