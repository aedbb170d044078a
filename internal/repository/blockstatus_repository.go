package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"linkup-chat/internal/domain"
	chat_errors "linkup-chat/pkg/errors"
)

type PostgresBlockStatusRepository struct {
	db *gorm.DB
}

func NewBlockStatusRepository(db *gorm.DB) BlockStatusRepository {
	return &PostgresBlockStatusRepository{db: db}
}

func (r *PostgresBlockStatusRepository) UpsertPreview(ctx context.Context, ownerID uuid.UUID, conversationID string, preview string) error {
	now := time.Now()
	row := domain.BlockStatus{
		OwnerID:        ownerID,
		ConversationID: conversationID,
		LastMessage:    &preview,
		LastMessageAt:  &now,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner_id"}, {Name: "conversation_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_message", "last_message_at"}),
		}).
		Create(&row).Error
}

func (r *PostgresBlockStatusRepository) Get(ctx context.Context, ownerID uuid.UUID, conversationID string) (domain.BlockStatus, error) {
	var bs domain.BlockStatus
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND conversation_id = ?", ownerID, conversationID).
		First(&bs).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.BlockStatus{}, chat_errors.ErrNotFound
		}
		return domain.BlockStatus{}, err
	}
	return bs, nil
}

func (r *PostgresBlockStatusRepository) SetBlocked(ctx context.Context, ownerID uuid.UUID, conversationID string, blocked bool) error {
	row := domain.BlockStatus{
		OwnerID:        ownerID,
		ConversationID: conversationID,
		Blocked:        blocked,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner_id"}, {Name: "conversation_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"blocked"}),
		}).
		Create(&row).Error
}
