package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"mindhaven/internal/model"
)

type TherapyMessageRepository struct {
	db *gorm.DB
}

func NewTherapyMessageRepository(db *gorm.DB) *TherapyMessageRepository {
	return &TherapyMessageRepository{db: db}
}

func (r *TherapyMessageRepository) Create(ctx context.Context, message *model.TherapyMessage) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return fmt.Errorf("create therapy message failed: %w", err)
	}
	return nil
}

// ListByUserID returns the oldest limit messages of a transcript in chronological order.
func (r *TherapyMessageRepository) ListByUserID(ctx context.Context, userID uint, limit int) ([]model.TherapyMessage, error) {
	if limit <= 0 || limit > 500 {
		limit = 200
	}

	messages := []model.TherapyMessage{}
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("list therapy messages failed: %w", err)
	}
	return messages, nil
}

// ListRecentByUserID returns the latest n messages, still in chronological order.
func (r *TherapyMessageRepository) ListRecentByUserID(ctx context.Context, userID uint, n int) ([]model.TherapyMessage, error) {
	if n <= 0 {
		return []model.TherapyMessage{}, nil
	}

	messages := []model.TherapyMessage{}
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(n).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("list recent therapy messages failed: %w", err)
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *TherapyMessageRepository) DeleteByUserID(ctx context.Context, userID uint) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.TherapyMessage{}).Error; err != nil {
		return fmt.Errorf("delete therapy messages failed: %w", err)
	}
	return nil
}
