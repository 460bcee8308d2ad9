package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/social-feed/social-feed/internal/models"
)

type ShareRepository struct {
	db *gorm.DB
}

func NewShareRepository(db *gorm.DB) *ShareRepository {
	return &ShareRepository{db: db}
}

func (r *ShareRepository) Create(ctx context.Context, share *models.Share) error {
	if err := r.db.WithContext(ctx).Omit("User").Create(share).Error; err != nil {
		return fmt.Errorf("failed to create share: %w", err)
	}
	return nil
}

func (r *ShareRepository) GetByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*models.Share, error) {
	var shares []*models.Share
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&shares).Error; err != nil {
		return nil, fmt.Errorf("failed to get shares by user: %w", err)
	}
	return shares, nil
}
