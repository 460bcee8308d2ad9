package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/social-feed/social-feed/internal/models"
)

type LikeRepository struct {
	db *gorm.DB
}

func NewLikeRepository(db *gorm.DB) *LikeRepository {
	return &LikeRepository{db: db}
}

// Create returns an error satisfying IsDuplicateKey when the like exists.
func (r *LikeRepository) Create(ctx context.Context, like *models.Like) error {
	if err := r.db.WithContext(ctx).Omit("User").Create(like).Error; err != nil {
		return fmt.Errorf("failed to create like: %w", err)
	}
	return nil
}

// Delete removes the like and reports whether one existed.
func (r *LikeRepository) Delete(ctx context.Context, userID uuid.UUID, target models.Target) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND target_type = ? AND target_id = ?", userID, target.Type, target.ID).
		Delete(&models.Like{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete like: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *LikeRepository) Get(ctx context.Context, userID uuid.UUID, target models.Target) (*models.Like, error) {
	var like models.Like
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND target_type = ? AND target_id = ?", userID, target.Type, target.ID).
		First(&like).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get like: %w", err)
	}
	return &like, nil
}

func (r *LikeRepository) Count(ctx context.Context, target models.Target) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("target_type = ? AND target_id = ?", target.Type, target.ID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count likes: %w", err)
	}
	return count, nil
}

// CountByTargets counts likes per target id for one target type.
func (r *LikeRepository) CountByTargets(ctx context.Context, targetType models.TargetType, ids []uuid.UUID) (map[uuid.UUID]int64, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]int64{}, nil
	}
	var rows []countRow
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Select("target_id AS id, COUNT(*) AS total").
		Where("target_type = ? AND target_id IN ?", targetType, ids).
		Group("target_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count likes: %w", err)
	}
	return countMap(rows), nil
}

// LikedSet reports which of ids userID has liked.
func (r *LikeRepository) LikedSet(ctx context.Context, userID uuid.UUID, targetType models.TargetType, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	if userID == uuid.Nil || len(ids) == 0 {
		return map[uuid.UUID]bool{}, nil
	}
	var liked []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ? AND target_type = ? AND target_id IN ?", userID, targetType, ids).
		Pluck("target_id", &liked).Error; err != nil {
		return nil, fmt.Errorf("failed to get liked set: %w", err)
	}
	return idSet(liked), nil
}

// GetByTarget lists likes on a target with the liking user, newest first.
func (r *LikeRepository) GetByTarget(ctx context.Context, target models.Target, offset, limit int) ([]*models.Like, error) {
	var likes []*models.Like
	if err := r.db.WithContext(ctx).
		Preload("User", authorColumns).
		Where("target_type = ? AND target_id = ?", target.Type, target.ID).
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&likes).Error; err != nil {
		return nil, fmt.Errorf("failed to get likes by target: %w", err)
	}
	return likes, nil
}

func (r *LikeRepository) GetByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*models.Like, error) {
	var likes []*models.Like
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&likes).Error; err != nil {
		return nil, fmt.Errorf("failed to get likes by user: %w", err)
	}
	return likes, nil
}

// DeleteByTargets removes every like on the given targets of one type.
func (r *LikeRepository) DeleteByTargets(ctx context.Context, targetType models.TargetType, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).
		Where("target_type = ? AND target_id IN ?", targetType, ids).
		Delete(&models.Like{}).Error; err != nil {
		return fmt.Errorf("failed to delete likes: %w", err)
	}
	return nil
}

func (r *LikeRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.Like{}).Error; err != nil {
		return fmt.Errorf("failed to delete likes by user: %w", err)
	}
	return nil
}
