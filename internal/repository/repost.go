package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/social-feed/social-feed/internal/models"
)

type RepostRepository struct {
	db *gorm.DB
}

func NewRepostRepository(db *gorm.DB) *RepostRepository {
	return &RepostRepository{db: db}
}

func (r *RepostRepository) Create(ctx context.Context, repost *models.Repost) error {
	if err := r.db.WithContext(ctx).Omit("User", "OriginalPost").Create(repost).Error; err != nil {
		return fmt.Errorf("failed to create repost: %w", err)
	}
	return nil
}

// livePosts restricts reposts to those whose original post is not deleted.
func (r *RepostRepository) livePosts(db *gorm.DB) *gorm.DB {
	return db.Where("original_post_id IN (?)", r.db.Model(&models.Post{}).Select("id"))
}

// GetByUserIDs returns the newest reposts made by any of userIDs whose
// original still exists, with the reposter and the original post loaded.
func (r *RepostRepository) GetByUserIDs(ctx context.Context, userIDs []uuid.UUID, limit int) ([]*models.Repost, error) {
	var reposts []*models.Repost
	if len(userIDs) == 0 {
		return reposts, nil
	}
	if err := r.livePosts(r.db.WithContext(ctx)).
		Preload("User", authorColumns).
		Preload("OriginalPost").
		Preload("OriginalPost.User", authorColumns).
		Preload("OriginalPost.Parent").
		Preload("OriginalPost.Parent.User", authorColumns).
		Where("user_id IN ?", userIDs).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&reposts).Error; err != nil {
		return nil, fmt.Errorf("failed to get reposts by users: %w", err)
	}
	return reposts, nil
}

// List returns every live repost, newest first.
func (r *RepostRepository) List(ctx context.Context, offset, limit int) ([]*models.Repost, error) {
	var reposts []*models.Repost
	if err := r.livePosts(r.db.WithContext(ctx)).
		Preload("User", authorColumns).
		Preload("OriginalPost").
		Preload("OriginalPost.User", authorColumns).
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&reposts).Error; err != nil {
		return nil, fmt.Errorf("failed to list reposts: %w", err)
	}
	return reposts, nil
}

func (r *RepostRepository) GetByPostID(ctx context.Context, postID uuid.UUID, offset, limit int) ([]*models.Repost, error) {
	var reposts []*models.Repost
	if err := r.db.WithContext(ctx).
		Preload("User", authorColumns).
		Where("original_post_id = ?", postID).
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&reposts).Error; err != nil {
		return nil, fmt.Errorf("failed to get reposts by post: %w", err)
	}
	return reposts, nil
}

func (r *RepostRepository) CountByPostIDs(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	if len(postIDs) == 0 {
		return map[uuid.UUID]int64{}, nil
	}
	var rows []countRow
	if err := r.db.WithContext(ctx).
		Model(&models.Repost{}).
		Select("original_post_id AS id, COUNT(*) AS total").
		Where("original_post_id IN ?", postIDs).
		Group("original_post_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count reposts: %w", err)
	}
	return countMap(rows), nil
}

// RepostedSet reports which of postIDs were reposted by any of userIDs.
func (r *RepostRepository) RepostedSet(ctx context.Context, userIDs, postIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	if len(userIDs) == 0 || len(postIDs) == 0 {
		return map[uuid.UUID]bool{}, nil
	}
	var reposted []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.Repost{}).
		Distinct("original_post_id").
		Where("user_id IN ? AND original_post_id IN ?", userIDs, postIDs).
		Pluck("original_post_id", &reposted).Error; err != nil {
		return nil, fmt.Errorf("failed to get reposted set: %w", err)
	}
	return idSet(reposted), nil
}

func (r *RepostRepository) DeleteByPostIDs(ctx context.Context, postIDs []uuid.UUID) error {
	if len(postIDs) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).
		Where("original_post_id IN ?", postIDs).
		Delete(&models.Repost{}).Error; err != nil {
		return fmt.Errorf("failed to delete reposts: %w", err)
	}
	return nil
}

func (r *RepostRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.Repost{}).Error; err != nil {
		return fmt.Errorf("failed to delete reposts by user: %w", err)
	}
	return nil
}
