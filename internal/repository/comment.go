package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/social-feed/social-feed/internal/models"
)

type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Omit("User").Create(comment).Error; err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

func (r *CommentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).
		Preload("User", authorColumns).
		First(&comment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return &comment, nil
}

// ExistsKind checks that id is a live comment of the given kind: a top-level
// comment when reply is false, a reply otherwise.
func (r *CommentRepository) ExistsKind(ctx context.Context, id uuid.UUID, reply bool) (bool, error) {
	db := r.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", id)
	if reply {
		db = db.Where("parent_id IS NOT NULL")
	} else {
		db = db.Where("parent_id IS NULL")
	}

	var count int64
	if err := db.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check comment: %w", err)
	}
	return count > 0, nil
}

// GetByPostID lists top-level comments of a post, newest first.
func (r *CommentRepository) GetByPostID(ctx context.Context, postID uuid.UUID, offset, limit int) ([]*models.Comment, error) {
	var comments []*models.Comment
	if err := r.db.WithContext(ctx).
		Preload("User", authorColumns).
		Where("post_id = ? AND parent_id IS NULL", postID).
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("failed to get comments by post: %w", err)
	}
	return comments, nil
}

// GetReplies lists direct replies of a comment or reply, oldest first.
func (r *CommentRepository) GetReplies(ctx context.Context, parentID uuid.UUID, offset, limit int) ([]*models.Comment, error) {
	var comments []*models.Comment
	if err := r.db.WithContext(ctx).
		Preload("User", authorColumns).
		Where("parent_id = ?", parentID).
		Order("created_at ASC").
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("failed to get replies: %w", err)
	}
	return comments, nil
}

func (r *CommentRepository) CountByParentIDs(ctx context.Context, parentIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	if len(parentIDs) == 0 {
		return map[uuid.UUID]int64{}, nil
	}
	var rows []countRow
	if err := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Select("parent_id AS id, COUNT(*) AS total").
		Where("parent_id IN ?", parentIDs).
		Group("parent_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count replies: %w", err)
	}
	return countMap(rows), nil
}

// Thread returns id plus the ids of every reply beneath it.
func (r *CommentRepository) Thread(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	return r.Threads(ctx, []uuid.UUID{id})
}

// Threads returns the roots and every reply beneath any of them, each id
// once.
func (r *CommentRepository) Threads(ctx context.Context, roots []uuid.UUID) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]bool, len(roots))
	var thread, frontier []uuid.UUID
	for _, id := range roots {
		if !seen[id] {
			seen[id] = true
			thread = append(thread, id)
			frontier = append(frontier, id)
		}
	}

	for len(frontier) > 0 {
		var children []uuid.UUID
		if err := r.db.WithContext(ctx).
			Model(&models.Comment{}).
			Where("parent_id IN ?", frontier).
			Pluck("id", &children).Error; err != nil {
			return nil, fmt.Errorf("failed to walk replies: %w", err)
		}
		frontier = frontier[:0]
		for _, id := range children {
			if !seen[id] {
				seen[id] = true
				thread = append(thread, id)
				frontier = append(frontier, id)
			}
		}
	}
	return thread, nil
}

func (r *CommentRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).
		Delete(&models.Comment{}, "id IN ?", ids).Error; err != nil {
		return fmt.Errorf("failed to delete comments: %w", err)
	}
	return nil
}

func (r *CommentRepository) IDsByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("user_id = ?", userID).
		Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to get comment ids: %w", err)
	}
	return ids, nil
}

// IDsByPostIDs returns the ids of every live comment and reply on postIDs.
func (r *CommentRepository) IDsByPostIDs(ctx context.Context, postIDs []uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if len(postIDs) == 0 {
		return ids, nil
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("post_id IN ?", postIDs).
		Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to get comment ids by posts: %w", err)
	}
	return ids, nil
}

func (r *CommentRepository) CountByPostID(ctx context.Context, postID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("post_id = ?", postID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}
	return count, nil
}
