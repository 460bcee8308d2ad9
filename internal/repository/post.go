package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/social-feed/social-feed/internal/models"
)

type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

// withRelations preloads the author and the parent post with its author.
func withRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("User", authorColumns).
		Preload("Parent").
		Preload("Parent.User", authorColumns)
}

func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit("User", "Parent").Create(post).Error; err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

func (r *PostRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	var post models.Post
	if err := withRelations(r.db.WithContext(ctx)).
		First(&post, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return &post, nil
}

func (r *PostRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check post: %w", err)
	}
	return count > 0, nil
}

// GetByAuthorIDs returns the newest posts authored by any of userIDs,
// ordered by (created_at, id) descending.
func (r *PostRepository) GetByAuthorIDs(ctx context.Context, userIDs []uuid.UUID, limit int) ([]*models.Post, error) {
	var posts []*models.Post
	if len(userIDs) == 0 {
		return posts, nil
	}
	if err := withRelations(r.db.WithContext(ctx)).
		Where("user_id IN ?", userIDs).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to get posts by authors: %w", err)
	}
	return posts, nil
}

func (r *PostRepository) GetByParentID(ctx context.Context, parentID uuid.UUID, offset, limit int) ([]*models.Post, error) {
	var posts []*models.Post
	if err := withRelations(r.db.WithContext(ctx)).
		Where("parent_id = ?", parentID).
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to get nested posts: %w", err)
	}
	return posts, nil
}

// CountByParentIDs counts live nested posts per parent.
func (r *PostRepository) CountByParentIDs(ctx context.Context, parentIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	if len(parentIDs) == 0 {
		return map[uuid.UUID]int64{}, nil
	}
	var rows []countRow
	if err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Select("parent_id AS id, COUNT(*) AS total").
		Where("parent_id IN ?", parentIDs).
		Group("parent_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count nested posts: %w", err)
	}
	return countMap(rows), nil
}

func (r *PostRepository) UpdateContent(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", id).
		Updates(fields).Error; err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	return nil
}

// Delete soft-deletes the post.
func (r *PostRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&models.Post{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return nil
}

// IDsByUser returns the ids of every live post authored by userID.
func (r *PostRepository) IDsByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("user_id = ?", userID).
		Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to get post ids: %w", err)
	}
	return ids, nil
}

func (r *PostRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&models.Post{}, "user_id = ?", userID).Error; err != nil {
		return fmt.Errorf("failed to delete posts by user: %w", err)
	}
	return nil
}

func (r *PostRepository) Search(ctx context.Context, query string, offset, limit int) ([]*models.Post, error) {
	var posts []*models.Post
	db := withRelations(r.db.WithContext(ctx))

	if query != "" {
		db = db.Where(`text LIKE ? ESCAPE '\'`, containsPattern(query))
	}

	if err := db.Order("created_at DESC").Order("id DESC").Offset(offset).Limit(limit).Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to search posts: %w", err)
	}
	return posts, nil
}
