package services

import (
	"context"
	"errors"

	"github.com/social-feed/social-feed/internal/apperrors"
	"github.com/social-feed/social-feed/internal/config"
	"github.com/social-feed/social-feed/internal/models"
	"github.com/social-feed/social-feed/internal/repository"
	"github.com/social-feed/social-feed/pkg/logger"
	"github.com/social-feed/social-feed/pkg/queue"
)

// LikeService toggles likes. Like counts are not stored on the target; they
// are always counted on read.
type LikeService struct {
	store  *repository.Store
	events *EventPublisher
	config config.FeedConfig
	logger *logger.Logger
}

func NewLikeService(store *repository.Store, events *EventPublisher, cfg config.FeedConfig, logger *logger.Logger) *LikeService {
	return &LikeService{
		store:  store,
		events: events,
		config: cfg,
		logger: logger,
	}
}

type LikeResult struct {
	IsLiked   bool  `json:"is_liked"`
	LikeCount int64 `json:"like_count"`
}

// ToggleLike likes the target if the user has not liked it and unlikes it
// otherwise.
func (s *LikeService) ToggleLike(ctx context.Context, userID, targetType, targetID string) (*LikeResult, error) {
	user, err := parseID(userID, "user")
	if err != nil {
		return nil, err
	}
	target, err := parseTarget(targetType, targetID)
	if err != nil {
		return nil, err
	}

	// 检查目标是否存在
	if err := resolveTarget(ctx, s.store, target); err != nil {
		return nil, err
	}

	var liked bool
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		removed, err := tx.Likes.Delete(ctx, user, target)
		if err != nil {
			return err
		}
		if removed {
			liked = false
			return nil
		}
		liked = true
		if err := tx.Likes.Create(ctx, &models.Like{UserID: user, TargetType: target.Type, TargetID: target.ID}); err != nil {
			if repository.IsDuplicateKey(err) {
				return errEdgeExists
			}
			return err
		}
		return nil
	})
	switch {
	case errors.Is(err, errEdgeExists):
		liked = true
	case err != nil:
		return nil, apperrors.Internal("failed to toggle like", err)
	}

	count, err := s.store.Likes.Count(ctx, target)
	if err != nil {
		return nil, apperrors.Internal("failed to count likes", err)
	}

	eventType := queue.EventLikeDeleted
	if liked {
		eventType = queue.EventLikeCreated
	}
	s.events.Publish(ctx, user.String(), eventType, queue.LikeEventData{
		UserID:     user.String(),
		TargetType: string(target.Type),
		TargetID:   target.ID.String(),
	})

	s.logger.WithFields(map[string]interface{}{
		"user_id":  user,
		"target":   target.String(),
		"is_liked": liked,
	}).Info("Like toggled")

	return &LikeResult{IsLiked: liked, LikeCount: count}, nil
}

// GetPostLikers lists the users who liked a post, newest first.
func (s *LikeService) GetPostLikers(ctx context.Context, postID string, offset, limit int) ([]models.UserSummary, error) {
	id, err := parseID(postID, "post")
	if err != nil {
		return nil, err
	}
	page, err := NewPage(offset, limit, s.config)
	if err != nil {
		return nil, err
	}

	exists, err := s.store.Posts.Exists(ctx, id)
	if err != nil {
		return nil, apperrors.Internal("failed to get post", err)
	}
	if !exists {
		return nil, apperrors.NotFound("post not found")
	}

	likes, err := s.store.Likes.GetByTarget(ctx, models.Target{Type: models.TargetPost, ID: id}, page.Offset, page.Limit)
	if err != nil {
		return nil, apperrors.Internal("failed to get likes", err)
	}

	users := make([]models.UserSummary, 0, len(likes))
	for _, like := range likes {
		if like.User != nil {
			users = append(users, like.User.Summary())
		}
	}
	return users, nil
}

// GetUserLikes lists a user's likes, newest first.
func (s *LikeService) GetUserLikes(ctx context.Context, username string, offset, limit int) ([]*models.Like, error) {
	page, err := NewPage(offset, limit, s.config)
	if err != nil {
		return nil, err
	}
	user, err := s.store.Users.GetByUsername(ctx, normalizeUsername(username))
	if err != nil {
		return nil, apperrors.Internal("failed to get user", err)
	}
	if user == nil {
		return nil, apperrors.NotFound("user not found")
	}

	likes, err := s.store.Likes.GetByUser(ctx, user.ID, page.Offset, page.Limit)
	if err != nil {
		return nil, apperrors.Internal("failed to get likes", err)
	}
	return likes, nil
}
