package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/social-feed/social-feed/internal/apperrors"
	"github.com/social-feed/social-feed/internal/config"
	"github.com/social-feed/social-feed/internal/models"
	"github.com/social-feed/social-feed/internal/repository"
	"github.com/social-feed/social-feed/pkg/logger"
	"github.com/social-feed/social-feed/pkg/queue"
)

type RepostService struct {
	store  *repository.Store
	events *EventPublisher
	config config.FeedConfig
	logger *logger.Logger
}

func NewRepostService(store *repository.Store, events *EventPublisher, cfg config.FeedConfig, logger *logger.Logger) *RepostService {
	return &RepostService{
		store:  store,
		events: events,
		config: cfg,
		logger: logger,
	}
}

type CreateRepostRequest struct {
	Comment string `json:"comment"`
}

// CreateRepost always records a new repost; reposting the same post again,
// or one's own post, is allowed.
func (s *RepostService) CreateRepost(ctx context.Context, userID, postID string, req *CreateRepostRequest) (*models.Repost, error) {
	user, err := parseID(userID, "user")
	if err != nil {
		return nil, err
	}
	original, err := parseID(postID, "post")
	if err != nil {
		return nil, err
	}

	comment := strings.TrimSpace(req.Comment)
	if utf8.RuneCountInString(comment) > models.MaxRepostCommentLength {
		return nil, apperrors.Validation("comment exceeds %d characters", models.MaxRepostCommentLength)
	}

	exists, err := s.store.Posts.Exists(ctx, original)
	if err != nil {
		return nil, apperrors.Internal("failed to get post", err)
	}
	if !exists {
		return nil, apperrors.NotFound("post not found")
	}

	repost := &models.Repost{
		UserID:         user,
		OriginalPostID: original,
		Comment:        comment,
	}
	if err := s.store.Reposts.Create(ctx, repost); err != nil {
		return nil, apperrors.Internal("failed to create repost", err)
	}

	s.events.Publish(ctx, user.String(), queue.EventRepostCreated, queue.RepostEventData{
		RepostID:       repost.ID.String(),
		UserID:         user.String(),
		OriginalPostID: original.String(),
	})

	s.logger.WithFields(map[string]interface{}{
		"user_id":   user,
		"post_id":   original,
		"repost_id": repost.ID,
	}).Info("Post reposted")

	return repost, nil
}

// GetPostReposts lists reposts of a post with the reposting user.
// ListReposts returns every repost whose original still exists.
func (s *RepostService) ListReposts(ctx context.Context, offset, limit int) ([]*models.Repost, error) {
	page, err := NewPage(offset, limit, s.config)
	if err != nil {
		return nil, err
	}
	reposts, err := s.store.Reposts.List(ctx, page.Offset, page.Limit)
	if err != nil {
		return nil, apperrors.Internal("failed to list reposts", err)
	}
	return reposts, nil
}

func (s *RepostService) GetPostReposts(ctx context.Context, postID string, offset, limit int) ([]*models.Repost, error) {
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

	reposts, err := s.store.Reposts.GetByPostID(ctx, id, page.Offset, page.Limit)
	if err != nil {
		return nil, apperrors.Internal("failed to get reposts", err)
	}
	return reposts, nil
}
