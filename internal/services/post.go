package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/social-feed/social-feed/internal/apperrors"
	"github.com/social-feed/social-feed/internal/config"
	"github.com/social-feed/social-feed/internal/models"
	"github.com/social-feed/social-feed/internal/repository"
	"github.com/social-feed/social-feed/pkg/logger"
	"github.com/social-feed/social-feed/pkg/queue"
)

type PostService struct {
	store      *repository.Store
	engagement *EngagementService
	events     *EventPublisher
	config     config.FeedConfig
	logger     *logger.Logger
}

func NewPostService(store *repository.Store, engagement *EngagementService, events *EventPublisher, cfg config.FeedConfig, logger *logger.Logger) *PostService {
	return &PostService{
		store:      store,
		engagement: engagement,
		events:     events,
		config:     cfg,
		logger:     logger,
	}
}

type CreatePostRequest struct {
	Text  string `json:"text"`
	Image string `json:"image" binding:"omitempty,url"`
	Video string `json:"video" binding:"omitempty,url"`
}

type UpdatePostRequest struct {
	Text  *string `json:"text"`
	Image *string `json:"image" binding:"omitempty,url"`
	Video *string `json:"video" binding:"omitempty,url"`
}

func (s *PostService) CreatePost(ctx context.Context, userID string, req *CreatePostRequest) (*models.EnrichedPost, error) {
	return s.create(ctx, userID, nil, req)
}

// CreateNestedPost creates a post under an existing parent post.
func (s *PostService) CreateNestedPost(ctx context.Context, userID, parentID string, req *CreatePostRequest) (*models.EnrichedPost, error) {
	parent, err := parseID(parentID, "post")
	if err != nil {
		return nil, err
	}
	return s.create(ctx, userID, &parent, req)
}

func (s *PostService) create(ctx context.Context, userID string, parentID *uuid.UUID, req *CreatePostRequest) (*models.EnrichedPost, error) {
	author, err := parseID(userID, "user")
	if err != nil {
		return nil, err
	}
	if err := validateContent(req.Text, req.Image, req.Video); err != nil {
		return nil, err
	}

	// 父帖子必须已存在，因此不会形成环
	if parentID != nil {
		exists, err := s.store.Posts.Exists(ctx, *parentID)
		if err != nil {
			return nil, apperrors.Internal("failed to get parent post", err)
		}
		if !exists {
			return nil, apperrors.NotFound("parent post not found")
		}
	}

	post := &models.Post{
		UserID:   author,
		ParentID: parentID,
		Text:     strings.TrimSpace(req.Text),
		Image:    req.Image,
		Video:    req.Video,
	}
	if err := s.store.Posts.Create(ctx, post); err != nil {
		return nil, apperrors.Internal("failed to create post", err)
	}

	data := queue.PostEventData{
		PostID:    post.ID.String(),
		UserID:    author.String(),
		CreatedAt: post.CreatedAt.UTC().Format(time.RFC3339),
	}
	if parentID != nil {
		data.ParentID = parentID.String()
	}
	s.events.Publish(ctx, author.String(), queue.EventPostCreated, data)

	s.logger.WithFields(map[string]interface{}{
		"user_id": author,
		"post_id": post.ID,
		"nested":  parentID != nil,
	}).Info("Post created successfully")

	return s.load(ctx, post.ID, author)
}

// GetPost returns a post enriched for the viewer; viewerID may be empty.
func (s *PostService) GetPost(ctx context.Context, postID, viewerID string) (*models.EnrichedPost, error) {
	id, err := parseID(postID, "post")
	if err != nil {
		return nil, err
	}
	viewer, err := parseViewerID(viewerID)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, id, viewer)
}

func (s *PostService) load(ctx context.Context, id, viewer uuid.UUID) (*models.EnrichedPost, error) {
	post, err := s.store.Posts.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Internal("failed to get post", err)
	}
	if post == nil {
		return nil, apperrors.NotFound("post not found")
	}
	return s.engagement.AnnotatePost(ctx, post, viewer), nil
}

// GetNestedPosts lists the nested posts directly under a post.
func (s *PostService) GetNestedPosts(ctx context.Context, postID, viewerID string, offset, limit int) ([]*models.EnrichedPost, error) {
	id, err := parseID(postID, "post")
	if err != nil {
		return nil, err
	}
	viewer, err := parseViewerID(viewerID)
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

	posts, err := s.store.Posts.GetByParentID(ctx, id, page.Offset, page.Limit)
	if err != nil {
		return nil, apperrors.Internal("failed to get nested posts", err)
	}
	enriched := Enrich(posts)
	s.engagement.AnnotatePosts(ctx, enriched, viewer, nil)
	return enriched, nil
}

// UpdatePost changes the content of a post; only the author may do so.
func (s *PostService) UpdatePost(ctx context.Context, userID, postID string, req *UpdatePostRequest) (*models.EnrichedPost, error) {
	actor, err := parseID(userID, "user")
	if err != nil {
		return nil, err
	}
	id, err := parseID(postID, "post")
	if err != nil {
		return nil, err
	}

	post, err := s.store.Posts.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Internal("failed to get post", err)
	}
	if post == nil {
		return nil, apperrors.NotFound("post not found")
	}
	if post.UserID != actor {
		return nil, apperrors.Forbidden("only the author can edit this post")
	}

	fields := make(map[string]interface{})
	if req.Text != nil {
		post.Text = strings.TrimSpace(*req.Text)
		fields["text"] = post.Text
	}
	if req.Image != nil {
		post.Image = *req.Image
		fields["image"] = post.Image
	}
	if req.Video != nil {
		post.Video = *req.Video
		fields["video"] = post.Video
	}
	if err := validateContent(post.Text, post.Image, post.Video); err != nil {
		return nil, err
	}

	if err := s.store.Posts.UpdateContent(ctx, id, fields); err != nil {
		return nil, apperrors.Internal("failed to update post", err)
	}

	s.events.Publish(ctx, actor.String(), queue.EventPostUpdated, queue.PostEventData{
		PostID: id.String(),
		UserID: actor.String(),
	})

	return s.load(ctx, id, actor)
}

// DeletePost tombstones a post and removes the likes on it and its
// reposts. Nested posts keep their parent reference. Authors and admins may
// delete; admin status is read from the stored account.
func (s *PostService) DeletePost(ctx context.Context, userID, postID string) error {
	actor, err := parseID(userID, "user")
	if err != nil {
		return err
	}
	id, err := parseID(postID, "post")
	if err != nil {
		return err
	}

	post, err := s.store.Posts.GetByID(ctx, id)
	if err != nil {
		return apperrors.Internal("failed to get post", err)
	}
	if post == nil {
		return apperrors.NotFound("post not found")
	}
	if post.UserID != actor {
		user, err := s.store.Users.GetByID(ctx, actor)
		if err != nil {
			return apperrors.Internal("failed to get user", err)
		}
		if user == nil || !user.IsAdmin() {
			return apperrors.Forbidden("only the author can delete this post")
		}
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Posts.Delete(ctx, id); err != nil {
			return err
		}
		if err := tx.Likes.DeleteByTargets(ctx, models.TargetPost, []uuid.UUID{id}); err != nil {
			return err
		}
		return tx.Reposts.DeleteByPostIDs(ctx, []uuid.UUID{id})
	})
	if err != nil {
		return apperrors.Internal("failed to delete post", err)
	}

	s.events.Publish(ctx, post.UserID.String(), queue.EventPostDeleted, queue.PostEventData{
		PostID: id.String(),
		UserID: post.UserID.String(),
	})

	s.logger.WithFields(map[string]interface{}{
		"user_id": actor,
		"post_id": id,
	}).Info("Post deleted successfully")
	return nil
}

// ListPosts returns every post, newest first.
func (s *PostService) ListPosts(ctx context.Context, viewerID string, offset, limit int) ([]*models.EnrichedPost, error) {
	return s.SearchPosts(ctx, "", viewerID, offset, limit)
}

func (s *PostService) SearchPosts(ctx context.Context, query, viewerID string, offset, limit int) ([]*models.EnrichedPost, error) {
	viewer, err := parseViewerID(viewerID)
	if err != nil {
		return nil, err
	}
	page, err := NewPage(offset, limit, s.config)
	if err != nil {
		return nil, err
	}

	posts, err := s.store.Posts.Search(ctx, strings.TrimSpace(query), page.Offset, page.Limit)
	if err != nil {
		return nil, apperrors.Internal("failed to search posts", err)
	}
	enriched := Enrich(posts)
	s.engagement.AnnotatePosts(ctx, enriched, viewer, nil)
	return enriched, nil
}
