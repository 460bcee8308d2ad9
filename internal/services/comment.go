package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/social-feed/social-feed/internal/apperrors"
	"github.com/social-feed/social-feed/internal/config"
	"github.com/social-feed/social-feed/internal/models"
	"github.com/social-feed/social-feed/internal/repository"
	"github.com/social-feed/social-feed/pkg/logger"
	"github.com/social-feed/social-feed/pkg/queue"
)

type CommentService struct {
	store      *repository.Store
	engagement *EngagementService
	events     *EventPublisher
	config     config.FeedConfig
	logger     *logger.Logger
}

func NewCommentService(store *repository.Store, engagement *EngagementService, events *EventPublisher, cfg config.FeedConfig, logger *logger.Logger) *CommentService {
	return &CommentService{
		store:      store,
		engagement: engagement,
		events:     events,
		config:     cfg,
		logger:     logger,
	}
}

type CreateCommentRequest struct {
	Text  string `json:"text"`
	Image string `json:"image" binding:"omitempty,url"`
	Video string `json:"video" binding:"omitempty,url"`
}

func (s *CommentService) CreateComment(ctx context.Context, userID, postID string, req *CreateCommentRequest) (*models.EnrichedComment, error) {
	author, err := parseID(userID, "user")
	if err != nil {
		return nil, err
	}
	post, err := parseID(postID, "post")
	if err != nil {
		return nil, err
	}
	if err := validateContent(req.Text, req.Image, req.Video); err != nil {
		return nil, err
	}

	// 检查帖子是否存在
	exists, err := s.store.Posts.Exists(ctx, post)
	if err != nil {
		return nil, apperrors.Internal("failed to get post", err)
	}
	if !exists {
		return nil, apperrors.NotFound("post not found")
	}

	return s.create(ctx, author, post, nil, req)
}

// ReplyToComment replies to a comment or to another reply. The reply belongs
// to the same post as its parent.
func (s *CommentService) ReplyToComment(ctx context.Context, userID, commentID string, req *CreateCommentRequest) (*models.EnrichedComment, error) {
	author, err := parseID(userID, "user")
	if err != nil {
		return nil, err
	}
	parentID, err := parseID(commentID, "comment")
	if err != nil {
		return nil, err
	}
	if err := validateContent(req.Text, req.Image, req.Video); err != nil {
		return nil, err
	}

	parent, err := s.store.Comments.GetByID(ctx, parentID)
	if err != nil {
		return nil, apperrors.Internal("failed to get comment", err)
	}
	if parent == nil {
		return nil, apperrors.NotFound("comment not found")
	}

	return s.create(ctx, author, parent.PostID, &parent.ID, req)
}

func (s *CommentService) create(ctx context.Context, author, postID uuid.UUID, parentID *uuid.UUID, req *CreateCommentRequest) (*models.EnrichedComment, error) {
	comment := &models.Comment{
		UserID:   author,
		PostID:   postID,
		ParentID: parentID,
		Text:     strings.TrimSpace(req.Text),
		Image:    req.Image,
		Video:    req.Video,
	}
	if err := s.store.Comments.Create(ctx, comment); err != nil {
		return nil, apperrors.Internal("failed to create comment", err)
	}

	data := queue.CommentEventData{
		CommentID: comment.ID.String(),
		UserID:    author.String(),
		PostID:    postID.String(),
	}
	if parentID != nil {
		data.ParentID = parentID.String()
	}
	s.events.Publish(ctx, author.String(), queue.EventCommentCreated, data)

	s.logger.WithFields(map[string]interface{}{
		"user_id":    author,
		"post_id":    postID,
		"comment_id": comment.ID,
		"kind":       comment.Kind(),
	}).Info("Comment created successfully")

	created, err := s.store.Comments.GetByID(ctx, comment.ID)
	if err != nil {
		return nil, apperrors.Internal("failed to get comment", err)
	}
	if created == nil {
		return nil, apperrors.NotFound("comment not found")
	}
	return s.engagement.AnnotateComments(ctx, []*models.Comment{created}, author)[0], nil
}

// GetPostComments lists a post's top-level comments, newest first.
func (s *CommentService) GetPostComments(ctx context.Context, postID, viewerID string, offset, limit int) ([]*models.EnrichedComment, error) {
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

	comments, err := s.store.Comments.GetByPostID(ctx, id, page.Offset, page.Limit)
	if err != nil {
		return nil, apperrors.Internal("failed to get comments", err)
	}
	return s.engagement.AnnotateComments(ctx, comments, viewer), nil
}

// GetReplies lists the direct replies of a comment or reply, oldest first.
func (s *CommentService) GetReplies(ctx context.Context, commentID, viewerID string, offset, limit int) ([]*models.EnrichedComment, error) {
	id, err := parseID(commentID, "comment")
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

	parent, err := s.store.Comments.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Internal("failed to get comment", err)
	}
	if parent == nil {
		return nil, apperrors.NotFound("comment not found")
	}

	replies, err := s.store.Comments.GetReplies(ctx, id, page.Offset, page.Limit)
	if err != nil {
		return nil, apperrors.Internal("failed to get replies", err)
	}
	return s.engagement.AnnotateComments(ctx, replies, viewer), nil
}

// DeleteComment removes a comment together with every reply beneath it and
// the likes on all of them. Only the author may delete.
func (s *CommentService) DeleteComment(ctx context.Context, userID, commentID string) error {
	actor, err := parseID(userID, "user")
	if err != nil {
		return err
	}
	id, err := parseID(commentID, "comment")
	if err != nil {
		return err
	}

	comment, err := s.store.Comments.GetByID(ctx, id)
	if err != nil {
		return apperrors.Internal("failed to get comment", err)
	}
	if comment == nil {
		return apperrors.NotFound("comment not found")
	}
	if comment.UserID != actor {
		return apperrors.Forbidden("only the author can delete this comment")
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		thread, err := tx.Comments.Thread(ctx, id)
		if err != nil {
			return err
		}
		// 顶层评论和回复的点赞分属两种目标类型
		if err := tx.Likes.DeleteByTargets(ctx, models.TargetComment, thread); err != nil {
			return err
		}
		if err := tx.Likes.DeleteByTargets(ctx, models.TargetReply, thread); err != nil {
			return err
		}
		return tx.Comments.DeleteByIDs(ctx, thread)
	})
	if err != nil {
		return apperrors.Internal("failed to delete comment", err)
	}

	data := queue.CommentEventData{
		CommentID: id.String(),
		UserID:    actor.String(),
		PostID:    comment.PostID.String(),
	}
	if comment.ParentID != nil {
		data.ParentID = comment.ParentID.String()
	}
	s.events.Publish(ctx, actor.String(), queue.EventCommentDeleted, data)
	return nil
}
