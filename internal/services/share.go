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

// ShareService records outbound shares. Shares feed no aggregate.
type ShareService struct {
	store  *repository.Store
	events *EventPublisher
	config config.FeedConfig
	logger *logger.Logger
}

func NewShareService(store *repository.Store, events *EventPublisher, cfg config.FeedConfig, logger *logger.Logger) *ShareService {
	return &ShareService{
		store:  store,
		events: events,
		config: cfg,
		logger: logger,
	}
}

type CreateShareRequest struct {
	Message string `json:"message"`
}

func (s *ShareService) CreateShare(ctx context.Context, userID, targetType, targetID string, req *CreateShareRequest) (*models.Share, error) {
	user, err := parseID(userID, "user")
	if err != nil {
		return nil, err
	}
	target, err := parseTarget(targetType, targetID)
	if err != nil {
		return nil, err
	}

	message := strings.TrimSpace(req.Message)
	if utf8.RuneCountInString(message) > models.MaxTextLength {
		return nil, apperrors.Validation("message exceeds %d characters", models.MaxTextLength)
	}

	if err := resolveTarget(ctx, s.store, target); err != nil {
		return nil, err
	}

	share := &models.Share{
		UserID:     user,
		TargetType: target.Type,
		TargetID:   target.ID,
		Message:    message,
	}
	if err := s.store.Shares.Create(ctx, share); err != nil {
		return nil, apperrors.Internal("failed to create share", err)
	}

	s.events.Publish(ctx, user.String(), queue.EventShareCreated, queue.ShareEventData{
		ShareID:    share.ID.String(),
		UserID:     user.String(),
		TargetType: string(target.Type),
		TargetID:   target.ID.String(),
	})

	return share, nil
}

func (s *ShareService) GetUserShares(ctx context.Context, username string, offset, limit int) ([]*models.Share, error) {
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

	shares, err := s.store.Shares.GetByUser(ctx, user.ID, page.Offset, page.Limit)
	if err != nil {
		return nil, apperrors.Internal("failed to get shares", err)
	}
	return shares, nil
}
