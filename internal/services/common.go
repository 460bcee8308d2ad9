package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/social-feed/social-feed/internal/apperrors"
	"github.com/social-feed/social-feed/internal/config"
	"github.com/social-feed/social-feed/internal/metrics"
	"github.com/social-feed/social-feed/internal/models"
	"github.com/social-feed/social-feed/internal/repository"
	"github.com/social-feed/social-feed/pkg/logger"
	"github.com/social-feed/social-feed/pkg/queue"
)

// parseID parses a required id; what names it in the error message.
func parseID(raw, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, apperrors.Validation("invalid %s ID", what)
	}
	return id, nil
}

// parseViewerID returns uuid.Nil for an anonymous viewer.
func parseViewerID(raw string) (uuid.UUID, error) {
	if strings.TrimSpace(raw) == "" {
		return uuid.Nil, nil
	}
	return parseID(raw, "viewer")
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Page is a normalized offset/limit window.
type Page struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// NewPage applies the default limit, caps it at max, and rejects negative
// offsets.
func NewPage(offset, limit int, cfg config.FeedConfig) (Page, error) {
	if offset < 0 {
		return Page{}, apperrors.Validation("offset must not be negative")
	}
	if limit <= 0 {
		limit = cfg.DefaultLimit
	}
	if limit > cfg.MaxLimit {
		limit = cfg.MaxLimit
	}
	return Page{Offset: offset, Limit: limit}, nil
}

// Window is how many rows a source must return to cover the page.
func (p Page) Window() int {
	return p.Offset + p.Limit
}

// validateContent enforces the text limit and that something is posted.
func validateContent(text, image, video string) error {
	if utf8.RuneCountInString(text) > models.MaxTextLength {
		return apperrors.Validation("text exceeds %d characters", models.MaxTextLength)
	}
	if strings.TrimSpace(text) == "" && image == "" && video == "" {
		return apperrors.Validation("text, image or video is required")
	}
	return nil
}

// resolveTarget checks that a like or share target exists. Every target
// kind is handled here.
func resolveTarget(ctx context.Context, store *repository.Store, target models.Target) error {
	var (
		exists bool
		err    error
	)
	switch target.Type {
	case models.TargetPost:
		exists, err = store.Posts.Exists(ctx, target.ID)
	case models.TargetComment:
		exists, err = store.Comments.ExistsKind(ctx, target.ID, false)
	case models.TargetReply:
		exists, err = store.Comments.ExistsKind(ctx, target.ID, true)
	default:
		return apperrors.Validation("unknown target type %q", target.Type)
	}
	if err != nil {
		return apperrors.Internal("failed to resolve target", err)
	}
	if !exists {
		return apperrors.NotFound("%s not found", target.Type)
	}
	return nil
}

func parseTarget(targetType, targetID string) (models.Target, error) {
	tt, err := models.ParseTargetType(targetType)
	if err != nil {
		return models.Target{}, apperrors.Validation("%s", err.Error())
	}
	id, err := parseID(targetID, string(tt))
	if err != nil {
		return models.Target{}, err
	}
	return models.Target{Type: tt, ID: id}, nil
}

// EventPublisher sends social events to the bus. Failures are logged and
// never fail the caller.
type EventPublisher struct {
	producer queue.Publisher
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewEventPublisher(producer queue.Publisher, logger *logger.Logger, metrics *metrics.Metrics) *EventPublisher {
	return &EventPublisher{producer: producer, logger: logger, metrics: metrics}
}

func (p *EventPublisher) Publish(ctx context.Context, key string, eventType queue.EventType, data interface{}) {
	if p == nil || p.producer == nil {
		return
	}

	event, err := queue.NewEvent(eventType, data)
	if err == nil {
		err = p.producer.Publish(ctx, key, event)
	}
	p.metrics.RecordEventPublished(ctx, string(eventType), err == nil)
	if err != nil {
		p.logger.WithError(err).WithField("event", eventType).Error("Failed to publish event")
	}
}
