package workers

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/social-feed/social-feed/internal/services"
	"github.com/social-feed/social-feed/pkg/logger"
	"github.com/social-feed/social-feed/pkg/queue"
)

// Subscriber is the consuming side of the event queue.
type Subscriber interface {
	Subscribe(ctx context.Context, handler func(context.Context, queue.Message) error) error
}

// EventWorker 消费社交事件，维护读缓存
type EventWorker struct {
	userCache *services.UserCache
	consumer  Subscriber
	logger    *logger.Logger
}

func NewEventWorker(userCache *services.UserCache, consumer Subscriber, logger *logger.Logger) *EventWorker {
	return &EventWorker{
		userCache: userCache,
		consumer:  consumer,
		logger:    logger,
	}
}

// Start blocks until ctx is cancelled or the consumer fails.
func (w *EventWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting event worker...")
	return w.consumer.Subscribe(ctx, w.HandleMessage)
}

func (w *EventWorker) HandleMessage(ctx context.Context, msg queue.Message) error {
	event, err := msg.Decode()
	if err != nil {
		return err
	}
	return w.HandleEvent(ctx, event)
}

func (w *EventWorker) HandleEvent(ctx context.Context, event queue.Event) error {
	w.logger.WithFields(map[string]interface{}{
		"event_type": event.Type,
		"timestamp":  event.Timestamp,
	}).Debug("Processing event")

	switch event.Type {
	case queue.EventFollowCreated, queue.EventFollowDeleted:
		return w.handleFollowChanged(ctx, event)
	case queue.EventUserUpdated, queue.EventUserDeleted:
		return w.handleUserChanged(ctx, event)
	case queue.EventUserCreated,
		queue.EventPostCreated, queue.EventPostUpdated, queue.EventPostDeleted,
		queue.EventLikeCreated, queue.EventLikeDeleted,
		queue.EventRepostCreated, queue.EventShareCreated,
		queue.EventCommentCreated, queue.EventCommentDeleted:
		// 计数在读取时聚合，无需处理
		return nil
	default:
		w.logger.WithField("event_type", event.Type).Warn("Unknown event type")
		return nil
	}
}

// 关注关系变化会改变双方的计数
func (w *EventWorker) handleFollowChanged(ctx context.Context, event queue.Event) error {
	var data queue.FollowEventData
	if err := event.Unmarshal(&data); err != nil {
		return fmt.Errorf("invalid %s event data: %w", event.Type, err)
	}

	follower, err := uuid.Parse(data.FollowerID)
	if err != nil {
		return fmt.Errorf("invalid follower_id in %s event: %w", event.Type, err)
	}
	following, err := uuid.Parse(data.FollowingID)
	if err != nil {
		return fmt.Errorf("invalid following_id in %s event: %w", event.Type, err)
	}

	w.userCache.Invalidate(ctx, follower, following)
	return nil
}

func (w *EventWorker) handleUserChanged(ctx context.Context, event queue.Event) error {
	var data queue.UserEventData
	if err := event.Unmarshal(&data); err != nil {
		return fmt.Errorf("invalid %s event data: %w", event.Type, err)
	}

	id, err := uuid.Parse(data.UserID)
	if err != nil {
		return fmt.Errorf("invalid user_id in %s event: %w", event.Type, err)
	}

	w.userCache.Invalidate(ctx, id)
	return nil
}
