package workers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/social-feed/social-feed/internal/models"
	"github.com/social-feed/social-feed/internal/services"
	"github.com/social-feed/social-feed/pkg/cache"
	"github.com/social-feed/social-feed/pkg/logger"
	"github.com/social-feed/social-feed/pkg/queue"
)

// sliceSubscriber delivers a fixed batch of messages and then returns.
type sliceSubscriber struct {
	messages []queue.Message
	errs     []error
}

func (s *sliceSubscriber) Subscribe(ctx context.Context, handler func(context.Context, queue.Message) error) error {
	for _, msg := range s.messages {
		s.errs = append(s.errs, handler(ctx, msg))
	}
	return nil
}

func message(t *testing.T, eventType queue.EventType, data interface{}) queue.Message {
	t.Helper()
	event, err := queue.NewEvent(eventType, data)
	require.NoError(t, err)
	raw, err := json.Marshal(event)
	require.NoError(t, err)
	return queue.Message{Key: "k", Value: raw, Topic: "social-events"}
}

func cachedUser(t *testing.T, userCache *services.UserCache) *models.User {
	t.Helper()
	user := &models.User{ID: uuid.New(), Username: uuid.NewString()[:8]}
	userCache.Set(context.Background(), user)
	_, ok := userCache.Get(context.Background(), user.ID)
	require.True(t, ok)
	return user
}

func TestFollowEventsInvalidateBothUsers(t *testing.T) {
	ctx := context.Background()
	userCache := services.NewUserCache(cache.NewMemoryStore(), time.Minute, nil, logger.Discard())
	follower := cachedUser(t, userCache)
	following := cachedUser(t, userCache)
	bystander := cachedUser(t, userCache)

	sub := &sliceSubscriber{messages: []queue.Message{
		message(t, queue.EventFollowCreated, queue.FollowEventData{
			FollowerID:  follower.ID.String(),
			FollowingID: following.ID.String(),
		}),
	}}
	w := NewEventWorker(userCache, sub, logger.Discard())
	require.NoError(t, w.Start(ctx))
	require.Equal(t, []error{nil}, sub.errs)

	_, ok := userCache.Get(ctx, follower.ID)
	assert.False(t, ok)
	_, ok = userCache.Get(ctx, following.ID)
	assert.False(t, ok)
	_, ok = userCache.Get(ctx, bystander.ID)
	assert.True(t, ok)
}

func TestUserEventsInvalidateUser(t *testing.T) {
	ctx := context.Background()
	userCache := services.NewUserCache(cache.NewMemoryStore(), time.Minute, nil, logger.Discard())
	w := NewEventWorker(userCache, &sliceSubscriber{}, logger.Discard())

	for _, eventType := range []queue.EventType{queue.EventUserUpdated, queue.EventUserDeleted} {
		t.Run(string(eventType), func(t *testing.T) {
			user := cachedUser(t, userCache)
			event, err := queue.NewEvent(eventType, queue.UserEventData{UserID: user.ID.String(), Username: user.Username})
			require.NoError(t, err)

			require.NoError(t, w.HandleEvent(ctx, event))
			_, ok := userCache.Get(ctx, user.ID)
			assert.False(t, ok)
		})
	}
}

func TestHandleEventIgnoresOtherTypes(t *testing.T) {
	ctx := context.Background()
	userCache := services.NewUserCache(cache.NewMemoryStore(), time.Minute, nil, logger.Discard())
	user := cachedUser(t, userCache)
	w := NewEventWorker(userCache, &sliceSubscriber{}, logger.Discard())

	for _, eventType := range []queue.EventType{queue.EventPostCreated, queue.EventLikeCreated, "something_else"} {
		event, err := queue.NewEvent(eventType, queue.UserEventData{UserID: user.ID.String()})
		require.NoError(t, err)
		assert.NoError(t, w.HandleEvent(ctx, event))
	}

	_, ok := userCache.Get(ctx, user.ID)
	assert.True(t, ok)
}

func TestHandleMessageRejectsBadPayloads(t *testing.T) {
	ctx := context.Background()
	userCache := services.NewUserCache(cache.NewMemoryStore(), time.Minute, nil, logger.Discard())
	w := NewEventWorker(userCache, &sliceSubscriber{}, logger.Discard())

	assert.Error(t, w.HandleMessage(ctx, queue.Message{Value: []byte("not json")}))
	assert.Error(t, w.HandleMessage(ctx, message(t, queue.EventFollowCreated, queue.FollowEventData{FollowerID: "x", FollowingID: "y"})))
	assert.Error(t, w.HandleMessage(ctx, message(t, queue.EventUserUpdated, queue.UserEventData{UserID: "nope"})))
}

func TestStartPropagatesConsumerError(t *testing.T) {
	boom := errors.New("broker down")
	w := NewEventWorker(nil, failingSubscriber{err: boom}, logger.Discard())
	assert.ErrorIs(t, w.Start(context.Background()), boom)
}

type failingSubscriber struct{ err error }

func (f failingSubscriber) Subscribe(context.Context, func(context.Context, queue.Message) error) error {
	return f.err
}
