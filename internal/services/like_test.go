package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/social-feed/social-feed/internal/apperrors"
	"github.com/social-feed/social-feed/internal/testutil"
	"github.com/social-feed/social-feed/pkg/cache"
	"github.com/social-feed/social-feed/pkg/logger"
	"github.com/social-feed/social-feed/pkg/queue"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, key string, value interface{}) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func TestToggleLikeIsItsOwnInverse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, f.store, "alice")
	post := testutil.CreatePost(t, f.store, alice, "hello", testutil.At(1))

	result, err := f.likes.ToggleLike(ctx, alice.ID.String(), "post", post.ID.String())
	require.NoError(t, err)
	assert.True(t, result.IsLiked)
	assert.Equal(t, int64(1), result.LikeCount)

	result, err = f.likes.ToggleLike(ctx, alice.ID.String(), "post", post.ID.String())
	require.NoError(t, err)
	assert.False(t, result.IsLiked)
	assert.Equal(t, int64(0), result.LikeCount)

	assert.Equal(t, []queue.EventType{queue.EventLikeCreated, queue.EventLikeDeleted}, f.published.Types())
}

func TestToggleLikeRejectsBadTargets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, f.store, "alice")
	post := testutil.CreatePost(t, f.store, alice, "hello", testutil.At(1))
	comment, err := f.comments.CreateComment(ctx, alice.ID.String(), post.ID.String(), &CreateCommentRequest{Text: "c"})
	require.NoError(t, err)

	_, err = f.likes.ToggleLike(ctx, alice.ID.String(), "story", post.ID.String())
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	_, err = f.likes.ToggleLike(ctx, alice.ID.String(), "post", "0190f7a4-0000-7000-8000-000000000000")
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	// 评论不能按回复类型点赞
	_, err = f.likes.ToggleLike(ctx, alice.ID.String(), "reply", comment.ID.String())
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	result, err := f.likes.ToggleLike(ctx, alice.ID.String(), "comment", comment.ID.String())
	require.NoError(t, err)
	assert.True(t, result.IsLiked)
}

func TestLikeListings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, f.store, "alice")
	bob := testutil.CreateUser(t, f.store, "bob")
	post := testutil.CreatePost(t, f.store, alice, "hello", testutil.At(1))

	_, err := f.likes.ToggleLike(ctx, bob.ID.String(), "post", post.ID.String())
	require.NoError(t, err)

	likers, err := f.likes.GetPostLikers(ctx, post.ID.String(), 0, 10)
	require.NoError(t, err)
	require.Len(t, likers, 1)
	assert.Equal(t, "bob", likers[0].Username)

	likes, err := f.likes.GetUserLikes(ctx, "bob", 0, 10)
	require.NoError(t, err)
	require.Len(t, likes, 1)
	assert.Equal(t, post.ID, likes[0].TargetID)
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	store := testutil.NewStore(t)
	log := logger.Discard()
	publisher := &mockPublisher{}
	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

	events := NewEventPublisher(publisher, log, nil)
	likes := NewLikeService(store, events, testFeedConfig, log)
	users := NewUserService(store, NewUserCache(cache.NewMemoryStore(), time.Minute, nil, log), events, testFeedConfig, log)

	alice := testutil.CreateUser(t, store, "alice")
	bob := testutil.CreateUser(t, store, "bob")
	post := testutil.CreatePost(t, store, alice, "hello", testutil.At(1))

	result, err := likes.ToggleLike(context.Background(), bob.ID.String(), "post", post.ID.String())
	require.NoError(t, err)
	assert.True(t, result.IsLiked)

	follow, err := users.ToggleFollow(context.Background(), bob.ID.String(), alice.ID.String())
	require.NoError(t, err)
	assert.Equal(t, ActionFollowed, follow.Action)

	publisher.AssertNumberOfCalls(t, "Publish", 2)
}
