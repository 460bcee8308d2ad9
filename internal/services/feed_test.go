package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/social-feed/social-feed/internal/apperrors"
	"github.com/social-feed/social-feed/internal/models"
	"github.com/social-feed/social-feed/internal/testutil"
)

// feedScenario: alice follows bob. alice posts at 20, bob reposts it at 25
// and posts at 30. carol, whom alice does not follow, posts at 40.
type feedScenario struct {
	alice, bob, carol *models.User
	alicePost         *models.Post
	bobPost           *models.Post
	carolPost         *models.Post
	repost            *models.Repost
}

func seedFeed(t *testing.T, f *fixture) feedScenario {
	t.Helper()
	s := feedScenario{
		alice: testutil.CreateUser(t, f.store, "alice"),
		bob:   testutil.CreateUser(t, f.store, "bob"),
		carol: testutil.CreateUser(t, f.store, "carol"),
	}
	testutil.Follow(t, f.store, s.alice, s.bob)

	s.alicePost = testutil.CreatePost(t, f.store, s.alice, "alice at 20", testutil.At(20))
	s.repost = testutil.CreateRepost(t, f.store, s.bob, s.alicePost, testutil.At(25))
	s.bobPost = testutil.CreatePost(t, f.store, s.bob, "bob at 30", testutil.At(30))
	s.carolPost = testutil.CreatePost(t, f.store, s.carol, "carol at 40", testutil.At(40))
	return s
}

func TestGetFeedMergesPostsAndRepostsByEffectiveTime(t *testing.T) {
	f := newFixture(t)
	s := seedFeed(t, f)

	resp, err := f.feed.GetFeed(context.Background(), s.alice.ID.String(), 0, 10)
	require.NoError(t, err)
	require.Len(t, resp.Items, 3)

	first, second, third := resp.Items[0], resp.Items[1], resp.Items[2]

	assert.Equal(t, models.FeedItemPost, first.Kind)
	assert.Equal(t, s.bobPost.ID, first.ID)

	assert.Equal(t, models.FeedItemRepost, second.Kind)
	require.NotNil(t, second.RepostID)
	assert.Equal(t, s.repost.ID, *second.RepostID)
	require.NotNil(t, second.RepostedBy)
	assert.Equal(t, "bob", second.RepostedBy.Username)
	require.NotNil(t, second.OriginalPost)
	assert.Equal(t, s.alicePost.ID, second.OriginalPost.ID)
	assert.Equal(t, int64(1), second.OriginalPost.RepostCount)
	assert.True(t, second.OriginalPost.IsReposted)

	assert.Equal(t, models.FeedItemPost, third.Kind)
	assert.Equal(t, s.alicePost.ID, third.ID)
	assert.True(t, third.IsReposted)
}

func TestGetFeedExcludesUsersNotFollowed(t *testing.T) {
	f := newFixture(t)
	s := seedFeed(t, f)

	resp, err := f.feed.GetFeed(context.Background(), s.alice.ID.String(), 0, 10)
	require.NoError(t, err)
	for _, item := range resp.Items {
		if item.Kind == models.FeedItemPost {
			assert.NotEqual(t, s.carolPost.ID, item.ID)
		}
	}
}

func TestGetFeedPagination(t *testing.T) {
	f := newFixture(t)
	s := seedFeed(t, f)
	ctx := context.Background()

	resp, err := f.feed.GetFeed(ctx, s.alice.ID.String(), 1, 1)
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, models.FeedItemRepost, resp.Items[0].Kind)
	assert.Equal(t, 1, resp.Offset)
	assert.Equal(t, 1, resp.Limit)

	resp, err = f.feed.GetFeed(ctx, s.alice.ID.String(), 3, 10)
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
}

func TestGetFeedEmptyForNewUser(t *testing.T) {
	f := newFixture(t)
	dave := testutil.CreateUser(t, f.store, "dave")

	resp, err := f.feed.GetFeed(context.Background(), dave.ID.String(), 0, 0)
	require.NoError(t, err)
	assert.NotNil(t, resp.Items)
	assert.Empty(t, resp.Items)
	assert.Equal(t, testFeedConfig.DefaultLimit, resp.Limit)
}

func TestGetFeedLimitIsCapped(t *testing.T) {
	f := newFixture(t)
	dave := testutil.CreateUser(t, f.store, "dave")

	resp, err := f.feed.GetFeed(context.Background(), dave.ID.String(), 0, 10000)
	require.NoError(t, err)
	assert.Equal(t, testFeedConfig.MaxLimit, resp.Limit)
}

func TestGetFeedRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	dave := testutil.CreateUser(t, f.store, "dave")
	ctx := context.Background()

	_, err := f.feed.GetFeed(ctx, dave.ID.String(), -1, 10)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	_, err = f.feed.GetFeed(ctx, "not-a-uuid", 0, 10)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestGetFeedSkipsRepostsOfDeletedPosts(t *testing.T) {
	f := newFixture(t)
	s := seedFeed(t, f)
	ctx := context.Background()

	require.NoError(t, f.posts.DeletePost(ctx, s.alice.ID.String(), s.alicePost.ID.String()))

	resp, err := f.feed.GetFeed(ctx, s.alice.ID.String(), 0, 10)
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, s.bobPost.ID, resp.Items[0].ID)
}

func TestGetFeedTiesBreakByIDDescending(t *testing.T) {
	f := newFixture(t)
	alice := testutil.CreateUser(t, f.store, "alice")
	first := testutil.CreatePost(t, f.store, alice, "first", testutil.At(10))
	second := testutil.CreatePost(t, f.store, alice, "second", testutil.At(10))

	resp, err := f.feed.GetFeed(context.Background(), alice.ID.String(), 0, 10)
	require.NoError(t, err)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, second.ID, resp.Items[0].ID)
	assert.Equal(t, first.ID, resp.Items[1].ID)
}

func TestGetFeedTimesOut(t *testing.T) {
	f := newFixture(t)
	dave := testutil.CreateUser(t, f.store, "dave")

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := f.feed.GetFeed(ctx, dave.ID.String(), 0, 10)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindTimeout))
}

func TestGetUserTimelineFlagsOnlyViewerReposts(t *testing.T) {
	f := newFixture(t)
	s := seedFeed(t, f)
	ctx := context.Background()

	resp, err := f.feed.GetUserTimeline(ctx, "alice", s.alice.ID.String(), 0, 10)
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, s.alicePost.ID, resp.Items[0].ID)
	assert.Equal(t, int64(1), resp.Items[0].RepostCount)
	assert.False(t, resp.Items[0].IsReposted)

	resp, err = f.feed.GetUserTimeline(ctx, "BOB", s.bob.ID.String(), 0, 10)
	require.NoError(t, err)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, s.bobPost.ID, resp.Items[0].ID)
	assert.Equal(t, models.FeedItemRepost, resp.Items[1].Kind)
	assert.True(t, resp.Items[1].OriginalPost.IsReposted)
}

func TestGetUserTimelineAnonymousViewer(t *testing.T) {
	f := newFixture(t)
	s := seedFeed(t, f)
	ctx := context.Background()

	_, err := f.likes.ToggleLike(ctx, s.bob.ID.String(), "post", s.bobPost.ID.String())
	require.NoError(t, err)

	resp, err := f.feed.GetUserTimeline(ctx, "bob", "", 0, 10)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Items)
	assert.Equal(t, int64(1), resp.Items[0].LikeCount)
	assert.False(t, resp.Items[0].IsLiked)

	_, err = f.feed.GetUserTimeline(ctx, "nobody", "", 0, 10)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestMergeFeedDropsRepostsWithoutOriginal(t *testing.T) {
	id := uuid.New()
	items := mergeFeed(nil, []*models.Repost{{ID: id, CreatedAt: testutil.At(1)}})
	assert.Empty(t, items)
}
