package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/social-feed/social-feed/internal/models"
	"github.com/social-feed/social-feed/internal/testutil"
)

func TestAnnotatePostsCountsAndFlags(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, f.store, "alice")
	bob := testutil.CreateUser(t, f.store, "bob")

	post := testutil.CreatePost(t, f.store, alice, "hello", testutil.At(1))
	quiet := testutil.CreatePost(t, f.store, alice, "quiet", testutil.At(2))

	_, err := f.likes.ToggleLike(ctx, alice.ID.String(), "post", post.ID.String())
	require.NoError(t, err)
	_, err = f.likes.ToggleLike(ctx, bob.ID.String(), "post", post.ID.String())
	require.NoError(t, err)
	_, err = f.posts.CreateNestedPost(ctx, bob.ID.String(), post.ID.String(), &CreatePostRequest{Text: "nested"})
	require.NoError(t, err)
	testutil.CreateRepost(t, f.store, bob, post, testutil.At(3))
	testutil.CreateRepost(t, f.store, bob, post, testutil.At(4))

	enriched := Enrich([]*models.Post{post, quiet})
	f.engagement.AnnotatePosts(ctx, enriched, bob.ID, nil)

	got := enriched[0].Engagement
	assert.Equal(t, int64(2), got.LikeCount)
	assert.True(t, got.IsLiked)
	assert.Equal(t, int64(1), got.NestedCount)
	assert.True(t, got.IsNested)
	assert.Equal(t, int64(2), got.RepostCount)
	assert.True(t, got.IsReposted)
	assert.False(t, got.Partial)

	assert.Equal(t, models.Engagement{}, enriched[1].Engagement)
}

func TestAnnotatePostsAnonymousViewerHasNoFlags(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, f.store, "alice")
	post := testutil.CreatePost(t, f.store, alice, "hello", testutil.At(1))

	_, err := f.likes.ToggleLike(ctx, alice.ID.String(), "post", post.ID.String())
	require.NoError(t, err)
	testutil.CreateRepost(t, f.store, alice, post, testutil.At(2))

	enriched := f.engagement.AnnotatePost(ctx, post, uuid.Nil)
	assert.Equal(t, int64(1), enriched.LikeCount)
	assert.Equal(t, int64(1), enriched.RepostCount)
	assert.False(t, enriched.IsLiked)
	assert.False(t, enriched.IsReposted)
}

func TestAnnotatePostsMarksPartialOnFailure(t *testing.T) {
	f := newFixture(t)
	alice := testutil.CreateUser(t, f.store, "alice")
	post := testutil.CreatePost(t, f.store, alice, "hello", testutil.At(1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	enriched := f.engagement.AnnotatePost(ctx, post, alice.ID)
	assert.True(t, enriched.Partial)
	assert.Zero(t, enriched.LikeCount)
}

func TestAnnotateCommentsSeparatesKinds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, f.store, "alice")
	post := testutil.CreatePost(t, f.store, alice, "hello", testutil.At(1))

	comment, err := f.comments.CreateComment(ctx, alice.ID.String(), post.ID.String(), &CreateCommentRequest{Text: "top"})
	require.NoError(t, err)
	reply, err := f.comments.ReplyToComment(ctx, alice.ID.String(), comment.ID.String(), &CreateCommentRequest{Text: "reply"})
	require.NoError(t, err)

	_, err = f.likes.ToggleLike(ctx, alice.ID.String(), "reply", reply.ID.String())
	require.NoError(t, err)

	stored, err := f.store.Comments.GetByID(ctx, comment.ID)
	require.NoError(t, err)
	storedReply, err := f.store.Comments.GetByID(ctx, reply.ID)
	require.NoError(t, err)

	enriched := f.engagement.AnnotateComments(ctx, []*models.Comment{stored, storedReply}, alice.ID)
	require.Len(t, enriched, 2)

	assert.Equal(t, int64(0), enriched[0].LikeCount)
	assert.False(t, enriched[0].IsLiked)
	assert.Equal(t, int64(1), enriched[0].ReplyCount)

	assert.Equal(t, int64(1), enriched[1].LikeCount)
	assert.True(t, enriched[1].IsLiked)
	assert.Equal(t, int64(0), enriched[1].ReplyCount)
}
