package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/social-feed/social-feed/internal/apperrors"
	"github.com/social-feed/social-feed/internal/models"
	"github.com/social-feed/social-feed/internal/testutil"
)

func TestCreateRepostAllowsRepeats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, f.store, "alice")
	post := testutil.CreatePost(t, f.store, alice, "hello", testutil.At(1))

	first, err := f.reposts.CreateRepost(ctx, alice.ID.String(), post.ID.String(), &CreateRepostRequest{Comment: "mine"})
	require.NoError(t, err)
	second, err := f.reposts.CreateRepost(ctx, alice.ID.String(), post.ID.String(), &CreateRepostRequest{})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	reposts, err := f.reposts.GetPostReposts(ctx, post.ID.String(), 0, 10)
	require.NoError(t, err)
	assert.Len(t, reposts, 2)

	got, err := f.posts.GetPost(ctx, post.ID.String(), alice.ID.String())
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.RepostCount)
	assert.True(t, got.IsReposted)
}

func TestCreateRepostValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, f.store, "alice")
	post := testutil.CreatePost(t, f.store, alice, "hello", testutil.At(1))

	_, err := f.reposts.CreateRepost(ctx, alice.ID.String(), post.ID.String(), &CreateRepostRequest{
		Comment: strings.Repeat("a", models.MaxRepostCommentLength+1),
	})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	_, err = f.reposts.CreateRepost(ctx, alice.ID.String(), "0190f7a4-0000-7000-8000-000000000000", &CreateRepostRequest{})
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestListReposts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, f.store, "alice")
	bob := testutil.CreateUser(t, f.store, "bob")
	post := testutil.CreatePost(t, f.store, alice, "hello", testutil.At(1))
	older := testutil.CreateRepost(t, f.store, bob, post, testutil.At(2))
	newer := testutil.CreateRepost(t, f.store, alice, post, testutil.At(3))

	reposts, err := f.reposts.ListReposts(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, reposts, 2)
	assert.Equal(t, newer.ID, reposts[0].ID)
	assert.Equal(t, older.ID, reposts[1].ID)
	require.NotNil(t, reposts[0].OriginalPost)
	assert.Equal(t, "hello", reposts[0].OriginalPost.Text)

	_, err = f.reposts.ListReposts(ctx, -1, 10)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}
