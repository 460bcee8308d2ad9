package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/social-feed/social-feed/internal/apperrors"
	"github.com/social-feed/social-feed/internal/models"
	"github.com/social-feed/social-feed/internal/testutil"
	"github.com/social-feed/social-feed/pkg/queue"
)

func TestShares(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, f.store, "alice")
	post := testutil.CreatePost(t, f.store, alice, "hello", testutil.At(1))

	share, err := f.shares.CreateShare(ctx, alice.ID.String(), "post", post.ID.String(), &CreateShareRequest{Message: "look"})
	require.NoError(t, err)
	assert.Equal(t, models.TargetPost, share.TargetType)

	_, err = f.shares.CreateShare(ctx, alice.ID.String(), "comment", post.ID.String(), &CreateShareRequest{})
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	shares, err := f.shares.GetUserShares(ctx, "alice", 0, 10)
	require.NoError(t, err)
	require.Len(t, shares, 1)
	assert.Equal(t, "look", shares[0].Message)

	// 分享不影响任何计数
	got, err := f.posts.GetPost(ctx, post.ID.String(), "")
	require.NoError(t, err)
	assert.Zero(t, got.RepostCount)

	assert.Equal(t, []queue.EventType{queue.EventShareCreated}, f.published.Types())
}
