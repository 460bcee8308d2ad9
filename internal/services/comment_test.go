package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/social-feed/social-feed/internal/apperrors"
	"github.com/social-feed/social-feed/internal/models"
	"github.com/social-feed/social-feed/internal/testutil"
)

func TestCommentsAndReplies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, f.store, "alice")
	bob := testutil.CreateUser(t, f.store, "bob")
	post := testutil.CreatePost(t, f.store, alice, "hello", testutil.At(1))

	comment, err := f.comments.CreateComment(ctx, bob.ID.String(), post.ID.String(), &CreateCommentRequest{Text: "nice"})
	require.NoError(t, err)
	assert.Equal(t, models.TargetComment, comment.Kind())
	require.NotNil(t, comment.User)
	assert.Equal(t, "bob", comment.User.Username)

	reply, err := f.comments.ReplyToComment(ctx, alice.ID.String(), comment.ID.String(), &CreateCommentRequest{Text: "thanks"})
	require.NoError(t, err)
	assert.Equal(t, models.TargetReply, reply.Kind())
	assert.Equal(t, post.ID, reply.PostID)

	nested, err := f.comments.ReplyToComment(ctx, bob.ID.String(), reply.ID.String(), &CreateCommentRequest{Text: "np"})
	require.NoError(t, err)
	assert.Equal(t, post.ID, nested.PostID)

	comments, err := f.comments.GetPostComments(ctx, post.ID.String(), alice.ID.String(), 0, 10)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, comment.ID, comments[0].ID)
	assert.Equal(t, int64(1), comments[0].ReplyCount)

	replies, err := f.comments.GetReplies(ctx, comment.ID.String(), "", 0, 10)
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, reply.ID, replies[0].ID)
	assert.Equal(t, int64(1), replies[0].ReplyCount)
}

func TestCommentValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, f.store, "alice")
	post := testutil.CreatePost(t, f.store, alice, "hello", testutil.At(1))

	_, err := f.comments.CreateComment(ctx, alice.ID.String(), post.ID.String(), &CreateCommentRequest{})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	_, err = f.comments.CreateComment(ctx, alice.ID.String(), "0190f7a4-0000-7000-8000-000000000000", &CreateCommentRequest{Text: "x"})
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	_, err = f.comments.ReplyToComment(ctx, alice.ID.String(), "0190f7a4-0000-7000-8000-000000000000", &CreateCommentRequest{Text: "x"})
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestDeleteCommentRemovesThread(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, f.store, "alice")
	bob := testutil.CreateUser(t, f.store, "bob")
	post := testutil.CreatePost(t, f.store, alice, "hello", testutil.At(1))

	comment, err := f.comments.CreateComment(ctx, bob.ID.String(), post.ID.String(), &CreateCommentRequest{Text: "nice"})
	require.NoError(t, err)
	reply, err := f.comments.ReplyToComment(ctx, alice.ID.String(), comment.ID.String(), &CreateCommentRequest{Text: "thanks"})
	require.NoError(t, err)
	_, err = f.likes.ToggleLike(ctx, alice.ID.String(), "comment", comment.ID.String())
	require.NoError(t, err)
	_, err = f.likes.ToggleLike(ctx, bob.ID.String(), "reply", reply.ID.String())
	require.NoError(t, err)

	err = f.comments.DeleteComment(ctx, alice.ID.String(), comment.ID.String())
	assert.True(t, apperrors.Is(err, apperrors.KindForbidden))

	require.NoError(t, f.comments.DeleteComment(ctx, bob.ID.String(), comment.ID.String()))

	gone, err := f.store.Comments.GetByID(ctx, reply.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	aliceLikes, err := f.store.Likes.GetByUser(ctx, alice.ID, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, aliceLikes)
	bobLikes, err := f.store.Likes.GetByUser(ctx, bob.ID, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, bobLikes)

	count, err := f.store.Comments.CountByPostID(ctx, post.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}
