// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/social-feed/social-feed/internal/config"
	"github.com/social-feed/social-feed/internal/models"
	"github.com/social-feed/social-feed/internal/repository"
	"github.com/social-feed/social-feed/pkg/queue"
)

// NewDatabase opens a migrated in-memory sqlite database private to t.
func NewDatabase(t testing.TB) *repository.Database {
	t.Helper()

	db, err := repository.NewDatabase(&config.DatabaseConfig{
		Driver:       "sqlite",
		Path:         "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		LogLevel:     "silent",
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())

	t.Cleanup(func() { db.Close() })
	return db
}

func NewStore(t testing.TB) *repository.Store {
	return repository.NewStore(NewDatabase(t).DB)
}

// CreateUser inserts a user whose name, email and password derive from username.
func CreateUser(t testing.TB, store *repository.Store, username string) *models.User {
	t.Helper()
	user := &models.User{
		Name:     username,
		Username: username,
		Email:    username + "@example.com",
		Password: "hashed",
		Role:     models.RoleUser,
		IsActive: true,
	}
	require.NoError(t, store.Users.Create(context.Background(), user))
	return user
}

// CreatePost inserts a post by author at createdAt.
func CreatePost(t testing.TB, store *repository.Store, author *models.User, text string, createdAt time.Time) *models.Post {
	t.Helper()
	post := &models.Post{UserID: author.ID, Text: text, CreatedAt: createdAt, UpdatedAt: createdAt}
	require.NoError(t, store.Posts.Create(context.Background(), post))
	return post
}

func CreateRepost(t testing.TB, store *repository.Store, user *models.User, original *models.Post, createdAt time.Time) *models.Repost {
	t.Helper()
	repost := &models.Repost{UserID: user.ID, OriginalPostID: original.ID, CreatedAt: createdAt}
	require.NoError(t, store.Reposts.Create(context.Background(), repost))
	return repost
}

func Follow(t testing.TB, store *repository.Store, follower, following *models.User) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.Follows.Create(ctx, &models.Follow{FollowerID: follower.ID, FollowingID: following.ID}))
	require.NoError(t, store.Users.UpdateFollowerCount(ctx, following.ID, 1))
	require.NoError(t, store.Users.UpdateFollowingCount(ctx, follower.ID, 1))
}

// At returns a fixed UTC instant offset by the given number of seconds.
func At(seconds int) time.Time {
	return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(seconds) * time.Second)
}

// RecordingPublisher keeps every published event in memory.
type RecordingPublisher struct {
	mu     sync.Mutex
	Events []queue.Event
}

func (p *RecordingPublisher) Publish(ctx context.Context, key string, value interface{}) error {
	event, ok := value.(queue.Event)
	if !ok {
		return nil
	}
	p.mu.Lock()
	p.Events = append(p.Events, event)
	p.mu.Unlock()
	return nil
}

func (p *RecordingPublisher) Types() []queue.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]queue.EventType, 0, len(p.Events))
	for _, e := range p.Events {
		types = append(types, e.Type)
	}
	return types
}
