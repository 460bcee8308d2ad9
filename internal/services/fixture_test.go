package services

import (
	"testing"
	"time"

	"github.com/social-feed/social-feed/internal/config"
	"github.com/social-feed/social-feed/internal/repository"
	"github.com/social-feed/social-feed/internal/testutil"
	"github.com/social-feed/social-feed/pkg/cache"
	"github.com/social-feed/social-feed/pkg/logger"
)

var testFeedConfig = config.FeedConfig{DefaultLimit: 50, MaxLimit: 200}

type fixture struct {
	store     *repository.Store
	published *testutil.RecordingPublisher
	cache     cache.Store

	engagement *EngagementService
	feed       *FeedService
	users      *UserService
	likes      *LikeService
	posts      *PostService
	comments   *CommentService
	reposts    *RepostService
	shares     *ShareService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := testutil.NewStore(t)
	log := logger.Discard()
	published := &testutil.RecordingPublisher{}
	events := NewEventPublisher(published, log, nil)
	memory := cache.NewMemoryStore()
	engagement := NewEngagementService(store, log, nil)

	return &fixture{
		store:      store,
		published:  published,
		cache:      memory,
		engagement: engagement,
		feed:       NewFeedService(store, engagement, testFeedConfig, log),
		users:      NewUserService(store, NewUserCache(memory, time.Minute, nil, log), events, testFeedConfig, log),
		likes:      NewLikeService(store, events, testFeedConfig, log),
		posts:      NewPostService(store, engagement, events, testFeedConfig, log),
		comments:   NewCommentService(store, engagement, events, testFeedConfig, log),
		reposts:    NewRepostService(store, events, testFeedConfig, log),
		shares:     NewShareService(store, events, testFeedConfig, log),
	}
}
