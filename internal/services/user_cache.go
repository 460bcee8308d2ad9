package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/social-feed/social-feed/internal/metrics"
	"github.com/social-feed/social-feed/internal/models"
	"github.com/social-feed/social-feed/pkg/cache"
	"github.com/social-feed/social-feed/pkg/logger"
)

// UserCache 用户信息缓存，只用于读取，写入总是先落库再失效
type UserCache struct {
	store   cache.Store
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *logger.Logger
}

func NewUserCache(store cache.Store, ttl time.Duration, metrics *metrics.Metrics, logger *logger.Logger) *UserCache {
	return &UserCache{store: store, ttl: ttl, metrics: metrics, logger: logger}
}

func userCacheKey(id uuid.UUID) string {
	return "user:" + id.String()
}

func (c *UserCache) Get(ctx context.Context, id uuid.UUID) (*models.User, bool) {
	var user models.User
	if err := c.store.GetJSON(ctx, userCacheKey(id), &user); err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.WithError(err).WithField("user_id", id).Warn("Failed to read user cache")
		}
		c.metrics.RecordCacheMiss(ctx, "user")
		return nil, false
	}
	c.metrics.RecordCacheHit(ctx, "user")
	return &user, true
}

func (c *UserCache) Set(ctx context.Context, user *models.User) {
	if err := c.store.SetJSON(ctx, userCacheKey(user.ID), user, c.ttl); err != nil {
		c.logger.WithError(err).WithField("user_id", user.ID).Warn("Failed to write user cache")
	}
}

func (c *UserCache) Invalidate(ctx context.Context, ids ...uuid.UUID) {
	if len(ids) == 0 {
		return
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, userCacheKey(id))
	}
	if err := c.store.Delete(ctx, keys...); err != nil {
		c.logger.WithError(err).WithField("keys", keys).Warn("Failed to invalidate user cache")
	}
}
