package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/social-feed/social-feed/internal/config"
	"github.com/social-feed/social-feed/internal/middleware"
	"github.com/social-feed/social-feed/internal/services"
)

type FeedHandler struct {
	feedService *services.FeedService
	page        config.FeedConfig
}

func NewFeedHandler(feedService *services.FeedService, page config.FeedConfig) *FeedHandler {
	return &FeedHandler{
		feedService: feedService,
		page:        page,
	}
}

func (h *FeedHandler) GetFeed(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	page, ok := bindPage(c, h.page)
	if !ok {
		return
	}

	feed, err := h.feedService.GetFeed(c.Request.Context(), userID, page.Offset, page.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, feed)
}

// GetUserTimeline serves a user's own posts and reposts.
func (h *FeedHandler) GetUserTimeline(c *gin.Context) {
	page, ok := bindPage(c, h.page)
	if !ok {
		return
	}

	timeline, err := h.feedService.GetUserTimeline(c.Request.Context(), c.Param("username"), middleware.GetUserID(c), page.Offset, page.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, timeline)
}
