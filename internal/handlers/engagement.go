package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/social-feed/social-feed/internal/config"
	"github.com/social-feed/social-feed/internal/services"
)

// EngagementHandler serves likes and shares on any target type.
type EngagementHandler struct {
	likeService  *services.LikeService
	shareService *services.ShareService
	page         config.FeedConfig
}

func NewEngagementHandler(likeService *services.LikeService, shareService *services.ShareService, page config.FeedConfig) *EngagementHandler {
	return &EngagementHandler{
		likeService:  likeService,
		shareService: shareService,
		page:         page,
	}
}

func (h *EngagementHandler) ToggleLike(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	result, err := h.likeService.ToggleLike(c.Request.Context(), userID, c.Param("type"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *EngagementHandler) Share(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req services.CreateShareRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	share, err := h.shareService.CreateShare(c.Request.Context(), userID, c.Param("type"), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Shared successfully",
		"share":   share,
	})
}

func (h *EngagementHandler) GetUserLikes(c *gin.Context) {
	page, ok := bindPage(c, h.page)
	if !ok {
		return
	}

	likes, err := h.likeService.GetUserLikes(c.Request.Context(), c.Param("username"), page.Offset, page.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"likes":  likes,
		"offset": page.Offset,
		"limit":  page.Limit,
	})
}

func (h *EngagementHandler) GetUserShares(c *gin.Context) {
	page, ok := bindPage(c, h.page)
	if !ok {
		return
	}

	shares, err := h.shareService.GetUserShares(c.Request.Context(), c.Param("username"), page.Offset, page.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"shares": shares,
		"offset": page.Offset,
		"limit":  page.Limit,
	})
}
