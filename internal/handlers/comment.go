package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/social-feed/social-feed/internal/config"
	"github.com/social-feed/social-feed/internal/middleware"
	"github.com/social-feed/social-feed/internal/services"
)

type CommentHandler struct {
	commentService *services.CommentService
	page           config.FeedConfig
}

func NewCommentHandler(commentService *services.CommentService, page config.FeedConfig) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
		page:           page,
	}
}

func (h *CommentHandler) CreateComment(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req services.CreateCommentRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := h.commentService.CreateComment(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Comment created successfully",
		"comment": comment,
	})
}

func (h *CommentHandler) GetPostComments(c *gin.Context) {
	page, ok := bindPage(c, h.page)
	if !ok {
		return
	}

	comments, err := h.commentService.GetPostComments(c.Request.Context(), c.Param("id"), middleware.GetUserID(c), page.Offset, page.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"comments": comments,
		"offset":   page.Offset,
		"limit":    page.Limit,
	})
}

func (h *CommentHandler) Reply(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req services.CreateCommentRequest
	if !bindJSON(c, &req) {
		return
	}

	reply, err := h.commentService.ReplyToComment(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Reply created successfully",
		"comment": reply,
	})
}

func (h *CommentHandler) GetReplies(c *gin.Context) {
	page, ok := bindPage(c, h.page)
	if !ok {
		return
	}

	replies, err := h.commentService.GetReplies(c.Request.Context(), c.Param("id"), middleware.GetUserID(c), page.Offset, page.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"replies": replies,
		"offset":  page.Offset,
		"limit":   page.Limit,
	})
}

func (h *CommentHandler) DeleteComment(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := h.commentService.DeleteComment(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}
