package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/social-feed/social-feed/internal/config"
	"github.com/social-feed/social-feed/internal/middleware"
	"github.com/social-feed/social-feed/internal/services"
)

type PostHandler struct {
	postService   *services.PostService
	likeService   *services.LikeService
	repostService *services.RepostService
	page          config.FeedConfig
}

func NewPostHandler(postService *services.PostService, likeService *services.LikeService, repostService *services.RepostService, page config.FeedConfig) *PostHandler {
	return &PostHandler{
		postService:   postService,
		likeService:   likeService,
		repostService: repostService,
		page:          page,
	}
}

func (h *PostHandler) CreatePost(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req services.CreatePostRequest
	if !bindJSON(c, &req) {
		return
	}

	post, err := h.postService.CreatePost(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Post created successfully",
		"post":    post,
	})
}

func (h *PostHandler) CreateNestedPost(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req services.CreatePostRequest
	if !bindJSON(c, &req) {
		return
	}

	post, err := h.postService.CreateNestedPost(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Post created successfully",
		"post":    post,
	})
}

func (h *PostHandler) GetPost(c *gin.Context) {
	post, err := h.postService.GetPost(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"post": post})
}

func (h *PostHandler) GetNestedPosts(c *gin.Context) {
	page, ok := bindPage(c, h.page)
	if !ok {
		return
	}

	posts, err := h.postService.GetNestedPosts(c.Request.Context(), c.Param("id"), middleware.GetUserID(c), page.Offset, page.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":  posts,
		"offset": page.Offset,
		"limit":  page.Limit,
	})
}

func (h *PostHandler) UpdatePost(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req services.UpdatePostRequest
	if !bindJSON(c, &req) {
		return
	}

	post, err := h.postService.UpdatePost(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Post updated successfully",
		"post":    post,
	})
}

func (h *PostHandler) DeletePost(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := h.postService.DeletePost(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

func (h *PostHandler) SearchPosts(c *gin.Context) {
	page, ok := bindPage(c, h.page)
	if !ok {
		return
	}

	posts, err := h.postService.SearchPosts(c.Request.Context(), c.Query("q"), middleware.GetUserID(c), page.Offset, page.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":  posts,
		"offset": page.Offset,
		"limit":  page.Limit,
	})
}

func (h *PostHandler) GetPostLikes(c *gin.Context) {
	page, ok := bindPage(c, h.page)
	if !ok {
		return
	}

	users, err := h.likeService.GetPostLikers(c.Request.Context(), c.Param("id"), page.Offset, page.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users":  users,
		"offset": page.Offset,
		"limit":  page.Limit,
	})
}

func (h *PostHandler) Repost(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req services.CreateRepostRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	repost, err := h.repostService.CreateRepost(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Post reposted successfully",
		"repost":  repost,
	})
}

func (h *PostHandler) GetReposts(c *gin.Context) {
	page, ok := bindPage(c, h.page)
	if !ok {
		return
	}

	reposts, err := h.repostService.GetPostReposts(c.Request.Context(), c.Param("id"), page.Offset, page.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reposts": reposts,
		"offset":  page.Offset,
		"limit":   page.Limit,
	})
}

func (h *PostHandler) ListPosts(c *gin.Context) {
	page, ok := bindPage(c, h.page)
	if !ok {
		return
	}

	posts, err := h.postService.ListPosts(c.Request.Context(), middleware.GetUserID(c), page.Offset, page.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":  posts,
		"offset": page.Offset,
		"limit":  page.Limit,
	})
}

func (h *PostHandler) ListReposts(c *gin.Context) {
	page, ok := bindPage(c, h.page)
	if !ok {
		return
	}

	reposts, err := h.repostService.ListReposts(c.Request.Context(), page.Offset, page.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reposts": reposts,
		"offset":  page.Offset,
		"limit":   page.Limit,
	})
}
