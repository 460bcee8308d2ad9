package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/social-feed/social-feed/internal/apperrors"
	"github.com/social-feed/social-feed/internal/config"
	"github.com/social-feed/social-feed/internal/middleware"
	"github.com/social-feed/social-feed/internal/services"
)

type UserHandler struct {
	userService *services.UserService
	jwt         config.JWTConfig
	page        config.FeedConfig
}

func NewUserHandler(userService *services.UserService, jwt config.JWTConfig, page config.FeedConfig) *UserHandler {
	return &UserHandler{
		userService: userService,
		jwt:         jwt,
		page:        page,
	}
}

func (h *UserHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    user,
	})
}

func (h *UserHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	// 生成JWT token
	token, err := middleware.GenerateToken(user.ID.String(), user.Username, user.Role, h.jwt.Secret, h.jwt.ExpireTime)
	if err != nil {
		respondError(c, apperrors.Internal("failed to generate token", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}

func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req services.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.Update(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    user,
	})
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	profile, err := h.userService.GetProfile(c.Request.Context(), c.Param("username"), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": profile})
}

func (h *UserHandler) ToggleFollow(c *gin.Context) {
	followerID, ok := requireUser(c)
	if !ok {
		return
	}

	result, err := h.userService.ToggleFollow(c.Request.Context(), followerID, c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *UserHandler) GetFollowers(c *gin.Context) {
	page, ok := bindPage(c, h.page)
	if !ok {
		return
	}

	followers, err := h.userService.GetFollowers(c.Request.Context(), c.Param("username"), middleware.GetUserID(c), page.Offset, page.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"followers": followers,
		"offset":    page.Offset,
		"limit":     page.Limit,
	})
}

func (h *UserHandler) GetFollowing(c *gin.Context) {
	page, ok := bindPage(c, h.page)
	if !ok {
		return
	}

	following, err := h.userService.GetFollowing(c.Request.Context(), c.Param("username"), middleware.GetUserID(c), page.Offset, page.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"following": following,
		"offset":    page.Offset,
		"limit":     page.Limit,
	})
}

func (h *UserHandler) SearchUsers(c *gin.Context) {
	page, ok := bindPage(c, h.page)
	if !ok {
		return
	}

	users, err := h.userService.Search(c.Request.Context(), c.Query("q"), middleware.GetUserID(c), page.Offset, page.Limit)
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

func (h *UserHandler) DeleteUser(c *gin.Context) {
	adminID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := h.userService.Delete(c.Request.Context(), adminID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

func (h *UserHandler) UpdatePassword(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req services.UpdatePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.userService.UpdatePassword(c.Request.Context(), userID, &req); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}

func (h *UserHandler) SuggestUsers(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var query struct {
		Limit int `form:"limit"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		respondError(c, apperrors.Validation("limit must be an integer"))
		return
	}

	users, err := h.userService.Suggest(c.Request.Context(), userID, query.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *UserHandler) UpdateRole(c *gin.Context) {
	adminID, ok := requireUser(c)
	if !ok {
		return
	}

	var req services.UpdateRoleRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateRole(c.Request.Context(), adminID, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User role updated successfully",
		"user":    user,
	})
}
