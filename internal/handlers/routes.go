package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/social-feed/social-feed/internal/config"
	"github.com/social-feed/social-feed/internal/middleware"
	"github.com/social-feed/social-feed/internal/models"
)

type Handlers struct {
	Users      *UserHandler
	Feed       *FeedHandler
	Posts      *PostHandler
	Comments   *CommentHandler
	Engagement *EngagementHandler
}

// RegisterRoutes mounts the API under /api/v1. Tokens are checked against
// the user service so deleted accounts lose access immediately.
func RegisterRoutes(r *gin.Engine, h *Handlers, jwtConfig *config.JWTConfig) {
	api := r.Group("/api/v1")
	auth := middleware.NewJWTAuth(jwtConfig, h.Users.userService)
	optional := middleware.OptionalJWTAuth(jwtConfig, h.Users.userService)

	// 用户相关路由
	users := api.Group("/users")
	{
		users.POST("/register", h.Users.Register)
		users.POST("/login", h.Users.Login)
		users.GET("/search", optional, h.Users.SearchUsers)
		users.GET("/suggest", auth, h.Users.SuggestUsers)
		users.GET("/:username", optional, h.Users.GetProfile)
		users.GET("/:username/followers", optional, h.Users.GetFollowers)
		users.GET("/:username/following", optional, h.Users.GetFollowing)
		users.GET("/:username/posts", optional, h.Feed.GetUserTimeline)
		users.GET("/:username/likes", optional, h.Engagement.GetUserLikes)
		users.GET("/:username/shares", optional, h.Engagement.GetUserShares)
		// gin 要求同一位置的通配符同名，这里 :username 段传的是被关注者的ID
		users.POST("/:username/follow", auth, h.Users.ToggleFollow)
	}

	api.GET("/me", auth, h.Users.Me)
	api.PUT("/me", auth, h.Users.UpdateMe)
	api.PUT("/me/password", auth, h.Users.UpdatePassword)
	api.GET("/feed", auth, h.Feed.GetFeed)

	admin := api.Group("/admin", auth, middleware.RequireRole(models.RoleAdmin))
	{
		admin.DELETE("/users/:id", h.Users.DeleteUser)
		admin.PUT("/users/:id/role", h.Users.UpdateRole)
	}

	posts := api.Group("/posts")
	{
		posts.POST("", auth, h.Posts.CreatePost)
		posts.GET("", optional, h.Posts.ListPosts)
		posts.GET("/search", optional, h.Posts.SearchPosts)
		posts.GET("/:id", optional, h.Posts.GetPost)
		posts.PUT("/:id", auth, h.Posts.UpdatePost)
		posts.DELETE("/:id", auth, h.Posts.DeletePost)
		posts.POST("/:id/nested", auth, h.Posts.CreateNestedPost)
		posts.GET("/:id/nested", optional, h.Posts.GetNestedPosts)
		posts.GET("/:id/likes", optional, h.Posts.GetPostLikes)
		posts.POST("/:id/repost", auth, h.Posts.Repost)
		posts.GET("/:id/reposts", optional, h.Posts.GetReposts)
		posts.POST("/:id/comments", auth, h.Comments.CreateComment)
		posts.GET("/:id/comments", optional, h.Comments.GetPostComments)
	}

	comments := api.Group("/comments")
	{
		comments.POST("/:id/replies", auth, h.Comments.Reply)
		comments.GET("/:id/replies", optional, h.Comments.GetReplies)
		comments.DELETE("/:id", auth, h.Comments.DeleteComment)
	}

	api.GET("/reposts", optional, h.Posts.ListReposts)
	api.POST("/likes/:type/:id", auth, h.Engagement.ToggleLike)
	api.POST("/shares/:type/:id", auth, h.Engagement.Share)
}
