package handlers

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/social-feed/social-feed/internal/apperrors"
	"github.com/social-feed/social-feed/internal/config"
	"github.com/social-feed/social-feed/internal/middleware"
	"github.com/social-feed/social-feed/internal/services"
)

type pageQuery struct {
	Offset int `form:"offset"`
	Limit  int `form:"limit"`
}

// bindPage reads offset and limit from the query string and normalizes
// them. On failure the error response is already written.
func bindPage(c *gin.Context, cfg config.FeedConfig) (services.Page, bool) {
	var query pageQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondError(c, apperrors.Validation("offset and limit must be integers"))
		return services.Page{}, false
	}
	page, err := services.NewPage(query.Offset, query.Limit, cfg)
	if err != nil {
		respondError(c, err)
		return services.Page{}, false
	}
	return page, true
}

// bindJSON binds the request body; binding errors are validation errors.
func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		respondError(c, apperrors.Wrap(apperrors.KindValidation, err.Error(), err))
		return false
	}
	return true
}

// bindOptionalJSON is bindJSON for endpoints whose body may be empty.
func bindOptionalJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, apperrors.Wrap(apperrors.KindValidation, err.Error(), err))
		return false
	}
	return true
}

// requireUser returns the authenticated user id or writes a 401.
func requireUser(c *gin.Context) (string, bool) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		respondError(c, apperrors.Unauthorized("user not authenticated"))
		return "", false
	}
	return userID, true
}

func respondError(c *gin.Context, err error) {
	middleware.HandleError(c, err)
}
