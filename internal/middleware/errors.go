package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/social-feed/social-feed/internal/apperrors"
)

// HandleError writes err as {"error": message} with the status of its kind.
// Internal details stay in the request log, never in the response.
func HandleError(c *gin.Context, err error) {
	status, message := apperrors.HTTPStatus(err)
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": message})
}
