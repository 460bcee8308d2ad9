package middleware

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/social-feed/social-feed/internal/apperrors"
	"github.com/social-feed/social-feed/internal/config"
	"github.com/social-feed/social-feed/internal/models"
)

const (
	contextUserID   = "user_id"
	contextUsername = "username"
	contextRole     = "role"
)

// UserResolver loads the account behind a token. It fails for deleted or
// inactive accounts.
type UserResolver interface {
	Authenticate(ctx context.Context, userID string) (*models.User, error)
}

type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken signs an HS256 token for the user valid for expire.
func GenerateToken(userID, username, role, secret string, expire time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expire)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func ParseToken(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// NewJWTAuth rejects requests without a valid bearer token or whose account
// no longer exists. The role in the context is the stored one.
func NewJWTAuth(cfg *config.JWTConfig, users UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			HandleError(c, apperrors.Unauthorized("authorization header is required"))
			c.Abort()
			return
		}

		claims, err := ParseToken(tokenString, cfg.Secret)
		if err != nil {
			HandleError(c, apperrors.Wrap(apperrors.KindUnauthorized, "invalid or expired token", err))
			c.Abort()
			return
		}

		user, err := users.Authenticate(c.Request.Context(), claims.UserID)
		if err != nil {
			HandleError(c, err)
			c.Abort()
			return
		}

		setUser(c, user)
		c.Next()
	}
}

// OptionalJWTAuth identifies the caller when a valid token for a live
// account is present and lets the request through anonymously otherwise.
func OptionalJWTAuth(cfg *config.JWTConfig, users UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString, ok := bearerToken(c); ok {
			if claims, err := ParseToken(tokenString, cfg.Secret); err == nil {
				if user, err := users.Authenticate(c.Request.Context(), claims.UserID); err == nil {
					setUser(c, user)
				}
			}
		}
		c.Next()
	}
}

// RequireRole must run after NewJWTAuth.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUserID(c) == "" {
			HandleError(c, apperrors.Unauthorized("authentication required"))
			c.Abort()
			return
		}
		if GetRole(c) != role {
			HandleError(c, apperrors.Forbidden("%s role required", role))
			c.Abort()
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func setUser(c *gin.Context, user *models.User) {
	c.Set(contextUserID, user.ID.String())
	c.Set(contextUsername, user.Username)
	c.Set(contextRole, user.Role)
}

// GetUserID returns the authenticated user id, or "" for anonymous requests.
func GetUserID(c *gin.Context) string {
	return c.GetString(contextUserID)
}

func GetUsername(c *gin.Context) string {
	return c.GetString(contextUsername)
}

func GetRole(c *gin.Context) string {
	return c.GetString(contextRole)
}
