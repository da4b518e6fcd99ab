package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/resumerank/internal/token"
	"github.com/yoockh/resumerank/internal/utils"
)

const (
	AccessTokenCookie = "access_token"
	GuestHeader       = "X-Guest-Session"
	GuestCookie       = "guest_session_token"
)

type apiError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

// BearerToken reads "Authorization: Bearer <token>", falling back to the access_token cookie.
func BearerToken(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		if raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")); raw != "" {
			return raw
		}
	}
	if v, err := c.Cookie(AccessTokenCookie); err == nil {
		return strings.TrimSpace(v)
	}
	return ""
}

// GuestToken reads the X-Guest-Session header, falling back to the guest_session_token cookie.
func GuestToken(c *gin.Context) string {
	if v := strings.TrimSpace(c.GetHeader(GuestHeader)); v != "" {
		return v
	}
	if v, err := c.Cookie(GuestCookie); err == nil {
		return strings.TrimSpace(v)
	}
	return ""
}

// Auth accepts access tokens only and stores user_id and email on the context.
func Auth(tm *token.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := BearerToken(c)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{
				Code:    utils.CodeUnauthorized,
				Message: "missing bearer token",
			})
			return
		}

		id, err := tm.VerifyKind(raw, token.KindAccess)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{
				Code:    utils.CodeUnauthorized,
				Message: "invalid token",
			})
			return
		}

		c.Set("user_id", id.UserID)
		c.Set("email", id.Email)
		c.Next()
	}
}
