package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/resumerank/internal/utils"
)

// RoleLookup resolves the current role of a user. Roles are read per request so
// promotions apply without reissuing tokens.
type RoleLookup func(ctx context.Context, userID string) (string, error)

func RequireRole(lookup RoleLookup, allowed ...string) gin.HandlerFunc {
	allow := map[string]struct{}{}
	for _, a := range allowed {
		a = strings.TrimSpace(strings.ToLower(a))
		if a != "" {
			allow[a] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{
				Code:    utils.CodeUnauthorized,
				Message: "unauthorized",
			})
			return
		}

		role, err := lookup(c.Request.Context(), userID)
		if err != nil {
			status := utils.HTTPStatus(err)
			if status == http.StatusNotFound {
				status = http.StatusForbidden
			}
			c.AbortWithStatusJSON(status, apiError{
				Code:    utils.CodeOf(err),
				Message: "failed to resolve role",
			})
			return
		}
		role = strings.ToLower(strings.TrimSpace(role))

		if _, ok := allow[role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, apiError{
				Code:    utils.CodeForbidden,
				Message: "forbidden",
			})
			return
		}

		c.Set("role", role)
		c.Next()
	}
}

func RequireAdmin(lookup RoleLookup) gin.HandlerFunc { return RequireRole(lookup, "admin") }
