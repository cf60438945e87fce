package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const userRoleKey = "user_role"

// RequireRoles only admits requests whose token role is one of allowedRoles.
// It must run after Auth.
func RequireRoles(allowedRoles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[strings.ToLower(strings.TrimSpace(r))] = struct{}{}
	}

	return func(c *gin.Context) {
		role := strings.ToLower(strings.TrimSpace(c.GetString(userRoleKey)))
		if _, ok := allowed[role]; !ok || role == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"status":            "forbidden",
				"error":             "forbidden",
				"error_description": "role not allowed",
				"request_id":        GetRequestID(c),
			})
			return
		}
		c.Next()
	}
}
