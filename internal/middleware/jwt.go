package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/helpdock/helpdock/internal/pkg/jwt"
	"github.com/helpdock/helpdock/internal/pkg/response"
)

const ContextRoleKey = "role"

// AdminAuth guards the operator surface. There is a single admin principal;
// any valid token with the admin role passes.
func AdminAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, http.StatusUnauthorized, "missing authorization")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, http.StatusUnauthorized, "invalid authorization")
			c.Abort()
			return
		}
		claims, err := jwt.ParseToken(parts[1], secret)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "invalid token")
			c.Abort()
			return
		}
		if claims.Role != "admin" {
			response.Error(c, http.StatusUnauthorized, "insufficient role")
			c.Abort()
			return
		}
		c.Set(ContextRoleKey, claims.Role)
		c.Next()
	}
}
