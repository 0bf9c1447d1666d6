package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"mindhaven/internal/pkg/jwtutil"
	"mindhaven/internal/transport/http/response"
)

const ContextUserIDKey = "user_id"

// AuthJWT requires "Authorization: Bearer <token>" and stores the caller id
// under ContextUserIDKey.
func AuthJWT(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))

		const prefix = "Bearer "
		if !strings.HasPrefix(authHeader, prefix) {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "unauthorized: no token provided")
			c.Abort()
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
		if token == "" {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "unauthorized: no token provided")
			c.Abort()
			return
		}

		claims, err := jwtutil.ParseToken(secret, token)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "unauthorized: invalid token")
			c.Abort()
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Next()
	}
}

// UserID reads the id stored by AuthJWT.
func UserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get(ContextUserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}
