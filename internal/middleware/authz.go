package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"backchannel/internal/authz"
)

// RequireRoles ограничивает маршрут по ролям аккаунта (не каналов).
func RequireRoles(allowed ...authz.SiteRole) gin.HandlerFunc {
	allowedSet := map[authz.SiteRole]struct{}{}
	for _, r := range allowed {
		allowedSet[r] = struct{}{}
	}
	return func(c *gin.Context) {
		v, exists := c.Get("role")
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no role in context"})
			return
		}
		role, _ := v.(string)
		if _, ok := allowedSet[authz.SiteRole(role)]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
