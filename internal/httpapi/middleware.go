package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dinehub/internal/domain"
)

// TenantContext builds the per-request tenant scope from claims the auth
// gateway already verified and forwarded as headers. Requests without a
// tenant never reach a handler.
func TenantContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		tc := domain.TenantContext{
			TenantID:     c.GetHeader("X-Tenant-ID"),
			RestaurantID: c.GetHeader("X-Restaurant-ID"),
			UserID:       c.GetHeader("X-User-ID"),
			Role:         c.GetHeader("X-User-Role"),
		}
		if !tc.Valid() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"kind": "unauthorized", "message": "missing tenant scope"},
			})
			return
		}
		c.Set("tenant", tc)
		c.Next()
	}
}

func tenant(c *gin.Context) domain.TenantContext {
	v, _ := c.Get("tenant")
	tc, _ := v.(domain.TenantContext)
	return tc
}
