package ratelimit

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware gates a route group with the named policy. Authenticated
// requests are keyed by user ID so limits follow the account; anonymous
// requests fall back to the client IP.
func Middleware(limiter *Limiter, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := c.ClientIP()
		if userID, exists := c.Get("user_id"); exists {
			actor = fmt.Sprintf("user:%v", userID)
		}

		res := limiter.Check(c.Request.Context(), action, actor)

		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", res.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", res.ResetAt.Unix()))

		if !res.Allowed {
			retryAfter := time.Until(res.ResetAt)
			if retryAfter < 0 {
				retryAfter = 0
			}
			c.Header("Retry-After", fmt.Sprintf("%d", int(retryAfter.Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":    "Too many requests, slow down",
				"reset_at": res.ResetAt,
			})
			return
		}

		c.Next()
	}
}
