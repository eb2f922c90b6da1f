package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"
)

// CapConcurrentRequests limits the number of HTTP requests in flight at
// once. Requests beyond maxConcurrent are rejected immediately with 429
// rather than queued — the engine behind this adapter holds a single
// mutex per store, so unbounded fan-in just grows a wait queue on that
// mutex instead of doing useful work.
func CapConcurrentRequests(maxConcurrent int64) gin.HandlerFunc {
	sem := semaphore.NewWeighted(maxConcurrent)

	return func(c *gin.Context) {
		if !sem.TryAcquire(1) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many concurrent requests",
			})
			return
		}
		defer sem.Release(1)
		c.Next()
	}
}
