package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	resp "wms-admin/internal/transport/http/response"
)

// RateLimit is a global token bucket.
func RateLimit(rps rate.Limit, burst int) gin.HandlerFunc {
	lim := rate.NewLimiter(rps, burst)
	return func(c *gin.Context) {
		if lim.Allow() {
			c.Next()
			return
		}
		resp.Abort(c, http.StatusTooManyRequests, "Too many requests")
	}
}

// RateLimitPerIP keeps one bucket per client IP in an LRU of maxIPs entries;
// the least recently seen IP loses its bucket when the table is full.
func RateLimitPerIP(rps rate.Limit, burst, maxIPs int) gin.HandlerFunc {
	buckets, err := lru.New[string, *rate.Limiter](max(maxIPs, 1))
	if err != nil {
		panic(err)
	}
	return func(c *gin.Context) {
		ip := c.ClientIP()
		lim, ok := buckets.Get(ip)
		if !ok {
			lim = rate.NewLimiter(rps, burst)
			if prev, found, _ := buckets.PeekOrAdd(ip, lim); found {
				lim = prev
			}
		}
		if lim.Allow() {
			c.Next()
			return
		}
		resp.Abort(c, http.StatusTooManyRequests, "Too many requests")
	}
}
