package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// HTTPObserver records served requests
type HTTPObserver interface {
	ObserveHTTP(route, method string, status int, elapsed time.Duration)
}

// HTTPMetrics reports each request to observer under its route pattern,
// e.g. "/api/cart/items/:id", or "" when no route matched. Routes listed
// in skip (typically the scrape endpoint) are not reported.
func HTTPMetrics(observer HTTPObserver, skip ...string) gin.HandlerFunc {
	ignored := make(map[string]struct{}, len(skip))
	for _, route := range skip {
		ignored[route] = struct{}{}
	}

	return func(c *gin.Context) {
		if observer == nil {
			c.Next()
			return
		}
		if _, ok := ignored[c.FullPath()]; ok {
			c.Next()
			return
		}
		started := time.Now()
		c.Next()
		observer.ObserveHTTP(c.FullPath(), c.Request.Method, c.Writer.Status(), time.Since(started))
	}
}
