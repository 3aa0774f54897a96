package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// CacheControl marks read-only lookups as cacheable by the browser for
// maxAgeSeconds. Catalog and content listings change rarely within a session.
func CacheControl(maxAgeSeconds int) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", fmt.Sprintf("private, max-age=%d", maxAgeSeconds))
		c.Next()
	}
}

// NoStore keeps workflow state out of any cache.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}
