package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	resp "wms-admin/internal/transport/http/response"
)

// MaxBodyBytes rejects declared oversized bodies up front and caps the rest
// while they are read.
func MaxBodyBytes(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > n {
			resp.Abort(c, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}
