package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"wms-admin/internal/domain"
	"wms-admin/internal/tenancy"
	resp "wms-admin/internal/transport/http/response"
)

const KeyRequestID = resp.TraceKey

// maxRequestID matches the audit column; longer ids are replaced.
const maxRequestID = domain.AuditRequestIDSize

// RequestID reuses the caller's X-Request-ID or mints one, echoes it, and puts
// the client description on the request context for audit records.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.Request.Header.Get(KeyRequestID)
		if rid == "" || len(rid) > maxRequestID {
			rid = uuid.NewString()
		}
		c.Writer.Header().Set(KeyRequestID, rid)
		c.Set(KeyRequestID, rid)
		ctx := tenancy.WithClient(c.Request.Context(), tenancy.Client{
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			RequestID: rid,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
