package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	resp "wms-admin/internal/transport/http/response"
)

// Recovered is the ginzap.CustomRecoveryWithZap handler: panics become the
// generic 500 body, and the trace id goes to the log for correlation.
func Recovered(l *zap.Logger) gin.RecoveryFunc {
	return func(c *gin.Context, rec any) {
		l.Error("panic recovered",
			zap.String("trace_id", resp.TraceID(c)),
			zap.String("path", c.Request.URL.Path),
			zap.Any("panic", rec))
		resp.Abort(c, http.StatusInternalServerError, "")
	}
}
