package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// TraceKey is both the request/response header and the gin context key of the trace id.
const TraceKey = "X-Request-ID"

// Now stamps error bodies.
var Now = func() time.Time { return time.Now().UTC() }

// ErrorBody is the single error shape of both HTTP surfaces.
type ErrorBody struct {
	StatusCode int                 `json:"statusCode"`
	Message    string              `json:"message"`
	Errors     map[string][]string `json:"errors,omitempty"`
	Timestamp  time.Time           `json:"timestamp"`
	TraceID    string              `json:"traceId"`
}

// NewError builds an ErrorBody; an empty msg falls back to CodeMsgMap.
func NewError(status int, msg, traceID string, fields map[string][]string) ErrorBody {
	if msg == "" || status == http.StatusInternalServerError {
		msg = CodeMsgMap[status]
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return ErrorBody{
		StatusCode: status,
		Message:    msg,
		Errors:     fields,
		Timestamp:  Now(),
		TraceID:    traceID,
	}
}

func TraceID(c *gin.Context) string { return c.GetString(TraceKey) }

// Abort writes an error body and stops the handler chain.
func Abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, NewError(status, msg, TraceID(c), nil))
}

// AbortFields is Abort with a per-field message map.
func AbortFields(c *gin.Context, status int, msg string, fields map[string][]string) {
	c.AbortWithStatusJSON(status, NewError(status, msg, TraceID(c), fields))
}

// OK writes data as the response body. 204 writes no body.
func OK(c *gin.Context, status int, data any) {
	if status == 0 {
		status = http.StatusOK
	}
	if status == http.StatusNoContent {
		c.Status(status)
		return
	}
	c.JSON(status, data)
}
