package ez

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"wms-admin/internal/core/auth"
	"wms-admin/internal/domain"
	resp "wms-admin/internal/transport/http/response"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(fieldName)
	}
}

// fieldName reports validation failures under the JSON (or form) name.
func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

type EZ struct {
	g   *gin.RouterGroup
	log *zap.Logger
}

func New(g *gin.RouterGroup, l *zap.Logger) EZ {
	if l == nil {
		l = zap.NewNop()
	}
	return EZ{g: g, log: l}
}

// Group returns an EZ on a sub-group sharing the logger.
func (e EZ) Group(path string, mw ...gin.HandlerFunc) EZ {
	return EZ{g: e.g.Group(path, mw...), log: e.log}
}

type Binder string

const (
	BindJSON  Binder = "json"
	BindQuery Binder = "query"
	BindNone  Binder = "none"
)

// AErr is a transport-level error carrying its HTTP status.
type AErr struct {
	Code   int
	Msg    string
	Fields map[string][]string
	Err    error
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func (e *AErr) Unwrap() error { return e.Err }

func BadRequest(msg string) error   { return &AErr{Code: http.StatusBadRequest, Msg: msg} }
func Unauthorized(msg string) error { return &AErr{Code: http.StatusUnauthorized, Msg: msg} }
func Forbidden(msg string) error    { return &AErr{Code: http.StatusForbidden, Msg: msg} }
func NotFound(msg string) error     { return &AErr{Code: http.StatusNotFound, Msg: msg} }
func Internal(msg string, err error) error {
	return &AErr{Code: http.StatusInternalServerError, Msg: msg, Err: err}
}

// Action declares one endpoint: I is the bound input, O the response body.
type Action[I any, O any] struct {
	Method  string
	Path    string
	Binder  Binder
	Status  int // success status, 200 when zero
	Guards  []gin.HandlerFunc
	Handler func(c *gin.Context, in *I) (O, error)
}

func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	h := func(c *gin.Context) {
		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		}
		if bindErr != nil {
			Fail(c, e.log, bindError(bindErr))
			return
		}

		out, err := a.Handler(c, &in)
		if err != nil {
			Fail(c, e.log, err)
			return
		}
		resp.OK(c, a.Status, out)
	}

	handlers := append(append([]gin.HandlerFunc{}, a.Guards...), h)
	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, handlers...)
	case http.MethodPut:
		e.g.PUT(a.Path, handlers...)
	case http.MethodPatch:
		e.g.PATCH(a.Path, handlers...)
	case http.MethodDelete:
		e.g.DELETE(a.Path, handlers...)
	default:
		e.g.POST(a.Path, handlers...)
	}
}

// Fail maps err to the error body. Unexpected errors are logged with the trace
// id and answered with a generic 500.
func Fail(c *gin.Context, l *zap.Logger, err error) {
	status, msg, fields := Classify(err)
	if status == http.StatusInternalServerError {
		l.Error("unhandled error",
			zap.String("trace_id", resp.TraceID(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	resp.AbortFields(c, status, msg, fields)
}

// Classify turns an error into status, client message and field errors.
func Classify(err error) (int, string, map[string][]string) {
	var (
		ae *AErr
		ve *domain.ValidationError
		ce *domain.ConflictError
		nf *domain.NotFoundError
	)
	switch {
	case errors.As(err, &ae):
		return ae.Code, ae.Msg, ae.Fields
	case errors.As(err, &ve):
		return http.StatusBadRequest, "One or more validation errors occurred.", ve.Fields
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid username or password", nil
	case errors.Is(err, domain.ErrAccountLocked):
		return http.StatusUnauthorized, "Account is locked. Try again later", nil
	case errors.Is(err, domain.ErrAccountInactive):
		return http.StatusUnauthorized, "Account is inactive", nil
	case errors.Is(err, domain.ErrInvalidRefreshToken):
		return http.StatusUnauthorized, "Invalid or expired refresh token", nil
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, "Invalid or expired token", nil
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "You do not have permission to perform this action", nil
	case errors.As(err, &nf):
		return http.StatusNotFound, nf.Error(), nil
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "Resource not found", nil
	case errors.As(err, &ce):
		return http.StatusBadRequest, ce.Error(), nil
	case errors.Is(err, domain.ErrDuplicate),
		errors.Is(err, domain.ErrSystemRole),
		errors.Is(err, domain.ErrRoleInUse),
		errors.Is(err, domain.ErrInUse),
		errors.Is(err, domain.ErrPasswordMismatch),
		errors.Is(err, domain.ErrTenantRequired),
		errors.Is(err, domain.ErrTenantInactive),
		errors.Is(err, domain.ErrTenantFull):
		return http.StatusBadRequest, err.Error(), nil
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "", nil
	}
	return http.StatusInternalServerError, "", nil
}

// bindError converts gin binding failures into a 400 with field messages.
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string][]string, len(verrs))
		for _, fe := range verrs {
			name := fe.Field()
			fields[name] = append(fields[name], describe(fe))
		}
		return &AErr{Code: http.StatusBadRequest, Msg: "One or more validation errors occurred.", Fields: fields}
	}
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return &AErr{Code: http.StatusRequestEntityTooLarge, Err: err}
	}
	var ute *json.UnmarshalTypeError
	if errors.As(err, &ute) {
		return &AErr{Code: http.StatusBadRequest, Msg: "Malformed request body",
			Fields: map[string][]string{ute.Field: {"has the wrong type"}}, Err: err}
	}
	if errors.Is(err, io.EOF) {
		return &AErr{Code: http.StatusBadRequest, Msg: "Request body is required", Err: err}
	}
	return &AErr{Code: http.StatusBadRequest, Msg: "Malformed request", Err: err}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return "must be one of " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	}
	return "is invalid"
}
