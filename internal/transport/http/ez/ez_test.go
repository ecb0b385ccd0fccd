package ez

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wms-admin/internal/core/auth"
	"wms-admin/internal/domain"
	resp "wms-admin/internal/transport/http/response"
)

func init() { gin.SetMode(gin.TestMode) }

func TestClassify(t *testing.T) {
	v := domain.NewValidationError()
	v.Add("code", "is required")

	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", v, http.StatusBadRequest},
		{"conflict", domain.Conflict("warehouse", "code", "WH-01"), http.StatusBadRequest},
		{"system role", fmt.Errorf("update: %w", domain.ErrSystemRole), http.StatusBadRequest},
		{"in use", domain.ErrInUse, http.StatusBadRequest},
		{"tenant required", domain.ErrTenantRequired, http.StatusBadRequest},
		{"bad credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{"locked", domain.ErrAccountLocked, http.StatusUnauthorized},
		{"refresh", domain.ErrInvalidRefreshToken, http.StatusUnauthorized},
		{"token", auth.ErrInvalidToken, http.StatusUnauthorized},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden},
		{"not found", domain.NotFound("company", "x"), http.StatusNotFound},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"aerr", Forbidden("nope"), http.StatusForbidden},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, _, _ := Classify(tc.err)
			assert.Equal(t, tc.status, status)
		})
	}

	_, _, fields := Classify(v)
	assert.Equal(t, []string{"is required"}, fields["code"])
	_, msg, _ := Classify(domain.NotFound("company", "x"))
	assert.Equal(t, "company not found", msg)
}

type createIn struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

func serve(t *testing.T, register func(EZ), method, path, body string) (*httptest.ResponseRecorder, resp.ErrorBody) {
	t.Helper()
	r := gin.New()
	register(New(r.Group(""), zap.NewNop()))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	var eb resp.ErrorBody
	if w.Code >= 400 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &eb))
	}
	return w, eb
}

func TestBindingErrorsUseJSONFieldNames(t *testing.T) {
	w, eb := serve(t, func(e EZ) {
		RegisterAction(e, Action[createIn, createIn]{
			Method: http.MethodPost, Path: "/things", Binder: BindJSON,
			Handler: func(c *gin.Context, in *createIn) (createIn, error) { return *in, nil },
		})
	}, http.MethodPost, "/things", `{"email":"not-an-email"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, http.StatusBadRequest, eb.StatusCode)
	assert.Equal(t, []string{"is required"}, eb.Errors["name"])
	assert.Equal(t, []string{"must be a valid email address"}, eb.Errors["email"])
}

func TestMalformedBodyIs400(t *testing.T) {
	w, eb := serve(t, func(e EZ) {
		RegisterAction(e, Action[createIn, createIn]{
			Method: http.MethodPost, Path: "/things", Binder: BindJSON,
			Handler: func(c *gin.Context, in *createIn) (createIn, error) { return *in, nil },
		})
	}, http.MethodPost, "/things", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, eb.Message)
}

func TestUnexpectedErrorsDoNotLeak(t *testing.T) {
	w, eb := serve(t, func(e EZ) {
		RegisterAction(e, Action[struct{}, string]{
			Method: http.MethodGet, Path: "/boom", Binder: BindNone,
			Handler: func(c *gin.Context, _ *struct{}) (string, error) {
				return "", errors.New("pq: password authentication failed for user wms")
			},
		})
	}, http.MethodGet, "/boom", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "An unexpected error occurred", eb.Message)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestSuccessStatuses(t *testing.T) {
	w, _ := serve(t, func(e EZ) {
		RegisterAction(e, Action[createIn, createIn]{
			Method: http.MethodPost, Path: "/things", Binder: BindJSON, Status: http.StatusCreated,
			Handler: func(c *gin.Context, in *createIn) (createIn, error) { return *in, nil },
		})
	}, http.MethodPost, "/things", `{"name":"a","email":"a@example.com"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"name":"a","email":"a@example.com"}`, w.Body.String())

	w, _ = serve(t, func(e EZ) {
		RegisterAction(e, Action[struct{}, struct{}]{
			Method: http.MethodDelete, Path: "/things/:id", Binder: BindNone, Status: http.StatusNoContent,
			Handler: func(c *gin.Context, _ *struct{}) (struct{}, error) { return struct{}{}, nil },
		})
	}, http.MethodDelete, "/things/1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestGuardsRunBeforeHandler(t *testing.T) {
	called := false
	w, eb := serve(t, func(e EZ) {
		RegisterAction(e, Action[struct{}, string]{
			Method: http.MethodPatch, Path: "/guarded", Binder: BindNone,
			Guards: []gin.HandlerFunc{func(c *gin.Context) { resp.Abort(c, http.StatusForbidden, "denied") }},
			Handler: func(c *gin.Context, _ *struct{}) (string, error) {
				called = true
				return "ok", nil
			},
		})
	}, http.MethodPatch, "/guarded", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "denied", eb.Message)
	assert.False(t, called)
}
