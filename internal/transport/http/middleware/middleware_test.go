package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wms-admin/internal/core/auth"
	"wms-admin/internal/core/server"
	"wms-admin/internal/tenancy"
	resp "wms-admin/internal/transport/http/response"
)

func init() { gin.SetMode(gin.TestMode) }

var testJWT = &auth.JWTer{
	Secret:   []byte("0123456789abcdef0123456789abcdef"),
	Issuer:   "wms-admin",
	Audience: "wms-clients",
	TTL:      time.Hour,
}

func do(r http.Handler, method, path string, hdr map[string]string, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) resp.ErrorBody {
	t.Helper()
	var eb resp.ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &eb))
	return eb
}

func bearer(t *testing.T, s auth.Subject) map[string]string {
	t.Helper()
	tok, _, err := testJWT.IssueAccess(s)
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + tok}
}

func TestRequestIDEchoesAndFillsClient(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	var got tenancy.Client
	r.GET("/x", func(c *gin.Context) {
		got = tenancy.ClientFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := do(r, http.MethodGet, "/x", map[string]string{KeyRequestID: "trace-123", "User-Agent": "tests"}, "")
	assert.Equal(t, "trace-123", w.Header().Get(KeyRequestID))
	assert.Equal(t, "trace-123", got.RequestID)
	assert.Equal(t, "tests", got.UserAgent)

	w = do(r, http.MethodGet, "/x", nil, "")
	assert.NotEmpty(t, w.Header().Get(KeyRequestID))

	long := strings.Repeat("r", maxRequestID+1)
	w = do(r, http.MethodGet, "/x", map[string]string{KeyRequestID: long}, "")
	assert.NotEqual(t, long, w.Header().Get(KeyRequestID))
	assert.LessOrEqual(t, len(got.RequestID), maxRequestID)

	exact := strings.Repeat("r", maxRequestID)
	do(r, http.MethodGet, "/x", map[string]string{KeyRequestID: exact}, "")
	assert.Equal(t, exact, got.RequestID)
}

func TestAuthJWT(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	tenant := "11111111-1111-1111-1111-111111111111"
	r.GET("/me", AuthJWT(testJWT), func(c *gin.Context) {
		p, ok := tenancy.FromContext(c.Request.Context())
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"sub": p.UserID, "tenant": *p.TenantID})
	})

	w := do(r, http.MethodGet, "/me", map[string]string{KeyRequestID: "rid-1"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	eb := decode(t, w)
	assert.Equal(t, http.StatusUnauthorized, eb.StatusCode)
	assert.Equal(t, "rid-1", eb.TraceID)

	w = do(r, http.MethodGet, "/me", map[string]string{"Authorization": "Bearer garbage"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodGet, "/me", bearer(t, auth.Subject{UserID: "u1", TenantID: &tenant}), "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"sub":"u1","tenant":"`+tenant+`"}`, w.Body.String())
}

func TestRequireTenant(t *testing.T) {
	r := gin.New()
	r.GET("/scoped", AuthJWT(testJWT), RequireTenant(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := do(r, http.MethodGet, "/scoped", bearer(t, auth.Subject{UserID: "u1"}), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	bad := "not-a-uuid"
	w = do(r, http.MethodGet, "/scoped", bearer(t, auth.Subject{UserID: "u1", TenantID: &bad}), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	good := "11111111-1111-1111-1111-111111111111"
	w = do(r, http.MethodGet, "/scoped", bearer(t, auth.Subject{UserID: "u1", TenantID: &good}), "")
	assert.Equal(t, http.StatusOK, w.Code)
}

type fakeChecker struct {
	allow map[string]bool
	err   error
}

func (f fakeChecker) HasPermission(_ context.Context, userID, resource, action string) (bool, error) {
	return f.allow[userID+":"+resource+":"+action], f.err
}

func TestRequirePermission(t *testing.T) {
	pc := fakeChecker{allow: map[string]bool{"u1:companies:read": true}}
	r := gin.New()
	r.GET("/companies", AuthJWT(testJWT), RequirePermission(pc, zap.NewNop(), "companies", "read"),
		func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/companies", AuthJWT(testJWT), RequirePermission(pc, zap.NewNop(), "companies", "create"),
		func(c *gin.Context) { c.Status(http.StatusCreated) })

	h := bearer(t, auth.Subject{UserID: "u1"})
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/companies", h, "").Code)
	w := do(r, http.MethodPost, "/companies", h, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, http.StatusForbidden, decode(t, w).StatusCode)

	failing := gin.New()
	failing.GET("/x", AuthJWT(testJWT), RequirePermission(fakeChecker{err: errors.New("db down")}, zap.NewNop(), "x", "read"),
		func(c *gin.Context) { c.Status(http.StatusOK) })
	w = do(failing, http.MethodGet, "/x", h, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "db down")
}

func TestRateLimitPerIP(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitPerIP(0.001, 2, 100))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/x", nil, "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/x", nil, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, http.MethodGet, "/x", nil, "").Code)
}

func TestRateLimitPerIPFullTableStillLimitsNewClients(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitPerIP(0.001, 2, 2))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	from := func(ip string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.RemoteAddr = ip + ":40000"
		r.ServeHTTP(w, req)
		return w.Code
	}
	assert.Equal(t, http.StatusOK, from("10.0.0.1"))
	assert.Equal(t, http.StatusOK, from("10.0.0.2"))

	assert.Equal(t, http.StatusOK, from("10.0.0.3"))
	assert.Equal(t, http.StatusOK, from("10.0.0.3"))
	assert.Equal(t, http.StatusTooManyRequests, from("10.0.0.3"))

	// 10.0.0.1 was evicted; 10.0.0.2 kept its half-spent bucket.
	assert.Equal(t, http.StatusOK, from("10.0.0.2"))
	assert.Equal(t, http.StatusTooManyRequests, from("10.0.0.2"))
}

func TestMaxBodyBytes(t *testing.T) {
	r := gin.New()
	r.Use(MaxBodyBytes(8))
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusRequestEntityTooLarge, do(r, http.MethodPost, "/x", nil, strings.Repeat("a", 64)).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/x", nil, "tiny").Code)
}

func TestTimeoutAnswers504(t *testing.T) {
	r := gin.New()
	r.Use(Timeout(10 * time.Millisecond))
	r.GET("/slow", func(c *gin.Context) { <-c.Request.Context().Done() })

	w := do(r, http.MethodGet, "/slow", nil, "")
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}

func TestRecoveredPanicIsGeneric500(t *testing.T) {
	r := server.NewRouter(zap.NewNop(), Recovered(zap.NewNop()))
	r.Use(RequestID())
	r.GET("/panic", func(c *gin.Context) { panic("secret internals") })

	w := do(r, http.MethodGet, "/panic", map[string]string{KeyRequestID: "rid-9"}, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	eb := decode(t, w)
	assert.Equal(t, "An unexpected error occurred", eb.Message)
	assert.Equal(t, "rid-9", eb.TraceID)
	assert.NotContains(t, w.Body.String(), "secret")
}

func TestMaskQuery(t *testing.T) {
	out := maskQuery(map[string][]string{"password": {"hunter2"}, "page": {"2"}})
	assert.Equal(t, []string{"****"}, out["password"])
	assert.Equal(t, []string{"2"}, out["page"])
}
