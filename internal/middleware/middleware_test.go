package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"posync/internal/gateway"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func init() { gin.SetMode(gin.TestMode) }

func token(t *testing.T, role, store string) string {
	t.Helper()
	tok, err := IssueToken(secret, DeviceClaims{DeviceID: "caja-1", StoreID: store, Role: role}, time.Hour)
	require.NoError(t, err)
	return tok
}

func serve(r *gin.Engine, method, path, tok string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func protected(roles ...string) *gin.Engine {
	r := gin.New()
	r.GET("/x", JWTAuth(secret), MatchStore(func() string { return "store-1" }), RequireRole(roles...), func(c *gin.Context) {
		c.String(http.StatusOK, GetClaims(c).DeviceID)
	})
	return r
}

func TestJWTAuth(t *testing.T) {
	r := protected(RoleWaiter, RoleAdmin)

	w := serve(r, http.MethodGet, "/x", token(t, RoleWaiter, "store-1"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "caja-1", w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/x", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/x", "garbage").Code)

	forever, err := IssueToken(secret, DeviceClaims{DeviceID: "caja-1", Role: RoleWaiter}, 0)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/x", forever).Code)

	other, err := IssueToken("other-secret", DeviceClaims{DeviceID: "caja-1", Role: RoleWaiter}, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/x", other).Code)
}

func TestParseToken_UnknownRole(t *testing.T) {
	tok, err := IssueToken(secret, DeviceClaims{DeviceID: "caja-1", Role: "owner"}, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(secret, tok)
	assert.Error(t, err)
}

func TestRequireRole(t *testing.T) {
	r := protected(RoleAdmin)

	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/x", token(t, RoleKitchen, "")).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/x", token(t, RoleAdmin, "")).Code)
}

func TestMatchStore(t *testing.T) {
	r := protected(RoleWaiter, RoleAdmin)

	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/x", token(t, RoleWaiter, "store-2")).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/x", token(t, RoleWaiter, "")).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/x", token(t, RoleAdmin, "store-2")).Code)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	w := serve(r, http.MethodGet, "/x", "")
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	assert.Equal(t, w.Header().Get(RequestIDHeader), w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Body.String())
}

func TestErrorHandler_MapsGatewayKinds(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/offline", func(c *gin.Context) {
		_ = c.Error(&gateway.Failure{Kind: gateway.Offline, Err: errors.New("dial tcp")})
	})
	r.GET("/conflict", func(c *gin.Context) {
		_ = c.Error(&gateway.Failure{Kind: gateway.Conflict, Err: errors.New("revision")})
	})
	r.GET("/boom", func(c *gin.Context) {
		_ = c.Error(errors.New("pq: relation missing"))
	})
	r.GET("/panic", Recovery(), func(c *gin.Context) { panic("boom") })

	w := serve(r, http.MethodGet, "/offline", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"offline"`)
	assert.Equal(t, http.StatusConflict, serve(r, http.MethodGet, "/conflict", "").Code)

	w = serve(r, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "relation")

	assert.Equal(t, http.StatusInternalServerError, serve(r, http.MethodGet, "/panic", "").Code)
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:5173"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://evil.test")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/x", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	open := gin.New()
	open.Use(CORS(nil))
	open.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	w = httptest.NewRecorder()
	open.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
