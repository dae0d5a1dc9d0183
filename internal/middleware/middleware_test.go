package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/rbac"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAuth struct {
	users map[string]model.User
}

func (f fakeAuth) Authenticate(_ context.Context, token string) (model.User, error) {
	if u, ok := f.users[token]; ok {
		return u, nil
	}
	return model.User{}, apperrors.Unauthenticated("")
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextRequestID)) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, w.Header().Get(HeaderXRequestID))
	assert.Equal(t, w.Header().Get(HeaderXRequestID), w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderXRequestID, "abc")
	assert.Equal(t, "abc", serve(r, req).Header().Get(HeaderXRequestID))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderXRequestID, strings.Repeat("x", 500))
	assert.Len(t, serve(r, req).Header().Get(HeaderXRequestID), 36)
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/", func(c *gin.Context) { panic("boom") })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
}

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"Bearer abc":  "abc",
		"bearer abc":  "abc",
		"Bearer ":     "",
		"Basic abc":   "",
		"":            "",
		"Bearer  xyz": "xyz",
	}
	for header, want := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Request.Header.Set("Authorization", header)
		assert.Equal(t, want, BearerToken(c), header)
	}
}

func TestAuthenticateAndAuthorize(t *testing.T) {
	auth := NewAuthMiddleware(fakeAuth{users: map[string]model.User{
		"nurse": {Record: model.Record{model.FieldID: "u1", model.FieldRole: "nurse"}},
		"admin": {Record: model.Record{model.FieldID: "u2", model.FieldRole: "admin"}},
	}})

	r := gin.New()
	g := r.Group("", auth.Authenticate())
	g.DELETE("/patients/:id", Authorize(model.CollectionPatients, rbac.OpDelete), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextUserID))
	})
	g.GET("/dashboard", RequireRole(model.RoleAdmin, model.RoleDoctor), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	request := func(method, path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		return serve(r, req)
	}

	w := request(http.MethodDelete, "/patients/1", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, request(http.MethodDelete, "/patients/1", "stale").Code)

	w = request(http.MethodDelete, "/patients/1", "nurse")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"Forbidden"}`, w.Body.String())

	w = request(http.MethodDelete, "/patients/1", "admin")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u2", w.Body.String())

	assert.Equal(t, http.StatusForbidden, request(http.MethodGet, "/dashboard", "nurse").Code)
	assert.Equal(t, http.StatusOK, request(http.MethodGet, "/dashboard", "admin").Code)
}

func TestRateLimiter(t *testing.T) {
	r := gin.New()
	r.POST("/login", NewRateLimiter(RateLimiterConfig{RPS: 0.001, Burst: 2}).RateLimit(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	var codes []int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		codes = append(codes, serve(r, req).Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	assert.Equal(t, http.StatusOK, serve(r, req).Code)
}

func TestSizeLimit(t *testing.T) {
	r := gin.New()
	r.Use(SizeLimit(8))
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("small"))).Code)
	assert.Equal(t, http.StatusRequestEntityTooLarge, serve(r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("much too large"))).Code)
}
