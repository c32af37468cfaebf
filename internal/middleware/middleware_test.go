package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"table_order_backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func protectedEngine(t *testing.T) (*gin.Engine, services.AuthService) {
	t.Helper()
	authService, err := services.NewAuthService("admin", "s3cret", "middleware-secret", time.Hour)
	require.NoError(t, err)

	engine := gin.New()
	engine.GET("/admin", AdminAuth(authService), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("username"))
	})
	return engine, authService
}

func TestAdminAuth(t *testing.T) {
	engine, authService := protectedEngine(t)
	login, err := authService.Login(services.LoginRequest{Username: "admin", Password: "s3cret"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{name: "no credentials", setup: func(*http.Request) {}, status: http.StatusUnauthorized},
		{name: "basic ok", setup: func(r *http.Request) { r.SetBasicAuth("admin", "s3cret") }, status: http.StatusOK},
		{name: "basic wrong password", setup: func(r *http.Request) { r.SetBasicAuth("admin", "nope") }, status: http.StatusUnauthorized},
		{name: "bearer ok", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+login.AccessToken) }, status: http.StatusOK},
		{name: "bearer garbage", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer abc.def.ghi") }, status: http.StatusUnauthorized},
		{name: "wrong scheme", setup: func(r *http.Request) { r.Header.Set("Authorization", "Token "+login.AccessToken) }, status: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			tt.setup(req)
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "admin", w.Body.String())
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(1, 2)
	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"), "burst exhausted")
	assert.True(t, limiter.Allow("10.0.0.2"), "buckets are per client")

	unlimited := NewRateLimiter(0, 0)
	for i := 0; i < 100; i++ {
		require.True(t, unlimited.Allow("10.0.0.1"))
	}
}

func TestRateLimitMiddlewareRespondsTooManyRequests(t *testing.T) {
	engine := gin.New()
	engine.POST("/orders", NewRateLimiter(0.001, 1).Middleware(), func(c *gin.Context) { c.Status(http.StatusCreated) })

	first := httptest.NewRecorder()
	engine.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/orders", nil))
	assert.Equal(t, http.StatusCreated, first.Code)

	second := httptest.NewRecorder()
	engine.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/orders", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Contains(t, second.Body.String(), "TOO_MANY_REQUESTS")
}
