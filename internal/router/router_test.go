package router

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/soonsulleng/guide-backend/config"
	"github.com/soonsulleng/guide-backend/internal/app/controller"
	"github.com/soonsulleng/guide-backend/internal/app/repository"
	"github.com/soonsulleng/guide-backend/internal/app/service"
	"github.com/soonsulleng/guide-backend/internal/db"
	"github.com/soonsulleng/guide-backend/internal/middleware"
	"github.com/soonsulleng/guide-backend/internal/storage"
	"github.com/soonsulleng/guide-backend/pkg/imageurl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouterTest(t *testing.T) (*gin.Engine, string) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	root := t.TempDir() + "/"
	cfg := &config.Config{
		Server: config.ServerConfig{GinMode: gin.TestMode},
		CORS:   config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		Image: config.ImageConfig{
			Backend:       config.ImageBackendLocal,
			PublicBaseURL: "http://localhost:8080/images/",
			StorageRoot:   root,
			MaxUploadSize: 1 << 20,
		},
	}

	local, err := storage.NewLocalStorage(root)
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(testDB)
	reviewRepo := repository.NewReviewRepository(testDB)
	identityService := service.NewIdentityService(userRepo, "secret", nil)
	authService := service.NewAuthService(userRepo, nil, "secret", time.Hour, time.Hour)
	reviewService := service.NewReviewService(reviewRepo, local, imageurl.NewRewriter(cfg.Image.PublicBaseURL, root))

	r := NewRouter(
		controller.NewAuthController(authService),
		controller.NewReviewController(reviewService, cfg.Image.MaxUploadSize),
		middleware.NewAuthMiddleware(identityService),
		prometheus.NewRegistry(),
		cfg,
	)
	return r.Setup(), root
}

func TestRouter_Health(t *testing.T) {
	engine, _ := setupRouterTest(t)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestRouter_ReviewRoutesRequireCaller(t *testing.T) {
	engine, _ := setupRouterTest(t)

	tests := []struct {
		method   string
		path     string
		wantBody string
	}{
		{method: http.MethodPost, path: "/api/reviews", wantBody: "User not found."},
		{method: http.MethodGet, path: "/api/reviews/getReviews", wantBody: "{}"},
		{method: http.MethodGet, path: "/api/reviews/allReviews", wantBody: "[]"},
		{method: http.MethodGet, path: "/api/reviews/3", wantBody: "{}"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, http.StatusNotFound, w.Code)
			assert.Equal(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestRouter_RefreshRouteRegistered(t *testing.T) {
	engine, _ := setupRouterTest(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", strings.NewReader(`{"refresh_token":"garbage"}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "AUTH_TOKEN_INVALID")
}

func TestRouter_ServesStoredImages(t *testing.T) {
	engine, root := setupRouterTest(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "uploads", "pic.jpg"), []byte("jpeg"), 0o644))

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/images/uploads/pic.jpg", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jpeg", w.Body.String())
}

func TestRouter_Metrics(t *testing.T) {
	engine, _ := setupRouterTest(t)

	engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `http_requests_total{method="GET",path="/health",status="200"} 1`)
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	engine, _ := setupRouterTest(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/reviews", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/reviews", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
