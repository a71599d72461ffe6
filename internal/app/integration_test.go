package app

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/soonsulleng/guide-backend/config"
	"github.com/soonsulleng/guide-backend/internal/app/controller"
	"github.com/soonsulleng/guide-backend/internal/app/model"
	"github.com/soonsulleng/guide-backend/internal/app/repository"
	"github.com/soonsulleng/guide-backend/internal/app/service"
	"github.com/soonsulleng/guide-backend/internal/db"
	"github.com/soonsulleng/guide-backend/internal/middleware"
	"github.com/soonsulleng/guide-backend/internal/router"
	"github.com/soonsulleng/guide-backend/internal/storage"
	"github.com/soonsulleng/guide-backend/pkg/imageurl"
	"github.com/soonsulleng/guide-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const publicBaseURL = "http://localhost:8080/images/"

type TestServer struct {
	Router *gin.Engine
	DB     *gorm.DB
}

type memoryBlacklist struct {
	mu     sync.Mutex
	tokens map[string]bool
}

func (b *memoryBlacklist) BlacklistToken(_ context.Context, token string, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens[token] = true
	return nil
}

func (b *memoryBlacklist) IsTokenBlacklisted(_ context.Context, token string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tokens[token], nil
}

func setupIntegrationTest(t *testing.T) *TestServer {
	original := util.BcryptCost
	util.BcryptCost = bcrypt.MinCost
	t.Cleanup(func() { util.BcryptCost = original })

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	root := t.TempDir() + "/"
	cfg := &config.Config{
		Server: config.ServerConfig{GinMode: gin.TestMode},
		JWT: config.JWTConfig{
			Secret:             "test-secret",
			AccessTokenExpiry:  15 * time.Minute,
			RefreshTokenExpiry: 7 * 24 * time.Hour,
		},
		CORS: config.CORSConfig{AllowedOrigins: []string{"*"}},
		Image: config.ImageConfig{
			Backend:       config.ImageBackendLocal,
			PublicBaseURL: publicBaseURL,
			StorageRoot:   root,
			MaxUploadSize: 4 << 20,
		},
	}

	imageStore, err := storage.NewLocalStorage(root)
	require.NoError(t, err)
	blacklist := &memoryBlacklist{tokens: make(map[string]bool)}

	userRepo := repository.NewUserRepository(testDB)
	reviewRepo := repository.NewReviewRepository(testDB)

	identityService := service.NewIdentityService(userRepo, cfg.JWT.Secret, blacklist)
	authService := service.NewAuthService(userRepo, blacklist, cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry, cfg.JWT.RefreshTokenExpiry)
	reviewService := service.NewReviewService(reviewRepo, imageStore, imageurl.NewRewriter(cfg.Image.PublicBaseURL, cfg.Image.StorageRoot))

	r := router.NewRouter(
		controller.NewAuthController(authService),
		controller.NewReviewController(reviewService, cfg.Image.MaxUploadSize),
		middleware.NewAuthMiddleware(identityService),
		prometheus.NewRegistry(),
		cfg,
	)

	return &TestServer{
		Router: r.Setup(),
		DB:     testDB,
	}
}

func (ts *TestServer) serve(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.Router.ServeHTTP(w, req)
	return w
}

func (ts *TestServer) register(t *testing.T, email string) string {
	body, _ := json.Marshal(map[string]string{
		"email":    email,
		"password": "password123",
		"name":     "Reviewer",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := ts.serve(req, "")
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Tokens util.TokenPair `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Tokens.AccessToken
}

func submitRequest(t *testing.T, category, dateTime string, images map[string]string, order []string) *http.Request {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	fields := map[string]string{
		"category":       category,
		"storeName":      "Sulleng Kitchen",
		"reviewTitle":    "Best soup",
		"menuName":       "Sundae-guk",
		"reviewContent":  "Rich broth, generous portion.",
		"stars":          "5",
		"reviewDateTime": dateTime,
		"price":          "10,000원",
	}
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	for _, name := range order {
		part, err := writer.CreateFormFile("images", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(images[name]))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/reviews", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestCompleteReviewJourney(t *testing.T) {
	ts := setupIntegrationTest(t)

	t.Log("Step 1: Register user")
	token := ts.register(t, "reviewer@example.com")

	t.Log("Step 2: Submit a restaurant review with two photos")
	images := map[string]string{"bowl.jpg": "bowl-bytes", "table.jpg": "table-bytes"}
	w := ts.serve(submitRequest(t, model.CategoryRestaurant, "2024-10-01T12:30:00", images, []string{"bowl.jpg", "table.jpg"}), token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Review submitted successfully", w.Body.String())

	t.Log("Step 3: Submit a dessert-cafe review without photos")
	w = ts.serve(submitRequest(t, model.CategoryDessertCafe, "2024-10-02T15:00", nil, nil), token)
	require.Equal(t, http.StatusOK, w.Code)

	t.Log("Step 4: List grouped reviews")
	w = ts.serve(httptest.NewRequest(http.MethodGet, "/api/reviews/getReviews", nil), token)
	require.Equal(t, http.StatusOK, w.Code)

	var grouped map[string][]service.ReviewSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &grouped))
	require.Len(t, grouped[model.CategoryRestaurant], 1)
	require.Len(t, grouped[model.CategoryDessertCafe], 1)
	assert.Equal(t, "", grouped[model.CategoryDessertCafe][0].Thumbnail)

	thumbnail := grouped[model.CategoryRestaurant][0].Thumbnail
	require.True(t, strings.HasPrefix(thumbnail, publicBaseURL+"uploads/"), thumbnail)

	t.Log("Step 5: Fetch the thumbnail through the static image route")
	w = ts.serve(httptest.NewRequest(http.MethodGet, "/images/"+strings.TrimPrefix(thumbnail, publicBaseURL), nil), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "bowl-bytes", w.Body.String())

	t.Log("Step 6: Get review detail")
	reviewID := grouped[model.CategoryRestaurant][0].ID
	w = ts.serve(httptest.NewRequest(http.MethodGet, "/api/reviews/"+strconv.FormatUint(uint64(reviewID), 10), nil), token)
	require.Equal(t, http.StatusOK, w.Code)

	var detail service.ReviewDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	require.Len(t, detail.Images, 2)
	assert.Equal(t, thumbnail, detail.Images[0])

	w = ts.serve(httptest.NewRequest(http.MethodGet, "/images/"+strings.TrimPrefix(detail.Images[1], publicBaseURL), nil), "")
	assert.Equal(t, "table-bytes", w.Body.String())

	t.Log("Step 7: List all reviews newest first")
	w = ts.serve(httptest.NewRequest(http.MethodGet, "/api/reviews/allReviews", nil), token)
	require.Equal(t, http.StatusOK, w.Code)

	var all []service.ReviewSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	require.Len(t, all, 2)
	assert.Equal(t, model.CategoryDessertCafe, all[0].Category)
	assert.Equal(t, model.CategoryRestaurant, all[1].Category)
}

func TestLogoutRevokesReviewAccess(t *testing.T) {
	ts := setupIntegrationTest(t)
	token := ts.register(t, "reviewer@example.com")

	w := ts.serve(httptest.NewRequest(http.MethodGet, "/api/reviews/allReviews", nil), token)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.serve(httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil), token)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.serve(httptest.NewRequest(http.MethodGet, "/api/reviews/allReviews", nil), token)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "[]", w.Body.String())
}

func TestDeletedUserCannotSubmit(t *testing.T) {
	ts := setupIntegrationTest(t)
	token := ts.register(t, "reviewer@example.com")

	require.NoError(t, ts.DB.Where("email = ?", "reviewer@example.com").Delete(&model.User{}).Error)

	w := ts.serve(submitRequest(t, model.CategoryRestaurant, "2024-10-01T12:30:00", nil, nil), token)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User not found.", w.Body.String())
}
