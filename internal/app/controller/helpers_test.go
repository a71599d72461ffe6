package controller

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/soonsulleng/guide-backend/internal/app/model"
	"github.com/soonsulleng/guide-backend/internal/app/repository"
	"github.com/soonsulleng/guide-backend/internal/app/service"
	"github.com/soonsulleng/guide-backend/internal/db"
	"github.com/soonsulleng/guide-backend/internal/middleware"
	"github.com/soonsulleng/guide-backend/internal/storage/memory"
	"github.com/soonsulleng/guide-backend/pkg/imageurl"
	"github.com/soonsulleng/guide-backend/pkg/util"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testSecret      = "test-secret"
	testBaseURL     = "http://localhost:8080/images/"
	testStorageRoot = "/srv/static/images/"
)

type testEnv struct {
	router   *gin.Engine
	images   *memory.Storage
	userRepo repository.UserRepository
}

func setupControllerTest(t *testing.T) *testEnv {
	gin.SetMode(gin.TestMode)

	original := util.BcryptCost
	util.BcryptCost = bcrypt.MinCost
	t.Cleanup(func() { util.BcryptCost = original })

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	userRepo := repository.NewUserRepository(testDB)
	reviewRepo := repository.NewReviewRepository(testDB)
	images := memory.New(testStorageRoot)

	identityService := service.NewIdentityService(userRepo, testSecret, nil)
	authService := service.NewAuthService(userRepo, nil, testSecret, 15*time.Minute, 7*24*time.Hour)
	reviewService := service.NewReviewService(reviewRepo, images, imageurl.NewRewriter(testBaseURL, testStorageRoot))

	authMiddleware := middleware.NewAuthMiddleware(identityService)
	authCtrl := NewAuthController(authService)
	reviewCtrl := NewReviewController(reviewService, 1<<20)

	router := gin.New()
	auth := router.Group("/api/auth")
	{
		auth.POST("/register", authCtrl.Register)
		auth.POST("/login", authCtrl.Login)
		auth.POST("/refresh", authCtrl.RefreshToken)
		auth.POST("/logout", authMiddleware.Authenticate(), authCtrl.Logout)
		auth.GET("/me", authMiddleware.Authenticate(), authCtrl.GetMe)
	}
	reviews := router.Group("/api/reviews")
	{
		reviews.POST("", authMiddleware.RequireCaller(RespondUserNotFound), reviewCtrl.SubmitReview)
		reviews.GET("/getReviews", authMiddleware.RequireCaller(RespondEmptyObject), reviewCtrl.ListGrouped)
		reviews.GET("/allReviews", authMiddleware.RequireCaller(RespondEmptyArray), reviewCtrl.ListAll)
		reviews.GET("/:id", authMiddleware.RequireCaller(RespondEmptyObject), reviewCtrl.GetByID)
	}

	return &testEnv{router: router, images: images, userRepo: userRepo}
}

// tokenFor creates the user and returns a valid access token for it
func (e *testEnv) tokenFor(t *testing.T, email string) string {
	user := &model.User{Email: email, PasswordHash: "hashed", Name: "Reviewer", Role: model.RoleUser}
	require.NoError(t, e.userRepo.Create(context.Background(), user))

	tokens, err := util.GenerateTokenPair(user.ID, user.Email, string(user.Role), testSecret, time.Hour, time.Hour)
	require.NoError(t, err)
	return tokens.AccessToken
}

func (e *testEnv) do(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

type testFile struct {
	name    string
	content string
}

func newMultipartRequest(t *testing.T, fields map[string]string, files ...testFile) *http.Request {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	for _, f := range files {
		part, err := writer.CreateFormFile("images", f.name)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/reviews", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func reviewFields(category, dateTime string) map[string]string {
	return map[string]string{
		"category":       category,
		"storeName":      "Corner Bistro",
		"reviewTitle":    "Great lunch",
		"menuName":       "Kimchi stew",
		"reviewContent":  "Spicy and warm.",
		"stars":          "5",
		"reviewDateTime": dateTime,
		"price":          "9,000원",
	}
}
