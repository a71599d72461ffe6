package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/soonsulleng/guide-backend/config"
	"github.com/soonsulleng/guide-backend/internal/app/controller"
	"github.com/soonsulleng/guide-backend/internal/middleware"
)

type Router struct {
	authController   *controller.AuthController
	reviewController *controller.ReviewController
	authMiddleware   *middleware.AuthMiddleware
	registry         *prometheus.Registry
	config           *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	reviewController *controller.ReviewController,
	authMiddleware *middleware.AuthMiddleware,
	registry *prometheus.Registry,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:   authController,
		reviewController: reviewController,
		authMiddleware:   authMiddleware,
		registry:         registry,
		config:           cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()
	router.MaxMultipartMemory = r.config.Image.MaxUploadSize

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.NewMetrics(r.registry).Handler())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Soonsulleng Guide API is running",
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})))

	// Locally stored review photos; the public base URL points here by default
	if r.config.Image.Backend == config.ImageBackendLocal {
		router.Static("/images", r.config.Image.StorageRoot)
	}

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", r.authController.Register)
			auth.POST("/login", r.authController.Login)
			auth.POST("/refresh", r.authController.RefreshToken)
			auth.POST("/logout", r.authMiddleware.Authenticate(), r.authController.Logout)
			auth.GET("/me", r.authMiddleware.Authenticate(), r.authController.GetMe)
		}

		reviews := api.Group("/reviews")
		{
			reviews.POST("", r.authMiddleware.RequireCaller(controller.RespondUserNotFound), r.reviewController.SubmitReview)
			reviews.GET("/getReviews", r.authMiddleware.RequireCaller(controller.RespondEmptyObject), r.reviewController.ListGrouped)
			reviews.GET("/allReviews", r.authMiddleware.RequireCaller(controller.RespondEmptyArray), r.reviewController.ListAll)
			reviews.GET("/:id", r.authMiddleware.RequireCaller(controller.RespondEmptyObject), r.reviewController.GetByID)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed && origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
