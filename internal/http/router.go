package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/stockcast/internal/auth"
)

const rootBanner = "Backend is running. Visit /api/auth for authentication routes."

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.EnableHSTS {
		router.Use(auth.StrictTransportSecurityMiddleware())
	}

	if len(cfg.AllowedOrigins) > 0 {
		router.Use(CORSMiddleware(cfg.AllowedOrigins))
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, auth.ErrorResponse{
			Status:  http.StatusNotFound,
			Message: "route not found",
			Code:    auth.KindNotFound.String(),
		})
	})

	// Health endpoints
	health := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, rootBanner)
	})

	if cfg.AuthController != nil {
		cfg.AuthController.RegisterRoutes(router.Group("/api/auth"))

		profile := NewProfileController()
		protected := router.Group("/api")
		protected.Use(cfg.AuthController.Middleware().RequireSession())
		protected.GET("/profile", profile.Show)
	}

	return router
}
