package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"realtime-users/internal/adapter/gin/handler"
	"realtime-users/internal/adapter/gin/middleware"
	grpcmiddleware "realtime-users/internal/adapter/grpc/middleware"
)

// Handlers groups the HTTP handlers served by the router.
type Handlers struct {
	Auth  *handler.AuthHandler
	Users *handler.UserHandler
	Live  *handler.LiveHandler
}

// SetupRouter configures and returns a Gin router with all routes and middleware
func SetupRouter(
	h Handlers,
	verifier grpcmiddleware.Verifier,
	rateLimiter *grpcmiddleware.RateLimiter,
	log *zap.Logger,
) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "realtime-users",
		})
	})

	// API v1 routes
	v1 := router.Group("/v1")
	{
		authGroup := v1.Group("/auth", middleware.RateLimiter(rateLimiter))
		{
			authGroup.POST("/signup", h.Auth.SignUp)
			authGroup.POST("/signin", h.Auth.SignIn)
		}

		users := v1.Group("/users", middleware.RequireSession(verifier))
		{
			users.GET("", h.Users.ListUsers)
			users.GET("/live", h.Live.Live)

			limited := users.Group("", middleware.RateLimiter(rateLimiter))
			limited.POST("", h.Users.CreateUser)
			limited.PUT("/:id", h.Users.UpdateUser)
			limited.DELETE("/:id", h.Users.DeleteUser)
		}
	}

	return router
}
