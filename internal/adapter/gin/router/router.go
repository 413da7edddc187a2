package router

import (
	"fmt"
	"net/http"
	"time"

	"user-registry-service/internal/adapter/gin/handler"
	"user-registry-service/internal/adapter/gin/middleware"
	"user-registry-service/internal/adapter/gin/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// SetupRouter configures all routes and middleware and returns the HTTP
// handler to serve. The gin engine is wrapped with the CORS handler, so
// preflight requests are answered before they reach the route table.
func SetupRouter(
	userHandler *handler.UserHandler,
	redisClient *redis.Client,
	rateLimitCfg middleware.RateLimiterConfig,
	serviceName string,
	log *zap.Logger,
) http.Handler {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.RateLimiter(redisClient, rateLimitCfg, log))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"service":   serviceName,
		})
	})

	users := router.Group("/users")
	{
		users.POST("", userHandler.CreateUser)
		users.GET("", userHandler.ListUsers)
		users.GET("/:id", userHandler.GetUser)
	}

	// The CORS wrapper only short-circuits true preflights (those carrying
	// Access-Control-Request-Method); a bare OPTIONS falls through to here
	// and still gets 200 with an empty body. Everything else echoes what
	// was received for diagnostics.
	router.NoRoute(func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusOK)
			return
		}
		response.Fail(c, http.StatusNotFound, "Endpoint not found",
			fmt.Sprintf("Method: %s, Path: %s", c.Request.Method, c.Request.URL.Path))
	})

	return cors.New(cors.Options{
		AllowedOrigins:       []string{"*"},
		AllowedMethods:       []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:       []string{"Content-Type", "X-Request-ID"},
		OptionsSuccessStatus: http.StatusOK,
	}).Handler(router)
}
