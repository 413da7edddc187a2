package server

import (
	"net/http"
	"time"

	ginhandler "user-registry-service/internal/adapter/gin/handler"
	"user-registry-service/internal/adapter/gin/middleware"
	ginrouter "user-registry-service/internal/adapter/gin/router"
	redisclient "user-registry-service/pkg/redis"

	"go.uber.org/zap"
)

// SetupGinServer creates and configures the REST API server
func SetupGinServer(
	handler *ginhandler.UserHandler,
	redisClient *redisclient.Client,
	rateLimitCfg middleware.RateLimiterConfig,
	serviceName string,
	addr string,
	l *zap.Logger,
) *http.Server {
	router := ginrouter.SetupRouter(handler, redisClient.Client, rateLimitCfg, serviceName, l)

	l.Info("REST API configured", zap.String("address", addr))

	return &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
