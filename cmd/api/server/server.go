package server

import (
	"net/http"

	"user-registry-service/cmd/api/di"
	"user-registry-service/internal/config"

	"go.uber.org/zap"
)

// Server struct holds all server dependencies
type Server struct {
	Config *config.Config
	Logger *zap.Logger
	HTTP   *http.Server
}

// New creates a new server instance
func New(cfg *config.Config, l *zap.Logger, container *di.Container) *Server {
	return &Server{
		Config: cfg,
		Logger: l,
		HTTP: SetupGinServer(
			container.GinHandler,
			container.RedisClient,
			container.RateLimit,
			cfg.Logger.ServiceName,
			":"+cfg.App.HTTPPort,
			l,
		),
	}
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	s.Logger.Info("HTTP server running", zap.String("address", s.HTTP.Addr))
	if err := s.HTTP.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
