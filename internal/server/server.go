package server

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"feedforge/internal/config"
	"feedforge/internal/feed"
	custommiddleware "feedforge/internal/middleware"
	"feedforge/internal/repository"
	"feedforge/internal/service"
	"feedforge/internal/storage"
	"feedforge/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     *sql.DB
	redis  *redis.Client
}

func NewServer(cfg *config.Config, logger *zap.Logger, db *sql.DB) (*Server, error) {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(nil, cfg.Server.Env != "production"))

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Initialize artifact storage
	artifacts, err := storage.NewMinioStore(cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize artifact store: %w", err)
	}

	// Initialize repositories
	productRepo := repository.NewProductRepository(db)
	feedRepo := repository.NewFeedRepository(db)

	// Initialize services
	feedService := service.NewFeedService(
		productRepo,
		feedRepo,
		artifacts,
		feed.DefaultRegistry(),
		cfg.Feed.RunTimeout,
		logger,
	)

	// Initialize handlers
	feedHandler := transport.NewFeedHandler(feedService, logger)

	// Protect the API with the shared key and per-client throttling
	apiMiddleware := []func(http.Handler) http.Handler{
		custommiddleware.APIKeyMiddleware(cfg.Auth.APIKey, logger),
	}

	var redisClient *redis.Client
	if !cfg.Feed.RateLimitDisabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		apiMiddleware = append(apiMiddleware, custommiddleware.RateLimitMiddleware(
			redisClient,
			custommiddleware.RateLimitConfig{
				RequestsPerWindow: cfg.Feed.RateLimitPerMin,
				Window:            time.Minute,
				KeyPrefix:         "ratelimit:feeds",
			},
			logger,
		))
	}

	// Register routes
	feedHandler.RegisterRoutes(router, apiMiddleware...)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 6 * time.Minute,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}

	return server, nil
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
