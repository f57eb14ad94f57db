package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"catalog-api/internal/config"
	"catalog-api/internal/database"
	custommiddleware "catalog-api/internal/middleware"
	"catalog-api/internal/repository"
	"catalog-api/internal/service"
	"catalog-api/internal/storage"
	"catalog-api/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     database.Service
	redis  *redis.Client
}

func NewServer(ctx context.Context, cfg *config.Config, logger *zap.Logger, db database.Service) (*Server, error) {
	disk, err := storage.NewDisk(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      newRouter(cfg, logger, db, disk, redisClient),
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}

	return server, nil
}

func newRouter(cfg *config.Config, logger *zap.Logger, db database.Service, disk storage.Disk, redisClient *redis.Client) http.Handler {
	router := chi.NewRouter()

	metrics := custommiddleware.NewMetrics("catalog")
	router.Use(custommiddleware.DefaultMiddlewareStack(logger)...)
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.IsDevelopment()))
	router.Use(metrics.Middleware)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := db.Health()
		status := http.StatusOK
		if health["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		custommiddleware.RespondSuccess(w, status, "", health)
	})
	router.Method(http.MethodGet, "/metrics", metrics.Handler())

	// Uploaded images on the local disk are served by the API itself
	if local, ok := disk.(*storage.LocalDisk); ok {
		router.Handle("/storage/*", http.StripPrefix("/storage/", http.FileServer(http.Dir(local.Root()))))
	}

	// Initialize repositories
	sqlDB := db.DB()
	userRepo := repository.NewUserRepository(sqlDB)
	sessionRepo := repository.NewSessionRepository(sqlDB)
	categoryRepo := repository.NewCategoryRepository(sqlDB)
	productRepo := repository.NewProductRepository(sqlDB)
	favoriteRepo := repository.NewFavoriteRepository(sqlDB)

	// Initialize services
	authService := service.NewAuthService(userRepo, sessionRepo, cfg.JWT.Secret, cfg.AccessTTL())
	profileService := service.NewProfileService(userRepo)
	categoryService := service.NewCategoryService(categoryRepo, disk, logger)
	favoriteService := service.NewFavoriteService(favoriteRepo, disk)
	productService := service.NewProductService(productRepo, categoryRepo, favoriteService, disk, logger)

	// Create auth and rate limit middleware
	requireAuth := custommiddleware.RequireAuth(authService, logger)
	optionalAuth := custommiddleware.OptionalAuth(authService, logger)
	limiter := custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimit.Requests,
		Window:            cfg.RateLimit.Window,
		KeyPrefix:         "ratelimit:auth",
	}, logger)

	policy := transport.ListPolicy{EmptyIsNotFound: cfg.Catalog.EmptyListNotFound}

	// Register routes
	transport.NewAuthHandler(authService, logger).RegisterRoutes(router, requireAuth, limiter)
	transport.NewProfileHandler(profileService, logger).RegisterRoutes(router, requireAuth)
	transport.NewCategoryHandler(categoryService, policy, cfg.Storage.MaxUpload, logger).RegisterRoutes(router, requireAuth)
	transport.NewProductHandler(productService, policy, cfg.Storage.MaxUpload, logger).RegisterRoutes(router, requireAuth, optionalAuth)
	transport.NewFavoriteHandler(favoriteService, policy, logger).RegisterRoutes(router, requireAuth)

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithError(w, http.StatusNotFound, "Not Found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	return router
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if err := s.redis.Close(); err != nil {
		s.logger.Error("Failed to close redis client", zap.Error(err))
	}

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
