package router

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"app/internal/api/v1/handler"
	"app/internal/cache"
	"app/internal/config"
	"app/internal/middleware"
	"app/internal/pubsub"
	"app/internal/repository"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

func New(cfg *config.Config, logger zerolog.Logger) (http.Handler, *sql.DB, error) {
	logger.Info().Str("environment", cfg.Environment).Msg("Router initializing")

	// 1. Open DB connection (connection pooling)
	dsn := cfg.DBConnectionString
	// In a development environment, we want to ensure that SSL is disabled for
	// local testing. In production, the connection string should be provided
	// with the correct SSL settings.
	if cfg.Environment == "development" && !strings.Contains(dsn, "sslmode") {
		separator := " "
		if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
			if strings.Contains(dsn, "?") {
				separator = "&"
			} else {
				separator = "?"
			}
		}
		dsn += separator + "sslmode=disable"
	}
	// For non-development environments that use a transaction pooler like pgbouncer,
	// we must use the simple query protocol to avoid issues with server-side prepared statements.
	if cfg.Environment != "development" {
		if !strings.Contains(dsn, "prefer_simple_protocol") {
			separator := "&"
			if !strings.Contains(dsn, "?") {
				separator = "?"
			}
			dsn += separator + "prefer_simple_protocol=true"
		}
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open DB connection")
		return nil, nil, err
	}
	if err := db.Ping(); err != nil {
		logger.Error().Err(err).Msg("Failed to ping DB")
		return nil, nil, err
	}
	logger.Info().Msg("Database connection successful")

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)

	// 2. Initialize the cache store. Redis when configured, in-process otherwise.
	var cacheStore cache.Store
	if cfg.RedisAddr != "" {
		redisStore, err := cache.NewRedisStore(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to connect to Redis")
			return nil, nil, err
		}
		cacheStore = redisStore
		logger.Info().Str("addr", cfg.RedisAddr).Msg("Using Redis cache store")
	} else {
		cacheStore = cache.NewMemoryStore()
		logger.Info().Msg("REDIS_ADDR not set, using in-memory cache store")
	}
	cacheTTL := time.Duration(cfg.PrereqCacheTTLSec) * time.Second

	// 3. Initialize validator
	validate := validator.New(validator.WithRequiredStructEnabled())

	// 4. Initialize Pub/Sub publisher for prerequisite change events (optional)
	var publisher pubsub.Publisher
	if cfg.GCPProjectID != "" {
		pubSubPublisher, err := pubsub.NewPublisher(context.Background(), cfg)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to create Pub/Sub publisher")
			return nil, nil, err
		}
		publisher = pubSubPublisher
	} else {
		logger.Info().Msg("GCP_PROJECT_ID not set, prerequisite change events disabled")
	}

	// 5. Initialize repositories & services & handlers
	courseRepo := repository.NewCourseRepo(db)
	enrollmentRepo := repository.NewEnrollmentRepo(db)
	prereqRepo := repository.NewPrerequisiteRepo(db, logger)

	prereqSvc := service.NewPrerequisiteService(
		prereqRepo, courseRepo, enrollmentRepo,
		cacheStore, cacheTTL,
		publisher, cfg.PubSubPrereqTopic,
		logger,
	)

	prereqHandler := handler.NewPrerequisiteHandler(prereqSvc, validate, logger)

	// 6. Initialize middleware
	authMiddleware := middleware.AuthMiddleware(cfg.JWTSecret)

	// 7. Create ServeMux router
	mux := http.NewServeMux()

	apiV1Mux := http.NewServeMux()
	prereqHandler.RegisterRoutes(apiV1Mux, authMiddleware)

	// Mount the API v1 routes under /v1
	mux.Handle("/v1/", http.StripPrefix("/v1", apiV1Mux))

	// 8. Apply CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return middleware.LoggerMiddleware(c.Handler(mux)), db, nil
}
