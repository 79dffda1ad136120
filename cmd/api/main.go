package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kanakku/kanakku/kanakku-backend/internal/config"
	"github.com/kanakku/kanakku/kanakku-backend/internal/events"
	"github.com/kanakku/kanakku/kanakku-backend/internal/handler"
	"github.com/kanakku/kanakku/kanakku-backend/internal/middleware"
	"github.com/kanakku/kanakku/kanakku-backend/internal/repository/postgres"
	"github.com/kanakku/kanakku/kanakku-backend/internal/repository/storage"
	"github.com/kanakku/kanakku/kanakku-backend/internal/service"
	"github.com/kanakku/kanakku/kanakku-backend/internal/websocket"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// @title Kanakku API
// @version 1.0
// @description Loan book, collections and profit tracking for small lenders.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Auth0 access token as "Bearer <token>"
func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")

	// Initialize repositories
	userRepo := postgres.NewUserRepository(pool)
	workspaceRepo := postgres.NewWorkspaceRepository(pool)
	loanRepo := postgres.NewLoanRepository(pool)
	collectionRepo := postgres.NewCollectionRepository(pool)
	investmentRepo := postgres.NewInvestmentRepository(pool)
	expenseRepo := postgres.NewExpenseRepository(pool)
	profitRepo := postgres.NewProfitRepository(pool)

	// Document storage is optional; uploads answer 503 without it
	var documentStorage storage.DocumentRepository
	if cfg.S3.Enabled() {
		s3Repo, err := storage.NewS3DocumentRepository(ctx, cfg.S3)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize S3 document storage")
		}
		documentStorage = s3Repo
		log.Info().Str("bucket", cfg.S3.Bucket).Msg("S3 document storage enabled")
	} else {
		log.Warn().Msg("S3 not configured, document uploads disabled")
	}

	// Real-time events go to connected browsers and, when configured, to RabbitMQ
	hub := websocket.NewHubWithConfig(websocket.HubConfig{MaxClientsPerWorkspace: cfg.WSMaxClientsPerWorkspace})
	publishers := websocket.FanOut{hub}

	var amqpConn *amqp.Connection
	if cfg.AMQPURL != "" {
		amqpConn, err = amqp.Dial(cfg.AMQPURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to AMQP broker")
		}
		amqpPublisher, err := events.NewAMQPPublisher(events.FromConnection(amqpConn), cfg.AMQPExchange)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize AMQP publisher")
		}
		publishers = append(publishers, amqpPublisher)
	}

	// Initialize services
	authService := service.NewAuthService(userRepo, workspaceRepo)
	workspaceService := service.NewWorkspaceService(workspaceRepo)
	loanService := service.NewLoanService(loanRepo, cfg.Location)
	collectionService := service.NewCollectionService(collectionRepo, loanRepo)
	pendingService := service.NewPendingService(loanRepo, collectionRepo, cfg.Location)
	investmentService := service.NewInvestmentService(investmentRepo)
	expenseService := service.NewExpenseService(expenseRepo)
	statsService := service.NewStatsService(loanRepo, collectionRepo, investmentRepo, expenseRepo, profitRepo)
	documentService := service.NewDocumentService(documentStorage, loanRepo, cfg.S3.URLTTL)

	loanService.SetEventPublisher(publishers)
	collectionService.SetEventPublisher(publishers)
	investmentService.SetEventPublisher(publishers)
	expenseService.SetEventPublisher(publishers)
	statsService.SetEventPublisher(publishers)

	refreshWorker := service.NewPendingRefreshWorker(pendingService, loanRepo, publishers, log.Logger, service.PendingRefreshWorkerConfig{
		Schedule: cfg.PendingRefreshCron,
		Location: cfg.Location,
	})
	if err := refreshWorker.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start pending refresh worker")
	}

	// Rate limiting is shared through Redis when several instances run
	var (
		limiter     middleware.Limiter
		redisClient *redis.Client
		memLimiter  *middleware.RateLimiter
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid REDIS_URL")
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		limiter = middleware.NewRedisRateLimiter(redisClient, cfg.RateLimitPerMinute, time.Minute)
		log.Info().Msg("Using Redis rate limiter")
	} else {
		memLimiter = middleware.NewRateLimiterWithConfig(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
		limiter = memLimiter
	}

	// Initialize auth middleware
	authMiddleware, err := middleware.NewAuthMiddleware(cfg.Auth0Domain, cfg.Auth0Audience, authService)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create auth middleware")
	}

	tokenValidator, err := middleware.NewAuth0Validator(cfg.Auth0Domain, cfg.Auth0Audience)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create WebSocket token validator")
	}

	wsHandler := handler.NewWebSocketHandler(hub, websocket.NewAuth0JWTValidator(tokenValidator, authService), cfg.CORSOrigins)

	handlers := handler.Handlers{
		Auth:       handler.NewAuthHandler(authService),
		Workspace:  handler.NewWorkspaceHandler(workspaceService),
		Loan:       handler.NewLoanHandler(loanService),
		Collection: handler.NewCollectionHandler(collectionService),
		Pending:    handler.NewPendingHandler(pendingService),
		Investment: handler.NewInvestmentHandler(investmentService),
		Expense:    handler.NewExpenseHandler(expenseService),
		Stats:      handler.NewStatsHandler(statsService),
		Document:   handler.NewDocumentHandler(documentService),
		WebSocket:  wsHandler,
		OpenAPI:    handler.NewOpenAPIHandler(cfg.PublicAPIURL),
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomiddleware.RequestID())

	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		ExposeHeaders:    []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware (helmet-like)
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	e.Use(middleware.RequestLogger())
	e.Use(echomiddleware.Recover())
	e.Use(middleware.Metrics())

	handler.RegisterRoutes(e, authMiddleware, limiter, handlers)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	refreshWorker.Stop()
	hub.CloseAll()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	if memLimiter != nil {
		memLimiter.Stop()
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close Redis client")
		}
	}
	if amqpConn != nil {
		if err := amqpConn.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close AMQP connection")
		}
	}

	log.Info().Msg("Server exited")
}
