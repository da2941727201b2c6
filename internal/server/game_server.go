package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/evanofslack/stockpoker/internal/config"
	"github.com/evanofslack/stockpoker/internal/database"
	"github.com/evanofslack/stockpoker/internal/handlers"
	custommiddleware "github.com/evanofslack/stockpoker/internal/middleware"
	"github.com/evanofslack/stockpoker/internal/oracle"
	"github.com/evanofslack/stockpoker/internal/services"
	gamesync "github.com/evanofslack/stockpoker/internal/sync"
	wsserver "github.com/evanofslack/stockpoker/server"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"
)

type GameServer struct {
	config            *config.Config
	db                *database.DB
	redis             *redis.Client
	gameService       *services.GameService
	resultsService    *services.ResultsService
	priceOracle       *oracle.ManualOracle
	apiRateLimiter    *custommiddleware.RateLimiter
	actionRateLimiter *custommiddleware.RateLimiter
	server            *http.Server
	hub               *wsserver.Hub
}

func NewGameServer() (*GameServer, error) {
	// Load configuration
	cfg := config.Load()

	// Setup database
	db, err := database.NewConnection(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Run migrations
	if err := db.AutoMigrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Setup Redis-backed session store
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.RedisPassword != "" {
		opts.Password = cfg.RedisPassword
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	store := gamesync.NewRedisStore(rdb)

	// Setup services
	resultsService := services.NewResultsService(db)
	priceOracle := oracle.NewManualOracle()
	gameService := services.NewGameService(gamesync.NewAdapter(store), resultsService, priceOracle, cfg.StartingChips, cfg.TotalRounds)

	// Setup rate limiters
	apiRateLimiter := custommiddleware.NewAPIRateLimiter()
	actionRateLimiter := custommiddleware.NewActionRateLimiter()

	// Setup WebSocket hub
	hub := wsserver.NewHub(gameService, store)

	return &GameServer{
		config:            cfg,
		db:                db,
		redis:             rdb,
		gameService:       gameService,
		resultsService:    resultsService,
		priceOracle:       priceOracle,
		apiRateLimiter:    apiRateLimiter,
		actionRateLimiter: actionRateLimiter,
		hub:               hub,
	}, nil
}

func (s *GameServer) Start() error {
	// Setup router
	router := s.setupRouter()

	// Create HTTP server
	s.server = &http.Server{
		Addr:    ":" + s.config.Port,
		Handler: router,
	}

	// Start WebSocket hub
	go s.hub.Run()

	// Start server in goroutine
	go func() {
		slog.Info("Starting stockpoker server", "port", s.config.Port)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")
	return s.Shutdown()
}

func (s *GameServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := s.server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	// Close database connection
	if err := s.db.Close(); err != nil {
		slog.Error("Failed to close database connection", "error", err)
	}

	// Close Redis client
	if err := s.redis.Close(); err != nil {
		slog.Error("Failed to close redis client", "error", err)
	}

	// Close rate limiters
	s.apiRateLimiter.Close()
	s.actionRateLimiter.Close()

	slog.Info("Server shutdown complete")
	return nil
}

func (s *GameServer) setupRouter() chi.Router {
	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.apiRateLimiter.RateLimit) // Apply global rate limiting

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"}, // Configure properly for production
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// WebSocket endpoint
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		wsserver.ServeWs(s.hub, w, r)
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Game action routes with their own rate limiting
		r.Group(func(r chi.Router) {
			r.Use(s.actionRateLimiter.RateLimit)

			gameHandler := handlers.NewGameHandler(s.gameService)
			r.Mount("/games", gameHandler.Routes())
		})

		// Durable results routes
		resultsHandler := handlers.NewResultsHandler(s.resultsService)
		r.Mount("/results", resultsHandler.Routes())

		// Final price announcements feeding the resolve endpoint
		oracleHandler := handlers.NewOracleHandler(s.priceOracle)
		r.Mount("/oracle", oracleHandler.Routes())
	})

	return r
}
