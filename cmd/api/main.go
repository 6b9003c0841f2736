package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/puppymart/rewards-service/internal/config"
	"github.com/puppymart/rewards-service/internal/handler"
	"github.com/puppymart/rewards-service/internal/idempotency"
	"github.com/puppymart/rewards-service/internal/playback"
	"github.com/puppymart/rewards-service/internal/repository"
	"github.com/puppymart/rewards-service/internal/service"
	"github.com/puppymart/rewards-service/internal/sweeper"
	"github.com/puppymart/rewards-service/internal/validator"
	"github.com/puppymart/rewards-service/pkg/database"
)

func main() {
	// Load .env if present (local development); env vars always win.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Initialize zerolog based on configuration
	initLogger(cfg)

	// Create context for startup
	ctx := context.Background()

	// Initialize database pool with retry
	pool, err := database.NewPool(ctx, cfg.DB.DSN(), cfg.DB.ConnectRetries)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Redis backs the settlement idempotency store
	redisClient, err := database.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// Initialize Fiber with production-ready configuration
	app := fiber.New(fiber.Config{
		AppName:      "Puppy Mart Rewards Service",
		ReadTimeout:  30 * time.Second,  // Max time to read request
		WriteTimeout: 30 * time.Second,  // Max time to write response
		IdleTimeout:  120 * time.Second, // Max time for keep-alive connections
		BodyLimit:    1 * 1024 * 1024,   // 1MB body limit (explicit, prevents large payloads)
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New()) // Adds X-Request-ID header to all requests
	app.Use(logger.New())

	// Initialize validator with custom coupon rules
	validate := validator.New()

	// Repositories
	couponRepo := repository.NewCouponRepository(pool)
	adRepo := repository.NewAdRepository(pool)
	walletRepo := repository.NewWalletRepository(pool)
	redemptionRepo := repository.NewRedemptionRepository(pool)

	// Playback tracking: duration resolution plus in-memory sessions
	resolver := playback.NewHTTPResolver(
		time.Duration(cfg.Playback.ProbeTimeout)*time.Second,
		cfg.Playback.FallbackDuration(),
	)
	sessions := playback.NewManager(resolver, cfg.Playback.TickInterval())

	idemStore := idempotency.NewRedisStore(redisClient,
		time.Duration(cfg.Redis.IdempotencyTTL)*time.Second)

	// Services
	couponService := service.NewCouponService(couponRepo)
	adService := service.NewAdService(adRepo)
	redemptionService := service.NewRedemptionService(
		pool, couponRepo, redemptionRepo, walletRepo, sessions, idemStore)

	// Handlers
	couponHandler := handler.NewCouponHandler(couponService, validate)
	adHandler := handler.NewAdHandler(adService, validate)
	playbackHandler := handler.NewPlaybackHandler(couponService, adService, sessions, validate)
	redeemHandler := handler.NewRedeemHandler(redemptionService, validate)

	// Health handler covers both backing stores
	healthHandler := handler.NewHealthHandler(pool, database.RedisPinger{Client: redisClient})
	app.Get("/health", healthHandler.Check)

	// Coupon routes
	app.Post("/api/coupons", couponHandler.CreateCoupon)
	app.Get("/api/coupons/:code", couponHandler.GetCoupon)
	app.Post("/api/coupons/validate", couponHandler.ValidateCoupon)
	app.Post("/api/coupons/redeem", redeemHandler.RedeemCoupon)

	// Ad routes
	app.Post("/api/ads", adHandler.CreateAd)
	app.Get("/api/ads/redemption", adHandler.GetRedemptionAd)

	// Playback session routes
	app.Post("/api/playback/sessions", playbackHandler.StartSession)
	app.Get("/api/playback/sessions/:id", playbackHandler.GetProgress)
	app.Delete("/api/playback/sessions/:id", playbackHandler.StopSession)

	// Wallet routes
	app.Get("/api/wallets/:user_id", redeemHandler.GetWallet)
	app.Get("/api/wallets/:user_id/redemptions", redeemHandler.ListRedemptions)

	// Background sweeps: coupon expiry and idle session pruning
	sweep, err := sweeper.New(couponRepo, sessions,
		time.Duration(cfg.Sweep.Interval)*time.Second,
		cfg.Playback.SessionIdleTTL())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create sweeper")
	}
	if err := sweep.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start sweeper")
	}

	// Start server with graceful shutdown
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("starting server")
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	log.Info().Int("timeout_seconds", cfg.Server.ShutdownTimeout).Msg("shutting down server...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer shutdownCancel()

	// Shutdown server (waits for in-flight requests)
	log.Info().Msg("waiting for in-flight requests to complete...")
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	// Stop background jobs before closing their storage
	if err := sweep.Stop(); err != nil {
		log.Error().Err(err).Msg("error during sweeper shutdown")
	}

	// Close connections AFTER server shutdown (even if shutdown timed out)
	log.Info().Msg("closing database connections...")
	pool.Close()
	if err := redisClient.Close(); err != nil {
		log.Error().Err(err).Msg("error closing redis client")
	}
	log.Info().Msg("database connections closed")
	log.Info().Msg("server stopped")
}

// initLogger configures zerolog based on the application configuration.
func initLogger(cfg *config.Config) {
	// Set log level
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Configure output format
	if cfg.Log.Pretty {
		// Human-readable output for development
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			With().Timestamp().Logger()
	} else {
		// JSON output for production
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}
