package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/dbicalho1/rate-my-landlord/internal/app"
	"github.com/dbicalho1/rate-my-landlord/internal/config"
	"github.com/dbicalho1/rate-my-landlord/internal/geocode"
	"github.com/dbicalho1/rate-my-landlord/internal/ratelimit"
	"github.com/dbicalho1/rate-my-landlord/internal/server"
	"github.com/dbicalho1/rate-my-landlord/internal/util"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	var geocoder app.Geocoder
	if cfg.GoogleMapsAPIKey != "" {
		geocoder = geocode.NewClient(cfg.GoogleMapsBaseURL, cfg.GoogleMapsAPIKey)
	} else {
		slog.Warn("no Google Maps API key configured, reviews will not be geocoded")
	}

	window := time.Duration(cfg.RateLimitWindowSeconds) * time.Second
	limiter := ratelimit.NewSubmissionLimiter(window, cfg.DisableRateLimit || cfg.IsDev())

	appCore, err := app.New(app.Config{
		DatabaseURL: cfg.DatabaseURL,
		JWTSecret:   cfg.JWTSecret,
		SessionTTL:  time.Duration(cfg.SessionTTLMinutes) * time.Minute,
		Limiter:     limiter,
		Geocoder:    geocoder,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	httpServer, err := server.New(server.Config{
		App:                      appCore,
		AllowedOrigins:           cfg.AllowedOrigins,
		RedisAddr:                cfg.RedisAddr,
		RedisPassword:            cfg.RedisPassword,
		SignupRateLimitPerMinute: cfg.SignupRateLimitPerMinute,
		LoginRateLimitPerMinute:  cfg.LoginRateLimitPerMinute,
		TrustedProxyCIDRs:        cfg.TrustedProxyCIDRs,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		slog.Info("server listening", "addr", addr, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("server error", "err", err)
	}
	slog.Info("server stopped")
}
