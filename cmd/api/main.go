package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"

	"github.com/bryanwahyu/chromaleap/internal/application"
	appanalyses "github.com/bryanwahyu/chromaleap/internal/application/analyses"
	"github.com/bryanwahyu/chromaleap/internal/config"
	domai "github.com/bryanwahyu/chromaleap/internal/domain/ai"
	"github.com/bryanwahyu/chromaleap/internal/infra/ai/gemini"
	"github.com/bryanwahyu/chromaleap/internal/infra/ai/openai"
	"github.com/bryanwahyu/chromaleap/internal/infra/db"
	"github.com/bryanwahyu/chromaleap/internal/infra/httpserver"
	"github.com/bryanwahyu/chromaleap/internal/infra/logging"
	"github.com/bryanwahyu/chromaleap/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.WithError(err).Fatal("config load error")
	}
	if err := logging.Setup(os.Stderr, cfg.Log.Level, cfg.Log.Format); err != nil {
		log.WithError(err).Fatal("logging setup error")
	}

	ctx := context.Background()

	svc := &appanalyses.Service{
		Model:          modelClient(cfg),
		Clock:          application.SystemClock{},
		ModelName:      cfg.AI.Model,
		Temperature:    cfg.AI.Temperature,
		OnPersistError: func(error) { middleware.IncrementPersistFailures() },
	}

	checkers := map[string]middleware.HealthChecker{}
	if cfg.PersistenceEnabled() {
		conn, repo, err := db.Open(ctx, cfg.Database.Driver, cfg.DSN())
		if err != nil {
			log.WithError(err).WithField("driver", cfg.Database.Driver).Fatal("database connect error")
		}
		defer conn.Close()
		svc.Repo = repo
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: conn}
		log.WithField("driver", cfg.Database.Driver).Info("analysis storage enabled")
	} else {
		log.Warn("database.driver is none, analyses will not be stored")
	}

	opts := httpserver.Options{
		HealthCheckers:         checkers,
		AllowPrivateImageHosts: cfg.Server.AllowPrivateImageHosts,
	}
	if rl := cfg.Server.RateLimit; rl.Capacity > 0 {
		opts.RateLimiter = middleware.NewRateLimiter(rl.Capacity, rl.RefillPerSecond)
		go sweep(opts.RateLimiter)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     httpserver.NewRouter(svc, opts),
		ReadTimeout: 15 * time.Second,
		// vision models can take a while on large images
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.WithField("addr", addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.WithError(err).Error("shutdown error")
	}
}

// modelClient returns nil when the provider credential is missing; the server
// still starts and every analysis request reports the configuration error.
func modelClient(cfg *config.Config) domai.Client {
	key := cfg.ModelAPIKey()
	if key == "" {
		log.WithField("provider", cfg.AI.Provider).Warn("no model credential configured, analysis requests will fail")
		return nil
	}
	switch cfg.AI.Provider {
	case config.ProviderGemini:
		return gemini.NewClient(key, cfg.AI.Model)
	default:
		return openai.NewClient(key, cfg.AI.BaseURL, cfg.AI.Model)
	}
}

func sweep(rl *middleware.RateLimiter) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		left := rl.Sweep(10 * time.Minute)
		log.WithField("buckets", left).Debug("rate limiter sweep")
	}
}
