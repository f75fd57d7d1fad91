package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/diagnosis/gatepass/pkg/config"
	"github.com/diagnosis/gatepass/pkg/logger"
	mw "github.com/diagnosis/gatepass/pkg/middleware"
	"github.com/diagnosis/gatepass/services/gateway/internal/handlers"
	"github.com/diagnosis/gatepass/services/gateway/internal/proxy"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	passesProxy := proxy.NewServiceProxy("passes", getServiceURL("PASSES_SERVICE_URL", "http://localhost:8081"))

	// Rate limiting shares the handoff Redis; without it the gateway runs unlimited.
	var limit func(http.Handler) http.Handler
	if opts, err := redis.ParseURL(cfg.Redis.URL); err != nil {
		logger.Warn("Invalid REDIS_URL, rate limiting disabled", "error", err)
	} else {
		if cfg.Redis.Password != "" {
			opts.Password = cfg.Redis.Password
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		keyFunc := mw.ClientIPKeyFunc
		if len(cfg.Server.TrustedProxies) > 0 {
			trusted, err := mw.ParseTrustedProxies(cfg.Server.TrustedProxies)
			if err != nil {
				logger.Error("Invalid TRUSTED_PROXIES", "error", err)
				os.Exit(1)
			}
			keyFunc = mw.TrustedProxyKeyFunc(trusted)
		}
		limiter := mw.NewRateLimiter(mw.NewRedisCounter(rdb, cfg.Redis.Namespace), mw.RateLimitConfig{
			Requests: 20,
			Window:   time.Minute,
			KeyFunc:  keyFunc,
		})
		limit = limiter.Middleware()
	}

	h := handlers.New(passesProxy, limit)

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("gateway"))
	r.Use(mw.Logging)
	r.Use(mw.Recover)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Location", "X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(mw.Health)
	r.Use(mw.Metrics(prometheus.DefaultGatherer))

	h.Routes(r)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting gateway service", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down gateway service...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Gateway server error", "error", err)
		os.Exit(1)
	}
}

func getServiceURL(envKey, fallback string) string {
	if url := os.Getenv(envKey); url != "" {
		return url
	}
	return fallback
}
