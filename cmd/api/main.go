package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"stayhub/internal/app"
	"stayhub/internal/config"
	"stayhub/internal/ratelimit"
	"stayhub/internal/server"
	"stayhub/internal/util"
	"stayhub/pkg/store"
	"stayhub/pkg/token"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	accessTTL, err := config.ParseTTL("accessTTL", cfg.AccessTTL)
	if err != nil {
		log.Fatalf("failed to parse access ttl: %v", err)
	}
	refreshTTL, err := config.ParseTTL("refreshTTL", cfg.RefreshTTL)
	if err != nil {
		log.Fatalf("failed to parse refresh ttl: %v", err)
	}
	leeway, err := config.ParseTTL("jwtLeeway", cfg.JWTLeeway)
	if err != nil {
		log.Fatalf("failed to parse jwt leeway: %v", err)
	}

	tokens, err := token.New(token.Config{
		Secret:     []byte(cfg.JWTSecret),
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
		Leeway:     leeway,
	})
	if err != nil {
		log.Fatalf("failed to init token service: %v", err)
	}

	st, err := store.NewGormStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to init store: %v", err)
	}

	trustedProxies, err := util.NewTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		log.Fatalf("failed to parse trusted proxies: %v", err)
	}

	var revoker store.TokenRevoker = store.NewMemoryTokenRevoker()
	var authLimiter, bookingLimiter *ratelimit.FixedWindowLimiter
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		revoker = store.NewRedisTokenRevoker(redisClient)
		if cfg.AuthRateLimitPerMinute > 0 {
			authLimiter, err = ratelimit.NewFixedWindowLimiter(redisClient, "stayhub:ratelimit:auth", cfg.AuthRateLimitPerMinute, time.Minute)
			if err != nil {
				log.Fatalf("failed to init auth limiter: %v", err)
			}
		}
		if cfg.BookingRateLimitPerMinute > 0 {
			bookingLimiter, err = ratelimit.NewFixedWindowLimiter(redisClient, "stayhub:ratelimit:booking", cfg.BookingRateLimitPerMinute, time.Minute)
			if err != nil {
				log.Fatalf("failed to init booking limiter: %v", err)
			}
		}
	}

	appCore := app.New(st, tokens, revoker)
	httpServer := server.New(server.Config{
		App:            appCore,
		AuthLimiter:    authLimiter,
		BookingLimiter: bookingLimiter,
		TrustedProxies: trustedProxies,
		AllowedOrigins: cfg.AllowedOrigins,
		CookieSecure:   cfg.CookieSecure,
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("api server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		logger.Error("server error", "err", err)
	}
}
