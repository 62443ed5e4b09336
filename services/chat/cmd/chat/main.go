package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"wizdomai/internal/ratelimit"
	"wizdomai/internal/util"
	"wizdomai/services/chat/internal/app"
	"wizdomai/services/chat/internal/config"
	"wizdomai/services/chat/internal/server"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to load config: %v\n", err)
		os.Exit(1)
	}

	util.InitLogger(cfg.LogLevel)

	appCore, err := app.New(app.Config{
		UpstreamBaseURL: cfg.UpstreamBaseURL,
		UpstreamAPIKey:  cfg.UpstreamAPIKey,
		UpstreamModel:   cfg.UpstreamModel,
	})
	if err != nil {
		util.Fatal("failed to init app", "err", err)
	}
	if cfg.UpstreamAPIKey == "" {
		slog.Warn("PERPLEXITY_API_KEY is not set; only canned replies will be served")
	}

	var limiter *ratelimit.FixedWindowLimiter
	if cfg.ChatRateLimitPerMin > 0 {
		limiter, err = ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, "wizdom:ratelimit:chat", cfg.ChatRateLimitPerMin, time.Minute)
		if err != nil {
			util.Fatal("failed to init rate limiter", "err", err)
		}
	}
	trustedProxies, err := util.NewTrustedProxies(cfg.TrustedProxyCIDRs)
	if err != nil {
		util.Fatal("failed to parse trusted proxies", "err", err)
	}

	httpServer := server.New(server.Config{
		App:            appCore,
		Limiter:        limiter,
		TrustedProxies: trustedProxies,
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("chat server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
		util.Fatal("server error", "err", err)
	}
	slog.Info("chat server stopped")
}
