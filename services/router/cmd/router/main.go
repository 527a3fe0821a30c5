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

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"knockknock/internal/ratelimit"
	"knockknock/internal/util"
	"knockknock/pkg/ai"
	"knockknock/pkg/reading"
	"knockknock/pkg/store"
	"knockknock/services/router/internal/app"
	"knockknock/services/router/internal/config"
	"knockknock/services/router/internal/server"
)

func main() {
	cfg, err := config.Load(config.Path())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := util.InitLogger(cfg.LogLevel, "router")

	trusted, err := util.NewTrustedProxies(cfg.TrustedProxyCIDRs)
	if err != nil {
		util.Fatal("invalid trusted proxy list", "err", err)
	}

	appCfg := app.Config{
		StoreOptions: store.Options{
			Driver:        cfg.StoreDriver,
			Table:         cfg.TableName,
			RedisAddr:     cfg.RedisAddr,
			RedisPassword: cfg.RedisPassword,
			DatabaseURL:   cfg.DatabaseURL,
		},
		Generation: ai.GeneratorConfig{
			Provider: cfg.GenerationProvider,
			BaseURL:  cfg.GenerationBaseURL,
			APIKey:   cfg.GenerationAPIKey,
			Model:    cfg.GenerationModel,
		},
	}
	if reader, err := reading.New(); err != nil {
		logger.Warn("japanese reading disabled", "err", err)
	} else {
		appCfg.Reader = reader
	}
	appCore := app.Shared(appCfg)
	if err := appCore.Warm(); err != nil {
		util.Fatal("failed to init app", "err", err)
	}
	defer appCore.Close()

	srvCfg := server.Config{App: appCore, TrustedProxies: trusted}
	if cfg.TranslateRateLimitPerMinute > 0 {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer redisClient.Close()
		limiter, err := ratelimit.NewFixedWindow(redisClient, "", cfg.TranslateRateLimitPerMinute, time.Minute)
		if err != nil {
			util.Fatal("failed to init rate limiter", "err", err)
		}
		srvCfg.Limiter = limiter
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.New(srvCfg).Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("router listening", "addr", addr)
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
		logger.Error("server error", "err", err)
	}
}
