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

	"golang.org/x/sync/errgroup"
	"knockknock/internal/util"
	"knockknock/pkg/store"
	"knockknock/services/notifier/internal/app"
	"knockknock/services/notifier/internal/config"
	"knockknock/services/notifier/internal/scheduler"
	"knockknock/services/notifier/internal/server"
)

func main() {
	cfg, err := config.Load(config.Path())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := util.InitLogger(cfg.LogLevel, "notifier")

	job := app.New(app.Config{
		TableName:       cfg.TableName,
		SlackWebhookURL: cfg.SlackWebhookURL,
		NotifyTimeout:   cfg.NotifyTimeout(),
		StoreOptions: store.Options{
			Driver:        cfg.StoreDriver,
			RedisAddr:     cfg.RedisAddr,
			RedisPassword: cfg.RedisPassword,
			DatabaseURL:   cfg.DatabaseURL,
		},
	})
	defer job.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Schedule == "" && cfg.Port == "" {
		runCtx, cancel := context.WithTimeout(ctx, cfg.JobTimeout())
		res, err := job.Run(runCtx)
		cancel()
		if err != nil {
			logger.Error("notifier run failed", "err", err, "delivered", res.Delivered)
			job.Close()
			os.Exit(1)
		}
		return
	}

	loc, err := cfg.Location()
	if err != nil {
		util.Fatal("invalid timezone", "timezone", cfg.Timezone, "err", err)
	}
	g, gctx := errgroup.WithContext(ctx)

	if cfg.Schedule != "" {
		sched, err := scheduler.New(cfg.Schedule, loc, cfg.JobTimeout(), func(ctx context.Context) error {
			_, err := job.TryRun(ctx)
			return err
		}, logger)
		if err != nil {
			util.Fatal("failed to init scheduler", "err", err)
		}
		g.Go(func() error {
			sched.Start()
			<-gctx.Done()
			sched.Stop()
			return nil
		})
	}

	if cfg.Port != "" {
		addr := ":" + cfg.Port
		srv := &http.Server{
			Addr:         addr,
			Handler:      server.New(job).Router(),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: cfg.JobTimeout() + 10*time.Second,
			IdleTimeout:  60 * time.Second,
		}
		g.Go(func() error {
			slog.Info("notifier admin listening", "addr", addr)
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
	}

	if err := g.Wait(); err != nil {
		logger.Error("notifier stopped with error", "err", err)
	}
}
