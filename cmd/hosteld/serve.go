package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"hostel-backend/internal/api"
	"hostel-backend/internal/audit"
	"hostel-backend/internal/auth"
	"hostel-backend/internal/logger"
	"hostel-backend/internal/notification"
	"hostel-backend/internal/realtime"
	"hostel-backend/internal/service"
	"hostel-backend/internal/store"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	log := logger.WithComponent("server")
	gin.SetMode(cfg.Server.Mode)

	gormDB, err := openDB()
	if err != nil {
		return err
	}
	log.Info("database initialized")

	appStore := store.NewGormStore(gormDB)

	policy, err := auth.NewPolicy(gormDB)
	if err != nil {
		return err
	}
	tokens, err := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	hub := realtime.NewHub()
	var publisher realtime.Publisher = hub
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		relay := realtime.NewRedisRelay(client, cfg.Redis.Channel, hub)
		publisher = relay
		g.Go(func() error {
			if err := relay.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
		log.Info("redis change relay enabled", "addr", cfg.Redis.Addr, "channel", cfg.Redis.Channel)
	}

	var webpushOptions *webpush.Options
	var notifier service.NoticeNotifier
	var pool *notification.WorkerPool
	if cfg.Push.Enabled() {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool = notification.NewWorkerPool(cfg.WorkerPool.Size, appStore, webpushOptions)
		pool.Start(gctx)
		notifier = pool
		log.Info("push notifications enabled", "workers", cfg.WorkerPool.Size)
	} else {
		log.Warn("VAPID keys are not configured, urgent notices will not be pushed")
	}

	auditor := audit.NewService(cfg.Audit, appStore, publisher)
	g.Go(func() error {
		auditor.Run(gctx)
		return nil
	})

	svc := service.New(service.Deps{
		Store:      appStore,
		Policy:     policy,
		Publisher:  publisher,
		Tokens:     tokens,
		Notifier:   notifier,
		BcryptCost: cfg.Auth.BcryptCost,
	})

	handler := api.NewHandler(api.Deps{
		Store:     appStore,
		Services:  svc,
		Tokens:    tokens,
		Policy:    policy,
		Hub:       hub,
		WebPush:   webpushOptions,
		Keepalive: cfg.Realtime.Keepalive,
	})
	router := api.NewRouter(handler, api.RouterConfig{
		RateLimit: rate.Limit(cfg.Server.RateLimitPerSec),
		RateBurst: cfg.Server.RateLimitBurst,
	})
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	g.Go(func() error {
		log.Info("HTTP server starting", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server ListenAndServe: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, stopping services")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server Shutdown: %w", err)
		}
		return nil
	})

	err = g.Wait()
	if pool != nil {
		pool.Wait()
	}
	if err != nil {
		return err
	}
	log.Info("server gracefully stopped")
	return nil
}
