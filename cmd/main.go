package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sepehr-data/mithra-pay/internal/router"
	"github.com/sepehr-data/mithra-pay/internal/service"
	"github.com/sepehr-data/mithra-pay/pkg/auth"
	"github.com/sepehr-data/mithra-pay/pkg/events"
	"github.com/sepehr-data/mithra-pay/pkg/global"
	"github.com/sepehr-data/mithra-pay/pkg/logger"
	"github.com/sepehr-data/mithra-pay/pkg/redis"
)

type eventPublisher interface {
	service.EventPublisher
	Close() error
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file", slog.Any("err", err))
	}

	cfg := global.LoadConfig()
	log := logger.New(logger.Options{
		Service:   "mithrapay",
		Env:       cfg.Env,
		Level:     cfg.LogLevel,
		AddSource: !cfg.IsProduction(),
	})
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", slog.Any("err", err))
		os.Exit(1)
	}
	log.Info("bye")
}

func run(ctx context.Context, cfg global.Config, log *slog.Logger) error {
	startCtx, cancel := global.GetDefaultTimer()
	store, err := openStorage(startCtx, cfg, log)
	cancel()
	if err != nil {
		return err
	}
	log.Info("storage ready", slog.String("driver", cfg.StorageDriver))

	rdb := redis.NewClient(cfg)
	if err := redis.Ping(ctx, rdb); err != nil {
		log.Warn("redis unavailable at startup", slog.Any("err", err))
	}

	var publisher eventPublisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewPublisher(cfg.KafkaBrokers)
		log.Info("publishing order events", slog.Any("brokers", cfg.KafkaBrokers), slog.String("topic", cfg.KafkaTopic))
	}

	productCache := redis.NewProductCache(rdb, store.products, cfg.CatalogTTL, log)
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpire)

	engine := router.NewEngine(router.Dependencies{
		Config:  cfg,
		Logger:  log,
		Tokens:  tokens,
		Catalog: service.NewCatalogService(store.products, productCache, log),
		Carts:   service.NewCartService(store.carts, productCache, log),
		Orders: service.NewOrderService(store.orders, store.products, service.StubGateway{}, publisher,
			service.OrderSettings{Currency: cfg.Currency, EventTopic: cfg.KafkaTopic}, log),
		Auth: service.NewAuthService(store.users, redis.NewOTPStore(rdb, cfg.OTPExpire, cfg.OTPMaxAttempts),
			service.NewLogSMSSender(log), tokens, cfg.OTPLength, log),
		Blog: service.NewBlogService(store.posts),
		Health: map[string]router.Pinger{
			"database": router.PingFunc(store.ping),
			"redis":    router.PingFunc(func(ctx context.Context) error { return redis.Ping(ctx, rdb) }),
		},
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("http server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutdown requested")
	case runErr = <-serveErr:
	}

	shutdownCtx, cancelShutdown := global.GetDefaultTimer()
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown error", slog.Any("err", err))
	}
	if err := publisher.Close(); err != nil {
		log.Error("close event publisher", slog.Any("err", err))
	}
	if err := rdb.Close(); err != nil {
		log.Error("close redis", slog.Any("err", err))
	}
	if err := store.close(shutdownCtx); err != nil {
		log.Error("close storage", slog.Any("err", err))
	}
	return runErr
}
