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

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"schooladmin/database"
	"schooladmin/internal/config"
	"schooladmin/internal/ingestion/consultations"
	"schooladmin/internal/logger"
	"schooladmin/internal/microservices/http-api/handler"
	"schooladmin/internal/microservices/http-api/repository"
	"schooladmin/internal/microservices/http-api/service"
	"schooladmin/internal/microservices/pubsub"
	"schooladmin/internal/microservices/websocket"
	"schooladmin/internal/notification"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to the database
	db, err := database.OpenGorm(cfg, log)
	if err != nil {
		return err
	}
	defer database.Close(db)

	// 3. Notification core
	agg := notification.NewAggregator(log)
	hub := websocket.NewHub(agg.Snapshot, log)
	agg.OnChange(hub.Publish)
	go hub.Run(ctx)

	consultationSvc := service.NewConsultationService(repository.NewConsultationRepository(db))
	syncSvc := consultations.NewSyncService(consultations.SyncConfig{
		PollInterval:     cfg.ConsultationPollInterval,
		FetchLimit:       cfg.ConsultationFetchLimit,
		RefreshPerMinute: cfg.RefreshRatePerMinute,
	}, consultationSvc, agg, log)
	syncSvc.Start(ctx)

	// 4. Push transports
	if cfg.PushEnabled() {
		push := websocket.NewPushClient(websocket.PushConfig{
			URL:           cfg.PushURL,
			Token:         cfg.PushToken,
			MaxRetries:    cfg.PushMaxRetries,
			RetryInterval: cfg.PushRetryInterval,
		}, agg, log, agg.SetConnectionState)
		go func() {
			if err := push.Run(ctx); err != nil {
				log.Error("push_channel_stopped", "error", err)
			}
		}()
	} else {
		log.Warn("push_channel_disabled", "reason", "PUSH_URL not set")
	}

	if cfg.RedisEnabled {
		rdb, err := pubsub.NewRedisClient(ctx, cfg)
		if err != nil {
			return err
		}
		defer rdb.Close()
		go runRedisSource(ctx, rdb, cfg.RedisChannel, agg, log)
	}

	// 5. HTTP
	router := handler.NewRouter(handler.RouterDeps{
		Logger:        log,
		Auth:          service.NewAuthService(cfg),
		Notifications: service.NewNotificationService(agg),
		Consultations: consultationSvc,
		Refresher:     syncSvc,
		Hub:           hub,
		Upgrader:      websocket.NewUpgrader(cfg.CORSOrigins),
		Ping:          func(ctx context.Context) error { return database.Ping(ctx, db) },
	})

	return serve(ctx, router, cfg.HTTPPort, log)
}

// runRedisSource resubscribes after transient failures until ctx is done.
func runRedisSource(ctx context.Context, rdb *redis.Client, channel string, agg *notification.Aggregator, log *slog.Logger) {
	for {
		src := pubsub.NewRedisSource(rdb, channel, agg, log)
		err := src.Run(ctx)
		if ctx.Err() != nil {
			return
		}
		log.Warn("redis_source_restarting", "error", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Second):
		}
	}
}

func serve(ctx context.Context, router *gin.Engine, port int, log *slog.Logger) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http_server_started", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("http_server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
