package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	v1 "go-roomchat/cmd/api/router/v1"
	"go-roomchat/internal/config"
	cacheadapter "go-roomchat/internal/infrastructure/cache/adapter"
	"go-roomchat/internal/infrastructure/crypto"
	"go-roomchat/internal/infrastructure/database"
	pushadapter "go-roomchat/internal/infrastructure/push/adapter"
	pushport "go-roomchat/internal/infrastructure/push/port"
	queueadapter "go-roomchat/internal/infrastructure/queue/adapter"
	"go-roomchat/internal/infrastructure/realtime"
	"go-roomchat/internal/logging"
	"go-roomchat/internal/pkg/auth"
	"go-roomchat/internal/pkg/chat/application/notify"
	"go-roomchat/internal/pkg/chat/application/session"
	"go-roomchat/internal/pkg/chat/application/task"
	"go-roomchat/internal/pkg/chat/application/usecase"
	repoadapter "go-roomchat/internal/pkg/chat/persistence/repository/adapter"
	httpHandler "go-roomchat/internal/pkg/chat/presentation/http"
	useradapter "go-roomchat/internal/repository/adapter"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	configPath := flag.String("config", "", "optional config file (yaml, json or toml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to the database on startup
	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	pool, err := database.Connect(connectCtx, cfg.Database.URL, database.WithMaxConns(cfg.Database.MaxConns))
	cancel()
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool); err != nil {
		return err
	}

	cache, err := cacheadapter.NewRedisAdapter(ctx, cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer cache.Close()

	queueClient, err := queueadapter.NewAsynqClient(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("queue client: %w", err)
	}
	defer queueClient.Close()
	queueServer, err := queueadapter.NewAsynqServer(cfg.Redis.URL, cfg.Queue.Concurrency, cfg.Queue.Queues, logger)
	if err != nil {
		return fmt.Errorf("queue server: %w", err)
	}

	codec, err := crypto.NewCodec(cfg.Crypto.ContentKey)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	chatRepo := repoadapter.NewPgChatRepository(pool)
	users := useradapter.NewPgUserRepository(pool)

	notifier, err := newNotifier(ctx, cfg.Push, logger)
	if err != nil {
		return err
	}
	if cfg.Push.Queued {
		pushadapter.RegisterSendPushTask(queueServer, notifier, logger)
		notifier = pushadapter.NewQueuedNotifier(queueClient)
	}

	realtimeMetrics := realtime.NewMetrics(reg)
	registry := realtime.NewRegistry(realtimeMetrics)
	broadcaster := realtime.NewBroadcaster(registry, logger, realtimeMetrics)

	fanout := notify.NewFanout(registry, chatRepo, chatRepo, notifier, notify.Options{
		Workers:   cfg.Notify.Workers,
		QueueSize: cfg.Notify.QueueSize,
	}, logger, notify.NewMetrics(reg))
	fanout.Start(context.WithoutCancel(ctx))

	pipeline := session.NewPipeline(
		usecase.NewSendMessageUseCase(chatRepo, users, codec),
		usecase.NewAddReactionUseCase(chatRepo),
		usecase.NewDeleteMessageUseCase(chatRepo),
		broadcaster, fanout, logger,
	)
	gate := auth.NewJWTGate(cfg.Auth.JWTSecret, users,
		auth.WithCache(cache, cfg.Auth.PrincipalCacheTTL),
		auth.WithLogger(logger),
	)
	runner := session.NewRunner(gate, usecase.NewJoinRoomUseCase(chatRepo), registry, broadcaster, pipeline,
		session.RunnerOptions{}, logger, session.NewMetrics(reg))
	task.RegisterSendMessageTask(queueServer, pipeline, logger)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), accessLog(logger))
	v1.RegisterRoutes(r, httpHandler.Deps{
		Rooms:    chatRepo,
		Messages: chatRepo,
		Push:     chatRepo,
		Users:    users,
		Codec:    codec,
		Queue:    queueClient,
		Auth:     gate,
		Pipeline: pipeline,
		Runner:   runner,
		Socket: realtime.ConnectionOptions{
			SendBuffer:  cfg.Realtime.SendBuffer,
			ReadLimit:   cfg.Realtime.ReadLimit,
			ReadTimeout: cfg.Realtime.ReadTimeout,
		},
		Logger: logger,
	}, reg, map[string]v1.Pinger{"postgres": pool, "redis": cache})

	srv := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	queueCtx, stopQueue := context.WithCancel(ctx)
	defer stopQueue()
	queueDone := make(chan error, 1)
	go func() { queueDone <- queueServer.Run(queueCtx) }()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.HTTPAddress))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-serveErr:
		runErr = fmt.Errorf("http server: %w", err)
	case err := <-queueDone:
		runErr = fmt.Errorf("queue server: %w", err)
		queueDone = nil
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	// Hijacked websocket connections are not covered by Shutdown.
	registry.Close(websocket.CloseGoingAway, "server shutdown")
	fanout.Stop()
	stopQueue()
	if queueDone != nil {
		<-queueDone
	}
	logger.Info("shutdown complete")
	return runErr
}

func newNotifier(ctx context.Context, cfg config.PushConfig, logger *zap.Logger) (pushport.Notifier, error) {
	switch cfg.Provider {
	case "fcm":
		n, err := pushadapter.NewFCMNotifier(ctx, cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("fcm notifier: %w", err)
		}
		return n, nil
	default:
		return pushadapter.NewLogNotifier(logger), nil
	}
}

func accessLog(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Strings("errors", c.Errors.Errors()),
		)
	}
}
