package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"meal-quiz/pkg/config"
	"meal-quiz/pkg/database"
	"meal-quiz/pkg/events"
	"meal-quiz/pkg/logger"
	"meal-quiz/pkg/monitoring"
	quizServer "meal-quiz/pkg/quiz-server"
	"meal-quiz/pkg/session"
	"meal-quiz/pkg/tracing"
)

func main() {
	// Define flags
	var configPath string
	var port string
	var maxSessionCount int
	var ablyPrivateKey string

	flag.StringVar(&configPath, "config", ".", "Directory holding config.yaml and .env")
	flag.StringVar(&port, "port", "", "Port to listen on, overrides server.port")
	flag.IntVar(&maxSessionCount, "maxSessionCount", 0, "Maximum session trackers kept in memory, overrides session.max_sessions")
	flag.StringVar(&ablyPrivateKey, "ablyKey", "", "Ably private key, overrides ably.key")
	flag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if port != "" {
		cfg.Server.Port = port
	}
	if maxSessionCount > 0 {
		cfg.Session.MaxSessions = maxSessionCount
	}
	if ablyPrivateKey != "" {
		cfg.Ably.Key = ablyPrivateKey
	}

	zapLog := logger.New(cfg.Server.Mode, cfg.Log)
	defer zapLog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zapLog); err != nil {
		zapLog.Error("Quiz server failed", zap.Error(err))
		zapLog.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, zapLog *zap.Logger) error {
	var tracer trace.TracerProvider
	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				zapLog.Error("Failed to shutdown tracer provider", zap.Error(err))
			}
		}()
		tracer = tp
	}

	repo, err := quizServer.LoadQuizQuestions(ctx, cfg, zapLog)
	if err != nil {
		return fmt.Errorf("load questions: %w", err)
	}

	store, closeStore, err := openStore(ctx, cfg, zapLog)
	if err != nil {
		return err
	}
	defer closeStore()

	publisher, closePublisher, err := newPublisher(cfg, zapLog)
	if err != nil {
		return err
	}
	defer closePublisher()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	newQuiz, err := quizServer.NewQuizServer(ctx, cfg, quizServer.Dependencies{
		Questions: repo,
		Store:     store,
		Publisher: publisher,
		Metrics:   monitoring.NewMetrics(registry),
		Tracer:    tracer,
		Log:       zapLog,
	})
	if err != nil {
		return err
	}
	return newQuiz.Run(ctx)
}

// openStore connects the session store named by store.driver.
func openStore(ctx context.Context, cfg *config.Config, zapLog *zap.Logger) (session.Store, func(), error) {
	switch cfg.Store.Driver {
	case "redis":
		rdb, err := database.InitRedis(ctx, cfg.Redis, zapLog)
		if err != nil {
			return nil, nil, fmt.Errorf("init redis: %w", err)
		}
		return session.NewRedisStore(rdb, cfg.Redis.Prefix), func() { rdb.Close() }, nil
	case "mysql":
		db, err := database.InitDB(cfg.Database, zapLog)
		if err != nil {
			return nil, nil, fmt.Errorf("init database: %w", err)
		}
		store, err := session.NewSQLStore(db)
		if err != nil {
			return nil, nil, err
		}
		closeDB := func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		}
		return store, closeDB, nil
	default:
		zapLog.Warn("Using in-memory session store; progress is lost on restart")
		return session.NewMemoryStore(), func() {}, nil
	}
}

// newPublisher fans progress events out to every configured backend.
func newPublisher(cfg *config.Config, zapLog *zap.Logger) (events.Publisher, func(), error) {
	var publishers events.Multi
	var closers []func() error

	if cfg.Ably.Key != "" {
		ablyPublisher, err := events.NewAblyPublisher(cfg.Ably.Key)
		if err != nil {
			return nil, nil, err
		}
		publishers = append(publishers, ablyPublisher)
		closers = append(closers, ablyPublisher.Close)
	}
	if cfg.RabbitMQ.URI != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.RabbitMQ.URI, cfg.RabbitMQ.Exchange)
		if err != nil {
			for _, closeFn := range closers {
				closeFn()
			}
			return nil, nil, err
		}
		publishers = append(publishers, amqpPublisher)
		closers = append(closers, amqpPublisher.Close)
	}

	closeAll := func() {
		for _, closeFn := range closers {
			if err := closeFn(); err != nil {
				zapLog.Warn("Failed to close publisher", zap.Error(err))
			}
		}
	}
	if len(publishers) == 0 {
		zapLog.Info("No event publisher configured")
		return events.Nop{}, closeAll, nil
	}
	return publishers, closeAll, nil
}
