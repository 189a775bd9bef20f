package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/veilgram/feedsvc/config"
	"github.com/veilgram/feedsvc/internal/bus"
	"github.com/veilgram/feedsvc/internal/cache"
	"github.com/veilgram/feedsvc/internal/realtime"
	"github.com/veilgram/feedsvc/internal/repository"
	"github.com/veilgram/feedsvc/internal/service"
	"github.com/veilgram/feedsvc/pkg/database"
	"github.com/veilgram/feedsvc/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Log.Mode); err != nil {
		fmt.Fprintln(os.Stderr, "init logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN}); err != nil {
			logger.Warn("sentry init failed", zap.Error(err))
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Error("init db", zap.Error(err))
		os.Exit(1)
	}
	rdb, err := database.InitRedis(cfg)
	if err != nil {
		logger.Error("init redis", zap.Error(err))
		os.Exit(1)
	}

	feedRepo, err := resolveFeedRepo(cfg, db)
	if err != nil {
		logger.Error("init feed store", zap.Error(err))
		os.Exit(1)
	}

	followRepo := repository.NewFollowRepository(db)
	feedCache := cache.NewFeedCache(rdb, cfg.Feed.CacheTTL)
	feedSvc := service.NewFeedService(feedRepo, followRepo, feedCache, cfg.Feed.DefaultSize)
	dispatcher := service.NewDispatcher(feedSvc)
	runtime := service.NewEventRuntime(dispatcher, followRepo, realtime.NewRedisBridge(rdb))

	consumer, err := resolveConsumer(cfg)
	if err != nil {
		logger.Error("init bus consumer", zap.Error(err))
		os.Exit(1)
	}
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("feed consumer started",
		zap.String("bus", cfg.Bus.Driver),
		zap.Bool("cassandra", cfg.Cassandra.Enabled))

	if err := consumer.Run(ctx, runtime.HandleMessage); err != nil {
		logger.Error("consumer stopped with error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("feed consumer stopped")
}

// resolveFeedRepo picks the store implementation once at startup; the
// service never re-checks the flag.
func resolveFeedRepo(cfg *config.Config, db *gorm.DB) (repository.FeedRepository, error) {
	if !cfg.Cassandra.Enabled {
		return repository.NewGormFeedRepository(db), nil
	}
	session, err := database.InitCassandra(cfg)
	if err != nil {
		return nil, err
	}
	return repository.NewCassandraFeedRepository(session), nil
}

func resolveConsumer(cfg *config.Config) (bus.Consumer, error) {
	switch cfg.Bus.Driver {
	case "kafka":
		return bus.NewKafkaConsumer(cfg.Bus.Kafka.Brokers, cfg.Bus.Kafka.Topic, cfg.Bus.Kafka.GroupID), nil
	case "rabbitmq":
		r := cfg.Bus.Rabbit
		return bus.NewRabbitConsumer(r.URL, r.Exchange, r.Queue, r.Bindings, r.Prefetch), nil
	default:
		return nil, fmt.Errorf("unknown bus driver %q", cfg.Bus.Driver)
	}
}
