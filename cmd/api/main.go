package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/veilgram/feedsvc/config"
	"github.com/veilgram/feedsvc/internal/api"
	"github.com/veilgram/feedsvc/internal/api/handler"
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
	gin.SetMode(cfg.Server.Mode)

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
	fanRepo := repository.NewFanRepository(db)
	feedCache := cache.NewFeedCache(rdb, cfg.Feed.CacheTTL)
	feedSvc := service.NewFeedService(feedRepo, followRepo, feedCache, cfg.Feed.DefaultSize)

	replicator := service.NewFanReplicator(fanRepo, 0)
	stopReplicator := replicator.Start(4)
	relSvc := service.NewRelationshipService(followRepo, fanRepo, replicator)

	hub := realtime.NewHub()
	rtHandler := realtime.NewHandler(hub, cfg.Realtime)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// pump cross-process feed updates into the local hub
	go func() {
		if err := realtime.RunBridgeSubscriber(ctx, rdb, hub); err != nil {
			logger.Error("bridge subscriber stopped", zap.Error(err))
		}
	}()

	router := api.NewRouter(handler.New(feedSvc, relSvc), rtHandler)
	srv := &http.Server{Addr: cfg.Server.Addr, Handler: router}

	go func() {
		logger.Info("api listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown", zap.Error(err))
	}
	_ = stopReplicator(shutdownCtx)
	logger.Info("api stopped")
}

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
