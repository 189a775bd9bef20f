package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/veilgram/feedsvc/internal/cache"
	"github.com/veilgram/feedsvc/internal/model"
	"github.com/veilgram/feedsvc/internal/repository"
)

// testEnv wires the full pipeline over sqlite and miniredis, the same shape
// the consumer binary assembles at startup.
type testEnv struct {
	db      *gorm.DB
	mr      *miniredis.Miniredis
	cache   *cache.FeedCache
	follows repository.FollowRepository
	feed    *FeedService
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Post{}, &model.Follow{}, &model.Fan{}, &model.PostHashtag{}))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	fc := cache.NewFeedCache(rdb, time.Minute)
	follows := repository.NewFollowRepository(db)
	feed := NewFeedService(repository.NewGormFeedRepository(db), follows, fc, 0)
	return &testEnv{db: db, mr: mr, cache: fc, follows: follows, feed: feed}
}

func (e *testEnv) seedPost(t *testing.T, id, author string, at time.Time) {
	t.Helper()
	require.NoError(t, e.db.Create(&model.Post{ID: id, AuthorID: author, CreatedAt: at}).Error)
}

func (e *testEnv) follow(t *testing.T, follower, followee string) {
	t.Helper()
	require.NoError(t, e.follows.Create(context.Background(), follower, followee))
}

func (e *testEnv) version(t *testing.T, userID string) string {
	t.Helper()
	v, err := e.mr.Get("feed:following_ver:" + userID)
	if err != nil {
		return ""
	}
	return v
}
