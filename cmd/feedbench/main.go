package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/veilgram/feedsvc/internal/cache"
	"github.com/veilgram/feedsvc/internal/hashtag"
	"github.com/veilgram/feedsvc/internal/model"
	"github.com/veilgram/feedsvc/internal/repository"
	"github.com/veilgram/feedsvc/internal/service"
	"github.com/veilgram/feedsvc/pkg/logger"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 {
		k = 0
	}
	if k >= len(xs) {
		k = len(xs) - 1
	}
	return xs[k]
}

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			return v
		}
	}
	return def
}

// Local end-to-end benchmark of the event pipeline and read path over
// sqlite + miniredis. Knobs: N (followers), POSTS, READS.
func main() {
	_ = logger.Init("development")

	N := envInt("N", 2000)
	POSTS := envInt("POSTS", 200)
	READS := envInt("READS", 5000)

	mr := must(miniredis.Run())
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	db := must(gorm.Open(sqlite.Open(":memory:"), &gorm.Config{}))
	must(0, db.AutoMigrate(&model.Post{}, &model.Follow{}, &model.Fan{}, &model.PostHashtag{}))

	followRepo := repository.NewFollowRepository(db)
	feedRepo := repository.NewGormFeedRepository(db)
	feedCache := cache.NewFeedCache(rdb, 10*time.Minute)
	feedSvc := service.NewFeedService(feedRepo, followRepo, feedCache, 20)
	runtime := service.NewEventRuntime(service.NewDispatcher(feedSvc), followRepo, nil)

	ctx := context.Background()
	author := uuid.NewString()
	followers := make([]string, N)
	for i := range followers {
		followers[i] = uuid.NewString()
		must(0, followRepo.Create(ctx, followers[i], author))
	}

	// publish posts through the full message entry point
	base := time.Now().Add(-time.Hour)
	ingest := make([]time.Duration, 0, POSTS)
	for i := 0; i < POSTS; i++ {
		createdAt := base.Add(time.Duration(i) * time.Second)
		post := model.Post{ID: uuid.NewString(), AuthorID: author, Content: fmt.Sprintf("post %d #bench", i), CreatedAt: createdAt}
		must(0, db.Create(&post).Error)
		raw := must(json.Marshal(map[string]any{
			"type": "PostCreated",
			"payload": map[string]any{
				"post_id": post.ID, "author_id": author,
				"created_ms": createdAt.UnixMilli(), "hashtags": hashtag.Extract(post.Content),
			},
		}))
		t0 := time.Now()
		must(0, runtime.HandleMessage(ctx, raw))
		ingest = append(ingest, time.Since(t0))
	}

	reads := make([]time.Duration, 0, READS)
	for i := 0; i < READS; i++ {
		uid := followers[rand.Intn(len(followers))]
		t0 := time.Now()
		rows := must(feedSvc.FetchFollowingFeed(ctx, uid, 0, 20))
		reads = append(reads, time.Since(t0))
		if len(rows) == 0 {
			panic("empty feed page")
		}
	}

	fmt.Printf("followers=%d posts=%d reads=%d\n", N, POSTS, READS)
	fmt.Printf("ingest  p50=%v p95=%v p99=%v\n", pct(ingest, 0.50), pct(ingest, 0.95), pct(ingest, 0.99))
	fmt.Printf("read    p50=%v p95=%v p99=%v\n", pct(reads, 0.50), pct(reads, 0.95), pct(reads, 0.99))
}
