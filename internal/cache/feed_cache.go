package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/veilgram/feedsvc/internal/repository"
)

const (
	followingVerKey  = "feed:following_ver:%s"
	followingPageKey = "feed:following:%s:v%d:p%d:s%d"
	hashtagPageKey   = "feed:hashtag:%s:p%d:s%d"
	hashtagZSet      = "hashtag_counters"
)

// FeedCache is the versioned read-through cache for following feeds plus the
// shared (unversioned) hashtag feed pages and popularity counters.
//
// Following pages embed the user's version counter in the key, so bumping the
// counter invalidates every cached page/size combination at once; orphaned
// pages simply expire via TTL.
type FeedCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewFeedCache(rdb *redis.Client, ttl time.Duration) *FeedCache {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &FeedCache{rdb: rdb, ttl: ttl}
}

// followingVer resolves the current version for a user; absence means 1.
func (c *FeedCache) followingVer(ctx context.Context, userID string) int64 {
	v, err := c.rdb.Get(ctx, fmt.Sprintf(followingVerKey, userID)).Result()
	if err != nil {
		return 1
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// BumpVersion atomically increments every user's version counter. SETNX seeds
// absent counters at 1 first, so a bump always lands at >= 2 and concurrent
// bumps never lose updates (INCR is atomic server-side).
func (c *FeedCache) BumpVersion(ctx context.Context, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}
	pipe := c.rdb.Pipeline()
	for _, uid := range userIDs {
		k := fmt.Sprintf(followingVerKey, uid)
		pipe.SetNX(ctx, k, 1, 0)
		pipe.Incr(ctx, k)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// GetFollowingPage returns the cached page under the user's current version,
// or nil on miss. Backend errors are reported as a miss.
func (c *FeedCache) GetFollowingPage(ctx context.Context, userID string, page, size int) []repository.FeedRow {
	ver := c.followingVer(ctx, userID)
	return c.getPage(ctx, fmt.Sprintf(followingPageKey, userID, ver, page, size))
}

// SetFollowingPage stores the page under the version current at write time.
func (c *FeedCache) SetFollowingPage(ctx context.Context, userID string, page, size int, rows []repository.FeedRow) {
	ver := c.followingVer(ctx, userID)
	c.setPage(ctx, fmt.Sprintf(followingPageKey, userID, ver, page, size), rows)
}

// GetHashtagPage returns the globally shared hashtag page, or nil on miss.
// Hashtag feeds are not versioned; slightly stale pages are acceptable.
func (c *FeedCache) GetHashtagPage(ctx context.Context, tag string, page, size int) []repository.FeedRow {
	return c.getPage(ctx, fmt.Sprintf(hashtagPageKey, tag, page, size))
}

func (c *FeedCache) SetHashtagPage(ctx context.Context, tag string, page, size int, rows []repository.FeedRow) {
	c.setPage(ctx, fmt.Sprintf(hashtagPageKey, tag, page, size), rows)
}

// IncrHashtagScore bumps a tag's popularity counter.
func (c *FeedCache) IncrHashtagScore(ctx context.Context, tag string, amount float64) error {
	return c.rdb.ZIncrBy(ctx, hashtagZSet, amount, tag).Err()
}

// TagScore holds one entry of the popularity ranking.
type TagScore struct {
	Tag   string  `json:"tag"`
	Score float64 `json:"score"`
}

// TopHashtags returns the n highest-scored tags, best first.
func (c *FeedCache) TopHashtags(ctx context.Context, n int) ([]TagScore, error) {
	if n <= 0 {
		n = 10
	}
	zs, err := c.rdb.ZRevRangeWithScores(ctx, hashtagZSet, 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]TagScore, 0, len(zs))
	for _, z := range zs {
		tag, ok := z.Member.(string)
		if !ok {
			continue
		}
		out = append(out, TagScore{Tag: tag, Score: z.Score})
	}
	return out, nil
}

func (c *FeedCache) getPage(ctx context.Context, key string) []repository.FeedRow {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil
	}
	var rows []repository.FeedRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil
	}
	if rows == nil {
		rows = []repository.FeedRow{}
	}
	return rows
}

func (c *FeedCache) setPage(ctx context.Context, key string, rows []repository.FeedRow) {
	if rows == nil {
		rows = []repository.FeedRow{}
	}
	payload, err := json.Marshal(rows)
	if err != nil {
		return
	}
	_ = c.rdb.Set(ctx, key, payload, c.ttl).Err()
}
