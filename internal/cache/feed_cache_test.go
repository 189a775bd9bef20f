package cache

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilgram/feedsvc/internal/repository"
)

func setupCache(t *testing.T) (*FeedCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewFeedCache(rdb, time.Minute), mr
}

func sampleRows(n int) []repository.FeedRow {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	rows := make([]repository.FeedRow, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, repository.FeedRow{
			PostID:    fmt.Sprintf("p%d", i),
			AuthorID:  fmt.Sprintf("a%d", i),
			CreatedAt: base.Add(time.Duration(-i) * time.Minute),
		})
	}
	return rows
}

func TestVersionDefaultsToOne(t *testing.T) {
	fc, _ := setupCache(t)
	assert.Equal(t, int64(1), fc.followingVer(context.Background(), "u1"))
}

func TestBumpVersionMonotonic(t *testing.T) {
	fc, mr := setupCache(t)
	ctx := context.Background()

	require.NoError(t, fc.BumpVersion(ctx, []string{"u1"}))
	v, err := mr.Get("feed:following_ver:u1")
	require.NoError(t, err)
	assert.Equal(t, "2", v)

	require.NoError(t, fc.BumpVersion(ctx, []string{"u1"}))
	assert.Equal(t, int64(3), fc.followingVer(ctx, "u1"))
}

func TestBumpVersionConcurrent(t *testing.T) {
	fc, _ := setupCache(t)
	ctx := context.Background()

	const n = 32
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_ = fc.BumpVersion(ctx, []string{"u1"})
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(n+1), fc.followingVer(ctx, "u1"))
}

func TestFollowingPageRoundTrip(t *testing.T) {
	fc, _ := setupCache(t)
	ctx := context.Background()
	rows := sampleRows(3)

	assert.Nil(t, fc.GetFollowingPage(ctx, "u1", 0, 20))

	fc.SetFollowingPage(ctx, "u1", 0, 20, rows)
	got := fc.GetFollowingPage(ctx, "u1", 0, 20)
	require.Len(t, got, 3)
	assert.Equal(t, rows[0].PostID, got[0].PostID)
	assert.True(t, rows[0].CreatedAt.Equal(got[0].CreatedAt))

	// Different page/size combinations are independent keys.
	assert.Nil(t, fc.GetFollowingPage(ctx, "u1", 1, 20))
	assert.Nil(t, fc.GetFollowingPage(ctx, "u1", 0, 10))
}

func TestCachedEmptyPageIsNotAMiss(t *testing.T) {
	fc, _ := setupCache(t)
	ctx := context.Background()

	fc.SetFollowingPage(ctx, "u1", 0, 20, nil)
	got := fc.GetFollowingPage(ctx, "u1", 0, 20)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestBumpInvalidatesCachedPages(t *testing.T) {
	fc, _ := setupCache(t)
	ctx := context.Background()

	fc.SetFollowingPage(ctx, "u1", 0, 20, sampleRows(2))
	require.Len(t, fc.GetFollowingPage(ctx, "u1", 0, 20), 2)

	require.NoError(t, fc.BumpVersion(ctx, []string{"u1"}))
	assert.Nil(t, fc.GetFollowingPage(ctx, "u1", 0, 20))

	// A write after the bump lands under the new version.
	fc.SetFollowingPage(ctx, "u1", 0, 20, sampleRows(1))
	require.Len(t, fc.GetFollowingPage(ctx, "u1", 0, 20), 1)
}

func TestPageTTLExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	fc := NewFeedCache(rdb, 5*time.Second)
	ctx := context.Background()

	fc.SetHashtagPage(ctx, "golang", 0, 20, sampleRows(2))
	require.Len(t, fc.GetHashtagPage(ctx, "golang", 0, 20), 2)

	mr.FastForward(6 * time.Second)
	assert.Nil(t, fc.GetHashtagPage(ctx, "golang", 0, 20))
}

func TestVersionCounterHasNoTTL(t *testing.T) {
	fc, mr := setupCache(t)
	ctx := context.Background()

	require.NoError(t, fc.BumpVersion(ctx, []string{"u1"}))
	mr.FastForward(24 * time.Hour)
	assert.Equal(t, int64(2), fc.followingVer(ctx, "u1"))
}

func TestHashtagScores(t *testing.T) {
	fc, _ := setupCache(t)
	ctx := context.Background()

	require.NoError(t, fc.IncrHashtagScore(ctx, "golang", 1))
	require.NoError(t, fc.IncrHashtagScore(ctx, "golang", 1))
	require.NoError(t, fc.IncrHashtagScore(ctx, "rustlang", 1))

	top, err := fc.TopHashtags(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "golang", top[0].Tag)
	assert.Equal(t, float64(2), top[0].Score)
	assert.Equal(t, "rustlang", top[1].Tag)
}

func TestTopHashtagsLimit(t *testing.T) {
	fc, _ := setupCache(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, fc.IncrHashtagScore(ctx, "tag"+strconv.Itoa(i), float64(i+1)))
	}
	top, err := fc.TopHashtags(ctx, 3)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, "tag4", top[0].Tag)
}

func TestCorruptPagePayloadIsAMiss(t *testing.T) {
	fc, mr := setupCache(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("feed:hashtag:golang:p0:s20", "not-json"))
	assert.Nil(t, fc.GetHashtagPage(ctx, "golang", 0, 20))
}
