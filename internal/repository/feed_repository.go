package repository

import (
	"context"
	"sort"
	"time"
)

// FeedRow is the lightweight post reference served by feeds and stored in
// cached pages.
type FeedRow struct {
	PostID    string    `json:"post_id"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

// FeedRepository abstracts the denormalized feed store. Two implementations:
// the Cassandra wide-partition store and a relational fallback for
// low-scale/dev deployments. Selection happens once at process startup.
type FeedRepository interface {
	InsertPost(ctx context.Context, authorID, postID string, createdMS int64, likeCount, commentCount int) error
	// DeletePost is keyed by partition + sort key: the store indexes by
	// author and time, not by post id.
	DeletePost(ctx context.Context, authorID string, createdMS int64) error
	InsertHashtagPost(ctx context.Context, tag, postID, authorID string, createdMS int64) error
	QueryFollowingPosts(ctx context.Context, authorIDs []string, page, size int) ([]FeedRow, error)
	QueryHashtagPosts(ctx context.Context, tag string, page, size int) ([]FeedRow, error)
}

// paginateMerged globally sorts locally-ordered partition rows by recency and
// slices out the requested page. Callers must have fetched at least
// size*(page+1) rows per partition so the merged page is exact.
func paginateMerged(rows []FeedRow, page, size int) []FeedRow {
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.After(rows[j].CreatedAt)
		}
		// tiebreak keeps the page stable across calls
		return rows[i].PostID > rows[j].PostID
	})
	start := page * size
	// a negative start means page*size overflowed
	if start < 0 || start >= len(rows) {
		return []FeedRow{}
	}
	end := start + size
	if end > len(rows) {
		end = len(rows)
	}
	out := make([]FeedRow, end-start)
	copy(out, rows[start:end])
	return out
}
