package repository

import (
	"context"

	"github.com/gocql/gocql"
)

// CassandraFeedRepository stores feed rows in per-author (and per-hashtag)
// partitions:
//
//	feed_posts          (author_id, created_at timeuuid, post_id, like_count, comment_count)
//	feed_hashtag_posts  (hashtag, created_at timeuuid, post_id, author_id)
//
// Rows within a partition are clustered by created_at descending, so each
// partition read is locally ordered; cross-partition order is restored by the
// merge in paginateMerged.
type CassandraFeedRepository struct {
	session *gocql.Session
}

func NewCassandraFeedRepository(session *gocql.Session) *CassandraFeedRepository {
	return &CassandraFeedRepository{session: session}
}

// 100ns ticks between the UUID epoch (1582-10-15) and the Unix epoch.
const uuidEpochOffset = 122192928000000000

// fixed node bits; the sort key must be re-derivable from created_ms alone so
// DeletePost can address the row written by InsertPost
var sortKeyNode = [6]byte{0xfe, 0xed, 0x5e, 0xed, 0x00, 0x01}

// sortKeyUUID builds a deterministic V1 timeuuid from a millisecond timestamp.
func sortKeyUUID(createdMS int64) gocql.UUID {
	var u gocql.UUID
	t := uint64(createdMS)*10000 + uuidEpochOffset
	u[0] = byte(t >> 24)
	u[1] = byte(t >> 16)
	u[2] = byte(t >> 8)
	u[3] = byte(t)
	u[4] = byte(t >> 40)
	u[5] = byte(t >> 32)
	u[6] = 0x10 | byte(t>>56)&0x0f
	u[7] = byte(t >> 48)
	clock := uint16(createdMS % 16384)
	u[8] = 0x80 | byte(clock>>8)&0x3f
	u[9] = byte(clock)
	copy(u[10:], sortKeyNode[:])
	return u
}

func (r *CassandraFeedRepository) InsertPost(ctx context.Context, authorID, postID string, createdMS int64, likeCount, commentCount int) error {
	return r.session.Query(
		`INSERT INTO feed_posts (author_id, created_at, post_id, like_count, comment_count) VALUES (?, ?, ?, ?, ?)`,
		authorID, sortKeyUUID(createdMS), postID, likeCount, commentCount,
	).WithContext(ctx).Exec()
}

func (r *CassandraFeedRepository) DeletePost(ctx context.Context, authorID string, createdMS int64) error {
	return r.session.Query(
		`DELETE FROM feed_posts WHERE author_id = ? AND created_at = ?`,
		authorID, sortKeyUUID(createdMS),
	).WithContext(ctx).Exec()
}

func (r *CassandraFeedRepository) InsertHashtagPost(ctx context.Context, tag, postID, authorID string, createdMS int64) error {
	return r.session.Query(
		`INSERT INTO feed_hashtag_posts (hashtag, created_at, post_id, author_id) VALUES (?, ?, ?, ?)`,
		tag, sortKeyUUID(createdMS), postID, authorID,
	).WithContext(ctx).Exec()
}

// QueryFollowingPosts fans in over the author partitions. Each partition is
// read with size*(page+1) lookahead: partitions are only locally sorted, so
// that much per-partition data is needed before the globally merged page is
// guaranteed exact.
func (r *CassandraFeedRepository) QueryFollowingPosts(ctx context.Context, authorIDs []string, page, size int) ([]FeedRow, error) {
	if len(authorIDs) == 0 {
		return []FeedRow{}, nil
	}
	lookahead := size * (page + 1)
	if lookahead <= 0 {
		return []FeedRow{}, nil
	}
	rows := make([]FeedRow, 0, lookahead*len(authorIDs))
	for _, aid := range authorIDs {
		iter := r.session.Query(
			`SELECT post_id, author_id, created_at FROM feed_posts WHERE author_id = ? LIMIT ?`,
			aid, lookahead,
		).WithContext(ctx).Iter()
		var (
			postID, authorID string
			created          gocql.UUID
		)
		for iter.Scan(&postID, &authorID, &created) {
			rows = append(rows, FeedRow{PostID: postID, AuthorID: authorID, CreatedAt: created.Time().UTC()})
		}
		if err := iter.Close(); err != nil {
			return nil, err
		}
	}
	return paginateMerged(rows, page, size), nil
}

func (r *CassandraFeedRepository) QueryHashtagPosts(ctx context.Context, tag string, page, size int) ([]FeedRow, error) {
	lookahead := size * (page + 1)
	if lookahead <= 0 {
		return []FeedRow{}, nil
	}
	iter := r.session.Query(
		`SELECT post_id, author_id, created_at FROM feed_hashtag_posts WHERE hashtag = ? LIMIT ?`,
		tag, lookahead,
	).WithContext(ctx).Iter()
	rows := make([]FeedRow, 0, lookahead)
	var (
		postID, authorID string
		created          gocql.UUID
	)
	for iter.Scan(&postID, &authorID, &created) {
		rows = append(rows, FeedRow{PostID: postID, AuthorID: authorID, CreatedAt: created.Time().UTC()})
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return paginateMerged(rows, page, size), nil
}
