package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/veilgram/feedsvc/internal/model"
)

// GormFeedRepository approximates the wide-partition semantics on the primary
// relational store, for local and low-scale deployments.
//
// InsertPost/DeletePost are no-ops: the posts table already owns the row by
// the time the event arrives, so there is nothing to materialize. This
// diverges from the Cassandra backend, which stores its own copy.
type GormFeedRepository struct {
	db *gorm.DB
}

func NewGormFeedRepository(db *gorm.DB) *GormFeedRepository {
	return &GormFeedRepository{db: db}
}

func (r *GormFeedRepository) InsertPost(ctx context.Context, authorID, postID string, createdMS int64, likeCount, commentCount int) error {
	return nil
}

func (r *GormFeedRepository) DeletePost(ctx context.Context, authorID string, createdMS int64) error {
	return nil
}

func (r *GormFeedRepository) InsertHashtagPost(ctx context.Context, tag, postID, authorID string, createdMS int64) error {
	row := &model.PostHashtag{
		ID:        uuid.New().String(),
		Hashtag:   tag,
		PostID:    postID,
		AuthorID:  authorID,
		CreatedAt: time.UnixMilli(createdMS).UTC(),
	}
	// at-least-once delivery makes duplicate index rows routine
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error
}

func (r *GormFeedRepository) QueryFollowingPosts(ctx context.Context, authorIDs []string, page, size int) ([]FeedRow, error) {
	if len(authorIDs) == 0 {
		return []FeedRow{}, nil
	}
	var posts []model.Post
	err := r.db.WithContext(ctx).
		Where("author_id IN ?", authorIDs).
		Order("created_at DESC, id DESC").
		Offset(page * size).
		Limit(size).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	rows := make([]FeedRow, len(posts))
	for i, p := range posts {
		rows[i] = FeedRow{PostID: p.ID, AuthorID: p.AuthorID, CreatedAt: p.CreatedAt.UTC()}
	}
	return rows, nil
}

func (r *GormFeedRepository) QueryHashtagPosts(ctx context.Context, tag string, page, size int) ([]FeedRow, error) {
	var links []model.PostHashtag
	err := r.db.WithContext(ctx).
		Where("hashtag = ?", tag).
		Order("created_at DESC").
		Offset(page * size).
		Limit(size).
		Find(&links).Error
	if err != nil {
		return nil, err
	}
	rows := make([]FeedRow, len(links))
	for i, l := range links {
		rows[i] = FeedRow{PostID: l.PostID, AuthorID: l.AuthorID, CreatedAt: l.CreatedAt.UTC()}
	}
	return rows, nil
}
