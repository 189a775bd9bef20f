package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/veilgram/feedsvc/internal/cache"
	"github.com/veilgram/feedsvc/internal/event"
	"github.com/veilgram/feedsvc/internal/repository"
	"github.com/veilgram/feedsvc/pkg/logger"
)

// page inputs arrive straight from the query string; clamping keeps
// page*size and the per-partition lookahead inside int range
const (
	maxPage     = 10000
	maxPageSize = 100
)

// FeedService applies domain events to the feed store and versioned cache,
// and serves the read path. All dependencies are injected at construction;
// the repository is resolved once at process startup.
type FeedService struct {
	repo        repository.FeedRepository
	follows     repository.FollowRepository
	cache       *cache.FeedCache
	defaultSize int
}

func NewFeedService(repo repository.FeedRepository, follows repository.FollowRepository, c *cache.FeedCache, defaultSize int) *FeedService {
	if defaultSize < 1 || defaultSize > maxPageSize {
		defaultSize = 20
	}
	return &FeedService{repo: repo, follows: follows, cache: c, defaultSize: defaultSize}
}

// HandlePostCreated writes the post into the author's partition, indexes its
// hashtags, and invalidates each follower's following feed. Store write and
// version bump are independent, but both complete before returning so a
// subsequent cache miss reads fresh data.
func (s *FeedService) HandlePostCreated(ctx context.Context, p *event.PostCreated) error {
	if err := s.repo.InsertPost(ctx, p.AuthorID, p.PostID, p.CreatedMS, 0, 0); err != nil {
		return fmt.Errorf("insert post %s: %w", p.PostID, err)
	}
	for _, tag := range p.Hashtags {
		if err := s.repo.InsertHashtagPost(ctx, tag, p.PostID, p.AuthorID, p.CreatedMS); err != nil {
			return fmt.Errorf("insert hashtag post %s/%s: %w", tag, p.PostID, err)
		}
		if err := s.cache.IncrHashtagScore(ctx, tag, 1); err != nil {
			// popularity counters are best effort
			logger.Warn("hashtag score incr failed", zap.String("tag", tag), zap.Error(err))
		}
	}
	return s.bumpFollowers(ctx, p.AuthorID)
}

// HandlePostDeleted removes the row by partition + sort key and invalidates
// followers; their stale cached pages still reference the deleted post.
func (s *FeedService) HandlePostDeleted(ctx context.Context, p *event.PostDeleted) error {
	if err := s.repo.DeletePost(ctx, p.AuthorID, p.CreatedMS); err != nil {
		return fmt.Errorf("delete post of %s: %w", p.AuthorID, err)
	}
	return s.bumpFollowers(ctx, p.AuthorID)
}

// HandleHashtagsExtracted re-indexes hashtag associations. Hashtag feeds are
// unversioned, so no per-user cache is touched.
func (s *FeedService) HandleHashtagsExtracted(ctx context.Context, p *event.PostCreated) error {
	for _, tag := range p.Hashtags {
		if err := s.repo.InsertHashtagPost(ctx, tag, p.PostID, p.AuthorID, p.CreatedMS); err != nil {
			return fmt.Errorf("index hashtag %s/%s: %w", tag, p.PostID, err)
		}
		if err := s.cache.IncrHashtagScore(ctx, tag, 1); err != nil {
			logger.Warn("hashtag score incr failed", zap.String("tag", tag), zap.Error(err))
		}
	}
	return nil
}

// HandleFollowChanged invalidates only the follower's own feed: their
// following set changed, not the followee's.
func (s *FeedService) HandleFollowChanged(ctx context.Context, p *event.FollowChanged) error {
	return s.cache.BumpVersion(ctx, []string{p.FollowerID})
}

func (s *FeedService) bumpFollowers(ctx context.Context, authorID string) error {
	followers, err := s.follows.FollowerIDs(ctx, authorID)
	if err != nil {
		return fmt.Errorf("followers of %s: %w", authorID, err)
	}
	if len(followers) == 0 {
		// an author nobody follows invalidates nothing
		return nil
	}
	if err := s.cache.BumpVersion(ctx, followers); err != nil {
		return fmt.Errorf("bump version: %w", err)
	}
	return nil
}

// FetchFollowingFeed serves one page of the user's following feed,
// cache-first. Cache backend failures degrade to a store read.
func (s *FeedService) FetchFollowingFeed(ctx context.Context, userID string, page, size int) ([]repository.FeedRow, error) {
	page, size = s.normalizePage(page, size)
	if rows := s.cache.GetFollowingPage(ctx, userID, page, size); rows != nil {
		return rows, nil
	}
	authorIDs, err := s.follows.FollowingIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("following of %s: %w", userID, err)
	}
	rows, err := s.repo.QueryFollowingPosts(ctx, authorIDs, page, size)
	if err != nil {
		return nil, fmt.Errorf("query following posts: %w", err)
	}
	s.cache.SetFollowingPage(ctx, userID, page, size, rows)
	return rows, nil
}

// FetchHashtagFeed serves one page of a hashtag feed; same pattern, no
// per-user versioning.
func (s *FeedService) FetchHashtagFeed(ctx context.Context, tag string, page, size int) ([]repository.FeedRow, error) {
	page, size = s.normalizePage(page, size)
	if rows := s.cache.GetHashtagPage(ctx, tag, page, size); rows != nil {
		return rows, nil
	}
	rows, err := s.repo.QueryHashtagPosts(ctx, tag, page, size)
	if err != nil {
		return nil, fmt.Errorf("query hashtag posts: %w", err)
	}
	s.cache.SetHashtagPage(ctx, tag, page, size, rows)
	return rows, nil
}

// TopHashtags exposes the popularity ranking kept by the cache zset.
func (s *FeedService) TopHashtags(ctx context.Context, n int) ([]cache.TagScore, error) {
	return s.cache.TopHashtags(ctx, n)
}

func (s *FeedService) normalizePage(page, size int) (int, int) {
	if page < 0 {
		page = 0
	}
	if page > maxPage {
		page = maxPage
	}
	if size < 1 {
		size = s.defaultSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}
