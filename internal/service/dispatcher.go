package service

import (
	"context"

	"github.com/veilgram/feedsvc/internal/event"
)

// Dispatcher routes a decoded event to exactly one feed service handler.
// Pure routing: no I/O of its own, so the feed service is testable without
// any transport.
type Dispatcher struct {
	feed *FeedService
}

func NewDispatcher(feed *FeedService) *Dispatcher {
	return &Dispatcher{feed: feed}
}

// Dispatch matches the event kind exhaustively. Unknown kinds are dropped
// without error.
func (d *Dispatcher) Dispatch(ctx context.Context, evt event.Event) error {
	switch evt.Kind {
	case event.KindPostCreated:
		return d.feed.HandlePostCreated(ctx, evt.PostCreated)
	case event.KindPostDeleted:
		return d.feed.HandlePostDeleted(ctx, evt.PostDeleted)
	case event.KindHashtagsExtracted:
		return d.feed.HandleHashtagsExtracted(ctx, evt.HashtagsExtracted)
	case event.KindUserFollowed, event.KindUserUnfollowed:
		return d.feed.HandleFollowChanged(ctx, evt.FollowChanged)
	case event.KindUnknown:
		return nil
	default:
		return nil
	}
}
