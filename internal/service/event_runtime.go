package service

import (
	"context"
	"fmt"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"github.com/veilgram/feedsvc/internal/event"
	"github.com/veilgram/feedsvc/internal/repository"
	"github.com/veilgram/feedsvc/pkg/logger"
)

// Broadcaster pushes a realtime payload to each user's subscriber group.
// Implemented by the websocket hub; a nil Broadcaster disables pushes.
type Broadcaster interface {
	Broadcast(ctx context.Context, userIDs []string, payload any) error
}

// FeedUpdate is the realtime broadcast payload.
type FeedUpdate struct {
	Kind     string `json:"kind"`
	PostID   string `json:"post_id,omitempty"`
	AuthorID string `json:"author_id,omitempty"`
}

// EventRuntime is the transport-independent message entry point: decode,
// dispatch, then decide whether the event warrants a realtime broadcast.
type EventRuntime struct {
	dispatcher  *Dispatcher
	follows     repository.FollowRepository
	broadcaster Broadcaster
}

func NewEventRuntime(d *Dispatcher, follows repository.FollowRepository, b Broadcaster) *EventRuntime {
	return &EventRuntime{dispatcher: d, follows: follows, broadcaster: b}
}

// HandleMessage processes one raw bus message. A decode failure is a poison
// message: the error is returned and must not be retried by the transport.
// A broadcast failure never fails the message; the result is logged and
// deliberately discarded.
func (r *EventRuntime) HandleMessage(ctx context.Context, raw []byte) error {
	evt, err := event.Decode(raw)
	if err != nil {
		// keep the full payload for manual inspection
		logger.Error("poison message", zap.ByteString("raw", raw), zap.Error(err))
		return err
	}
	if err := r.dispatcher.Dispatch(ctx, evt); err != nil {
		sentry.CaptureException(err)
		return fmt.Errorf("dispatch %s: %w", evt.Kind, err)
	}
	if err := r.maybeBroadcast(ctx, evt); err != nil {
		logger.Warn("broadcast failed", zap.Stringer("kind", evt.Kind), zap.Error(err))
		sentry.CaptureException(err)
	}
	return nil
}

// maybeBroadcast implements the decision table: only post lifecycle events
// reach followers in realtime; hashtag and follow events change nothing a
// connected client is watching.
func (r *EventRuntime) maybeBroadcast(ctx context.Context, evt event.Event) error {
	if r.broadcaster == nil {
		return nil
	}
	switch evt.Kind {
	case event.KindPostCreated:
		followers, err := r.follows.FollowerIDs(ctx, evt.PostCreated.AuthorID)
		if err != nil {
			return err
		}
		if len(followers) == 0 {
			return nil
		}
		return r.broadcaster.Broadcast(ctx, followers, FeedUpdate{
			Kind:     "FeedUpdated",
			PostID:   evt.PostCreated.PostID,
			AuthorID: evt.PostCreated.AuthorID,
		})
	case event.KindPostDeleted:
		followers, err := r.follows.FollowerIDs(ctx, evt.PostDeleted.AuthorID)
		if err != nil {
			return err
		}
		if len(followers) == 0 {
			return nil
		}
		return r.broadcaster.Broadcast(ctx, followers, FeedUpdate{Kind: "FeedPruned"})
	default:
		return nil
	}
}
