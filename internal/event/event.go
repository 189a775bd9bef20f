package event

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind enumerates the event types the feed pipeline consumes. Unknown wire
// types decode to KindUnknown and are dropped by the dispatcher.
type Kind int

const (
	KindUnknown Kind = iota
	KindPostCreated
	KindPostDeleted
	KindHashtagsExtracted
	KindUserFollowed
	KindUserUnfollowed
)

func (k Kind) String() string {
	switch k {
	case KindPostCreated:
		return "PostCreated"
	case KindPostDeleted:
		return "PostDeleted"
	case KindHashtagsExtracted:
		return "HashtagsExtracted"
	case KindUserFollowed:
		return "UserFollowed"
	case KindUserUnfollowed:
		return "UserUnfollowed"
	default:
		return "Unknown"
	}
}

// ErrInvalidEnvelope marks a poison message: the envelope is structurally
// broken and must never be retried.
var ErrInvalidEnvelope = errors.New("event: invalid envelope")

// PostCreated is also the payload shape of HashtagsExtracted, which re-indexes
// the same fields.
type PostCreated struct {
	PostID    string   `json:"post_id"`
	AuthorID  string   `json:"author_id"`
	CreatedMS int64    `json:"created_ms"`
	Hashtags  []string `json:"hashtags"`
}

type PostDeleted struct {
	AuthorID  string `json:"author_id"`
	CreatedMS int64  `json:"created_ms"`
}

type FollowChanged struct {
	FollowerID  string `json:"follower_id"`
	FollowingID string `json:"following_id"`
}

// Event is the decoded sum type. Exactly one payload pointer is non-nil for a
// known Kind; all are nil for KindUnknown.
type Event struct {
	Kind Kind

	PostCreated       *PostCreated
	PostDeleted       *PostDeleted
	HashtagsExtracted *PostCreated
	FollowChanged     *FollowChanged
}

type envelope struct {
	Type    *string         `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Decode parses a raw bus message. Missing type/payload keys or a payload that
// does not match the declared type yield ErrInvalidEnvelope; an unrecognized
// type string is not an error.
func Decode(raw []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	if env.Type == nil || env.Payload == nil {
		return Event{}, fmt.Errorf("%w: missing type or payload", ErrInvalidEnvelope)
	}
	// a literal null payload decodes to a zero-valued event; treat it as
	// structurally broken like a missing key
	if string(env.Payload) == "null" {
		return Event{}, fmt.Errorf("%w: null payload", ErrInvalidEnvelope)
	}

	evt := Event{}
	switch *env.Type {
	case "PostCreated":
		evt.Kind = KindPostCreated
		evt.PostCreated = &PostCreated{}
		if err := decodePayload(env.Payload, evt.PostCreated); err != nil {
			return Event{}, err
		}
	case "PostDeleted":
		evt.Kind = KindPostDeleted
		evt.PostDeleted = &PostDeleted{}
		if err := decodePayload(env.Payload, evt.PostDeleted); err != nil {
			return Event{}, err
		}
	case "HashtagsExtracted":
		evt.Kind = KindHashtagsExtracted
		evt.HashtagsExtracted = &PostCreated{}
		if err := decodePayload(env.Payload, evt.HashtagsExtracted); err != nil {
			return Event{}, err
		}
	case "UserFollowed", "UserFollowChanged":
		evt.Kind = KindUserFollowed
		evt.FollowChanged = &FollowChanged{}
		if err := decodePayload(env.Payload, evt.FollowChanged); err != nil {
			return Event{}, err
		}
	case "UserUnfollowed":
		evt.Kind = KindUserUnfollowed
		evt.FollowChanged = &FollowChanged{}
		if err := decodePayload(env.Payload, evt.FollowChanged); err != nil {
			return Event{}, err
		}
	default:
		evt.Kind = KindUnknown
	}
	return evt, nil
}

func decodePayload(raw json.RawMessage, into any) error {
	if err := json.Unmarshal(raw, into); err != nil {
		return fmt.Errorf("%w: payload: %v", ErrInvalidEnvelope, err)
	}
	return nil
}
