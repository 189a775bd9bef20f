package realtime

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/veilgram/feedsvc/pkg/logger"
)

// UpdatesChannel carries feed updates between the consumer process and the
// websocket-serving processes.
const UpdatesChannel = "feed:updates"

type bridgeMessage struct {
	Type    string          `json:"type"`
	UserIDs []string        `json:"user_ids"`
	Data    json.RawMessage `json:"data"`
}

// RedisBridge is the consumer-side broadcaster: it publishes feed updates to
// a redis pub/sub channel instead of local connections, so consumers and
// websocket servers can run as separate processes.
type RedisBridge struct {
	rdb *redis.Client
}

func NewRedisBridge(rdb *redis.Client) *RedisBridge {
	return &RedisBridge{rdb: rdb}
}

// Broadcast implements service.Broadcaster over pub/sub.
func (b *RedisBridge) Broadcast(ctx context.Context, userIDs []string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(bridgeMessage{Type: "feed_update", UserIDs: userIDs, Data: data})
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, UpdatesChannel, raw).Err()
}

// RunBridgeSubscriber pumps pub/sub messages into the local hub until ctx is
// cancelled. Malformed messages are skipped.
func RunBridgeSubscriber(ctx context.Context, rdb *redis.Client, hub *Hub) error {
	sub := rdb.Subscribe(ctx, UpdatesChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var bm bridgeMessage
			if err := json.Unmarshal([]byte(msg.Payload), &bm); err != nil {
				logger.Warn("bad bridge message", zap.Error(err))
				continue
			}
			if bm.Type != "feed_update" || len(bm.UserIDs) == 0 {
				continue
			}
			if err := hub.Broadcast(ctx, bm.UserIDs, bm.Data); err != nil {
				logger.Warn("bridge broadcast failed", zap.Error(err))
			}
		}
	}
}
