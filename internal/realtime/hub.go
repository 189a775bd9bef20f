package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/veilgram/feedsvc/pkg/logger"
)

// FeedGroup names the subscriber group of one user's feed updates.
func FeedGroup(userID string) string { return "feed." + userID }

type pushMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Hub tracks per-user subscriber groups and publishes to them. Membership is
// managed by the connection layer (join on connect, leave on disconnect);
// the hub only publishes. A nil *Hub is a valid no-op broadcaster so tests
// and degraded environments never fail on pushes.
type Hub struct {
	mu     sync.RWMutex
	groups map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{groups: make(map[string]map[*Client]struct{})}
}

func (h *Hub) join(group string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.groups[group]
	if !ok {
		clients = make(map[*Client]struct{})
		h.groups[group] = clients
	}
	clients[c] = struct{}{}
}

func (h *Hub) leave(group string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.groups[group]
	if !ok {
		return
	}
	delete(clients, c)
	if len(clients) == 0 {
		delete(h.groups, group)
	}
}

// GroupSize reports current membership of a user's group.
func (h *Hub) GroupSize(userID string) int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[FeedGroup(userID)])
}

// Broadcast sends {"event":"feed_update","data":payload} to every connection
// in each unique user's group. Delivery is in-order per group via each
// client's FIFO send queue; a client whose queue is full is dropped rather
// than allowed to stall the publisher.
func (h *Hub) Broadcast(ctx context.Context, userIDs []string, payload any) error {
	if h == nil || len(userIDs) == 0 {
		return nil
	}
	raw, err := json.Marshal(pushMessage{Event: "feed_update", Data: payload})
	if err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(userIDs))
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, uid := range userIDs {
		if _, dup := seen[uid]; dup {
			continue
		}
		seen[uid] = struct{}{}
		for c := range h.groups[FeedGroup(uid)] {
			if !c.enqueue(raw) {
				logger.Warn("dropping slow realtime client", zap.String("user", uid))
				c.kill()
			}
		}
	}
	return nil
}
