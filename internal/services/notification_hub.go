package services

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const notifyChannelPrefix = "notify:user:"

// Notification is the payload pushed to a user's websocket.
type Notification struct {
	Type      NotificationType       `json:"type"`
	UserID    string                 `json:"userId,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// NotifyConn is the part of a websocket connection the hub writes to.
type NotifyConn interface {
	WriteJSON(v interface{}) error
	Close() error
}

type HubStats struct {
	ActiveConnections int `json:"activeConnections"`
	ConnectedUsers    int `json:"connectedUsers"`
}

// NotificationHub is the per-process registry of open notification sockets.
// A user may hold several sockets (one per tab).
type NotificationHub struct {
	mu      sync.RWMutex
	conns   map[string]map[NotifyConn]struct{}
	redis   *redis.Client
	log     *zap.SugaredLogger
	started sync.Once
}

// NewNotificationHub returns a hub. With a nil redis client delivery stays local.
func NewNotificationHub(client *redis.Client, log *zap.SugaredLogger) *NotificationHub {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &NotificationHub{
		conns: make(map[string]map[NotifyConn]struct{}),
		redis: client,
		log:   log,
	}
}

func (h *NotificationHub) Add(userID string, conn NotifyConn) {
	h.mu.Lock()
	set, ok := h.conns[userID]
	if !ok {
		set = make(map[NotifyConn]struct{})
		h.conns[userID] = set
	}
	set[conn] = struct{}{}
	h.mu.Unlock()
	h.log.Debugw("notification socket connected", "user", userID)
}

// Remove drops conn. Other sockets of the same user stay registered.
func (h *NotificationHub) Remove(userID string, conn NotifyConn) {
	h.mu.Lock()
	if set, ok := h.conns[userID]; ok {
		delete(set, conn)
		if len(set) == 0 {
			delete(h.conns, userID)
		}
	}
	h.mu.Unlock()
	h.log.Debugw("notification socket disconnected", "user", userID)
}

func (h *NotificationHub) Online(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID]) > 0
}

func (h *NotificationHub) Stats() HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	st := HubStats{ConnectedUsers: len(h.conns)}
	for _, set := range h.conns {
		st.ActiveConnections += len(set)
	}
	return st
}

// SendLocal writes n to every local socket of n.UserID and reports whether any write succeeded.
// Sockets that fail a write are closed and removed.
func (h *NotificationHub) SendLocal(n Notification) bool {
	h.mu.RLock()
	targets := make([]NotifyConn, 0, len(h.conns[n.UserID]))
	for c := range h.conns[n.UserID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	sent := false
	for _, c := range targets {
		if err := c.WriteJSON(n); err != nil {
			h.log.Warnw("error writing notification to websocket", "user", n.UserID, "error", err)
			h.Remove(n.UserID, c)
			_ = c.Close()
			continue
		}
		sent = true
	}
	return sent
}

// Deliver routes n through Redis when available so sockets held by other instances get it too.
// In Redis mode the result reports a successful publish.
func (h *NotificationHub) Deliver(ctx context.Context, n Notification) bool {
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now().UTC()
	}
	if h.redis == nil {
		return h.SendLocal(n)
	}
	data, err := json.Marshal(n)
	if err != nil {
		h.log.Errorw("failed to marshal notification", "error", err)
		return false
	}
	if err := h.redis.Publish(ctx, notifyChannelPrefix+n.UserID, data).Err(); err != nil {
		h.log.Warnw("redis publish failed, delivering locally", "user", n.UserID, "error", err)
		return h.SendLocal(n)
	}
	return true
}

// Start launches the shared Redis listener once per hub.
func (h *NotificationHub) Start(ctx context.Context) {
	if h.redis == nil {
		h.log.Info("Redis client not initialized; notification subscriber not started")
		return
	}
	h.started.Do(func() {
		go h.runSubscriber(ctx)
	})
}

func (h *NotificationHub) runSubscriber(ctx context.Context) {
	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		func() {
			pubsub := h.redis.PSubscribe(ctx, notifyChannelPrefix+"*")
			defer pubsub.Close()

			h.log.Infof("✅ Notification Redis subscriber started (pattern: %s*)", notifyChannelPrefix)

			for {
				msg, err := pubsub.ReceiveMessage(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					h.log.Warnw("redis subscriber error", "error", err, "retry_in", backoff)
					time.Sleep(backoff)
					backoff *= 2
					if backoff > 30*time.Second {
						backoff = 30 * time.Second
					}
					return
				}

				backoff = time.Second

				var n Notification
				if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
					h.log.Warnw("failed to unmarshal notification", "error", err)
					continue
				}
				if n.UserID == "" {
					n.UserID = strings.TrimPrefix(msg.Channel, notifyChannelPrefix)
				}
				h.SendLocal(n)
			}
		}()
	}
}
