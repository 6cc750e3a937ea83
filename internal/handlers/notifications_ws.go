package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/AnshRaj112/inframonitor-backend/internal/apperr"
	"github.com/AnshRaj112/inframonitor-backend/internal/middleware"
)

const (
	wsPongWait   = 90 * time.Second
	wsPingPeriod = 30 * time.Second
	wsWriteWait  = 10 * time.Second
)

var notifyUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are enforced by the CORS layer; browsers cannot set auth headers on upgrades anyway.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsConn serialises writes; gorilla allows only one concurrent writer.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return c.conn.WriteJSON(v)
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}

// NotificationsSocket handles GET /ws/notifications?token=. The socket is
// receive-only for clients; inbound frames are read only to detect disconnects.
func (h *Handler) NotificationsSocket(w http.ResponseWriter, r *http.Request) {
	if h.Hub == nil {
		h.writeError(w, r, apperr.Unavailable("Notifications are not available"))
		return
	}
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		h.writeError(w, r, apperr.Unauthorized("Access denied. No token provided."))
		return
	}

	raw, err := notifyUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger().Warnw("websocket upgrade failed", "error", err)
		return
	}
	conn := &wsConn{conn: raw}
	userID := user.ID.Hex()
	h.Hub.Add(userID, conn)
	h.logger().Infow("🔔 notification socket opened", "user", userID)
	defer func() {
		h.Hub.Remove(userID, conn)
		_ = conn.Close()
		h.logger().Infow("🔕 notification socket closed", "user", userID)
	}()

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(wsPingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := raw.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
					return
				}
			}
		}
	}()

	raw.SetReadLimit(4 * 1024)
	_ = raw.SetReadDeadline(time.Now().Add(wsPongWait))
	raw.SetPongHandler(func(string) error {
		return raw.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := raw.ReadMessage(); err != nil {
			return
		}
	}
}
