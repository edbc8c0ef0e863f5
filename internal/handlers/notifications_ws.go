package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rockquest/rockquest-backend/internal/middleware"
	"github.com/rockquest/rockquest-backend/internal/services"
)

var notificationsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS for WebSocket is handled at the HTTP layer already.
		return true
	},
}

// NotificationsWebSocket streams unlock events to the authenticated player.
// RequireRole already validated the token (query-param fallback included for
// browser clients) and placed the user in context. The read loop only
// services pings; the feed is one-way.
func NotificationsWebSocket(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	conn, err := notificationsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	eventsCh, unsubscribe := services.SubscribeUnlockEvents(user.ID)
	defer unsubscribe()

	// Writer goroutine: forward unlock events to this connection.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for evt := range eventsCh {
			if err := conn.WriteJSON(evt); err != nil {
				return
			}
		}
	}()

	conn.SetReadLimit(4 * 1024)
	_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	conn.SetPongHandler(func(appData string) error {
		_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})

	for {
		select {
		case <-done:
			return
		default:
		}
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	}
}
