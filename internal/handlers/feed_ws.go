package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kata-app/kata-backend/internal/realtime"
	"github.com/kata-app/kata-backend/internal/services"
)

var feedUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS for WebSocket is handled at the HTTP layer already.
		return true
	},
}

// FeedWebSocket pushes feed events (new contributions, like updates) to a
// connected client. The feed itself is public; a session token is accepted
// but not required, so anonymous browsers still see live updates.
func FeedWebSocket(w http.ResponseWriter, r *http.Request) {
	token := extractBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		// Browser WebSocket clients cannot set headers.
		token = r.URL.Query().Get("token")
	}
	if token != "" {
		if _, ok, err := services.ValidateSession(token); err != nil || !ok {
			http.Error(w, "invalid session token", http.StatusUnauthorized)
			return
		}
	}

	conn, err := feedUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	events, unsubscribe := realtime.Subscribe()
	defer unsubscribe()

	// Writer goroutine: forward hub events to this connection.
	go func() {
		for evt := range events {
			if err := conn.WriteJSON(evt); err != nil {
				return
			}
		}
	}()

	// Reader loop exists only to detect disconnects and answer pings.
	conn.SetReadLimit(4 * 1024)
	_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	}
}
