package realtime

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ServeWS upgrades the request and bridges hub events onto the socket. A
// customer session is subscribed to its own user topic; a staff session is
// additionally subscribed to the staff topic. The subscriptions are released
// when the read loop ends for any reason; release never depends on the peer
// closing cleanly.
func ServeWS(hub *Hub, w http.ResponseWriter, r *http.Request, userID string, staff bool) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.WarnContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// Subscription handlers run on separate goroutines; serialize writes.
	var writeMu sync.Mutex
	push := func(ev Event) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(ev); err != nil {
			slog.Debug("websocket write failed", "user_id", userID, "error", err)
		}
	}

	cancelUser := hub.Subscribe(UserTopic(userID), push)
	defer cancelUser()

	if staff {
		cancelStaff := hub.Subscribe(TopicStaff, push)
		defer cancelStaff()
	}

	// The client never sends application data; the read loop only detects
	// disconnection.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
