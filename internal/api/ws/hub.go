package ws

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"

	redisstore "github.com/panecast/panecast/internal/store/redis"
)

// Hub manages WebSocket connections backed by Redis pub/sub.
type Hub struct {
	pubsub *redisstore.PubSub
}

// NewHub creates a new WebSocket hub.
func NewHub(pubsub *redisstore.PubSub) *Hub {
	return &Hub{pubsub: pubsub}
}

// ServeStream handles WebSocket connections for a session's live output
// chunks. Subscribes to Redis channel "stream:<sessionID>" and forwards
// each chunk envelope to the client. Delivery is best-effort; a client
// that needs a complete transcript replays the recording instead.
func (h *Hub) ServeStream(w http.ResponseWriter, r *http.Request) {
	h.serveChannel(w, r, redisstore.StreamChannel(chi.URLParam(r, "sessionID")))
}

// ServeSnapshots handles WebSocket connections for a session's pane
// snapshots. Subscribes to Redis channel "snapshot:<sessionID>".
func (h *Hub) ServeSnapshots(w http.ResponseWriter, r *http.Request) {
	h.serveChannel(w, r, redisstore.SnapshotChannel(chi.URLParam(r, "sessionID")))
}

func (h *Hub) serveChannel(w http.ResponseWriter, r *http.Request, channel string) {
	if chi.URLParam(r, "sessionID") == "" {
		http.Error(w, "missing session id", http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()

	messages, cleanup, err := h.pubsub.Subscribe(ctx, channel)
	if err != nil {
		log.Error().Err(err).Msg("websocket subscribe")
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer cleanup()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case msg, msgOK := <-messages:
			if !msgOK {
				_ = conn.Close(websocket.StatusNormalClosure, "channel closed")
				return
			}
			if writeErr := conn.Write(ctx, websocket.MessageText, msg); writeErr != nil {
				log.Debug().Err(writeErr).Msg("websocket write")
				return
			}
		}
	}
}
