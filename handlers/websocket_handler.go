package handlers

import (
	"net/http"

	"github.com/Dosada05/tournament-calendar/live"
	"github.com/Dosada05/tournament-calendar/middleware"
	"github.com/Dosada05/tournament-calendar/services"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type WebSocketHandler struct {
	hub      *live.Hub
	cache    *services.EventCache
	upgrader websocket.Upgrader
}

// NewWebSocketHandler accepts connections from allowedOrigins only; "*"
// allows any origin.
func NewWebSocketHandler(hub *live.Hub, cache *services.EventCache, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		hub:   hub,
		cache: cache,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// ServeWs upgrades the connection and sends the current snapshot first, so a
// renderer that connects after a change still starts from the latest view.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	log := middleware.LoggerFromContext(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отправляет HTTP-ошибку клиенту.
		log.Warn("failed to upgrade websocket connection", zap.Error(err))
		return
	}

	id := middleware.RequestIDFromContext(r.Context())
	if id == "" {
		id = uuid.NewString()
	}
	h.hub.Attach(conn, id, &live.Message{Type: live.MessageViewUpdated, Payload: h.cache.Snapshot()})
	log.Debug("websocket client attached", zap.String("client_id", id))
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}
