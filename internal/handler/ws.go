package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/chainquest/platform/internal/infra"
)

// WSHandler upgrades authenticated player connections into the
// notification hub, so progression pushes reach the client live.
type WSHandler struct {
	hub      *infra.WSHub
	upgrader websocket.Upgrader
}

// NewWSHandler creates a WSHandler. Origin policy is enforced by the CORS
// middleware and the bearer token, so the upgrader itself accepts any
// origin.
func NewWSHandler(hub *infra.WSHub) *WSHandler {
	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Connect handles GET /ws. The connection joins the player-scoped room
// and stays open until the client disconnects.
func (h *WSHandler) Connect(w http.ResponseWriter, r *http.Request) {
	playerID, err := playerIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the handshake error.
		return
	}

	conn := &infra.WSConn{
		ID:       uuid.New().String(),
		PlayerID: playerID.String(),
		Send:     make(chan []byte, 16),
	}
	room := "player:" + playerID.String()
	h.hub.Join(room, conn)

	go func() {
		for payload := range conn.Send {
			if err := ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				break
			}
		}
		ws.Close()
	}()

	// Clients only listen; the read loop exists to notice the close.
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
	h.hub.Leave(room, conn.ID)
}
