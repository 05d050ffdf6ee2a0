package ws

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"memory-match-server/config"
	"memory-match-server/game"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are enforced by the CORS layer in front of the router.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// SessionManager defines what the Hub needs from the lobby.
type SessionManager interface {
	// Start replaces the client's running session (if any) with a new one.
	Start(c *Client) *game.Session
	// End stops the client's session, if any.
	End(c *Client)
}

// Authenticator resolves a token to a user id and display name.
type Authenticator func(token string) (userID, name string, err error)

// Hub maintains the set of active clients and routes messages.
type Hub struct {
	Clients      map[*Client]bool
	Register     chan *Client
	Unregister   chan *Client
	Sessions     SessionManager
	Authenticate Authenticator
	Config       *config.Config

	done chan struct{}
}

// NewHub creates a new Hub. authenticate may be nil, in which case auth messages are rejected.
func NewHub(cfg *config.Config, sessions SessionManager, authenticate Authenticator) *Hub {
	return &Hub{
		Clients:      make(map[*Client]bool),
		Register:     make(chan *Client),
		Unregister:   make(chan *Client),
		Sessions:     sessions,
		Authenticate: authenticate,
		Config:       cfg,
		done:         make(chan struct{}),
	}
}

// Run starts the hub's main loop. Should be run as a goroutine.
// When ctx is cancelled (e.g. on server shutdown), every client's session is ended and Run returns.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			slog.Info("shutdown signal received, stopping", "tag", "ws")
			for client := range h.Clients {
				h.remove(client)
			}
			return
		case client := <-h.Register:
			h.Clients[client] = true
			slog.Info("client connected", "tag", "ws", "clients", len(h.Clients))

		case client := <-h.Unregister:
			if _, ok := h.Clients[client]; ok {
				h.remove(client)
				slog.Info("client disconnected", "tag", "ws", "clients", len(h.Clients))
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	delete(h.Clients, client)
	if h.Sessions != nil {
		h.Sessions.End(client)
	}
	close(client.Send)
}

// ServeHTTP handles WebSocket upgrade requests and creates a new Client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("upgrade failed", "tag", "ws", "err", err)
		return
	}

	client := NewClient(h, conn)

	select {
	case h.Register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
