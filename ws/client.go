package ws

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"memory-match-server/game"
	"memory-match-server/wsutil"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	errNoSession = "No active game session"
)

// Client is a middleman between the websocket connection and the hub.
// UserID, Name and Session are only touched from the read pump goroutine.
type Client struct {
	Hub     *Hub
	Conn    *websocket.Conn
	Send    chan []byte
	UserID  string // empty for guests
	Name    string
	Session *game.Session
}

// NewClient creates a guest client bound to conn.
func NewClient(h *Hub, conn *websocket.Conn) *Client {
	return &Client{
		Hub:  h,
		Conn: conn,
		Send: make(chan []byte, 256),
		Name: "Player",
	}
}

// ReadPump pumps messages from the websocket connection to the hub.
// It runs in its own goroutine per connection.
func (c *Client) ReadPump() {
	defer func() {
		select {
		case c.Hub.Unregister <- c:
		case <-c.Hub.done:
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("read error", "tag", "ws", "err", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// WritePump pumps messages from the send channel to the websocket connection.
// It runs in its own goroutine per connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(data []byte) {
	var envelope InboundEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.sendError("Invalid message format.")
		return
	}

	switch envelope.Type {
	case "auth":
		c.handleAuth(envelope.Raw)
	case "new_game":
		c.handleNewGame()
	case "flip_card":
		c.handleFlipCard(envelope.Raw)
	case "request_hint":
		c.handleRequestHint()
	default:
		c.sendError("Unknown message type: " + envelope.Type)
	}
}

func (c *Client) handleAuth(raw json.RawMessage) {
	var msg AuthMsg
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Token == "" {
		c.sendError("Invalid auth message.")
		return
	}
	if c.Hub.Authenticate == nil {
		c.sendError("Authentication is not configured.")
		return
	}
	userID, name, err := c.Hub.Authenticate(msg.Token)
	if err != nil {
		slog.Debug("auth rejected", "tag", "ws", "err", err)
		c.sendError("Invalid token.")
		return
	}
	c.UserID = userID
	if name != "" {
		c.Name = name
	}
	c.send(AuthenticatedMsg{Type: "authenticated", UserID: c.UserID, Name: c.Name})
}

func (c *Client) handleNewGame() {
	if c.Hub.Sessions == nil {
		c.sendError("Games are not available.")
		return
	}
	c.Session = c.Hub.Sessions.Start(c)
}

func (c *Client) handleFlipCard(raw json.RawMessage) {
	if c.Session == nil {
		c.sendError(errNoSession)
		return
	}

	var msg FlipCardMsg
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Index == nil {
		c.sendError("Invalid flip_card message.")
		return
	}

	c.submit(game.Action{Type: game.ActionFlipCard, Index: *msg.Index})
}

func (c *Client) handleRequestHint() {
	if c.Session == nil {
		c.sendError(errNoSession)
		return
	}
	c.submit(game.Action{Type: game.ActionRequestHint})
}

func (c *Client) submit(a game.Action) {
	if !c.Session.Submit(a) {
		c.Session = nil
		c.sendError(errNoSession)
	}
}

func (c *Client) sendError(message string) {
	c.send(ErrorMsg{Type: "error", Message: message})
}

func (c *Client) send(msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshaling message", "tag", "ws", "err", err)
		return
	}
	wsutil.SafeSend(c.Send, data)
}
