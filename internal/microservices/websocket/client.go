package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

const ( // ping pong(2-way heartbeat) to keep connection alive
	WriteWait      = 10 * time.Second    // max time write a message to the peer
	PongWait       = 60 * time.Second    // max time to wait for pong from peer => no pong = no connection
	PingPeriod     = (PongWait * 9) / 10 // send pings before pong wait expires
	MaxMessageSize = 512                 // dashboard sessions only send control frames
	SendBuffer     = 16                  // queued frames per session before it counts as slow
)

// Client is one dashboard browser session.
type Client struct {
	ID          string          // unique session id
	Subject     string          // operator from the access token
	Conn        *websocket.Conn // WebSocket connection
	SendChannel chan []byte     // outbound frames, closed by the hub
	Hub         *Hub
}

func NewClient(id, subject string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		ID:          id,
		Subject:     subject,
		Conn:        conn,
		SendChannel: make(chan []byte, SendBuffer),
		Hub:         hub,
	}
}

// ReadPump keeps the read side alive for pongs and close frames and
// unregisters the session when the peer goes away.
func (c *Client) ReadPump() {
	defer func() {
		select {
		case c.Hub.Unregister <- c:
		case <-c.Hub.Done():
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(MaxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(PongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(PongWait))
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.Hub.logger.Warn("ws_client_read_error", "client_id", c.ID, "error", err)
			}
			return
		}
	}
}

// WritePump drains SendChannel and pings the peer until the hub closes the channel.
func (c *Client) WritePump() {
	ticker := time.NewTicker(PingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.SendChannel:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
