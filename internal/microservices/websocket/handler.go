package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// NewUpgrader accepts requests without an Origin header (non-browser tools) and
// browser requests from the configured origins. "*" allows every origin.
func NewUpgrader(allowedOrigins []string) *websocket.Upgrader {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowed["*"] || allowed[origin]
		},
	}
}

// WSHandler: upgrade an authenticated request to a dashboard notification session
func WSHandler(hub *Hub, upgrader *websocket.Upgrader) gin.HandlerFunc {
	return func(c *gin.Context) {
		// subject is set by the auth middleware
		subject := c.GetString("subject")
		if subject == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the HTTP error
			hub.logger.Warn("ws_upgrade_failed", "error", err)
			return
		}

		client := NewClient(uuid.NewString(), subject, conn, hub)

		select {
		case hub.Register <- client:
		case <-hub.Done():
			conn.Close()
			return
		}

		go client.WritePump()
		go client.ReadPump()
	}
}
