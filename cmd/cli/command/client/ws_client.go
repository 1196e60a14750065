package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	ws "schooladmin/internal/microservices/websocket"
	"schooladmin/internal/notification"
)

// wsURL turns the API base URL into the notification stream URL.
func wsURL(apiURL string) (string, error) {
	u, err := url.Parse(apiURL)
	if err != nil {
		return "", fmt.Errorf("invalid API URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws/notifications"
	return u.String(), nil
}

// WatchNotifications streams snapshots until ctx is cancelled or the server closes.
func WatchNotifications(ctx context.Context, apiURL, token string, onSnapshot func(notification.Snapshot)) error {
	target, err := wsURL(apiURL)
	if err != nil {
		return err
	}

	header := http.Header{}
	header.Add("Authorization", "Bearer "+token)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, target, header)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return err
		}
		msg, err := ws.MessageFromJSON(data)
		if err != nil || msg.Type != ws.TypeSnapshot || msg.Snapshot == nil {
			continue
		}
		onSnapshot(*msg.Snapshot)
	}
}
