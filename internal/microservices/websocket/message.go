package websocket

import (
	"encoding/json"
	"log/slog"
	"time"

	"schooladmin/internal/notification"
)

// Frames sent to dashboard sessions.
type MessageType string

const (
	TypeSnapshot MessageType = "snapshot" // full notification state
	TypeSystem   MessageType = "system"   // server notice, e.g. shutdown
)

type Message struct {
	Type      MessageType            `json:"type"`
	Snapshot  *notification.Snapshot `json:"snapshot,omitempty"`
	Content   string                 `json:"content,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func NewSnapshotMessage(snap notification.Snapshot) *Message {
	return &Message{
		Type:      TypeSnapshot,
		Snapshot:  &snap,
		Timestamp: time.Now().UTC(),
	}
}

func NewSystemMessage(content string) *Message {
	return &Message{
		Type:      TypeSystem,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON: marshal Message struct to JSON
func (m *Message) ToJSON() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		slog.Error("Failed to marshal message to JSON", "error", err)
		return nil, err
	}
	return data, nil
}

// MessageFromJSON: unmarshal JSON data to Message struct
func MessageFromJSON(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
