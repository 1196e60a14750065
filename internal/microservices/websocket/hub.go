package websocket

import (
	"context"
	"log/slog"
	"sync"

	"schooladmin/internal/notification"
)

// Hub fans notification snapshots out to every connected dashboard session.
// Each connection runs its own pumps but membership changes only go through
// the hub's channels.
type Hub struct {
	Register   chan *Client
	Unregister chan *Client
	Broadcast  chan []byte

	clients  map[string]*Client
	mu       sync.RWMutex // guards clients for ClientCount
	snapshot func() notification.Snapshot
	done     chan struct{}
	logger   *slog.Logger

	publishMu   sync.Mutex
	lastVersion uint64
}

// NewHub takes the snapshot source used for the first frame of a new session.
func NewHub(snapshot func() notification.Snapshot, logger *slog.Logger) *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Broadcast:  make(chan []byte, 64),
		clients:    make(map[string]*Client),
		snapshot:   snapshot,
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// ShutdownNotice is the system frame sessions receive before the hub closes them.
const ShutdownNotice = "server shutting down"

// Run processes hub events until ctx is cancelled, then tells every session the
// server is going away and closes it.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			notice, _ := NewSystemMessage(ShutdownNotice).ToJSON()
			h.mu.Lock()
			for id, c := range h.clients {
				if notice != nil {
					select {
					case c.SendChannel <- notice:
					default:
					}
				}
				close(c.SendChannel)
				delete(h.clients, id)
			}
			h.mu.Unlock()
			h.logger.Info("ws_hub_stopped")
			return

		case c := <-h.Register:
			h.mu.Lock()
			h.clients[c.ID] = c
			h.mu.Unlock()
			h.logger.Info("ws_client_registered", "client_id", c.ID, "subject", c.Subject)

			if data, err := NewSnapshotMessage(h.snapshot()).ToJSON(); err == nil {
				h.trySend(c, data)
			}

		case c := <-h.Unregister:
			h.remove(c)

		case data := <-h.Broadcast:
			h.mu.RLock()
			targets := make([]*Client, 0, len(h.clients))
			for _, c := range h.clients {
				targets = append(targets, c)
			}
			h.mu.RUnlock()

			for _, c := range targets {
				h.trySend(c, data)
			}
		}
	}
}

// trySend drops a client whose buffer is full instead of stalling the hub.
func (h *Hub) trySend(c *Client, data []byte) {
	select {
	case c.SendChannel <- data:
	default:
		h.logger.Warn("ws_client_too_slow", "client_id", c.ID)
		h.remove(c)
	}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.ID]; !ok {
		return
	}
	delete(h.clients, c.ID)
	close(c.SendChannel)
	h.logger.Info("ws_client_unregistered", "client_id", c.ID)
}

// Publish queues a snapshot for every session. It never blocks the caller;
// when the queue is full the frame is skipped since the next one supersedes it.
// Snapshots older than one already queued are dropped.
func (h *Hub) Publish(snap notification.Snapshot) {
	h.publishMu.Lock()
	defer h.publishMu.Unlock()

	if snap.Version != 0 && snap.Version <= h.lastVersion {
		h.logger.Debug("ws_broadcast_stale", "version", snap.Version, "last_version", h.lastVersion)
		return
	}

	data, err := NewSnapshotMessage(snap).ToJSON()
	if err != nil {
		return
	}
	select {
	case h.Broadcast <- data:
		h.lastVersion = max(h.lastVersion, snap.Version)
	default:
		h.logger.Warn("ws_broadcast_skipped", "reason", "queue full")
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}
