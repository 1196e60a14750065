package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"schooladmin/internal/metrics"
	"schooladmin/internal/notification"
)

// ErrRetriesExhausted is returned by Run once the reconnection budget is spent.
var ErrRetriesExhausted = errors.New("push channel retries exhausted")

const TransportWebsocket = "websocket"

// EventSink receives decoded push events.
type EventSink interface {
	Apply(ev notification.Event) (bool, error)
}

type PushConfig struct {
	URL           string
	Token         string
	MaxRetries    int           // failed dials tolerated after the first one
	RetryInterval time.Duration // fixed delay between dials
	Dialer        *websocket.Dialer
}

// PushClient consumes the upstream event stream. Transport errors never reach
// the sink; they only drive the connection state.
type PushClient struct {
	cfg     PushConfig
	sink    EventSink
	onState func(notification.ConnectionState)
	logger  *slog.Logger

	mu    sync.RWMutex
	state notification.ConnectionState
}

func NewPushClient(cfg PushConfig, sink EventSink, logger *slog.Logger, onState func(notification.ConnectionState)) *PushClient {
	if cfg.Dialer == nil {
		cfg.Dialer = &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 10 * time.Second,
		}
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 3 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &PushClient{
		cfg:     cfg,
		sink:    sink,
		onState: onState,
		logger:  logger,
	}
}

func (p *PushClient) State() notification.ConnectionState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

func (p *PushClient) setState(s notification.ConnectionState) {
	p.mu.Lock()
	changed := p.state != s
	p.state = s
	p.mu.Unlock()

	if !changed {
		return
	}
	p.logger.Info("push_state_changed", "state", s.String())
	if p.onState != nil {
		p.onState(s)
	}
}

// Run dials, consumes and redials until ctx is cancelled (returns nil) or the
// consecutive dial failures exceed MaxRetries (returns ErrRetriesExhausted).
// A successful dial resets the failure count.
func (p *PushClient) Run(ctx context.Context) error {
	header := http.Header{}
	if p.cfg.Token != "" {
		header.Set("Authorization", "Bearer "+p.cfg.Token)
	}

	failures := 0
	p.setState(notification.Disconnected)

	for {
		if ctx.Err() != nil {
			p.setState(notification.Disconnected)
			return nil
		}

		conn, _, err := p.cfg.Dialer.DialContext(ctx, p.cfg.URL, header)
		if err != nil {
			if ctx.Err() != nil {
				p.setState(notification.Disconnected)
				return nil
			}
			failures++
			p.logger.Warn("push_dial_failed", "url", p.cfg.URL, "attempt", failures, "error", err)
			if failures > p.cfg.MaxRetries {
				p.setState(notification.Exhausted)
				return fmt.Errorf("%w after %d attempts", ErrRetriesExhausted, failures)
			}
			metrics.PushReconnectAttempts.Inc()
			if !p.wait(ctx) {
				p.setState(notification.Disconnected)
				return nil
			}
			continue
		}

		failures = 0
		p.setState(notification.Connected)
		err = p.consume(ctx, conn)
		p.setState(notification.Disconnected)

		if ctx.Err() != nil {
			return nil
		}
		p.logger.Warn("push_connection_lost", "error", err)
		metrics.PushReconnectAttempts.Inc()
		if !p.wait(ctx) {
			return nil
		}
	}
}

func (p *PushClient) wait(ctx context.Context) bool {
	t := time.NewTimer(p.cfg.RetryInterval)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// consume reads frames until the connection fails or ctx is cancelled.
func (p *PushClient) consume(ctx context.Context, conn *websocket.Conn) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(WriteWait))
			conn.Close()
		case <-stop:
			conn.Close()
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		p.handle(data)
	}
}

func (p *PushClient) handle(data []byte) {
	ev, err := notification.DecodeEvent(data)
	if err == nil {
		_, err = p.sink.Apply(ev)
	}
	if err != nil {
		reason := notification.DropReason(err)
		metrics.EventsDropped.WithLabelValues(TransportWebsocket, reason).Inc()
		p.logger.Warn("push_event_dropped", "reason", reason, "error", err)
	}
}
