package pubsub

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"schooladmin/internal/config"
	"schooladmin/internal/metrics"
	"schooladmin/internal/notification"
)

const TransportRedis = "redis"

// EventSink receives decoded events.
type EventSink interface {
	Apply(ev notification.Event) (bool, error)
}

// NewRedisClient builds a client from REDIS_URL and verifies the connection.
func NewRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if cfg.RedisPassword != "" {
		opts.Password = cfg.RedisPassword
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return rdb, nil
}

// RedisSource feeds events published on a redis channel into the aggregator.
// Frames use the same envelope as the websocket push channel.
type RedisSource struct {
	client  *redis.Client
	channel string
	sink    EventSink
	logger  *slog.Logger
	ready   chan struct{}
}

func NewRedisSource(client *redis.Client, channel string, sink EventSink, logger *slog.Logger) *RedisSource {
	return &RedisSource{
		client:  client,
		channel: channel,
		sink:    sink,
		logger:  logger,
		ready:   make(chan struct{}),
	}
}

// Ready is closed once the subscription is confirmed by the server.
func (s *RedisSource) Ready() <-chan struct{} {
	return s.ready
}

// Run subscribes and applies messages until ctx is cancelled.
func (s *RedisSource) Run(ctx context.Context) error {
	sub := s.client.Subscribe(ctx, s.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", s.channel, err)
	}
	close(s.ready)
	s.logger.Info("redis_source_subscribed", "channel", s.channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			s.handle([]byte(msg.Payload))
		}
	}
}

func (s *RedisSource) handle(data []byte) {
	ev, err := notification.DecodeEvent(data)
	if err == nil {
		_, err = s.sink.Apply(ev)
	}
	if err != nil {
		reason := notification.DropReason(err)
		metrics.EventsDropped.WithLabelValues(TransportRedis, reason).Inc()
		s.logger.Warn("redis_event_dropped", "channel", s.channel, "reason", reason, "error", err)
	}
}

// Publish encodes ev into its envelope and publishes it on channel.
func Publish(ctx context.Context, client *redis.Client, channel string, ev notification.Event) error {
	data, err := notification.EncodeEvent(ev)
	if err != nil {
		return err
	}
	if err := client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Name(), err)
	}
	return nil
}
