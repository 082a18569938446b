package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// channelProcessing is the Redis pub/sub channel for processing events. Using
// Redis rather than an in-process channel lets webhook handling and websocket
// serving live in different instances.
const channelProcessing = "videos:processing"

// PubSub publishes and subscribes processing events over Redis.
type PubSub struct {
	client *redis.Client
	logger *zap.Logger
}

// NewPubSub creates a Redis-backed event bus.
func NewPubSub(client *redis.Client, logger *zap.Logger) *PubSub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PubSub{client: client, logger: logger}
}

// PublishProcessing publishes a processing event.
func (p *PubSub) PublishProcessing(ctx context.Context, ev ProcessingEvent) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.client.Publish(ctx, channelProcessing, raw).Err(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Subscribe delivers processing events to fn until ctx is done.
func (p *PubSub) Subscribe(ctx context.Context, fn func(ProcessingEvent)) {
	sub := p.client.Subscribe(ctx, channelProcessing)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev ProcessingEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				p.logger.Warn("invalid processing event", zap.String("payload", msg.Payload), zap.Error(err))
				continue
			}
			fn(ev)
		}
	}
}
