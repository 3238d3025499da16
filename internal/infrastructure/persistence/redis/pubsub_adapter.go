package redis

import (
	"context"

	"github.com/eduhub/eduhub-analytics/internal/infrastructure/messaging"
)

// ══════════════════════════════════════════════════════════════════════════════
// PUB/SUB ADAPTER
// Bridges the go-redis client to the messaging.RedisClient port so the
// Redis event bus can fan invalidation events out across instances.
// ══════════════════════════════════════════════════════════════════════════════

// PubSubAdapter adapts Cache's Redis client to messaging.RedisClient.
type PubSubAdapter struct {
	cache *Cache
}

// NewPubSubAdapter creates a PubSubAdapter on top of an existing Cache.
func NewPubSubAdapter(cache *Cache) *PubSubAdapter {
	return &PubSubAdapter{cache: cache}
}

// Publish sends a message to a channel.
func (a *PubSubAdapter) Publish(ctx context.Context, channel string, message interface{}) error {
	return a.cache.Client().Publish(ctx, channel, message).Err()
}

// Subscribe subscribes to channels and converts messages to the port type.
// The returned channel closes when ctx is cancelled.
func (a *PubSubAdapter) Subscribe(ctx context.Context, channels ...string) (<-chan messaging.RedisMessage, error) {
	pubsub := a.cache.Client().Subscribe(ctx, channels...)

	// Confirm the subscription before returning.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	out := make(chan messaging.RedisMessage)
	go func() {
		defer close(out)
		defer pubsub.Close()

		src := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-src:
				if !ok {
					return
				}
				select {
				case out <- messaging.RedisMessage{Channel: msg.Channel, Payload: msg.Payload}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Close is a no-op: the underlying client is owned by Cache.
func (a *PubSubAdapter) Close() error {
	return nil
}
