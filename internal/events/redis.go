package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const defaultChannelPrefix = "admin:events:"

// RedisPublisher fans events out over redis pub/sub, one channel per event name.
type RedisPublisher struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisPublisher constructs a redis-backed publisher.
func NewRedisPublisher(client redis.UniversalClient, channelPrefix string) (*RedisPublisher, error) {
	if client == nil {
		return nil, errors.New("events: redis client is required")
	}
	if channelPrefix == "" {
		channelPrefix = defaultChannelPrefix
	}
	return &RedisPublisher{client: client, prefix: channelPrefix}, nil
}

// Channel returns the pub/sub channel used for events called name.
func (p *RedisPublisher) Channel(name string) string {
	return p.prefix + name
}

// Forward implements Forwarder.
func (p *RedisPublisher) Forward(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("events: marshal %s: %w", evt.Name, err)
	}
	if err := p.client.Publish(ctx, p.Channel(evt.Name), payload).Err(); err != nil {
		return fmt.Errorf("events: publish %s: %w", evt.Name, err)
	}
	return nil
}

// Dispatch lets the publisher stand in wherever a Dispatcher is expected.
func (p *RedisPublisher) Dispatch(ctx context.Context, evt Event) error {
	return p.Forward(ctx, evt)
}

// subscribe returns a subscription to events called name. Callers close it.
func (p *RedisPublisher) subscribe(ctx context.Context, name string) *redis.PubSub {
	return p.client.Subscribe(ctx, p.Channel(name))
}

// decode parses a pub/sub message produced by Forward.
func decode(msg *redis.Message) (Event, error) {
	var evt Event
	if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
		return Event{}, fmt.Errorf("events: decode message: %w", err)
	}
	return evt, nil
}
