package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/alexmorales/GeoTolu/internal/domain/entities"
	"github.com/alexmorales/GeoTolu/internal/domain/providers"
	redisclient "github.com/alexmorales/GeoTolu/internal/infrastructure/clients/redis"
)

// RedisEventBus implements the EventBus interface using Redis Pub/Sub, so
// every API instance sees the events logged by the others.
type RedisEventBus struct {
	client  redis.UniversalClient
	channel string
	subs    *fanout

	mu     sync.Mutex
	pubsub *redis.PubSub
}

// NewRedisEventBus creates a new Redis-based event bus
func NewRedisEventBus(client *redisclient.Client) *RedisEventBus {
	return NewRedisEventBusFromClient(client.Client(), providers.EventChannelSearchEvents)
}

// NewRedisEventBusFromClient creates a bus on an arbitrary channel.
func NewRedisEventBusFromClient(client redis.UniversalClient, channel string) *RedisEventBus {
	return &RedisEventBus{
		client:  client,
		channel: channel,
		subs:    newFanout(),
	}
}

var _ providers.EventBus = (*RedisEventBus)(nil)

// Publish publishes an event to all subscribers
func (b *RedisEventBus) Publish(ctx context.Context, event *entities.SearchEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal search event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish search event: %w", err)
	}
	return nil
}

// Subscribe registers a local subscriber. The Redis subscription is opened
// with the first one and shared by all.
func (b *RedisEventBus) Subscribe(ctx context.Context) (<-chan *entities.SearchEvent, error) {
	ch, err := b.subs.add(ctx)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pubsub == nil {
		b.pubsub = b.client.Subscribe(context.Background(), b.channel)
		go b.receiveMessages(b.pubsub.Channel())
		log.Info().Str("channel", b.channel).Msg("subscribed to search event channel")
	}
	return ch, nil
}

func (b *RedisEventBus) receiveMessages(ch <-chan *redis.Message) {
	for msg := range ch {
		var event entities.SearchEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			log.Warn().Err(err).Str("channel", b.channel).Msg("failed to unmarshal search event")
			continue
		}
		b.subs.broadcast(&event)
	}
}

// Close closes the event bus and all subscriptions
func (b *RedisEventBus) Close() error {
	b.subs.close()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pubsub == nil {
		return nil
	}
	err := b.pubsub.Close()
	b.pubsub = nil
	if err != nil {
		return fmt.Errorf("failed to close subscription %s: %w", b.channel, err)
	}
	return nil
}
