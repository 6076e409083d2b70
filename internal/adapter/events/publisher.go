// Package events announces accepted sale transitions to interested listeners.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/polkiloo/samplestore/internal/domain/model"
)

const channelPrefix = "samplestore:transitions:"

// Publisher emits a TransitionEvent after the reconciler commits.
type Publisher interface {
	Publish(ctx context.Context, event model.TransitionEvent) error
}

// Channel names the pub/sub channel of one identity key.
func Channel(key string) string {
	return channelPrefix + key
}

// RedisPublisher fans events out over Redis pub/sub, one channel per identity key.
type RedisPublisher struct {
	client redis.UniversalClient
}

func NewRedisPublisher(client redis.UniversalClient) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, event model.TransitionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode transition: %w", err)
	}
	if err := p.client.Publish(ctx, Channel(event.Key), payload).Err(); err != nil {
		return fmt.Errorf("publish transition: %w", err)
	}
	return nil
}

// NopPublisher drops events; used when Redis is not configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, model.TransitionEvent) error { return nil }
