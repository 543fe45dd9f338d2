package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/stoneyard/shipment-bot/internal/form"
)

const keyPrefix = "shipment_conversation:"

// Redis is a Store backed by Redis keys that expire ttl after the last save.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

var _ Store = (*Redis)(nil)

// NewRedis creates a Redis store.
func NewRedis(client *redis.Client, ttl time.Duration, logger *zap.Logger) *Redis {
	return &Redis{
		client: client,
		ttl:    ttl,
		logger: logger.Named("RedisSessionStore"),
	}
}

func key(id string) string {
	return keyPrefix + id
}

func (r *Redis) Load(ctx context.Context, id string) (*form.Conversation, error) {
	data, err := r.client.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return form.NewConversation(id), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation %s: %w", id, err)
	}

	var c form.Conversation
	if err := json.Unmarshal(data, &c); err != nil {
		r.logger.Warn("dropping undecodable conversation", zap.String("conversation", id), zap.Error(err))
		return form.NewConversation(id), nil
	}
	return &c, nil
}

func (r *Redis) Save(ctx context.Context, c *form.Conversation) error {
	c.UpdatedAt = time.Now()
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode conversation %s: %w", c.ID, err)
	}
	if err := r.client.Set(ctx, key(c.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save conversation %s: %w", c.ID, err)
	}
	r.logger.Debug("conversation saved", zap.String("conversation", c.ID), zap.String("step", string(c.Step)))
	return nil
}

func (r *Redis) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, key(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete conversation %s: %w", id, err)
	}
	return nil
}
