package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/jpalmerr/envmon/internal/state"
)

// RedisConfig configures a [RedisSink].
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	// Key holds the latest message; empty skips the SET.
	Key string
	// TTL expires Key; zero keeps it forever.
	TTL time.Duration
	// Channel receives every message; empty skips the PUBLISH.
	Channel string

	Device string
}

// redisClient is the part of *redis.Client the sink uses.
type redisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Close() error
}

// RedisSink stores the latest snapshot and broadcasts every one.
type RedisSink struct {
	cfg    RedisConfig
	client redisClient
}

// NewRedisSink creates a [RedisSink] and checks the connection.
func NewRedisSink(ctx context.Context, cfg RedisConfig) (*RedisSink, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis addr is required")
	}
	if cfg.Key == "" && cfg.Channel == "" {
		return nil, errors.New("redis sink needs a key or a channel")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	return newRedisSink(cfg, client), nil
}

func newRedisSink(cfg RedisConfig, client redisClient) *RedisSink {
	return &RedisSink{cfg: cfg, client: client}
}

// Name implements [Sink].
func (s *RedisSink) Name() string { return "redis" }

// Publish implements [Sink].
func (s *RedisSink) Publish(ctx context.Context, snap state.Snapshot) error {
	payload, err := encode(s.cfg.Device, snap)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	if s.cfg.Key != "" {
		if err := s.client.Set(ctx, s.cfg.Key, payload, s.cfg.TTL).Err(); err != nil {
			return fmt.Errorf("redis set %s: %w", s.cfg.Key, err)
		}
	}
	if s.cfg.Channel != "" {
		if err := s.client.Publish(ctx, s.cfg.Channel, payload).Err(); err != nil {
			return fmt.Errorf("redis publish %s: %w", s.cfg.Channel, err)
		}
	}
	return nil
}

// Close implements [Sink].
func (s *RedisSink) Close() error {
	return s.client.Close()
}
