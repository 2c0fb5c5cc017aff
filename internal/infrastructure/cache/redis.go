package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"fixitnow/internal/config"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var ErrUnavailable = errors.New("redis unavailable")

// Redis is a thin JSON cache and lock store. A nil client means redis was
// unreachable at boot; every call then degrades to a miss or no-op.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger

	warnedUnavailable atomic.Bool
}

func NewRedis(cfg config.RedisConfig, log zerolog.Logger) *Redis {
	log = log.With().Str("component", "cache").Logger()

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", strings.TrimSpace(cfg.Host), strings.TrimSpace(cfg.Port)),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis unavailable, bypassing cache")
		_ = client.Close()
		return &Redis{ttl: ttl, log: log}
	}

	log.Info().Str("addr", client.Options().Addr).Msg("redis connected")
	return &Redis{client: client, ttl: ttl, log: log}
}

// NewFromClient wraps an existing client; nil yields a bypassing cache.
func NewFromClient(client *redis.Client, ttl time.Duration, log zerolog.Logger) *Redis {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Redis{client: client, ttl: ttl, log: log}
}

func (r *Redis) isUnavailable() bool {
	return r == nil || r.client == nil
}

func (r *Redis) warnUnavailableOnce(err error) {
	if r.warnedUnavailable.CompareAndSwap(false, true) {
		r.log.Warn().Err(err).Msg("redis call failed, bypassing cache")
	}
}

// Client exposes the underlying client for pub/sub. It is nil when redis
// is unavailable.
func (r *Redis) Client() *redis.Client {
	if r == nil {
		return nil
	}
	return r.client
}

func (r *Redis) Ping(ctx context.Context) error {
	if r.isUnavailable() {
		return ErrUnavailable
	}
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	if r.isUnavailable() {
		return nil
	}
	return r.client.Close()
}

func (r *Redis) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	if r.isUnavailable() {
		return false, nil
	}
	b, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		r.warnUnavailableOnce(err)
		return false, err
	}
	if len(b) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Redis) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	if r.isUnavailable() {
		return nil
	}
	if ttl <= 0 {
		ttl = r.ttl
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, key, b, ttl).Err(); err != nil {
		r.warnUnavailableOnce(err)
		return err
	}
	return nil
}

// Set writes key unconditionally, replacing any TTL already on it.
func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if r.isUnavailable() {
		return ErrUnavailable
	}
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		r.warnUnavailableOnce(err)
		return err
	}
	return nil
}

func (r *Redis) SetIfNotExists(ctx context.Context, key string, value string, ttl time.Duration) (bool, error) {
	if r.isUnavailable() {
		return false, ErrUnavailable
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	ok, err := r.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		r.warnUnavailableOnce(err)
		return false, err
	}
	return ok, nil
}

func (r *Redis) Exists(ctx context.Context, key string) (bool, error) {
	if r.isUnavailable() {
		return false, ErrUnavailable
	}
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		r.warnUnavailableOnce(err)
		return false, err
	}
	return n > 0, nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if r.isUnavailable() {
		return nil
	}
	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.warnUnavailableOnce(err)
		return err
	}
	return nil
}

func (r *Redis) DeleteByPattern(ctx context.Context, pattern string) error {
	if r.isUnavailable() {
		return nil
	}
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil
	}
	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		k := iter.Val()
		if err := r.client.Del(ctx, k).Err(); err != nil {
			r.log.Warn().Err(err).Str("key", k).Str("pattern", pattern).Msg("redis delete failed")
		}
	}
	return iter.Err()
}
