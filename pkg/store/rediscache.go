package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jordigilh/imagewave/pkg/xerrors"
)

// RedisCache is the Redis-backed cache fronting PostgresStore, holding
// both full profiles and routing decisions. Every entry expires after the
// single ttl passed to the constructor; routing decisions get no TTL of
// their own, and this package sets no entry-count limit, so any bound
// beyond the TTL comes from the Redis server's eviction settings.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(addr string, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
	}
}

// NewRedisCacheFromClient wraps an already-constructed client, used by
// tests against miniredis.
func NewRedisCacheFromClient(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

const profileKeyPrefix = "imagewave:profile:"
const routingKeyPrefix = "imagewave:routing:"

func (c *RedisCache) GetProfile(ctx context.Context, sha256 string) (*Profile, bool, error) {
	data, err := c.client.Get(ctx, profileKeyPrefix+sha256).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, xerrors.StoreFailure("cache_get_profile", err)
	}
	signals, err := DecodeProfile(data)
	if err != nil {
		return nil, false, xerrors.StoreFailure("cache_decode_profile", err)
	}
	return &Profile{SHA256: sha256, Signals: signals}, true, nil
}

func (c *RedisCache) PutProfile(ctx context.Context, profile Profile) error {
	data := EncodeProfile(profile.Signals)
	if err := c.client.Set(ctx, profileKeyPrefix+profile.SHA256, data, c.ttl).Err(); err != nil {
		return xerrors.StoreFailure("cache_put_profile", err)
	}
	return nil
}

func (c *RedisCache) GetRoutingDecision(ctx context.Context, sha256 string) (*RoutingDecision, bool, error) {
	vals, err := c.client.HGetAll(ctx, routingKeyPrefix+sha256).Result()
	if err != nil {
		return nil, false, xerrors.StoreFailure("cache_get_routing", err)
	}
	if len(vals) == 0 {
		return nil, false, nil
	}
	decidedAt, _ := time.Parse(time.RFC3339Nano, vals["decided_at"])
	return &RoutingDecision{
		SHA256:    sha256,
		Route:     vals["route"],
		TextTier:  vals["text_tier"],
		Reason:    vals["reason"],
		DecidedAt: decidedAt,
	}, true, nil
}

func (c *RedisCache) PutRoutingDecision(ctx context.Context, decision RoutingDecision) error {
	key := routingKeyPrefix + decision.SHA256
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"route":      decision.Route,
		"text_tier":  decision.TextTier,
		"reason":     decision.Reason,
		"decided_at": decision.DecidedAt.Format(time.RFC3339Nano),
	})
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return xerrors.StoreFailure("cache_put_routing", err)
	}
	return nil
}
