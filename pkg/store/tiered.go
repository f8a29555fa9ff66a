package store

import (
	"context"

	"go.uber.org/zap"

	"github.com/jordigilh/imagewave/pkg/obslog"
)

// TieredStore is the SignalStore the orchestrator actually talks to: a
// Redis-backed cache in front of the Postgres durable store. Per spec
// §7's StoreFailure rule, any cache error is logged and bypassed rather
// than propagated — a down Redis degrades to durable-only, never aborts
// analysis.
type TieredStore struct {
	cache   *RedisCache
	durable *PostgresStore
	logger  *zap.Logger
}

func NewTieredStore(cache *RedisCache, durable *PostgresStore, logger *zap.Logger) *TieredStore {
	return &TieredStore{cache: cache, durable: durable, logger: logger}
}

func (t *TieredStore) GetProfile(ctx context.Context, sha256 string) (*Profile, bool, error) {
	if t.cache != nil {
		if p, ok, err := t.cache.GetProfile(ctx, sha256); err != nil {
			t.logger.Warn("cache bypass on profile read", obslog.StoreFields("get_profile", sha256).Error(err).ToZap()...)
		} else if ok {
			return p, true, nil
		}
	}
	p, ok, err := t.durable.GetProfile(ctx, sha256)
	if err != nil || !ok {
		return p, ok, err
	}
	if t.cache != nil {
		if err := t.cache.PutProfile(ctx, *p); err != nil {
			t.logger.Warn("cache bypass on profile backfill", obslog.StoreFields("backfill_profile", sha256).Error(err).ToZap()...)
		}
	}
	return p, true, nil
}

func (t *TieredStore) PutProfile(ctx context.Context, profile Profile) error {
	if err := t.durable.PutProfile(ctx, profile); err != nil {
		return err
	}
	if t.cache != nil {
		if err := t.cache.PutProfile(ctx, profile); err != nil {
			t.logger.Warn("cache bypass on profile write", obslog.StoreFields("put_profile", profile.SHA256).Error(err).ToZap()...)
		}
	}
	return nil
}

func (t *TieredStore) GetRoutingDecision(ctx context.Context, sha256 string) (*RoutingDecision, bool, error) {
	if t.cache != nil {
		if d, ok, err := t.cache.GetRoutingDecision(ctx, sha256); err != nil {
			t.logger.Warn("cache bypass on routing read", obslog.StoreFields("get_routing", sha256).Error(err).ToZap()...)
		} else if ok {
			return d, true, nil
		}
	}
	d, ok, err := t.durable.GetRoutingDecision(ctx, sha256)
	if err != nil || !ok {
		return d, ok, err
	}
	if t.cache != nil {
		if err := t.cache.PutRoutingDecision(ctx, *d); err != nil {
			t.logger.Warn("cache bypass on routing backfill", obslog.StoreFields("backfill_routing", sha256).Error(err).ToZap()...)
		}
	}
	return d, true, nil
}

func (t *TieredStore) PutRoutingDecision(ctx context.Context, decision RoutingDecision) error {
	if err := t.durable.PutRoutingDecision(ctx, decision); err != nil {
		return err
	}
	if t.cache != nil {
		if err := t.cache.PutRoutingDecision(ctx, decision); err != nil {
			t.logger.Warn("cache bypass on routing write", obslog.StoreFields("put_routing", decision.SHA256).Error(err).ToZap()...)
		}
	}
	return nil
}

func (t *TieredStore) RecordFeedback(ctx context.Context, fb Feedback) error {
	return t.durable.RecordFeedback(ctx, fb)
}
