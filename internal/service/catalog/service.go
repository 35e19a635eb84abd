// internal/service/catalog/service.go
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"contracts-service/internal/domain/catalog"
	xerrors "contracts-service/internal/pkg/errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	keyOffers         = "catalog:offers"
	keyPaymentMethods = "catalog:payment_methods"
	keyCoaches        = "catalog:coaches"

	loadTimeout = 10 * time.Second
)

// Source is the authoritative, uncached catalog store.
type Source interface {
	ListOffers(ctx context.Context) ([]catalog.Offer, error)
	ListPaymentMethods(ctx context.Context) ([]catalog.PaymentMethodFee, error)
	ListCoaches(ctx context.Context) ([]catalog.Coach, error)
}

// CatalogService serves the read-only catalogs through a Redis cache. Concurrent misses
// for the same catalog share one source read. Cache failures fall through to the source.
type CatalogService struct {
	source Source
	cache  redis.UniversalClient
	ttl    time.Duration
	group  singleflight.Group
	logger *zap.Logger
}

func NewCatalogService(source Source, cache redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *CatalogService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CatalogService{source: source, cache: cache, ttl: ttl, logger: logger}
}

func (s *CatalogService) ListOffers(ctx context.Context) ([]catalog.Offer, error) {
	return cached(ctx, s, keyOffers, s.source.ListOffers)
}

func (s *CatalogService) ListPaymentMethods(ctx context.Context) ([]catalog.PaymentMethodFee, error) {
	return cached(ctx, s, keyPaymentMethods, s.source.ListPaymentMethods)
}

// FindCoach returns xerrors.ErrNotFound for an unknown coach.
func (s *CatalogService) FindCoach(ctx context.Context, coachID string) (*catalog.Coach, error) {
	coaches, err := cached(ctx, s, keyCoaches, s.source.ListCoaches)
	if err != nil {
		return nil, err
	}
	for i := range coaches {
		if coaches[i].CoachID == coachID {
			c := coaches[i]
			return &c, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

// Invalidate drops every cached catalog so the next read goes to the source.
// Called after the CRM edits offers, fees or coaches.
func (s *CatalogService) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Del(ctx, keyOffers, keyPaymentMethods, keyCoaches).Err()
}

func cached[T any](ctx context.Context, s *CatalogService, key string, load func(context.Context) ([]T, error)) ([]T, error) {
	// The shared read outlives any single caller; each caller still stops waiting on its own ctx.
	ch := s.group.DoChan(key, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()

		if items, ok := s.readCache(loadCtx, key, new([]T)); ok {
			return *items.(*[]T), nil
		}
		items, err := load(loadCtx)
		if err != nil {
			return nil, xerrors.NewStorage("load "+key, err)
		}
		s.writeCache(loadCtx, key, items)
		return items, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]T), nil
	}
}

func (s *CatalogService) readCache(ctx context.Context, key string, dst interface{}) (interface{}, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("catalog cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		s.logger.Warn("catalog cache entry corrupt", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return dst, true
}

func (s *CatalogService) writeCache(ctx context.Context, key string, items interface{}) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		s.logger.Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
}
