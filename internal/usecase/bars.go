package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"LPQuant/internal/domain/models"
	domrepo "LPQuant/internal/domain/repository"
	"LPQuant/pkg/cache"
	"LPQuant/pkg/config"
	applogger "LPQuant/pkg/logger"
	"LPQuant/pkg/util"
)

const (
	DefaultBarsLimit = 500
	MaxBarsLimit     = 5000

	barsCachePrefix = "bars"
)

// PoolDirectory resolves configured pools.
type PoolDirectory interface {
	Pool(id string) (config.PoolConfig, bool)
}

// BarsUseCase serves stored OHLCV bars with a cache-aside read.
type BarsUseCase struct {
	store domrepo.SwapStore
	pools PoolDirectory
	cache cache.Service
	ttl   time.Duration
	l     *applogger.Logger
}

// NewBarsUseCase builds the reader. c may be nil to disable caching.
func NewBarsUseCase(store domrepo.SwapStore, pools PoolDirectory, c cache.Service, ttl time.Duration, l *applogger.Logger) *BarsUseCase {
	if l == nil {
		l = applogger.Nop()
	}
	return &BarsUseCase{store: store, pools: pools, cache: c, ttl: ttl, l: l}
}

type GetBarsParams struct {
	PoolID   string
	Interval string
	From     time.Time
	To       time.Time
	Limit    int
}

type GetBarsResult struct {
	PoolID   string
	Interval domrepo.Interval
	Pool     config.PoolConfig
	Bars     []models.Bar
}

func (uc *BarsUseCase) GetBars(ctx context.Context, p GetBarsParams) (*GetBarsResult, error) {
	pool, ok := uc.pools.Pool(p.PoolID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domrepo.ErrPoolNotFound, p.PoolID)
	}
	iv := domrepo.Interval(p.Interval)
	if p.Interval == "" {
		iv = domrepo.DefaultInterval()
	}
	if !domrepo.IsValidInterval(iv) {
		return nil, fmt.Errorf("%w: unsupported interval %q", ErrInvalidInput, p.Interval)
	}
	if !p.From.IsZero() && !p.To.IsZero() && p.From.After(p.To) {
		return nil, fmt.Errorf("%w: from must be <= to", ErrInvalidInput)
	}
	p.Limit = clampLimit(p.Limit)

	poolID := util.NormalizeHexID(pool.PoolID)
	key := barsCacheKey(poolID, iv, p.From, p.To, p.Limit)

	var bars []models.Bar
	if uc.cache != nil {
		err := uc.cache.Get(ctx, key, &bars)
		if err == nil {
			return &GetBarsResult{PoolID: poolID, Interval: iv, Pool: pool, Bars: bars}, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			uc.l.Warn("bars cache read failed", applogger.String("key", key), applogger.Error(err))
		}
	}

	bars, err := uc.store.GetBars(ctx, poolID, iv, p.From, p.To, p.Limit)
	if err != nil {
		uc.l.Error("get bars failed",
			applogger.String("pool_id", poolID),
			applogger.String("interval", string(iv)),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("get bars: %w", err)
	}
	if bars == nil {
		bars = []models.Bar{}
	}

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, key, bars, uc.ttl); err != nil {
			uc.l.Warn("bars cache write failed", applogger.String("key", key), applogger.Error(err))
		}
	}
	return &GetBarsResult{PoolID: poolID, Interval: iv, Pool: pool, Bars: bars}, nil
}

// Invalidate drops every cached bars read of a pool.
func (uc *BarsUseCase) Invalidate(ctx context.Context, poolID string) {
	if uc == nil || uc.cache == nil {
		return
	}
	pattern := cache.BuildPattern(cache.GenerateKey(barsCachePrefix, util.NormalizeHexID(poolID)) + ":")
	if err := uc.cache.DeleteByPattern(ctx, pattern); err != nil {
		uc.l.Warn("bars cache invalidate failed", applogger.String("pool_id", poolID), applogger.Error(err))
	}
}

func clampLimit(n int) int {
	if n <= 0 {
		return DefaultBarsLimit
	}
	if n > MaxBarsLimit {
		return MaxBarsLimit
	}
	return n
}

func barsCacheKey(poolID string, iv domrepo.Interval, from, to time.Time, limit int) string {
	var f, t int64
	if !from.IsZero() {
		f = from.UnixMilli()
	}
	if !to.IsZero() {
		t = to.UnixMilli()
	}
	return cache.GenerateKeyWithParams(barsCachePrefix, poolID, iv, f, t, limit)
}
