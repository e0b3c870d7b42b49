package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"LPQuant/internal/domain/models"
	domrepo "LPQuant/internal/domain/repository"
	"LPQuant/internal/services/indexer"
	"LPQuant/pkg/cache"
	applogger "LPQuant/pkg/logger"
	"LPQuant/pkg/util"
)

const (
	barsLockPrefix  = "lock:bars"
	barsLockTTL     = 2 * time.Minute
	barsLockWait    = time.Minute
	barsLockBackoff = 50 * time.Millisecond
)

// ErrPoolBusy is returned when another builder holds a pool's bars lock past
// the wait budget.
var ErrPoolBusy = errors.New("pool bars are locked by another builder")

// PoolLocker is the lock subset of cache.Service. With a Redis backed cache
// the lock also holds across processes, e.g. the CLI rebuild and the poller.
type PoolLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

type BarBuilderOption func(*BarBuilder)

// WithPoolLocker serialises bar writes per pool. wait <= 0 uses the default.
func WithPoolLocker(lk PoolLocker, wait time.Duration) BarBuilderOption {
	return func(b *BarBuilder) {
		b.lock = lk
		if wait > 0 {
			b.lockWait = wait
		}
	}
}

// BarsInvalidator is notified after a pool's bars change.
type BarsInvalidator interface {
	Invalidate(ctx context.Context, poolID string)
}

// BarBuilder keeps stored OHLCV bars in step with stored swaps.
type BarBuilder struct {
	store     domrepo.SwapStore
	intervals []domrepo.Interval
	inv       BarsInvalidator
	lock      PoolLocker
	lockWait  time.Duration
	l         *applogger.Logger
}

func NewBarBuilder(store domrepo.SwapStore, inv BarsInvalidator, l *applogger.Logger, opts ...BarBuilderOption) *BarBuilder {
	if l == nil {
		l = applogger.Nop()
	}
	b := &BarBuilder{store: store, intervals: domrepo.Intervals(), inv: inv, lockWait: barsLockWait, l: l}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func barsLockKey(poolID string) string {
	return cache.GenerateKey(barsLockPrefix, poolID)
}

// withPoolLock runs fn while holding the pool's bars lock. Lock backend
// errors are logged and fn runs unlocked, matching the best-effort cache.
func (b *BarBuilder) withPoolLock(ctx context.Context, poolID string, fn func() error) error {
	if b.lock == nil {
		return fn()
	}
	key := barsLockKey(poolID)
	deadline := time.Now().Add(b.lockWait)
	for {
		ok, err := b.lock.TryLock(ctx, key, barsLockTTL)
		if err != nil {
			b.l.Warn("bars lock unavailable, building unlocked",
				applogger.String("pool_id", util.ShortID(poolID)),
				applogger.Error(err),
			)
			return fn()
		}
		if ok {
			break
		}
		if !time.Now().Before(deadline) {
			return fmt.Errorf("%w: %s", ErrPoolBusy, util.ShortID(poolID))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(barsLockBackoff):
		}
	}
	defer func() {
		if err := b.lock.Unlock(context.WithoutCancel(ctx), key); err != nil {
			b.l.Warn("bars unlock failed", applogger.String("pool_id", util.ShortID(poolID)), applogger.Error(err))
		}
	}()
	return fn()
}

// UpdateAffected recomputes, for every interval, the buckets touched by the
// given swaps from everything stored in those buckets. Gaps are not filled.
func (b *BarBuilder) UpdateAffected(ctx context.Context, swaps []*models.Swap) (int, error) {
	total := 0
	for poolID, group := range indexer.GroupByPool(swaps) {
		err := b.withPoolLock(ctx, poolID, func() error {
			for _, iv := range b.intervals {
				from, to := indexer.BucketSpan(group, iv)
				stored, err := b.store.GetSwaps(ctx, poolID, from, to)
				if err != nil {
					return fmt.Errorf("load swaps %s/%s: %w", util.ShortID(poolID), iv, err)
				}
				bars := indexer.AggregateSwaps(stored, iv, false)
				if err := b.store.UpsertBars(ctx, bars); err != nil {
					return fmt.Errorf("upsert bars %s/%s: %w", util.ShortID(poolID), iv, err)
				}
				total += len(bars)
			}
			return nil
		})
		if err != nil {
			return total, err
		}
		if b.inv != nil {
			b.inv.Invalidate(ctx, poolID)
		}
	}
	return total, nil
}

// Rebuild reaggregates a pool's whole swap history for one interval with
// forward-filled gaps.
func (b *BarBuilder) Rebuild(ctx context.Context, poolID string, iv domrepo.Interval) (int, error) {
	if !domrepo.IsValidInterval(iv) {
		return 0, fmt.Errorf("%w: unsupported interval %q", ErrInvalidInput, iv)
	}
	poolID = util.NormalizeHexID(poolID)
	start := time.Now()

	var swaps []*models.Swap
	var bars []models.Bar
	err := b.withPoolLock(ctx, poolID, func() error {
		var err error
		swaps, err = b.store.GetSwaps(ctx, poolID, time.Time{}, time.Time{})
		if err != nil {
			return fmt.Errorf("load swaps: %w", err)
		}
		bars = indexer.AggregateSwaps(swaps, iv, true)
		if err := b.store.UpsertBars(ctx, bars); err != nil {
			return fmt.Errorf("upsert bars: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if b.inv != nil {
		b.inv.Invalidate(ctx, poolID)
	}

	b.l.Info("rebuilt bars",
		applogger.String("pool_id", util.ShortID(poolID)),
		applogger.String("interval", string(iv)),
		applogger.Int("swaps", len(swaps)),
		applogger.Int("bars", len(bars)),
		applogger.Duration("took", time.Since(start)),
	)
	return len(bars), nil
}
