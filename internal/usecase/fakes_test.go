package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"LPQuant/internal/domain/models"
	domrepo "LPQuant/internal/domain/repository"
	"LPQuant/pkg/cache"
)

type memStore struct {
	mu        sync.Mutex
	swaps     map[string]*models.Swap
	bars      map[string]models.Bar
	cursor    string
	barReads  int
	insertErr error
}

var _ domrepo.SwapStore = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{swaps: map[string]*models.Swap{}, bars: map[string]models.Bar{}}
}

func (s *memStore) Init(context.Context) error { return nil }

func (s *memStore) InsertSwaps(_ context.Context, swaps []*models.Swap) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return 0, s.insertErr
	}
	n := 0
	for _, sw := range swaps {
		k := fmt.Sprintf("%s:%d", sw.TxDigest, sw.EventSeq)
		if _, ok := s.swaps[k]; ok {
			continue
		}
		cp := *sw
		s.swaps[k] = &cp
		n++
	}
	return n, nil
}

func (s *memStore) UpsertBars(_ context.Context, bars []models.Bar) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range bars {
		s.bars[fmt.Sprintf("%s|%s|%d", b.PoolID, b.Interval, b.OpenTime)] = b
	}
	return nil
}

func (s *memStore) GetBars(_ context.Context, poolID string, iv domrepo.Interval, from, to time.Time, limit int) ([]models.Bar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.barReads++
	var out []models.Bar
	for _, b := range s.bars {
		if b.PoolID != poolID || b.Interval != string(iv) {
			continue
		}
		if !from.IsZero() && b.OpenTime < from.UnixMilli() {
			continue
		}
		if !to.IsZero() && b.OpenTime > to.UnixMilli() {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OpenTime < out[j].OpenTime })
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *memStore) GetSwaps(_ context.Context, poolID string, from, to time.Time) ([]*models.Swap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Swap
	for _, sw := range s.swaps {
		if sw.PoolID != poolID {
			continue
		}
		if !from.IsZero() && sw.TimestampMs < from.UnixMilli() {
			continue
		}
		if !to.IsZero() && sw.TimestampMs >= to.UnixMilli() {
			continue
		}
		cp := *sw
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TimestampMs != out[j].TimestampMs {
			return out[i].TimestampMs < out[j].TimestampMs
		}
		return out[i].EventSeq < out[j].EventSeq
	})
	return out, nil
}

func (s *memStore) GetCursor(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor, nil
}

func (s *memStore) SetCursor(_ context.Context, c string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = c
	return nil
}

func (s *memStore) Stats(context.Context) (*models.IndexerStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &models.IndexerStats{TotalEvents: int64(len(s.swaps)), Cursor: s.cursor}, nil
}

func (s *memStore) Health(context.Context) error { return nil }
func (s *memStore) Close() error                 { return nil }

func (s *memStore) barCount(poolID string, iv domrepo.Interval) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.bars {
		if b.PoolID == poolID && b.Interval == string(iv) {
			n++
		}
	}
	return n
}

type fakeMetrics struct {
	mu       sync.Mutex
	ingested map[string]int
	errors   map[string]int
	prices   map[string]float64
}

var _ domrepo.Metrics = (*fakeMetrics)(nil)

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{ingested: map[string]int{}, errors: map[string]int{}, prices: map[string]float64{}}
}

func (m *fakeMetrics) RecordSwapsIngested(backend, poolID string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ingested[backend+"|"+poolID] += n
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *fakeMetrics) RecordLastPrice(poolID string, price float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices[poolID] = price
}

func (m *fakeMetrics) RecordLatency(string, float64) {}

func (m *fakeMetrics) errorCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

type fakePublisher struct {
	mu     sync.Mutex
	sent   []*models.Swap
	err    error
	closed bool
}

func (p *fakePublisher) Publish(ctx context.Context, s *models.Swap) error {
	return p.PublishBatch(ctx, []*models.Swap{s})
}

func (p *fakePublisher) PublishBatch(_ context.Context, swaps []*models.Swap) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, swaps...)
	return nil
}

func (p *fakePublisher) Close() error {
	p.closed = true
	return nil
}

// pagedSource serves fixed pages keyed by the cursor they follow.
type pagedSource struct {
	mu      sync.Mutex
	pages   map[string]*models.EventPage
	cursors []string
	failOn  string
}

var errSourceDown = errors.New("source down")

func (s *pagedSource) FetchEvents(_ context.Context, _ string, cursor string, _ int) (*models.EventPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursors = append(s.cursors, cursor)
	if s.failOn != "" && cursor == s.failOn {
		return nil, errSourceDown
	}
	if p, ok := s.pages[cursor]; ok {
		return p, nil
	}
	return &models.EventPage{EndCursor: cursor}, nil
}

type invalidations struct {
	mu    sync.Mutex
	pools []string
}

func (i *invalidations) Invalidate(_ context.Context, poolID string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.pools = append(i.pools, poolID)
}

// countingLocker records the most concurrent holders it has seen.
type countingLocker struct {
	*cache.MemoryCache
	held    atomic.Int32
	maxHeld atomic.Int32
}

func (c *countingLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := c.MemoryCache.TryLock(ctx, key, ttl)
	if ok {
		n := c.held.Add(1)
		for {
			m := c.maxHeld.Load()
			if n <= m || c.maxHeld.CompareAndSwap(m, n) {
				break
			}
		}
		// widen the window so overlapping holders would be observed
		time.Sleep(time.Millisecond)
	}
	return ok, err
}

func (c *countingLocker) Unlock(ctx context.Context, key string) error {
	c.held.Add(-1)
	return c.MemoryCache.Unlock(ctx, key)
}

type brokenLocker struct{}

func (brokenLocker) TryLock(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("redis: connection refused")
}

func (brokenLocker) Unlock(context.Context, string) error { return nil }
