package usecase

import (
	"context"
	"fmt"
	"time"

	"LPQuant/internal/domain/models"
	domrepo "LPQuant/internal/domain/repository"
	"LPQuant/internal/services/indexer"
	applogger "LPQuant/pkg/logger"
)

const (
	BackendSQLite     = "sqlite"
	BackendClickHouse = "clickhouse"
	BackendKafka      = "kafka"
)

// SwapProcessor routes parsed swaps to the configured backend.
type SwapProcessor struct {
	pub     domrepo.Publisher
	store   domrepo.SwapStore
	bars    *BarBuilder
	metrics domrepo.Metrics
	backend string
	l       *applogger.Logger
}

// NewSwapProcessor creates a processor. pub may be nil unless backend is kafka.
func NewSwapProcessor(
	pub domrepo.Publisher,
	store domrepo.SwapStore,
	bars *BarBuilder,
	metrics domrepo.Metrics,
	backend string,
	l *applogger.Logger,
) *SwapProcessor {
	if l == nil {
		l = applogger.Nop()
	}
	return &SwapProcessor{
		pub:     pub,
		store:   store,
		bars:    bars,
		metrics: metrics,
		backend: backend,
		l:       l,
	}
}

func (p *SwapProcessor) Backend() string { return p.backend }

// ProcessBatch hands swaps to the backend and returns how many were accepted:
// the published count for kafka, newly stored rows otherwise.
func (p *SwapProcessor) ProcessBatch(ctx context.Context, swaps []*models.Swap) (int, error) {
	if len(swaps) == 0 {
		return 0, nil
	}

	start := time.Now()
	var (
		n   int
		err error
	)

	switch p.backend {
	case BackendKafka:
		if p.pub == nil {
			err = fmt.Errorf("kafka backend has no publisher")
			break
		}
		if err = p.pub.PublishBatch(ctx, swaps); err == nil {
			n = len(swaps)
		}
	case BackendSQLite, BackendClickHouse:
		n, err = p.persist(ctx, swaps)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process_batch")
		return 0, fmt.Errorf("process batch: %w", err)
	}

	p.record(swaps)
	p.metrics.RecordLatency("process_batch", time.Since(start).Seconds())
	return n, nil
}

// Persist stores swaps and refreshes their bars regardless of backend. The
// kafka consumer lands messages through here.
func (p *SwapProcessor) Persist(ctx context.Context, swaps []*models.Swap) (int, error) {
	if len(swaps) == 0 {
		return 0, nil
	}
	n, err := p.persist(ctx, swaps)
	if err != nil {
		p.metrics.RecordError("persist")
		return 0, err
	}
	p.record(swaps)
	return n, nil
}

func (p *SwapProcessor) persist(ctx context.Context, swaps []*models.Swap) (int, error) {
	n, err := p.store.InsertSwaps(ctx, swaps)
	if err != nil {
		return 0, fmt.Errorf("insert swaps: %w", err)
	}
	if p.bars != nil {
		if _, err := p.bars.UpdateAffected(ctx, swaps); err != nil {
			return n, fmt.Errorf("update bars: %w", err)
		}
	}
	return n, nil
}

func (p *SwapProcessor) record(swaps []*models.Swap) {
	for poolID, group := range indexer.GroupByPool(swaps) {
		p.metrics.RecordSwapsIngested(p.backend, poolID, len(group))
		last := group[0]
		for _, s := range group[1:] {
			if s.TimestampMs >= last.TimestampMs {
				last = s
			}
		}
		p.metrics.RecordLastPrice(poolID, last.Price)
	}
}

// Close closes underlying resources if available.
func (p *SwapProcessor) Close() error {
	if p.pub != nil {
		return p.pub.Close()
	}
	return nil
}
