package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	domrepo "LPQuant/internal/domain/repository"
	"LPQuant/internal/services/indexer"
	applogger "LPQuant/pkg/logger"
)

// PollerOptions tunes SwapPoller.
type PollerOptions struct {
	EventType string
	PageSize  int
	Interval  time.Duration
	Backfill  bool
}

// PageResult summarises one fetched page.
type PageResult struct {
	Events      int
	Swaps       int
	Accepted    int
	Skipped     int
	Cursor      string
	HasNextPage bool
}

// SwapPoller pages swap events from the chain into the processor and keeps
// the cursor in the swap store.
type SwapPoller struct {
	source  domrepo.EventSource
	cursor  domrepo.SwapStore
	proc    *SwapProcessor
	pools   indexer.PoolSet
	opts    PollerOptions
	metrics domrepo.Metrics
	l       *applogger.Logger
}

func NewSwapPoller(
	source domrepo.EventSource,
	cursor domrepo.SwapStore,
	proc *SwapProcessor,
	pools indexer.PoolSet,
	opts PollerOptions,
	metrics domrepo.Metrics,
	l *applogger.Logger,
) *SwapPoller {
	if opts.PageSize <= 0 {
		opts.PageSize = 50
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &SwapPoller{
		source:  source,
		cursor:  cursor,
		proc:    proc,
		pools:   pools,
		opts:    opts,
		metrics: metrics,
		l:       l.With(applogger.String("component", "swap_poller")),
	}
}

// FetchAndStore processes the page after the stored cursor. The cursor only
// advances once the page has been handed to the backend.
func (p *SwapPoller) FetchAndStore(ctx context.Context) (PageResult, error) {
	start := time.Now()
	var res PageResult

	cur, err := p.cursor.GetCursor(ctx)
	if err != nil {
		return res, fmt.Errorf("load cursor: %w", err)
	}
	res.Cursor = cur

	page, err := p.source.FetchEvents(ctx, p.opts.EventType, cur, p.opts.PageSize)
	if err != nil {
		p.metrics.RecordError("fetch")
		return res, fmt.Errorf("fetch events: %w", err)
	}
	res.Events = len(page.Nodes)
	res.HasNextPage = page.HasNextPage

	swaps, perr := indexer.ParsePage(page, p.pools)
	if perr != nil {
		res.Skipped = countJoined(perr)
		for i := 0; i < res.Skipped; i++ {
			p.metrics.RecordError("parse")
		}
		p.l.Warn("skipped malformed swap events",
			applogger.Int("skipped", res.Skipped),
			applogger.Error(perr),
		)
	}
	res.Swaps = len(swaps)

	accepted, err := p.proc.ProcessBatch(ctx, swaps)
	if err != nil {
		return res, err
	}
	res.Accepted = accepted

	if page.EndCursor != "" {
		if err := p.cursor.SetCursor(ctx, page.EndCursor); err != nil {
			return res, fmt.Errorf("save cursor: %w", err)
		}
		res.Cursor = page.EndCursor
	}

	p.metrics.RecordLatency("poll", time.Since(start).Seconds())
	return res, nil
}

// Backfill pulls pages until the source reports no next page.
func (p *SwapPoller) Backfill(ctx context.Context) (int, error) {
	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		res, err := p.FetchAndStore(ctx)
		if err != nil {
			return total, err
		}
		total += res.Accepted
		if res.Accepted > 0 {
			p.l.Info("backfill page",
				applogger.Int("accepted", res.Accepted),
				applogger.Int("total", total),
			)
		}
		if !res.HasNextPage {
			return total, nil
		}
	}
}

// Run backfills when asked to, or when no cursor is stored yet, then polls
// every interval until ctx is done. Poll errors are logged and retried on
// the next tick.
func (p *SwapPoller) Run(ctx context.Context) error {
	cur, err := p.cursor.GetCursor(ctx)
	if err != nil {
		return fmt.Errorf("load cursor: %w", err)
	}

	if p.opts.Backfill || cur == "" {
		p.l.Info("starting backfill", applogger.String("cursor", cur))
		total, err := p.Backfill(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			p.l.Error("backfill stopped", applogger.Int("total", total), applogger.Error(err))
		} else {
			p.l.Info("backfill complete", applogger.Int("total", total))
		}
	}

	p.l.Info("entering poll loop", applogger.Duration("interval", p.opts.Interval))
	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.pollOnce(ctx)
		}
	}
}

// Start runs the poller in the background.
func (p *SwapPoller) Start(ctx context.Context) {
	go func() {
		if err := p.Run(ctx); err != nil {
			p.l.Error("poller exited", applogger.Error(err))
		}
	}()
}

func (p *SwapPoller) pollOnce(ctx context.Context) {
	res, err := p.FetchAndStore(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.metrics.RecordError("poll")
			p.l.Error("poll failed", applogger.Error(err))
		}
		return
	}
	if res.Accepted > 0 {
		p.l.Info("poll", applogger.Int("accepted", res.Accepted), applogger.Int("events", res.Events))
	}
}

func countJoined(err error) int {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return len(j.Unwrap())
	}
	return 1
}
