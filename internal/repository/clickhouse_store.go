package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"LPQuant/internal/domain/models"
	domrepo "LPQuant/internal/domain/repository"
	pkgch "LPQuant/pkg/clickhouse"
	applogger "LPQuant/pkg/logger"
)

// ClickHouseSchema creates the swap, bar and poller-state tables. Replacing
// merge trees collapse re-inserted keys.
func ClickHouseSchema(database string) []string {
	return []string{
		fmt.Sprintf(`CREATE DATABASE IF NOT EXISTS %s`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.swap_events (
			tx_digest      String,
			event_seq      Int64,
			pool_id        LowCardinality(String),
			timestamp_ms   Int64,
			price          Float64,
			volume_a       Float64,
			volume_b       Float64,
			atob           UInt8,
			sqrt_price_x64 String
		) ENGINE = ReplacingMergeTree
		ORDER BY (pool_id, timestamp_ms, tx_digest, event_seq)`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.ohlcv (
			pool_id     LowCardinality(String),
			interval    LowCardinality(String),
			open_time   Int64,
			open        Float64,
			high        Float64,
			low         Float64,
			close       Float64,
			volume      Float64,
			trade_count UInt32,
			version     UInt64
		) ENGINE = ReplacingMergeTree(version)
		ORDER BY (pool_id, interval, open_time)`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.poller_state (
			key     String,
			value   String,
			version UInt64
		) ENGINE = ReplacingMergeTree(version)
		ORDER BY key`, database),
	}
}

// ClickHouseStore implements SwapStore for ClickHouse.
type ClickHouseStore struct {
	client *pkgch.Client
	db     *sql.DB
	dbName string
	l      *applogger.Logger
}

// NewClickHouseStore creates the store on an open client.
func NewClickHouseStore(ch *pkgch.Client, database string) *ClickHouseStore {
	if database == "" {
		database = "lpquant"
	}
	return &ClickHouseStore{client: ch, db: ch.DB(), dbName: database}
}

// SetLogger injects a structured logger.
func (s *ClickHouseStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *ClickHouseStore) table(name string) string { return s.dbName + "." + name }

func (s *ClickHouseStore) Init(ctx context.Context) error {
	return s.client.InitSchema(ctx, ClickHouseSchema(s.dbName))
}

// InsertSwaps skips keys that are already stored so the returned count
// matches what was new.
func (s *ClickHouseStore) InsertSwaps(ctx context.Context, swaps []*models.Swap) (int, error) {
	if len(swaps) == 0 {
		return 0, nil
	}
	existing, err := s.existingKeys(ctx, swaps)
	if err != nil {
		return 0, err
	}

	// Chunk size tuned to 2000 rows per batch.
	const chunkSize = 2000
	fresh := make([]*models.Swap, 0, len(swaps))
	for _, sw := range swaps {
		if sw == nil || sw.TxDigest == "" {
			continue
		}
		k := swapKey(sw.TxDigest, sw.EventSeq)
		if existing[k] {
			continue
		}
		existing[k] = true
		fresh = append(fresh, sw)
	}

	for start := 0; start < len(fresh); start += chunkSize {
		end := start + chunkSize
		if end > len(fresh) {
			end = len(fresh)
		}
		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*9)
		for _, sw := range fresh[start:end] {
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				sw.TxDigest, sw.EventSeq, sw.PoolID, sw.TimestampMs,
				sw.Price, sw.VolumeA, sw.VolumeB, uint8(boolToInt(sw.AtoB)), sw.SqrtPriceX64,
			)
		}
		q := fmt.Sprintf("INSERT INTO %s (tx_digest, event_seq, pool_id, timestamp_ms, price, volume_a, volume_b, atob, sqrt_price_x64) VALUES %s",
			s.table("swap_events"), strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return 0, fmt.Errorf("insert swaps: %w", err)
		}
	}
	return len(fresh), nil
}

func (s *ClickHouseStore) existingKeys(ctx context.Context, swaps []*models.Swap) (map[string]bool, error) {
	digests := make([]string, 0, len(swaps))
	seen := make(map[string]bool, len(swaps))
	for _, sw := range swaps {
		if sw != nil && !seen[sw.TxDigest] {
			seen[sw.TxDigest] = true
			digests = append(digests, sw.TxDigest)
		}
	}
	out := make(map[string]bool)
	if len(digests) == 0 {
		return out, nil
	}
	q := fmt.Sprintf("SELECT tx_digest, event_seq FROM %s WHERE tx_digest IN (?)", s.table("swap_events"))
	rows, err := s.db.QueryContext(ctx, q, digests)
	if err != nil {
		return nil, fmt.Errorf("existing swaps: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var d string
		var seq int64
		if err := rows.Scan(&d, &seq); err != nil {
			return nil, fmt.Errorf("scan existing: %w", err)
		}
		out[swapKey(d, seq)] = true
	}
	return out, rows.Err()
}

func (s *ClickHouseStore) UpsertBars(ctx context.Context, bars []models.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	version := uint64(time.Now().UnixNano())
	values := make([]string, 0, len(bars))
	args := make([]interface{}, 0, len(bars)*10)
	for _, b := range bars {
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args, b.PoolID, b.Interval, b.OpenTime, b.Open, b.High, b.Low, b.Close, b.Volume, uint32(b.TradeCount), version)
	}
	q := fmt.Sprintf("INSERT INTO %s (pool_id, interval, open_time, open, high, low, close, volume, trade_count, version) VALUES %s",
		s.table("ohlcv"), strings.Join(values, ","))
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("upsert bars: %w", err)
	}
	return nil
}

func (s *ClickHouseStore) GetBars(ctx context.Context, poolID string, iv domrepo.Interval, from, to time.Time, limit int) ([]models.Bar, error) {
	start := time.Now()
	where := []string{"pool_id = ?", "interval = ?"}
	args := []interface{}{poolID, string(iv)}
	if !from.IsZero() {
		where = append(where, "open_time >= ?")
		args = append(args, from.UnixMilli())
	}
	if !to.IsZero() {
		where = append(where, "open_time <= ?")
		args = append(args, to.UnixMilli())
	}
	q := fmt.Sprintf(`SELECT pool_id, interval, open_time, open, high, low, close, volume, trade_count
		FROM %s FINAL WHERE %s ORDER BY open_time DESC`, s.table("ohlcv"), strings.Join(where, " AND "))
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		s.logError("clickhouse get_bars query error", poolID, iv, err)
		return nil, fmt.Errorf("get bars: %w", err)
	}
	defer rows.Close()

	out := make([]models.Bar, 0, 256)
	for rows.Next() {
		var b models.Bar
		var trades uint32
		if err := rows.Scan(&b.PoolID, &b.Interval, &b.OpenTime, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &trades); err != nil {
			s.logError("clickhouse get_bars scan error", poolID, iv, err)
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		b.TradeCount = int(trades)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	// reverse to ASC
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	if s.l != nil {
		s.l.Debug("clickhouse get_bars ok",
			applogger.String("pool_id", poolID),
			applogger.String("interval", string(iv)),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *ClickHouseStore) GetSwaps(ctx context.Context, poolID string, from, to time.Time) ([]*models.Swap, error) {
	where := []string{"pool_id = ?"}
	args := []interface{}{poolID}
	if !from.IsZero() {
		where = append(where, "timestamp_ms >= ?")
		args = append(args, from.UnixMilli())
	}
	if !to.IsZero() {
		where = append(where, "timestamp_ms < ?")
		args = append(args, to.UnixMilli())
	}
	q := fmt.Sprintf(`SELECT tx_digest, event_seq, pool_id, timestamp_ms, price, volume_a, volume_b, atob, sqrt_price_x64
		FROM %s FINAL WHERE %s ORDER BY timestamp_ms, event_seq`, s.table("swap_events"), strings.Join(where, " AND "))

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		s.logError("clickhouse get_swaps query error", poolID, "", err)
		return nil, fmt.Errorf("get swaps: %w", err)
	}
	defer rows.Close()

	var out []*models.Swap
	for rows.Next() {
		var sw models.Swap
		var atob uint8
		if err := rows.Scan(&sw.TxDigest, &sw.EventSeq, &sw.PoolID, &sw.TimestampMs, &sw.Price, &sw.VolumeA, &sw.VolumeB, &atob, &sw.SqrtPriceX64); err != nil {
			return nil, fmt.Errorf("scan swap: %w", err)
		}
		sw.AtoB = atob != 0
		out = append(out, &sw)
	}
	return out, rows.Err()
}

func (s *ClickHouseStore) GetCursor(ctx context.Context) (string, error) {
	q := fmt.Sprintf("SELECT value FROM %s FINAL WHERE key = ?", s.table("poller_state"))
	var v string
	err := s.db.QueryRowContext(ctx, q, cursorKey).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get cursor: %w", err)
	}
	return v, nil
}

func (s *ClickHouseStore) SetCursor(ctx context.Context, cursor string) error {
	q := fmt.Sprintf("INSERT INTO %s (key, value, version) VALUES (?, ?, ?)", s.table("poller_state"))
	if _, err := s.db.ExecContext(ctx, q, cursorKey, cursor, uint64(time.Now().UnixNano())); err != nil {
		return fmt.Errorf("set cursor: %w", err)
	}
	return nil
}

func (s *ClickHouseStore) Stats(ctx context.Context) (*models.IndexerStats, error) {
	st := &models.IndexerStats{Pools: map[string]int64{}}
	q := fmt.Sprintf("SELECT pool_id, count(), min(timestamp_ms), max(timestamp_ms) FROM %s FINAL GROUP BY pool_id", s.table("swap_events"))
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var n uint64
		var lo, hi int64
		if err := rows.Scan(&id, &n, &lo, &hi); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		st.Pools[id] = int64(n)
		st.TotalEvents += int64(n)
		if st.EarliestMs == 0 || lo < st.EarliestMs {
			st.EarliestMs = lo
		}
		if hi > st.LatestMs {
			st.LatestMs = hi
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if st.Cursor, err = s.GetCursor(ctx); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *ClickHouseStore) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}

func (s *ClickHouseStore) Close() error {
	return nil // Managed by pkg
}

func (s *ClickHouseStore) logError(msg, poolID string, iv domrepo.Interval, err error) {
	if s.l != nil {
		s.l.Error(msg,
			applogger.String("pool_id", poolID),
			applogger.String("interval", string(iv)),
			applogger.Error(err),
		)
	}
}

func swapKey(digest string, seq int64) string {
	return fmt.Sprintf("%s#%d", digest, seq)
}
