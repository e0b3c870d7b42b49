package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"LPQuant/internal/domain/models"
	domrepo "LPQuant/internal/domain/repository"
	applogger "LPQuant/pkg/logger"

	_ "modernc.org/sqlite"
)

const cursorKey = "cursor"

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS swap_events (
		tx_digest      TEXT NOT NULL,
		event_seq      INTEGER NOT NULL,
		pool_id        TEXT NOT NULL,
		timestamp_ms   INTEGER NOT NULL,
		price          REAL NOT NULL,
		volume_a       REAL,
		volume_b       REAL,
		atob           INTEGER NOT NULL,
		sqrt_price_x64 TEXT,
		PRIMARY KEY (tx_digest, event_seq)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_swap_pool_ts ON swap_events (pool_id, timestamp_ms)`,
	`CREATE TABLE IF NOT EXISTS ohlcv (
		pool_id     TEXT NOT NULL,
		interval    TEXT NOT NULL,
		open_time   INTEGER NOT NULL,
		open        REAL,
		high        REAL,
		low         REAL,
		close       REAL,
		volume      REAL,
		trade_count INTEGER,
		PRIMARY KEY (pool_id, interval, open_time)
	)`,
	`CREATE TABLE IF NOT EXISTS poller_state (
		key   TEXT PRIMARY KEY,
		value TEXT
	)`,
}

// SQLiteStore implements SwapStore on a single SQLite file.
type SQLiteStore struct {
	db *sql.DB
	l  *applogger.Logger
}

// NewSQLiteStore opens or creates the database at path. ":memory:" is
// accepted for tests.
func NewSQLiteStore(path string, busyTimeout time.Duration) (*SQLiteStore, error) {
	if path == "" {
		path = filepath.Join("data", "lpquant.db")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers

	pragmas := []string{`PRAGMA journal_mode=WAL`}
	if busyTimeout > 0 {
		pragmas = append(pragmas, fmt.Sprintf(`PRAGMA busy_timeout=%d`, busyTimeout.Milliseconds()))
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite %q: %w", p, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// SetLogger injects a structured logger.
func (s *SQLiteStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *SQLiteStore) Init(ctx context.Context) error {
	for _, stmt := range sqliteSchema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// InsertSwaps ignores rows already stored under the same (tx_digest, event_seq).
func (s *SQLiteStore) InsertSwaps(ctx context.Context, swaps []*models.Swap) (int, error) {
	if len(swaps) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO swap_events
			(tx_digest, event_seq, pool_id, timestamp_ms, price, volume_a, volume_b, atob, sqrt_price_x64)
		VALUES (?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, sw := range swaps {
		if sw == nil {
			continue
		}
		res, err := stmt.ExecContext(ctx,
			sw.TxDigest, sw.EventSeq, sw.PoolID, sw.TimestampMs,
			sw.Price, sw.VolumeA, sw.VolumeB, boolToInt(sw.AtoB), sw.SqrtPriceX64,
		)
		if err != nil {
			return 0, fmt.Errorf("insert swap %s: %w", sw.TxDigest, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

func (s *SQLiteStore) UpsertBars(ctx context.Context, bars []models.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ohlcv (pool_id, interval, open_time, open, high, low, close, volume, trade_count)
		VALUES (?,?,?,?,?,?,?,?,?)
		ON CONFLICT (pool_id, interval, open_time) DO UPDATE SET
			open = excluded.open,
			high = excluded.high,
			low = excluded.low,
			close = excluded.close,
			volume = excluded.volume,
			trade_count = excluded.trade_count`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx,
			b.PoolID, b.Interval, b.OpenTime, b.Open, b.High, b.Low, b.Close, b.Volume, b.TradeCount,
		); err != nil {
			return fmt.Errorf("upsert bar %s/%s@%d: %w", b.PoolID, b.Interval, b.OpenTime, err)
		}
	}
	return tx.Commit()
}

// GetBars returns up to limit of the most recent bars in [from, to], oldest
// first. Zero times leave that side open.
func (s *SQLiteStore) GetBars(ctx context.Context, poolID string, iv domrepo.Interval, from, to time.Time, limit int) ([]models.Bar, error) {
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
	q := `SELECT pool_id, interval, open_time, open, high, low, close, volume, trade_count
		FROM ohlcv WHERE ` + strings.Join(where, " AND ") + ` ORDER BY open_time DESC`
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		s.logError("sqlite get_bars query error", poolID, err)
		return nil, fmt.Errorf("get bars: %w", err)
	}
	defer rows.Close()

	out := make([]models.Bar, 0, 256)
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.PoolID, &b.Interval, &b.OpenTime, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.TradeCount); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// GetSwaps returns a pool's swaps in [from, to) ordered by time.
func (s *SQLiteStore) GetSwaps(ctx context.Context, poolID string, from, to time.Time) ([]*models.Swap, error) {
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
	q := `SELECT tx_digest, event_seq, pool_id, timestamp_ms, price, volume_a, volume_b, atob, sqrt_price_x64
		FROM swap_events WHERE ` + strings.Join(where, " AND ") + ` ORDER BY timestamp_ms, event_seq`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		s.logError("sqlite get_swaps query error", poolID, err)
		return nil, fmt.Errorf("get swaps: %w", err)
	}
	defer rows.Close()

	var out []*models.Swap
	for rows.Next() {
		var (
			sw   models.Swap
			atob int
			volA sql.NullFloat64
			volB sql.NullFloat64
			sqrt sql.NullString
		)
		if err := rows.Scan(&sw.TxDigest, &sw.EventSeq, &sw.PoolID, &sw.TimestampMs, &sw.Price, &volA, &volB, &atob, &sqrt); err != nil {
			return nil, fmt.Errorf("scan swap: %w", err)
		}
		sw.VolumeA, sw.VolumeB, sw.AtoB, sw.SqrtPriceX64 = volA.Float64, volB.Float64, atob != 0, sqrt.String
		out = append(out, &sw)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetCursor(ctx context.Context) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM poller_state WHERE key = ?`, cursorKey).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get cursor: %w", err)
	}
	return v, nil
}

func (s *SQLiteStore) SetCursor(ctx context.Context, cursor string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO poller_state (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`, cursorKey, cursor)
	if err != nil {
		return fmt.Errorf("set cursor: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Stats(ctx context.Context) (*models.IndexerStats, error) {
	st := &models.IndexerStats{Pools: map[string]int64{}}

	var lo, hi sql.NullInt64
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), MIN(timestamp_ms), MAX(timestamp_ms) FROM swap_events`,
	).Scan(&st.TotalEvents, &lo, &hi); err != nil {
		return nil, fmt.Errorf("stats totals: %w", err)
	}
	st.EarliestMs, st.LatestMs = lo.Int64, hi.Int64

	rows, err := s.db.QueryContext(ctx, `SELECT pool_id, COUNT(*) FROM swap_events GROUP BY pool_id`)
	if err != nil {
		return nil, fmt.Errorf("stats pools: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var n int64
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		st.Pools[id] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	cur, err := s.GetCursor(ctx)
	if err != nil {
		return nil, err
	}
	st.Cursor = cur
	return st, nil
}

func (s *SQLiteStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) logError(msg, poolID string, err error) {
	if s.l != nil {
		s.l.Error(msg, applogger.String("pool_id", poolID), applogger.Error(err))
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
