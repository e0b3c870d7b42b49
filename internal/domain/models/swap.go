package models

// Swap is one parsed CLMM swap event.
type Swap struct {
	TxDigest     string  `json:"tx_digest"`
	EventSeq     int64   `json:"event_seq"`
	PoolID       string  `json:"pool_id"`
	TimestampMs  int64   `json:"timestamp_ms"`
	Price        float64 `json:"price"`
	VolumeA      float64 `json:"volume_a"`
	VolumeB      float64 `json:"volume_b"`
	AtoB         bool    `json:"atob"`
	SqrtPriceX64 string  `json:"sqrt_price_x64"`
}

// Bar is an OHLCV bucket built from swaps. Volume is in coin B units.
type Bar struct {
	PoolID     string  `json:"pool_id"`
	Interval   string  `json:"interval"`
	OpenTime   int64   `json:"open_time"`
	Open       float64 `json:"open"`
	High       float64 `json:"high"`
	Low        float64 `json:"low"`
	Close      float64 `json:"close"`
	Volume     float64 `json:"volume"`
	TradeCount int     `json:"trade_count"`
}

// PoolInfo carries what the event parser needs to price a pool.
type PoolInfo struct {
	DecimalsA   int
	DecimalsB   int
	InvertPrice bool
}

// EventNode is a swap event as returned by the Sui GraphQL events query.
type EventNode struct {
	JSON      map[string]interface{} `json:"json"`
	TxDigest  string                 `json:"txDigest"`
	EventSeq  int64                  `json:"eventSeq"`
	Timestamp int64                  `json:"timestamp"`
}

type EventPage struct {
	Nodes       []EventNode
	EndCursor   string
	HasNextPage bool
}

// IndexerStats summarises what the swap store holds.
type IndexerStats struct {
	TotalEvents int64            `json:"total_events"`
	EarliestMs  int64            `json:"earliest_ms"`
	LatestMs    int64            `json:"latest_ms"`
	Pools       map[string]int64 `json:"pools"`
	Cursor      string           `json:"cursor"`
}

type PoolSummary struct {
	PoolID      string  `json:"pool_id"`
	Symbol      string  `json:"symbol"`
	CoinA       string  `json:"coin_a"`
	CoinB       string  `json:"coin_b"`
	TickSpacing int     `json:"tick_spacing"`
	FeeRate     float64 `json:"fee_rate"`
}
