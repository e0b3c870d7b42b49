package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"LPQuant/pkg/util"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// PoolConfig describes a CLMM pool the service knows how to index and price.
type PoolConfig struct {
	PoolID      string  `yaml:"pool_id"`
	Symbol      string  `yaml:"symbol"`
	CoinA       string  `yaml:"coin_a"`
	CoinB       string  `yaml:"coin_b"`
	DecimalsA   int     `yaml:"decimals_a"`
	DecimalsB   int     `yaml:"decimals_b"`
	TickSpacing int     `yaml:"tick_spacing"`
	FeeRate     float64 `yaml:"fee_rate"`
	InvertPrice bool    `yaml:"invert_price"`
}

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		CORSOrigins     []string      `yaml:"cors_origins"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Engine struct {
		AnnualizeFactor    float64 `yaml:"annualize_factor"`
		DefaultStrategy    string  `yaml:"default_strategy"`
		DefaultProfile     string  `yaml:"default_profile"`
		DefaultHorizonDays float64 `yaml:"default_horizon_days"`
		DefaultCapitalUSD  float64 `yaml:"default_capital_usd"`
		MaxKlines          int     `yaml:"max_klines"`
	} `yaml:"engine"`
	RateLimit struct {
		Enabled      bool    `yaml:"enabled"`
		Capacity     float64 `yaml:"capacity"`
		RefillPerSec float64 `yaml:"refill_per_sec"`
	} `yaml:"ratelimit"`
	Backend struct {
		Type         string        `yaml:"type"`  // where the poller writes: sqlite, clickhouse or kafka
		Store        string        `yaml:"store"` // persistent store behind reads and the kafka consumer
		BatchSize    int           `yaml:"batch_size"`
		BatchTimeout time.Duration `yaml:"batch_timeout"`
	} `yaml:"backend"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			Enabled    bool          `yaml:"enabled"`
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	SQLite struct {
		Path        string        `yaml:"path"`
		BusyTimeout time.Duration `yaml:"busy_timeout"`
	} `yaml:"sqlite"`
	Cache struct {
		Enabled  bool          `yaml:"enabled"`
		Type     string        `yaml:"type"` // memory, redis, layered
		TTL      time.Duration `yaml:"ttl"`
		MaxSize  int           `yaml:"max_size"`
		L1TTL    time.Duration `yaml:"l1_ttl"`
		LockWait time.Duration `yaml:"lock_wait"`
		Redis    struct {
			Addr         string        `yaml:"addr"`
			Password     string        `yaml:"password"`
			DB           int           `yaml:"db"`
			Prefix       string        `yaml:"prefix"`
			PoolSize     int           `yaml:"pool_size"`
			MinIdleConns int           `yaml:"min_idle_conns"`
			PoolTimeout  time.Duration `yaml:"pool_timeout"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Indexer struct {
		Enabled        bool          `yaml:"enabled"`
		GraphQLURL     string        `yaml:"graphql_url"`
		EventType      string        `yaml:"event_type"`
		PageSize       int           `yaml:"page_size"`
		PollInterval   time.Duration `yaml:"poll_interval"`
		Backfill       bool          `yaml:"backfill"`
		RequestsPerSec float64       `yaml:"requests_per_sec"`
		Timeout        time.Duration `yaml:"timeout"`
		Pools          []PoolConfig  `yaml:"pools"`
	} `yaml:"indexer"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes, fills defaults and validates.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.ApplyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// A .env file next to the working directory is honoured when present.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	c.applyEnv()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("LPQUANT_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("LPQUANT_PORT"); v != "" {
		c.Server.Port = util.ParseIntDefault(v, c.Server.Port)
	}
	if v := os.Getenv("BACKEND"); v != "" {
		c.Backend.Type = v
		if v != "kafka" {
			c.Backend.Store = v
		}
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.SQLite.Path = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}
	if v := os.Getenv("SUI_GRAPHQL_URL"); v != "" {
		c.Indexer.GraphQLURL = v
	}
}

// ApplyDefaults fills zero values with the service defaults.
func (c *Config) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"http://localhost:3000"}
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.Engine.AnnualizeFactor == 0 {
		c.Engine.AnnualizeFactor = 365 * 24
	}
	if c.Engine.DefaultStrategy == "" {
		c.Engine.DefaultStrategy = "pattern"
	}
	if c.Engine.DefaultProfile == "" {
		c.Engine.DefaultProfile = "balanced"
	}
	if c.Engine.DefaultHorizonDays == 0 {
		c.Engine.DefaultHorizonDays = 7
	}
	if c.Engine.DefaultCapitalUSD == 0 {
		c.Engine.DefaultCapitalUSD = 10000
	}
	if c.Engine.MaxKlines == 0 {
		c.Engine.MaxKlines = 5000
	}
	if c.RateLimit.Capacity == 0 {
		c.RateLimit.Capacity = 20
	}
	if c.RateLimit.RefillPerSec == 0 {
		c.RateLimit.RefillPerSec = 5
	}
	if c.Backend.Type == "" {
		c.Backend.Type = "sqlite"
	}
	if c.Backend.Store == "" {
		c.Backend.Store = "sqlite"
		if c.Backend.Type == "clickhouse" {
			c.Backend.Store = "clickhouse"
		}
	}
	if c.Backend.BatchSize == 0 {
		c.Backend.BatchSize = 500
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "cetus.swaps"
	}
	if c.Kafka.RequiredAcks == 0 {
		c.Kafka.RequiredAcks = -1
	}
	if c.Kafka.Consumer.RetryMax == 0 {
		c.Kafka.Consumer.RetryMax = 3
	}
	if c.Kafka.Consumer.GroupID == "" {
		c.Kafka.Consumer.GroupID = "lpquant-swaps"
	}
	if c.SQLite.Path == "" {
		c.SQLite.Path = "data/cetus_events.db"
	}
	if c.SQLite.BusyTimeout == 0 {
		c.SQLite.BusyTimeout = 5 * time.Second
	}
	if c.Cache.Type == "" {
		c.Cache.Type = "memory"
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = time.Minute
	}
	if c.Cache.MaxSize == 0 {
		c.Cache.MaxSize = 1024
	}
	if c.Cache.L1TTL == 0 {
		c.Cache.L1TTL = 15 * time.Second
	}
	if c.Cache.LockWait == 0 {
		c.Cache.LockWait = time.Minute
	}
	if c.Cache.Redis.Addr == "" {
		c.Cache.Redis.Addr = "localhost:6379"
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "lpquant"
	}
	if c.Cache.Redis.PoolSize == 0 {
		c.Cache.Redis.PoolSize = 10
	}
	if c.Cache.Redis.MinIdleConns == 0 {
		c.Cache.Redis.MinIdleConns = 2
	}
	if c.Cache.Redis.PoolTimeout == 0 {
		c.Cache.Redis.PoolTimeout = 30 * time.Second
	}
	if c.Indexer.GraphQLURL == "" {
		c.Indexer.GraphQLURL = "https://graphql.mainnet.sui.io/graphql"
	}
	if c.Indexer.EventType == "" {
		c.Indexer.EventType = "0x1eabed72c53feb3805120a081dc15963c204dc8d091542592abaf7a35689b2fb::pool::SwapEvent"
	}
	if c.Indexer.PageSize == 0 {
		c.Indexer.PageSize = 50
	}
	if c.Indexer.PollInterval == 0 {
		c.Indexer.PollInterval = time.Minute
	}
	if c.Indexer.RequestsPerSec == 0 {
		c.Indexer.RequestsPerSec = 2
	}
	if c.Indexer.Timeout == 0 {
		c.Indexer.Timeout = 30 * time.Second
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Backend.Type {
	case "kafka", "clickhouse", "sqlite":
	default:
		return fmt.Errorf("backend.type must be 'kafka', 'clickhouse' or 'sqlite', got '%s'", c.Backend.Type)
	}
	switch c.Backend.Store {
	case "clickhouse", "sqlite":
	default:
		return fmt.Errorf("backend.store must be 'clickhouse' or 'sqlite', got '%s'", c.Backend.Store)
	}
	if c.Backend.Type != "kafka" && c.Backend.Type != c.Backend.Store {
		return fmt.Errorf("backend.store must match backend.type '%s'", c.Backend.Type)
	}
	if c.Backend.Type == "kafka" && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when backend.type is 'kafka'")
	}
	if c.Engine.DefaultStrategy != "pattern" && c.Engine.DefaultStrategy != "sigma" {
		return fmt.Errorf("engine.default_strategy must be 'pattern' or 'sigma', got '%s'", c.Engine.DefaultStrategy)
	}
	if c.Engine.AnnualizeFactor <= 0 {
		return fmt.Errorf("engine.annualize_factor must be positive")
	}
	switch c.Cache.Type {
	case "memory", "redis", "layered":
	default:
		return fmt.Errorf("cache.type must be 'memory', 'redis' or 'layered', got '%s'", c.Cache.Type)
	}

	seen := make(map[string]struct{}, len(c.Indexer.Pools))
	for i, p := range c.Indexer.Pools {
		if p.PoolID == "" {
			return fmt.Errorf("indexer.pools[%d].pool_id is required", i)
		}
		if _, dup := seen[p.PoolID]; dup {
			return fmt.Errorf("indexer.pools[%d]: duplicate pool_id %s", i, p.PoolID)
		}
		seen[p.PoolID] = struct{}{}
		if p.TickSpacing <= 0 {
			return fmt.Errorf("indexer.pools[%d].tick_spacing must be positive", i)
		}
	}
	if c.Indexer.Enabled && len(c.Indexer.Pools) == 0 {
		return fmt.Errorf("indexer.pools cannot be empty when indexer is enabled")
	}
	return nil
}

// Pool looks up a configured pool by id, ignoring case and the 0x prefix.
func (c *Config) Pool(id string) (PoolConfig, bool) {
	id = util.NormalizeHexID(id)
	for _, p := range c.Indexer.Pools {
		if util.NormalizeHexID(p.PoolID) == id {
			return p, true
		}
	}
	return PoolConfig{}, false
}
