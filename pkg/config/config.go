package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"SignalWatch/pkg/util"

	"gopkg.in/yaml.v3"
)

// Symbol maps an app-facing ticker to its TWSE channel and response code.
type Symbol struct {
	Symbol  string `yaml:"symbol"`
	Channel string `yaml:"channel"`
	Code    string `yaml:"code"`
}

type Config struct {
	Environment string `yaml:"environment"`
	Log         struct {
		Level   string `yaml:"level"`
		Format  string `yaml:"format"`
		Output  string `yaml:"output"`
		Collect struct {
			Enabled   bool          `yaml:"enabled"`
			Topic     string        `yaml:"topic"`
			Interval  time.Duration `yaml:"interval"`
			Threshold int           `yaml:"threshold"`
		} `yaml:"collect"`
	} `yaml:"log"`
	Server struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		SlowThreshold   time.Duration `yaml:"slow_threshold"`
	} `yaml:"server"`
	Store struct {
		Backend  string `yaml:"backend"` // redis or memory
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"store"`
	Signals struct {
		Cooldown   time.Duration `yaml:"cooldown"`
		Retention  time.Duration `yaml:"retention"`
		MarkPolicy string        `yaml:"mark_policy"` // attempt or delivered
		EquityETFs []string      `yaml:"equity_etfs"`
		BondETFs   []string      `yaml:"bond_etfs"`
	} `yaml:"signals"`
	Indicators struct {
		Source  string        `yaml:"source"` // simulated or http
		URL     string        `yaml:"url"`
		Timeout time.Duration `yaml:"timeout"`
		Seed    int64         `yaml:"seed"`
	} `yaml:"indicators"`
	Line struct {
		Endpoint           string        `yaml:"endpoint"`
		ChannelAccessToken string        `yaml:"channel_access_token"`
		UserID             string        `yaml:"user_id"`
		Timeout            time.Duration `yaml:"timeout"`
	} `yaml:"line"`
	Scheduler struct {
		Enabled      bool          `yaml:"enabled"`
		Interval     time.Duration `yaml:"interval"`
		RunOnStart   bool          `yaml:"run_on_start"`
		CycleTimeout time.Duration `yaml:"cycle_timeout"`
		TriggerToken string        `yaml:"trigger_token"`
	} `yaml:"scheduler"`
	Market struct {
		QuoteURL string        `yaml:"quote_url"`
		Timeout  time.Duration `yaml:"timeout"`
		Location string        `yaml:"location"`
		Index    string        `yaml:"index"`
		Symbols  []Symbol      `yaml:"symbols"`
	} `yaml:"market"`
	RateLimit struct {
		Capacity     float64 `yaml:"capacity"`
		RefillPerSec float64 `yaml:"refill_per_sec"`
	} `yaml:"rate_limit"`
	History struct {
		Backend string `yaml:"backend"` // none, kafka or clickhouse
		Table   string `yaml:"table"`
	} `yaml:"history"`
	Kafka struct {
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic"`
		RequiredAcks int           `yaml:"required_acks"`
		Compression  string        `yaml:"compression"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		Consumer     struct {
			Enabled    bool          `yaml:"enabled"`
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host         string        `yaml:"host"`
		Port         int           `yaml:"port"`
		Database     string        `yaml:"database"`
		User         string        `yaml:"user"`
		Password     string        `yaml:"password"`
		DialTimeout  time.Duration `yaml:"dial_timeout"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		MaxOpenConns int           `yaml:"max_open_conns"`
	} `yaml:"clickhouse"`
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
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.ApplyEnv(os.Getenv)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// ApplyEnv overrides fields from the environment. getenv is os.Getenv outside tests.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("LINE_CHANNEL_ACCESS_TOKEN"); v != "" {
		c.Line.ChannelAccessToken = v
	}
	if v := getenv("LINE_USER_ID"); v != "" {
		c.Line.UserID = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Store.Addr = v
	}
	if v := getenv("REDIS_PASSWORD"); v != "" {
		c.Store.Password = v
	}
	if v := getenv("STORE_BACKEND"); v != "" {
		c.Store.Backend = v
	}
	if v := getenv("CRON_SECRET"); v != "" {
		c.Scheduler.TriggerToken = v
	}
	if v := getenv("HISTORY_BACKEND"); v != "" {
		c.History.Backend = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	if v := getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := getenv("PORT"); v != "" {
		c.Server.Port = util.ParseIntDefault(v, c.Server.Port)
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) applyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stdout"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "redis"
	}
	if c.Store.Addr == "" {
		c.Store.Addr = "localhost:6379"
	}
	if c.Signals.Cooldown == 0 {
		c.Signals.Cooldown = 12 * time.Hour
	}
	if c.Signals.Retention == 0 {
		c.Signals.Retention = 12 * time.Hour
	}
	if c.Signals.MarkPolicy == "" {
		c.Signals.MarkPolicy = "attempt"
	}
	if len(c.Signals.EquityETFs) == 0 {
		c.Signals.EquityETFs = []string{"0050.TW", "00646.TW", "00878.TW"}
	}
	if len(c.Signals.BondETFs) == 0 {
		c.Signals.BondETFs = []string{"00933B.TW"}
	}
	if c.Indicators.Source == "" {
		c.Indicators.Source = "simulated"
	}
	if c.Indicators.Timeout == 0 {
		c.Indicators.Timeout = 5 * time.Second
	}
	if c.Line.Endpoint == "" {
		c.Line.Endpoint = "https://api.line.me/v2/bot/message/push"
	}
	if c.Line.Timeout == 0 {
		c.Line.Timeout = 5 * time.Second
	}
	if c.Scheduler.Interval == 0 {
		c.Scheduler.Interval = 15 * time.Minute
	}
	if c.Scheduler.CycleTimeout == 0 {
		c.Scheduler.CycleTimeout = time.Minute
	}
	if c.Market.QuoteURL == "" {
		c.Market.QuoteURL = "https://mis.twse.com.tw/stock/api/getStockInfo.jsp"
	}
	if c.Market.Timeout == 0 {
		c.Market.Timeout = 5 * time.Second
	}
	if c.Market.Location == "" {
		c.Market.Location = "Asia/Taipei"
	}
	if c.Market.Index == "" {
		c.Market.Index = "^TWII"
	}
	if len(c.Market.Symbols) == 0 {
		c.Market.Symbols = []Symbol{
			{Symbol: "^TWII", Channel: "tse_t00.tw", Code: "t00"},
			{Symbol: "0050.TW", Channel: "tse_0050.tw", Code: "0050"},
			{Symbol: "00646.TW", Channel: "tse_00646.tw", Code: "00646"},
			{Symbol: "00878.TW", Channel: "tse_00878.tw", Code: "00878"},
			{Symbol: "00933B.TW", Channel: "otc_00933B.tw", Code: "00933B"},
		}
	}
	if c.RateLimit.Capacity == 0 {
		c.RateLimit.Capacity = 10
	}
	if c.RateLimit.RefillPerSec == 0 {
		c.RateLimit.RefillPerSec = 2
	}
	if c.History.Backend == "" {
		c.History.Backend = "none"
	}
	if c.History.Table == "" {
		c.History.Table = "signal_history"
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "signalwatch.cycles"
	}
	if c.Kafka.Consumer.GroupID == "" {
		c.Kafka.Consumer.GroupID = "signalwatch-history"
	}
	if c.ClickHouse.Port == 0 {
		c.ClickHouse.Port = 9000
	}
	if c.ClickHouse.Database == "" {
		c.ClickHouse.Database = "signalwatch"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "redis", "memory":
	default:
		return fmt.Errorf("store.backend must be 'redis' or 'memory', got '%s'", c.Store.Backend)
	}
	switch c.Signals.MarkPolicy {
	case "attempt", "delivered":
	default:
		return fmt.Errorf("signals.mark_policy must be 'attempt' or 'delivered', got '%s'", c.Signals.MarkPolicy)
	}
	if c.Signals.Cooldown < 0 || c.Signals.Retention < 0 {
		return fmt.Errorf("signals.cooldown and signals.retention must be positive")
	}
	switch c.Indicators.Source {
	case "simulated":
	case "http":
		if c.Indicators.URL == "" {
			return fmt.Errorf("indicators.url is required when indicators.source is 'http'")
		}
	default:
		return fmt.Errorf("indicators.source must be 'simulated' or 'http', got '%s'", c.Indicators.Source)
	}
	switch c.History.Backend {
	case "none":
	case "kafka":
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers cannot be empty when history.backend is 'kafka'")
		}
	case "clickhouse":
		if c.ClickHouse.Host == "" {
			return fmt.Errorf("clickhouse.host is required when history.backend is 'clickhouse'")
		}
	default:
		return fmt.Errorf("history.backend must be 'none', 'kafka' or 'clickhouse', got '%s'", c.History.Backend)
	}
	if c.Kafka.Consumer.Enabled && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when kafka.consumer.enabled")
	}
	if c.Log.Collect.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when log.collect.enabled")
	}
	for _, s := range c.Market.Symbols {
		if s.Symbol == "" || s.Channel == "" || s.Code == "" {
			return fmt.Errorf("market.symbols entries need symbol, channel and code")
		}
	}
	return nil
}

// HistoryReadable reports whether ClickHouse is reachable for history queries.
func (c *Config) HistoryReadable() bool {
	return c.ClickHouse.Host != ""
}
