package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Upstream   UpstreamConfig   `yaml:"upstream"`
	Poller     PollerConfig     `yaml:"poller"`
	History    HistoryConfig    `yaml:"history"`
	Database   DatabaseConfig   `yaml:"database"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// UpstreamConfig describes the fueling simulation server being polled.
type UpstreamConfig struct {
	BaseURL        string            `yaml:"base_url"`
	TogglePath     string            `yaml:"toggle_path"`
	DataPath       string            `yaml:"data_path"`
	Headers        map[string]string `yaml:"headers"`
	HTTPProxy      string            `yaml:"http_proxy"`
	TimeoutSeconds int               `yaml:"timeout_seconds"`
	Timeout        time.Duration     `yaml:"-"`
}

// PollerConfig controls the polling loop and the rendering options.
type PollerConfig struct {
	IntervalMillis     int           `yaml:"interval_ms"`
	Interval           time.Duration `yaml:"-"`
	FinalRefreshOnStop bool          `yaml:"final_refresh_on_stop"`
	ResumeOnStart      bool          `yaml:"resume_on_start"`
	HoldLimit          int           `yaml:"hold_limit"`
	LogLimit           int           `yaml:"log_limit"`
	ExpandFrames       bool          `yaml:"expand_frames"`
	FlowVisualization  bool          `yaml:"flow_visualization"`
	MaxFlowRate        float64       `yaml:"max_flow_rate"`
	MaxPaymentRate     float64       `yaml:"max_payment_rate"`
	HighFlowRate       float64       `yaml:"high_flow_rate"`
	HighPaymentRate    float64       `yaml:"high_payment_rate"`
}

// HistoryConfig controls how often polled totals are persisted.
type HistoryConfig struct {
	Enabled               bool          `yaml:"enabled"`
	SampleIntervalSeconds int           `yaml:"sample_interval_seconds"`
	SampleInterval        time.Duration `yaml:"-"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"` // "postgres" or "sqlite"
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills every unset field with its default value.
func (cfg *Config) ApplyDefaults() {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 20
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 10
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 5
	}

	if cfg.Upstream.BaseURL == "" {
		cfg.Upstream.BaseURL = "http://127.0.0.1:5000"
	}
	if cfg.Upstream.TogglePath == "" {
		cfg.Upstream.TogglePath = "/toggle_fueling"
	}
	if cfg.Upstream.DataPath == "" {
		cfg.Upstream.DataPath = "/get_fuel_data"
	}
	if cfg.Upstream.TimeoutSeconds <= 0 {
		cfg.Upstream.TimeoutSeconds = 5
	}
	cfg.Upstream.Timeout = time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second

	if cfg.Poller.IntervalMillis <= 0 {
		cfg.Poller.IntervalMillis = 100
	}
	cfg.Poller.Interval = time.Duration(cfg.Poller.IntervalMillis) * time.Millisecond
	if cfg.Poller.MaxFlowRate <= 0 {
		cfg.Poller.MaxFlowRate = 6
	}
	if cfg.Poller.MaxPaymentRate <= 0 {
		cfg.Poller.MaxPaymentRate = 326.22
	}
	if cfg.Poller.HighFlowRate <= 0 {
		cfg.Poller.HighFlowRate = 4.5
	}
	if cfg.Poller.HighPaymentRate <= 0 {
		cfg.Poller.HighPaymentRate = 250
	}

	if cfg.History.SampleIntervalSeconds <= 0 {
		cfg.History.SampleIntervalSeconds = 5
	}
	cfg.History.SampleInterval = time.Duration(cfg.History.SampleIntervalSeconds) * time.Second

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" && cfg.Database.Driver == "sqlite" {
		cfg.Database.DSN = "fuel-dashboard.db"
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}
}
