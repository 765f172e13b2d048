package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Hyperflow  HyperflowConfig  `yaml:"hyperflow"`
	Venue      VenueConfig      `yaml:"venue"`
	Collector  CollectorConfig  `yaml:"collector"`
	Reconnect  ReconnectConfig  `yaml:"reconnect"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	Sink       SinkConfig       `yaml:"sink"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type HyperflowConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type VenueConfig struct {
	WsURL        string          `yaml:"ws_url"`
	ApiURL       string          `yaml:"api_url"`
	PingInterval time.Duration   `yaml:"ping_interval"`
	RestTimeout  time.Duration   `yaml:"rest_timeout"`
	RateLimit    RateLimitConfig `yaml:"rate_limit"`
}

type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requests_per_second"`
	BurstSize         int `yaml:"burst_size"`
}

type CollectorConfig struct {
	MetaInterval         time.Duration `yaml:"meta_interval"`
	OpenInterestInterval time.Duration `yaml:"open_interest_interval"`
	LiquidationInterval  time.Duration `yaml:"liquidation_interval"`
}

type ReconnectConfig struct {
	Strategy   string        `yaml:"strategy"`
	FixedDelay time.Duration `yaml:"fixed_delay"`
	MinDelay   time.Duration `yaml:"min_delay"`
	MaxDelay   time.Duration `yaml:"max_delay"`
}

type KafkaConfig struct {
	Brokers      []string      `yaml:"brokers"`
	ClientID     string        `yaml:"client_id"`
	BatchTimeout time.Duration `yaml:"batch_timeout"`
}

type ClickHouseConfig struct {
	Addrs       []string      `yaml:"addrs"`
	Database    string        `yaml:"database"`
	Username    string        `yaml:"username"`
	Password    string        `yaml:"password"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

type SinkConfig struct {
	MaxRetries int  `yaml:"max_retries"`
	DeadLetter bool `yaml:"dead_letter"`
}

type LoggingConfig struct {
	Level         string                 `yaml:"level"`
	Format        string                 `yaml:"format"`
	Output        string                 `yaml:"output"`
	MaxAge        int                    `yaml:"max_age"`
	Fields        map[string]interface{} `yaml:"fields"`
	DashboardName string                 `yaml:"dashboard_name"`
}

func LoadConfig(path string) (*Config, error) {
	// Read configuration file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Config{
		Venue: VenueConfig{
			PingInterval: 30 * time.Second,
			RestTimeout:  10 * time.Second,
		},
		Collector: CollectorConfig{
			MetaInterval:         60 * time.Second,
			OpenInterestInterval: 30 * time.Second,
			LiquidationInterval:  10 * time.Second,
		},
		Reconnect: ReconnectConfig{
			Strategy:   "fixed",
			FixedDelay: 5 * time.Second,
		},
		Sink: SinkConfig{
			MaxRetries: 3,
			DeadLetter: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// applyEnvOverrides lets deployment environment variables win over the file.
// The variable names mirror what the deploy manifests export.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HYPERLIQUID_WS_URL"); v != "" {
		cfg.Venue.WsURL = strings.TrimSpace(v)
	}
	if v := os.Getenv("HYPERLIQUID_API_URL"); v != "" {
		cfg.Venue.ApiURL = strings.TrimSpace(v)
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitList(v)
	}
	if v := os.Getenv("KAFKA_CLIENT_ID"); v != "" {
		cfg.Kafka.ClientID = strings.TrimSpace(v)
	}
	if v := os.Getenv("CLICKHOUSE_ADDRS"); v != "" {
		cfg.ClickHouse.Addrs = splitList(v)
	}
	if v := os.Getenv("CLICKHOUSE_DATABASE"); v != "" {
		cfg.ClickHouse.Database = strings.TrimSpace(v)
	}
	if v := os.Getenv("CLICKHOUSE_USER"); v != "" {
		cfg.ClickHouse.Username = strings.TrimSpace(v)
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		cfg.ClickHouse.Password = v
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func validateConfig(cfg *Config) error {
	if cfg.Hyperflow.Name == "" {
		return fmt.Errorf("hyperflow.name is required")
	}

	if cfg.Hyperflow.Version == "" {
		return fmt.Errorf("hyperflow.version is required")
	}

	if cfg.Venue.WsURL == "" {
		return fmt.Errorf("venue.ws_url is required")
	}
	if cfg.Venue.PingInterval <= 0 {
		return fmt.Errorf("venue.ping_interval must be greater than 0")
	}

	if cfg.Collector.MetaInterval <= 0 {
		return fmt.Errorf("collector.meta_interval must be greater than 0")
	}
	if cfg.Collector.OpenInterestInterval <= 0 {
		return fmt.Errorf("collector.open_interest_interval must be greater than 0")
	}
	if cfg.Collector.LiquidationInterval <= 0 {
		return fmt.Errorf("collector.liquidation_interval must be greater than 0")
	}

	switch cfg.Reconnect.Strategy {
	case "fixed", "exponential", "jittered":
	default:
		return fmt.Errorf("reconnect.strategy '%s' is not supported", cfg.Reconnect.Strategy)
	}

	if len(cfg.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required")
	}
	if len(cfg.ClickHouse.Addrs) == 0 {
		return fmt.Errorf("clickhouse.addrs is required")
	}
	if cfg.ClickHouse.Database == "" {
		return fmt.Errorf("clickhouse.database is required")
	}

	if cfg.Sink.MaxRetries < 0 {
		return fmt.Errorf("sink.max_retries must not be negative")
	}

	return nil
}
