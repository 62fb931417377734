package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	PriceFeed PriceFeedConfig `yaml:"price_feed"`
	Email     EmailConfig     `yaml:"email"`
	Monitor   MonitorConfig   `yaml:"monitor"`
	Sweep     SweepConfig     `yaml:"sweep"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Port string `yaml:"port"`
	Host string `yaml:"host"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// KafkaConfig represents the message channel configuration. When no brokers
// are configured the service falls back to the in-process channel.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	GroupID string   `yaml:"group_id"`
}

// PriceFeedConfig selects and configures the market data source
type PriceFeedConfig struct {
	Provider string        `yaml:"provider"` // binance, static
	Binance  BinanceConfig `yaml:"binance"`
}

// BinanceConfig represents Binance market data credentials
type BinanceConfig struct {
	APIKey    string `yaml:"api_key"`
	SecretKey string `yaml:"secret_key"`
}

// EmailConfig represents the outbound email relay configuration
type EmailConfig struct {
	RelayURL    string `yaml:"relay_url"`
	Token       string `yaml:"token"`
	FromAddress string `yaml:"from_address"`
}

// MonitorConfig represents the alert evaluation loop configuration
type MonitorConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"`
}

// SweepConfig represents the reconciliation sweep configuration
type SweepConfig struct {
	IntervalMinutes   int `yaml:"interval_minutes"`
	MaxRetries        int `yaml:"max_retries"`
	RetryWindowHours  int `yaml:"retry_window_hours"`
	ReadRetentionDays int `yaml:"read_retention_days"`
	MaxRetentionDays  int `yaml:"max_retention_days"`
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()
	return &config, nil
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(config *Config, filename string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns a configuration with every default applied
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "localhost"
	}
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.DSN == "" {
		c.Database.DSN = "stockpulse.db"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "stockpulse-notifications"
	}
	if c.PriceFeed.Provider == "" {
		c.PriceFeed.Provider = "binance"
	}
	if c.Monitor.IntervalSeconds <= 0 {
		c.Monitor.IntervalSeconds = 30
	}
	if c.Sweep.IntervalMinutes <= 0 {
		c.Sweep.IntervalMinutes = 5
	}
	if c.Sweep.MaxRetries <= 0 {
		c.Sweep.MaxRetries = 3
	}
	if c.Sweep.RetryWindowHours <= 0 {
		c.Sweep.RetryWindowHours = 24
	}
	if c.Sweep.ReadRetentionDays <= 0 {
		c.Sweep.ReadRetentionDays = 30
	}
	if c.Sweep.MaxRetentionDays <= 0 {
		c.Sweep.MaxRetentionDays = 90
	}
}
