// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	ListenAddr  string `yaml:"listen_addr"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Solana defines network endpoints and defaults for ledger access.
type Solana struct {
	RpcURL     string `yaml:"rpc_url"`
	Commitment string `yaml:"commitment"` // processed|confirmed|finalized
}

// Jupiter points at the aggregator's quote and price APIs.
type Jupiter struct {
	QuoteBase string `yaml:"quote_base"` // https://quote-api.jup.ag
	PriceBase string `yaml:"price_base"` // https://api.jup.ag
}

// Jito configures the block-space relay used for tip bundles.
type Jito struct {
	BaseURL string `yaml:"base_url"`
}

// Price selects the oracle provider and its polling behaviour.
type Price struct {
	Provider       string            `yaml:"provider"` // jupiter|binance
	PollIntervalMs int               `yaml:"poll_interval_ms"`
	Epsilon        float64           `yaml:"epsilon"`
	Symbols        map[string]string `yaml:"symbols"` // mint -> binance stream symbol
}

// Tax names the collection account and the fee taken on every fill, in basis points.
type Tax struct {
	Account string `yaml:"account"`
	Bps     uint16 `yaml:"bps"`
}

// Wallet stores env-backed signing material metadata.
type Wallet struct {
	PrivateKeyBase58 string `yaml:"private_key_base58"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App     App     `yaml:"app"`
	Solana  Solana  `yaml:"solana"`
	Jupiter Jupiter `yaml:"jupiter"`
	Jito    Jito    `yaml:"jito"`
	Price   Price   `yaml:"price"`
	Tax     Tax     `yaml:"tax"`
	Wallet  Wallet  `yaml:"wallet"`
}

// Load reads a YAML file from disk and hydrates a Config struct.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return &config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
