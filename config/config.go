package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all static application configuration.
type Config struct {
	Ledger  LedgerConfig  `mapstructure:"ledger"`
	Tron    TronConfig    `mapstructure:"tron"`
	Storage StorageConfig `mapstructure:"storage"`
	Log     LogConfig     `mapstructure:"log"`
}

type LedgerConfig struct {
	// AdminID is the privileged account id, exempt from the debt floor and
	// the blocked check.
	AdminID int64 `mapstructure:"admin_id"`
	// DebtFloor is the most negative balance a non-privileged account may
	// reach, as a decimal string in ledger currency.
	DebtFloor string `mapstructure:"debt_floor"`
}

// DebtFloorDecimal parses the configured debt floor.
func (l LedgerConfig) DebtFloorDecimal() (decimal.Decimal, error) {
	return decimal.NewFromString(l.DebtFloor)
}

type TronConfig struct {
	Network string        `mapstructure:"network"` // mainnet, nile
	APIKey  string        `mapstructure:"api_key"` // required for mainnet (TronGrid)
	NodeURL string        `mapstructure:"node_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type StorageConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

// AccountsFile is the path of the persisted account document.
func (s StorageConfig) AccountsFile() string {
	return filepath.Join(s.DataDir, "accounts.json")
}

// WalletsFile is the path of the persisted wallet document.
func (s StorageConfig) WalletsFile() string {
	return filepath.Join(s.DataDir, "wallets.json")
}

// RuntimeFile is the path of the live runtime-config document.
func (s StorageConfig) RuntimeFile() string {
	return filepath.Join(s.DataDir, "runtime.json")
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: KBOT_.
// Nested keys use underscore: KBOT_LEDGER_ADMIN_ID, KBOT_TRON_NETWORK, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("ledger.admin_id", 0)
	v.SetDefault("ledger.debt_floor", "5")
	v.SetDefault("tron.network", "nile")
	v.SetDefault("tron.api_key", "")
	v.SetDefault("tron.node_url", "")
	v.SetDefault("tron.timeout", "10s")
	v.SetDefault("storage.data_dir", "./data")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: KBOT_LEDGER_ADMIN_ID -> ledger.admin_id
	v.SetEnvPrefix("KBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required — env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks invariants the rest of the system relies on.
func (c *Config) Validate() error {
	if c.Ledger.AdminID <= 0 {
		return fmt.Errorf("ledger.admin_id must be a positive user id")
	}
	floor, err := c.Ledger.DebtFloorDecimal()
	if err != nil {
		return fmt.Errorf("ledger.debt_floor: %w", err)
	}
	if floor.IsNegative() {
		return fmt.Errorf("ledger.debt_floor must not be negative")
	}
	switch c.Tron.Network {
	case "nile":
	case "mainnet":
		if c.Tron.APIKey == "" {
			return fmt.Errorf("tron.api_key is required for mainnet")
		}
	default:
		return fmt.Errorf("tron.network must be 'nile' or 'mainnet', got %q", c.Tron.Network)
	}
	if c.Tron.Timeout <= 0 {
		return fmt.Errorf("tron.timeout must be positive")
	}
	return nil
}
