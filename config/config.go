package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	// Contract addresses
	VaultManager      string
	Stablecoin        string
	CollateralAdapter string
	SToken            string
	StSToken          string

	// Network
	RPCURL      string
	ExplorerURL string
	ChainID     int64

	// Signing key for write commands (hex, with or without 0x prefix)
	PrivateKey string

	// Activity feed
	LookbackBlocks uint64
	ActivityStore  string
}

var globalConfig *Config

// Load reads configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetConfigName(".sonic-vault")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")

	// Set default values
	viper.SetDefault("rpc_url", "https://rpc.testnet.soniclabs.com")
	viper.SetDefault("explorer_url", "https://explorer.sonic.test")
	viper.SetDefault("chain_id", 64165)
	viper.SetDefault("lookback_blocks", 50000)

	// Read from environment variables
	viper.SetEnvPrefix("SONIC_VAULT")
	viper.AutomaticEnv()

	// Read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		VaultManager:      viper.GetString("vault_manager_address"),
		Stablecoin:        viper.GetString("stablecoin_address"),
		CollateralAdapter: viper.GetString("collateral_adapter_address"),
		SToken:            viper.GetString("s_token_address"),
		StSToken:          viper.GetString("sts_token_address"),
		RPCURL:            viper.GetString("rpc_url"),
		ExplorerURL:       viper.GetString("explorer_url"),
		ChainID:           viper.GetInt64("chain_id"),
		PrivateKey:        viper.GetString("private_key"),
		LookbackBlocks:    viper.GetUint64("lookback_blocks"),
		ActivityStore:     viper.GetString("activity_store"),
	}

	globalConfig = cfg
	return cfg, nil
}

// ReadsEnabled reports whether the contract addresses needed for read
// commands are configured. Missing addresses disable features rather
// than crashing the tool.
func (c *Config) ReadsEnabled() bool {
	return c.VaultManager != "" && c.Stablecoin != "" && c.SToken != "" && c.StSToken != ""
}

// WritesEnabled reports whether write commands can sign transactions.
func (c *Config) WritesEnabled() bool {
	return c.ReadsEnabled() && c.PrivateKey != ""
}

// MissingAddresses lists the contract addresses that are not configured.
func (c *Config) MissingAddresses() []string {
	var missing []string
	if c.VaultManager == "" {
		missing = append(missing, "vault_manager_address")
	}
	if c.Stablecoin == "" {
		missing = append(missing, "stablecoin_address")
	}
	if c.SToken == "" {
		missing = append(missing, "s_token_address")
	}
	if c.StSToken == "" {
		missing = append(missing, "sts_token_address")
	}
	return missing
}

// ExplorerTxURL returns the block-explorer link for a transaction hash.
func (c *Config) ExplorerTxURL(txHash string) string {
	return fmt.Sprintf("%s/tx/%s", c.ExplorerURL, txHash)
}

// Get returns the global configuration
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		return cfg
	}
	return globalConfig
}

// Set updates the global configuration
func Set(cfg *Config) {
	globalConfig = cfg
}
