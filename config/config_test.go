package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fullConfig() *Config {
	return &Config{
		VaultManager: "0x1000",
		Stablecoin:   "0x2000",
		SToken:       "0x3000",
		StSToken:     "0x4000",
		ExplorerURL:  "https://explorer.sonic.test",
		PrivateKey:   "abc123",
	}
}

func TestReadsEnabled(t *testing.T) {
	cfg := fullConfig()
	assert.True(t, cfg.ReadsEnabled())

	cfg.VaultManager = ""
	assert.False(t, cfg.ReadsEnabled())
}

func TestWritesEnabledRequiresKey(t *testing.T) {
	cfg := fullConfig()
	assert.True(t, cfg.WritesEnabled())

	cfg.PrivateKey = ""
	assert.False(t, cfg.WritesEnabled())
}

func TestMissingAddresses(t *testing.T) {
	cfg := fullConfig()
	assert.Empty(t, cfg.MissingAddresses())

	cfg.Stablecoin = ""
	cfg.StSToken = ""
	assert.Equal(t, []string{"stablecoin_address", "sts_token_address"}, cfg.MissingAddresses())
}

func TestExplorerTxURL(t *testing.T) {
	cfg := fullConfig()
	assert.Equal(t, "https://explorer.sonic.test/tx/0xabc", cfg.ExplorerTxURL("0xabc"))
}
