package cmd

import (
	"bufio"
	"fmt"
	"math"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sonic-vault/config"
	"sonic-vault/pkg/chain"
)

var rootCmd = &cobra.Command{
	Use:   "sonic-vault",
	Short: "A CLI for the Sonic vault stablecoin protocol",
	Long: `sonic-vault is a command-line wallet client for a collateralized-debt
vault protocol: deposit S or stS collateral, mint eSUSD against it, repay
debt, withdraw collateral, and liquidate undercollateralized vaults.

Examples:
  sonic-vault status
  sonic-vault deposit 5 S
  sonic-vault mint 1000
  sonic-vault repay 500
  sonic-vault withdraw 2 stS
  sonic-vault liquidate 0x1234...abcd
  sonic-vault activity --watch`,
	Version: "0.1.0",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
	rootCmd.PersistentFlags().String("account", "", "Account address for read commands (defaults to the signing key's address)")
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}

func printSuccess(message string) {
	fmt.Printf("\n%s\n\n", message)
}

// newLogger returns a console logger for --verbose, otherwise a no-op
func newLogger(verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	cfg := zap.NewDevelopmentConfig()
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// dialClient connects to the configured RPC endpoint. needKey requires a
// configured private key for writes.
func dialClient(cfg *config.Config, needKey bool, logger *zap.Logger) (*chain.Client, error) {
	key := cfg.PrivateKey
	if needKey && key == "" {
		return nil, fmt.Errorf("no private key configured; set SONIC_VAULT_PRIVATE_KEY")
	}
	return chain.Dial(cfg.RPCURL, cfg.ChainID, key, logger)
}

// resolveAccount picks the account for read commands: the --account flag
// when given, otherwise the signing key's address
func resolveAccount(cmd *cobra.Command, client *chain.Client) (common.Address, error) {
	flagAddr, _ := cmd.Flags().GetString("account")
	if flagAddr != "" {
		if !common.IsHexAddress(flagAddr) {
			return common.Address{}, fmt.Errorf("invalid account address: %s", flagAddr)
		}
		return common.HexToAddress(flagAddr), nil
	}
	if client.CanSign() {
		return client.From(), nil
	}
	return common.Address{}, fmt.Errorf("no account: pass --account or configure SONIC_VAULT_PRIVATE_KEY")
}

// checkReadsEnabled degrades gracefully when contract addresses are
// missing instead of crashing
func checkReadsEnabled(cfg *config.Config) bool {
	if cfg.ReadsEnabled() {
		return true
	}
	fmt.Println("\nReads are disabled: missing contract addresses.")
	for _, name := range cfg.MissingAddresses() {
		fmt.Printf("  - SONIC_VAULT_%s\n", strings.ToUpper(name))
	}
	fmt.Println()
	return false
}

// addr parses a configured contract address
func addr(s string) common.Address {
	return common.HexToAddress(s)
}

// parseAmount converts a decimal token amount to its smallest-unit
// integer (18 decimals)
func parseAmount(amount string) (*big.Int, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount format: %s", amount)
	}
	if d.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be greater than 0")
	}
	return d.Shift(18).BigInt(), nil
}

// parseCollateralToken maps the S|stS argument to the isStS flag
func parseCollateralToken(arg string) (bool, error) {
	switch strings.ToLower(arg) {
	case "s":
		return false, nil
	case "sts":
		return true, nil
	default:
		return false, fmt.Errorf("unknown collateral token %q (expected S or stS)", arg)
	}
}

// formatHealthFactor renders the health factor, using ∞ for a debt-free
// vault
func formatHealthFactor(hf float64) string {
	if math.IsInf(hf, 1) {
		return "∞"
	}
	return fmt.Sprintf("%.1f", hf)
}

func confirmPrompt(message string) bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("\n%s (y/N): ", message)

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
