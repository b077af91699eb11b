package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"sonic-vault/config"
)

var liquidateYes bool

var liquidateCmd = &cobra.Command{
	Use:   "liquidate <vault-address>",
	Short: "Liquidate an undercollateralized vault",
	Long: `Repay an undercollateralized vault's debt in exchange for a discounted
claim on its collateral. The contract rejects liquidation of healthy
vaults.

Examples:
  sonic-vault liquidate 0x1234...abcd`,
	Args: cobra.ExactArgs(1),
	Run:  runLiquidate,
}

func init() {
	rootCmd.AddCommand(liquidateCmd)

	liquidateCmd.Flags().BoolVarP(&liquidateYes, "yes", "y", false, "Skip confirmation prompt")
}

func runLiquidate(cmd *cobra.Command, args []string) {
	if !common.IsHexAddress(args[0]) {
		printError(fmt.Errorf("invalid vault address: %s", args[0]))
		os.Exit(1)
	}
	target := common.HexToAddress(args[0])

	verbose, _ := cmd.Flags().GetBool("verbose")
	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if !checkReadsEnabled(cfg) {
		return
	}

	logger := newLogger(verbose)
	client, orch, err := buildOrchestrator(cfg, logger)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer client.Close()

	fmt.Printf("\nLiquidating vault %s\n", target.Hex())

	if !liquidateYes && !confirmPrompt("Proceed with liquidation?") {
		fmt.Println("\nLiquidation cancelled.")
		os.Exit(0)
	}

	if err := runOperation(orch, cfg, func(ctx context.Context) error {
		return orch.Liquidate(ctx, target)
	}); err != nil {
		printError(err)
		os.Exit(1)
	}

	printSuccess("Liquidation confirmed.")
}
