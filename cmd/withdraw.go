package cmd

import (
	"context"
	"fmt"
	"math/big"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"sonic-vault/config"
	"sonic-vault/pkg/vault"
)

var withdrawYes bool

var withdrawCmd = &cobra.Command{
	Use:   "withdraw <amount> <S|stS>",
	Short: "Withdraw collateral from your vault",
	Long: `Withdraw S or stS collateral from your vault. The withdrawal is
refused locally when the projected health factor would fall below the
minimum collateral ratio, unless the vault has no debt.

Examples:
  sonic-vault withdraw 2 S
  sonic-vault withdraw 1.5 stS --yes`,
	Args: cobra.ExactArgs(2),
	Run:  runWithdraw,
}

func init() {
	rootCmd.AddCommand(withdrawCmd)

	withdrawCmd.Flags().BoolVarP(&withdrawYes, "yes", "y", false, "Skip confirmation prompt")
}

func runWithdraw(cmd *cobra.Command, args []string) {
	amount, err := parseAmount(args[0])
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	isStS, err := parseCollateralToken(args[1])
	if err != nil {
		printError(err)
		os.Exit(1)
	}

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

	snap, err := loadSnapshot(client, cfg, logger)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if !vault.CanWithdraw(snap, amount) {
		color.Red("\nThis withdrawal would put your health factor below %d%%.", vault.MinCollateralRatio)
		fmt.Println("Reduce the amount or repay debt first.")
		os.Exit(1)
	}

	fmt.Printf("\nWithdrawing %s %s\n", args[0], args[1])
	displayProjection(snap, vault.ProjectCollateralChange(snap, new(big.Int).Neg(amount)))

	if !withdrawYes && !confirmPrompt("Proceed with withdrawal?") {
		fmt.Println("\nWithdrawal cancelled.")
		os.Exit(0)
	}

	if err := runOperation(orch, cfg, func(ctx context.Context) error {
		return orch.Withdraw(ctx, amount, isStS)
	}); err != nil {
		printError(err)
		os.Exit(1)
	}

	printSuccess("Withdrawal confirmed.")
}
