package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sonic-vault/config"
	"sonic-vault/pkg/activity"
	"sonic-vault/pkg/vault"
)

var repayYes bool

var repayCmd = &cobra.Command{
	Use:   "repay <amount>",
	Short: "Repay eSUSD debt",
	Long: `Burn eSUSD against your vault's outstanding debt. This is a two-step
operation: the vault manager is first approved to spend the exact amount,
then the burn is submitted automatically once the approval confirms.

Examples:
  sonic-vault repay 500
  sonic-vault repay 100.25 --yes`,
	Args: cobra.ExactArgs(1),
	Run:  runRepay,
}

func init() {
	rootCmd.AddCommand(repayCmd)

	repayCmd.Flags().BoolVarP(&repayYes, "yes", "y", false, "Skip confirmation prompt")
}

func runRepay(cmd *cobra.Command, args []string) {
	amount, err := parseAmount(args[0])
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

	if amount.Cmp(snap.Debt) > 0 {
		printError(fmt.Errorf("repay amount exceeds outstanding debt (%s eSUSD)", activity.FormatAmount(snap.Debt)))
		os.Exit(1)
	}

	fmt.Printf("\nRepaying %s eSUSD\n", args[0])
	displayProjection(snap, vault.ProjectRepay(snap, amount))

	if !repayYes && !confirmPrompt("Proceed with repayment?") {
		fmt.Println("\nRepayment cancelled.")
		os.Exit(0)
	}

	if err := runOperation(orch, cfg, func(ctx context.Context) error {
		return orch.Repay(ctx, amount)
	}); err != nil {
		printError(err)
		os.Exit(1)
	}

	printSuccess("Repayment confirmed.")
}
