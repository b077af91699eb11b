package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sonic-vault/config"
	"sonic-vault/pkg/vault"
)

var depositYes bool

var depositCmd = &cobra.Command{
	Use:   "deposit <amount> <S|stS>",
	Short: "Deposit collateral into your vault",
	Long: `Deposit S or stS collateral into your vault. This is a two-step
operation: the vault manager is first approved to spend the exact amount,
then the deposit is submitted automatically once the approval confirms.

Examples:
  sonic-vault deposit 5 S
  sonic-vault deposit 2.5 stS --yes`,
	Args: cobra.ExactArgs(2),
	Run:  runDeposit,
}

func init() {
	rootCmd.AddCommand(depositCmd)

	depositCmd.Flags().BoolVarP(&depositYes, "yes", "y", false, "Skip confirmation prompt")
}

func runDeposit(cmd *cobra.Command, args []string) {
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

	fmt.Printf("\nDepositing %s %s\n", args[0], args[1])
	displayProjection(snap, vault.ProjectCollateralChange(snap, amount))

	if !depositYes && !confirmPrompt("Proceed with deposit?") {
		fmt.Println("\nDeposit cancelled.")
		os.Exit(0)
	}

	if err := runOperation(orch, cfg, func(ctx context.Context) error {
		return orch.Deposit(ctx, amount, isStS)
	}); err != nil {
		printError(err)
		os.Exit(1)
	}

	printSuccess("Deposit confirmed.")
}
