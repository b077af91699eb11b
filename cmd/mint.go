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

var mintYes bool

var mintCmd = &cobra.Command{
	Use:   "mint <amount>",
	Short: "Mint eSUSD against your collateral",
	Long: `Mint new eSUSD stablecoin against your vault's collateral, up to the
contract's max mintable amount.

Examples:
  sonic-vault mint 1000
  sonic-vault mint 250.5 --yes`,
	Args: cobra.ExactArgs(1),
	Run:  runMint,
}

func init() {
	rootCmd.AddCommand(mintCmd)

	mintCmd.Flags().BoolVarP(&mintYes, "yes", "y", false, "Skip confirmation prompt")
}

func runMint(cmd *cobra.Command, args []string) {
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

	if amount.Cmp(snap.MaxMintable) > 0 {
		printError(fmt.Errorf("amount exceeds max mintable (%s eSUSD)", activity.FormatAmount(snap.MaxMintable)))
		os.Exit(1)
	}

	fmt.Printf("\nMinting %s eSUSD\n", args[0])
	displayProjection(snap, vault.ProjectMint(snap, amount))

	if !mintYes && !confirmPrompt("Proceed with mint?") {
		fmt.Println("\nMint cancelled.")
		os.Exit(0)
	}

	if err := runOperation(orch, cfg, func(ctx context.Context) error {
		return orch.Mint(ctx, amount)
	}); err != nil {
		printError(err)
		os.Exit(1)
	}

	printSuccess("Mint confirmed.")
}
