package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"sonic-vault/config"
	"sonic-vault/pkg/activity"
	"sonic-vault/pkg/balance"
	"sonic-vault/pkg/stats"
	"sonic-vault/pkg/vault"
)

var (
	watchStatus   bool
	watchInterval int
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show your vault, balances, and protocol stats",
	Long: `Show the connected account's vault state (collateral, debt, LTV, health
factor, max mintable), token balances, and protocol-wide totals.

Examples:
  sonic-vault status
  sonic-vault status --account 0x1234...abcd
  sonic-vault status --watch --interval 10`,
	Run: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVarP(&watchStatus, "watch", "w", false, "Refresh the dashboard continuously")
	statusCmd.Flags().IntVar(&watchInterval, "interval", 15, "Polling interval in seconds (when watching)")
}

func runStatus(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")
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
	client, err := dialClient(cfg, false, logger)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer client.Close()

	account, err := resolveAccount(cmd, client)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	store := vault.NewStore()
	reader := vault.NewReader(client, addr(cfg.VaultManager), store, logger)
	balances := balance.NewReader(client, addr(cfg.SToken), addr(cfg.StSToken), addr(cfg.Stablecoin))
	protocol := stats.NewReader(client, addr(cfg.VaultManager), addr(cfg.Stablecoin))

	refresh := func() {
		ctx := context.Background()

		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		if !jsonOutput {
			s.Suffix = " Reading vault..."
			s.Start()
		}

		_ = reader.Refresh(ctx, account)
		bals, balErr := balances.Read(ctx, account)
		protoStats, statsErr := protocol.Read(ctx)

		if !jsonOutput {
			s.Stop()
		}

		if jsonOutput {
			out := map[string]interface{}{
				"account": account.Hex(),
				"vault":   store.Vault(),
			}
			if store.Err() != "" {
				out["error"] = store.Err()
			}
			if balErr == nil {
				out["balances"] = map[string]string{
					"s":     activity.FormatAmount(bals.S),
					"sts":   activity.FormatAmount(bals.StS),
					"esusd": activity.FormatAmount(bals.ESUSD),
				}
			}
			jsonData, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				printError(err)
				return
			}
			fmt.Println(string(jsonData))
			return
		}

		displayDashboard(account.Hex(), store, bals, balErr, protoStats, statsErr)
	}

	refresh()

	if watchStatus && !jsonOutput {
		fmt.Printf("Refreshing every %d seconds. Press Ctrl+C to stop.\n", watchInterval)
		ticker := time.NewTicker(time.Duration(watchInterval) * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			refresh()
		}
	}
}

func displayDashboard(account string, store *vault.Store, bals *balance.Balances, balErr error, protoStats *stats.ProtocolStats, statsErr error) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                          VAULT STATUS")
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("\n  Account:          %s\n", color.CyanString(account))

	if msg := store.Err(); msg != "" {
		color.Red("\n  Error loading vault: %s\n", msg)
	} else if v := store.Vault(); v != nil {
		fmt.Printf("\n  Collateral S:     %s\n", activity.FormatAmount(v.CollateralS))
		fmt.Printf("  Collateral stS:   %s\n", activity.FormatAmount(v.CollateralStS))
		fmt.Printf("  Debt:             %s eSUSD\n", activity.FormatAmount(v.Debt))
		fmt.Printf("  Collateral Value: %s\n", activity.FormatAmount(v.CollateralValue))
		fmt.Printf("  LTV:              %.1f%%\n", v.LTV)
		fmt.Printf("  Health Factor:    %s\n", coloredHealthFactor(v.HealthFactor))
		fmt.Printf("  Max Mintable:     %s eSUSD\n", activity.FormatAmount(v.MaxMintable))
	} else {
		fmt.Println("\n  No vault data.")
	}

	if balErr == nil && bals != nil {
		fmt.Printf("\n  Wallet Balances\n")
		fmt.Printf("    S:              %s\n", activity.FormatAmount(bals.S))
		fmt.Printf("    stS:            %s\n", activity.FormatAmount(bals.StS))
		fmt.Printf("    eSUSD:          %s\n", activity.FormatAmount(bals.ESUSD))
	} else if balErr != nil {
		color.Red("\n  Error loading balances: %v\n", balErr)
	}

	if statsErr == nil && protoStats != nil {
		fmt.Printf("\n  Protocol\n")
		fmt.Printf("    TVL:            %s\n", activity.FormatAmount(protoStats.TotalValueLocked))
		fmt.Printf("    eSUSD Minted:   %s\n", activity.FormatAmount(protoStats.TotalMinted))
	}

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}

// coloredHealthFactor applies the protocol's display thresholds:
// >=150 safe, 120-150 caution, <120 danger
func coloredHealthFactor(hf float64) string {
	text := formatHealthFactor(hf)
	switch {
	case hf >= vault.SafeHealthFactor:
		return color.GreenString(text)
	case hf >= vault.CautionHealthFactor:
		return color.YellowString(text)
	default:
		return color.RedString(text)
	}
}
