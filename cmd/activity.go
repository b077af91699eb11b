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
)

var (
	watchActivity         bool
	watchActivityInterval int
)

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Show recent vault activity",
	Long: `Show the account's recent activity: deposits, withdrawals, mints,
repayments, and liquidations, merged from confirmed on-chain events and
locally predicted pending entries.

Examples:
  sonic-vault activity
  sonic-vault activity --account 0x1234...abcd
  sonic-vault activity --watch`,
	Run: runActivity,
}

func init() {
	rootCmd.AddCommand(activityCmd)

	activityCmd.Flags().BoolVarP(&watchActivity, "watch", "w", false, "Watch for new activity continuously")
	activityCmd.Flags().IntVar(&watchActivityInterval, "interval", 15, "Refresh interval in seconds (when watching)")
}

func runActivity(cmd *cobra.Command, args []string) {
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

	storage, err := activity.NewStorage(cfg.ActivityStore)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	feed := activity.NewFeed(client, storage, addr(cfg.VaultManager), cfg.LookbackBlocks, logger)
	defer feed.Reset()

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Loading activity..."
		s.Start()
	}

	loadErr := feed.Load(context.Background(), account)

	if !jsonOutput {
		s.Stop()
	}

	if loadErr != nil {
		printError(loadErr)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(feed.Entries(), "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	displayFeed(feed)

	if watchActivity {
		fmt.Printf("Refreshing every %d seconds. Press Ctrl+C to stop.\n", watchActivityInterval)
		ticker := time.NewTicker(time.Duration(watchActivityInterval) * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			displayFeed(feed)
		}
	}
}

func displayFeed(feed *activity.Feed) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                        RECENT ACTIVITY")
	fmt.Println(strings.Repeat("=", 70))

	entries := feed.Entries()
	if len(entries) == 0 {
		fmt.Println("\n  No recent activity.")
		fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
		return
	}

	fmt.Println()
	for _, entry := range entries {
		marker := " "
		if entry.Optimistic {
			marker = color.YellowString("~")
		}
		fmt.Printf("  %s %-40s %s\n", marker, entryText(entry), color.HiBlackString(relativeTime(entry.Timestamp)))
	}

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}

func entryText(entry activity.Entry) string {
	switch entry.Kind {
	case activity.KindDeposit:
		return fmt.Sprintf("Deposited %s %s", entry.Amount, entry.Token)
	case activity.KindWithdraw:
		return fmt.Sprintf("Withdrew %s %s", entry.Amount, entry.Token)
	case activity.KindMint:
		return fmt.Sprintf("Minted %s %s", entry.Amount, entry.Token)
	case activity.KindRepay:
		return fmt.Sprintf("Repaid %s %s", entry.Amount, entry.Token)
	case activity.KindLiquidation:
		return fmt.Sprintf("Liquidated for %s %s", entry.Amount, entry.Token)
	default:
		return "Unknown activity"
	}
}

func relativeTime(t time.Time) string {
	diff := time.Since(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	}
}
