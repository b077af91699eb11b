package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"go.uber.org/zap"

	"sonic-vault/config"
	"sonic-vault/pkg/action"
	"sonic-vault/pkg/activity"
	"sonic-vault/pkg/chain"
	"sonic-vault/pkg/vault"
)

// buildOrchestrator wires the write client, the activity recorder, and
// the orchestrator for a write command
func buildOrchestrator(cfg *config.Config, logger *zap.Logger) (*chain.Client, *action.Orchestrator, error) {
	client, err := dialClient(cfg, true, logger)
	if err != nil {
		return nil, nil, err
	}

	storage, err := activity.NewStorage(cfg.ActivityStore)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	feed := activity.NewFeed(client, storage, addr(cfg.VaultManager), cfg.LookbackBlocks, logger)

	orch := action.New(client, feed,
		addr(cfg.VaultManager), addr(cfg.Stablecoin), addr(cfg.SToken), addr(cfg.StSToken),
		logger)

	return client, orch, nil
}

// loadSnapshot refreshes the vault for the signing account and returns
// the snapshot for previews. An error here includes the all-or-nothing
// metrics guard: previews never run on partial price data.
func loadSnapshot(client *chain.Client, cfg *config.Config, logger *zap.Logger) (*vault.Snapshot, error) {
	store := vault.NewStore()
	reader := vault.NewReader(client, addr(cfg.VaultManager), store, logger)
	if err := reader.Refresh(context.Background(), client.From()); err != nil {
		return nil, err
	}
	v := store.Vault()
	if v == nil {
		return nil, fmt.Errorf("no vault data")
	}
	return v, nil
}

// displayProjection prints the current and post-action risk metrics
func displayProjection(v *vault.Snapshot, p vault.Projection) {
	fmt.Printf("\n  Current LTV:          %.1f%%\n", v.LTV)
	fmt.Printf("  Current Health:       %s\n", coloredHealthFactor(v.HealthFactor))
	fmt.Printf("  Projected LTV:        %.1f%%\n", p.LTV)
	fmt.Printf("  Projected Health:     %s\n", coloredHealthFactor(p.HealthFactor))
}

// runOperation drives an orchestrator call with a spinner tracking the
// live step status, then prints the step results with explorer links
func runOperation(orch *action.Orchestrator, cfg *config.Config, invoke func(context.Context) error) error {
	done := make(chan error, 1)
	go func() {
		done <- invoke(context.Background())
	}()

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " Submitting transaction..."
	s.Start()

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case err := <-done:
			s.Stop()
			displaySteps(orch.Status(), cfg)
			return err
		case <-ticker.C:
			switch orch.Status().State {
			case action.StateApproving:
				s.Suffix = " Waiting for approval confirmation..."
			case action.StateActing:
				s.Suffix = " Waiting for transaction confirmation..."
			}
		}
	}
}

func displaySteps(status action.Status, cfg *config.Config) {
	if status.Kind.TwoStep() {
		displayStep("Approve", status.Approve, cfg)
	}
	displayStep(stepTitle(status.Kind), status.Act, cfg)
}

func displayStep(title string, step action.Step, cfg *config.Config) {
	fmt.Printf("\n  %s: %s\n", title, coloredStepStatus(step.Status))
	if step.TxHash != "" {
		fmt.Printf("    %s\n", color.HiBlackString(cfg.ExplorerTxURL(step.TxHash)))
	}
}

func stepTitle(kind action.Kind) string {
	switch kind {
	case action.KindDeposit:
		return "Deposit"
	case action.KindWithdraw:
		return "Withdraw"
	case action.KindMint:
		return "Mint"
	case action.KindRepay:
		return "Repay"
	case action.KindLiquidate:
		return "Liquidate"
	default:
		return "Transaction"
	}
}

func coloredStepStatus(status action.StepStatus) string {
	switch status {
	case action.StepCompleted:
		return color.GreenString("completed")
	case action.StepInProgress:
		return color.YellowString("in progress")
	case action.StepFailed:
		return color.RedString("failed")
	default:
		return "not started"
	}
}
