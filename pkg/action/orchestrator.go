package action

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	gethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"sonic-vault/pkg/chain"
)

// ErrActionInFlight is returned when a submission arrives while another
// operation is still running. Only one operation may be non-idle; this
// is enforced here, not by the caller's UI.
var ErrActionInFlight = fmt.Errorf("another operation is already in flight")

// Writer is the chain write surface the orchestrator needs. WaitMined
// blocks until the transaction is confirmed or fails.
type Writer interface {
	Send(ctx context.Context, to common.Address, contractABI gethabi.ABI, method string, args ...interface{}) (common.Hash, error)
	WaitMined(ctx context.Context, hash common.Hash) error
}

// Recorder receives an optimistic activity entry at the moment the
// substantive transaction is submitted
type Recorder interface {
	RecordOptimistic(kind string, amount *big.Int, token string, txHash string)
}

// Orchestrator drives single-step (withdraw, mint, liquidate) and
// two-step (deposit, repay) vault operations and exposes their live
// status. The second write of a two-step operation is issued only after
// the approval transaction is confirmed.
type Orchestrator struct {
	writer   Writer
	recorder Recorder
	logger   *zap.Logger

	vaultManager common.Address
	stablecoin   common.Address
	sToken       common.Address
	stSToken     common.Address

	mu       sync.Mutex
	inFlight bool
	status   Status
}

// New creates an orchestrator. recorder may be nil when no activity feed
// is attached.
func New(writer Writer, recorder Recorder, vaultManager, stablecoin, sToken, stSToken common.Address, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		writer:       writer,
		recorder:     recorder,
		logger:       logger,
		vaultManager: vaultManager,
		stablecoin:   stablecoin,
		sToken:       sToken,
		stSToken:     stSToken,
		status:       Status{Kind: KindNone, State: StateIdle},
	}
}

// Status returns a copy of the current operation status
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// Idle reports whether a new operation may be submitted
func (o *Orchestrator) Idle() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return !o.inFlight
}

// Deposit approves the collateral token for the exact amount, then
// deposits it once the approval is confirmed
func (o *Orchestrator) Deposit(ctx context.Context, amount *big.Int, isStS bool) error {
	token := o.sToken
	label := "S"
	if isStS {
		token = o.stSToken
		label = "stS"
	}
	return o.runTwoStep(ctx, KindDeposit, token, label, amount,
		"depositCollateral", amount, isStS)
}

// Repay approves the stablecoin for the exact amount, then burns it
// against the debt once the approval is confirmed
func (o *Orchestrator) Repay(ctx context.Context, amount *big.Int) error {
	return o.runTwoStep(ctx, KindRepay, o.stablecoin, "eSUSD", amount,
		"burnStable", amount)
}

// Withdraw removes collateral in a single step
func (o *Orchestrator) Withdraw(ctx context.Context, amount *big.Int, isStS bool) error {
	label := "S"
	if isStS {
		label = "stS"
	}
	return o.runSingleStep(ctx, KindWithdraw, label, amount,
		"withdrawCollateral", amount, isStS)
}

// Mint creates new stablecoin against the vault's collateral
func (o *Orchestrator) Mint(ctx context.Context, amount *big.Int) error {
	return o.runSingleStep(ctx, KindMint, "eSUSD", amount,
		"mintStable", amount)
}

// Liquidate repays an undercollateralized vault's debt for a discounted
// claim on its collateral
func (o *Orchestrator) Liquidate(ctx context.Context, user common.Address) error {
	return o.runSingleStep(ctx, KindLiquidate, "", nil,
		"liquidate", user)
}

// begin claims the single operation slot, discarding any prior terminal
// status
func (o *Orchestrator) begin(kind Kind) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.inFlight {
		return ErrActionInFlight
	}

	o.inFlight = true
	o.status = Status{
		Kind:    kind,
		State:   StateIdle,
		Approve: Step{Status: StepNotStarted},
		Act:     Step{Status: StepNotStarted},
	}
	return nil
}

func (o *Orchestrator) setState(state State) {
	o.mu.Lock()
	o.status.State = state
	o.mu.Unlock()
}

func (o *Orchestrator) setStep(approve bool, update func(*Step)) {
	o.mu.Lock()
	if approve {
		update(&o.status.Approve)
	} else {
		update(&o.status.Act)
	}
	o.mu.Unlock()
}

// fail marks the failing step, surfaces a generic message, and releases
// the slot so the user may retry. Revert reasons are not interpreted;
// the contract is the source of truth.
func (o *Orchestrator) fail(kind Kind, approve bool, err error) error {
	o.logger.Warn("operation failed",
		zap.String("kind", string(kind)),
		zap.Bool("approve_step", approve),
		zap.Error(err))

	o.mu.Lock()
	if approve {
		o.status.Approve.Status = StepFailed
	} else {
		o.status.Act.Status = StepFailed
	}
	o.status.State = StateFailed
	o.status.Err = "transaction failed"
	o.inFlight = false
	o.mu.Unlock()

	return err
}

// settle marks the operation complete and releases the slot
func (o *Orchestrator) settle() {
	o.mu.Lock()
	o.status.State = StateSettled
	o.inFlight = false
	o.mu.Unlock()
}

func (o *Orchestrator) runTwoStep(ctx context.Context, kind Kind, token common.Address, label string, amount *big.Int, actMethod string, actArgs ...interface{}) error {
	if err := o.begin(kind); err != nil {
		return err
	}

	// Step 1: allowance for the exact amount needed
	o.setState(StateApproving)
	o.setStep(true, func(s *Step) { s.Status = StepInProgress })

	approveHash, err := o.writer.Send(ctx, token, chain.ERC20ABI, "approve", o.vaultManager, amount)
	if err != nil {
		return o.fail(kind, true, err)
	}
	o.setStep(true, func(s *Step) { s.TxHash = approveHash.Hex() })

	if err := o.writer.WaitMined(ctx, approveHash); err != nil {
		return o.fail(kind, true, err)
	}
	o.setStep(true, func(s *Step) { s.Status = StepCompleted })

	// Step 2: issued only after the approval is confirmed on-chain
	return o.runAct(ctx, kind, label, amount, actMethod, actArgs...)
}

func (o *Orchestrator) runSingleStep(ctx context.Context, kind Kind, label string, amount *big.Int, actMethod string, actArgs ...interface{}) error {
	if err := o.begin(kind); err != nil {
		return err
	}
	return o.runAct(ctx, kind, label, amount, actMethod, actArgs...)
}

func (o *Orchestrator) runAct(ctx context.Context, kind Kind, label string, amount *big.Int, actMethod string, actArgs ...interface{}) error {
	o.setState(StateActing)
	o.setStep(false, func(s *Step) { s.Status = StepInProgress })

	actHash, err := o.writer.Send(ctx, o.vaultManager, chain.VaultManagerABI, actMethod, actArgs...)
	if err != nil {
		return o.fail(kind, false, err)
	}
	o.setStep(false, func(s *Step) { s.TxHash = actHash.Hex() })

	// The optimistic entry is recorded at submission time. If the
	// transaction later fails the entry is left to expire by grace
	// period rather than actively rolled back.
	if o.recorder != nil && kind != KindLiquidate {
		o.recorder.RecordOptimistic(string(kind), amount, label, actHash.Hex())
	}

	if err := o.writer.WaitMined(ctx, actHash); err != nil {
		return o.fail(kind, false, err)
	}
	o.setStep(false, func(s *Step) { s.Status = StepCompleted })
	o.settle()

	o.logger.Info("operation settled",
		zap.String("kind", string(kind)),
		zap.String("tx", actHash.Hex()))

	return nil
}
