package action

import (
	"context"
	"fmt"
	"math/big"
	"path/filepath"
	"sync"
	"testing"
	"time"

	gethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sonic-vault/pkg/activity"
)

var (
	vaultManagerAddr = common.HexToAddress("0x1000")
	stablecoinAddr   = common.HexToAddress("0x2000")
	sTokenAddr       = common.HexToAddress("0x3000")
	stSTokenAddr     = common.HexToAddress("0x4000")
)

func wei(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

type sentTx struct {
	To     common.Address
	Method string
	Args   []interface{}
	Hash   common.Hash
}

// fakeWriter scripts chain writes per method: an immediate send error, a
// confirmation error, or a confirmation that blocks until released
type fakeWriter struct {
	mu          sync.Mutex
	sent        []sentTx
	sendErr     map[string]error
	confirmErr  map[string]error
	confirmGate map[string]chan struct{}
	methods     map[common.Hash]string
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{
		sendErr:     make(map[string]error),
		confirmErr:  make(map[string]error),
		confirmGate: make(map[string]chan struct{}),
		methods:     make(map[common.Hash]string),
	}
}

func (w *fakeWriter) Send(_ context.Context, to common.Address, _ gethabi.ABI, method string, args ...interface{}) (common.Hash, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.sendErr[method]; err != nil {
		return common.Hash{}, err
	}

	hash := common.BigToHash(big.NewInt(int64(len(w.sent) + 1)))
	w.sent = append(w.sent, sentTx{To: to, Method: method, Args: args, Hash: hash})
	w.methods[hash] = method
	return hash, nil
}

func (w *fakeWriter) WaitMined(ctx context.Context, hash common.Hash) error {
	w.mu.Lock()
	method := w.methods[hash]
	gate := w.confirmGate[method]
	err := w.confirmErr[method]
	w.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (w *fakeWriter) sentTxs() []sentTx {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]sentTx, len(w.sent))
	copy(out, w.sent)
	return out
}

type recordedEntry struct {
	Kind   string
	Amount *big.Int
	Token  string
	TxHash string
}

type fakeRecorder struct {
	mu      sync.Mutex
	entries []recordedEntry
}

func (r *fakeRecorder) RecordOptimistic(kind string, amount *big.Int, token string, txHash string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, recordedEntry{Kind: kind, Amount: amount, Token: token, TxHash: txHash})
}

func newOrchestrator(writer Writer, recorder Recorder) *Orchestrator {
	return New(writer, recorder, vaultManagerAddr, stablecoinAddr, sTokenAddr, stSTokenAddr, zap.NewNop())
}

func TestDepositTwoStepFlow(t *testing.T) {
	writer := newFakeWriter()
	recorder := &fakeRecorder{}
	orch := newOrchestrator(writer, recorder)

	amount := wei(5)
	require.NoError(t, orch.Deposit(context.Background(), amount, false))

	sent := writer.sentTxs()
	require.Len(t, sent, 2)

	// Approval goes to the collateral token for the exact amount
	assert.Equal(t, sTokenAddr, sent[0].To)
	assert.Equal(t, "approve", sent[0].Method)
	assert.Equal(t, []interface{}{vaultManagerAddr, amount}, sent[0].Args)

	// The deposit write carries the same amount and the S asset flag
	assert.Equal(t, vaultManagerAddr, sent[1].To)
	assert.Equal(t, "depositCollateral", sent[1].Method)
	assert.Equal(t, []interface{}{amount, false}, sent[1].Args)

	status := orch.Status()
	assert.Equal(t, StateSettled, status.State)
	assert.Equal(t, StepCompleted, status.Approve.Status)
	assert.Equal(t, StepCompleted, status.Act.Status)
	assert.Equal(t, sent[0].Hash.Hex(), status.Approve.TxHash)
	assert.Equal(t, sent[1].Hash.Hex(), status.Act.TxHash)
	assert.True(t, orch.Idle())

	require.Len(t, recorder.entries, 1)
	assert.Equal(t, "deposit", recorder.entries[0].Kind)
	assert.Equal(t, amount, recorder.entries[0].Amount)
	assert.Equal(t, "S", recorder.entries[0].Token)
	assert.Equal(t, sent[1].Hash.Hex(), recorder.entries[0].TxHash)
}

func TestActNeverIssuedBeforeApprovalConfirms(t *testing.T) {
	writer := newFakeWriter()
	writer.confirmGate["approve"] = make(chan struct{})
	orch := newOrchestrator(writer, &fakeRecorder{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- orch.Deposit(ctx, wei(5), false)
	}()

	// The approval never confirms: the deposit write must never go out
	require.Eventually(t, func() bool {
		return len(writer.sentTxs()) == 1
	}, time.Second, 10*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Len(t, writer.sentTxs(), 1)
	assert.Equal(t, StateApproving, orch.Status().State)

	cancel()
	require.Error(t, <-done)
	assert.Len(t, writer.sentTxs(), 1)
}

func TestFailedStepResetsAndAllowsRetry(t *testing.T) {
	writer := newFakeWriter()
	writer.confirmErr["approve"] = fmt.Errorf("user rejected")
	orch := newOrchestrator(writer, &fakeRecorder{})

	require.Error(t, orch.Repay(context.Background(), wei(100)))

	status := orch.Status()
	assert.Equal(t, StateFailed, status.State)
	assert.Equal(t, StepFailed, status.Approve.Status)
	assert.Equal(t, "transaction failed", status.Err)
	assert.True(t, status.State.Terminal())
	assert.True(t, orch.Idle())

	// An identical resubmission is accepted, not permanently blocked
	delete(writer.confirmErr, "approve")
	require.NoError(t, orch.Repay(context.Background(), wei(100)))
	assert.Equal(t, StateSettled, orch.Status().State)
}

func TestSingleOperationInFlight(t *testing.T) {
	writer := newFakeWriter()
	gate := make(chan struct{})
	writer.confirmGate["approve"] = gate
	orch := newOrchestrator(writer, &fakeRecorder{})

	done := make(chan error, 1)
	go func() {
		done <- orch.Deposit(context.Background(), wei(1), false)
	}()

	require.Eventually(t, func() bool {
		return len(writer.sentTxs()) == 1
	}, time.Second, 10*time.Millisecond)

	// The slot is claimed: new submissions are rejected by the
	// orchestrator itself, not just disabled controls
	err := orch.Mint(context.Background(), wei(10))
	assert.ErrorIs(t, err, ErrActionInFlight)

	close(gate)
	require.NoError(t, <-done)
	require.True(t, orch.Idle())
}

func TestMintIsSingleStep(t *testing.T) {
	writer := newFakeWriter()
	recorder := &fakeRecorder{}
	orch := newOrchestrator(writer, recorder)

	require.NoError(t, orch.Mint(context.Background(), wei(100)))

	sent := writer.sentTxs()
	require.Len(t, sent, 1)
	assert.Equal(t, "mintStable", sent[0].Method)

	status := orch.Status()
	assert.Equal(t, StateSettled, status.State)
	assert.Equal(t, StepNotStarted, status.Approve.Status)

	require.Len(t, recorder.entries, 1)
	assert.Equal(t, "mint", recorder.entries[0].Kind)
	assert.Equal(t, "eSUSD", recorder.entries[0].Token)
}

func TestRepayApprovesStablecoin(t *testing.T) {
	writer := newFakeWriter()
	orch := newOrchestrator(writer, &fakeRecorder{})

	require.NoError(t, orch.Repay(context.Background(), wei(50)))

	sent := writer.sentTxs()
	require.Len(t, sent, 2)
	assert.Equal(t, stablecoinAddr, sent[0].To)
	assert.Equal(t, "approve", sent[0].Method)
	assert.Equal(t, "burnStable", sent[1].Method)
}

func TestWithdrawUsesAssetFlag(t *testing.T) {
	writer := newFakeWriter()
	recorder := &fakeRecorder{}
	orch := newOrchestrator(writer, recorder)

	require.NoError(t, orch.Withdraw(context.Background(), wei(2), true))

	sent := writer.sentTxs()
	require.Len(t, sent, 1)
	assert.Equal(t, "withdrawCollateral", sent[0].Method)
	assert.Equal(t, []interface{}{wei(2), true}, sent[0].Args)
	assert.Equal(t, "stS", recorder.entries[0].Token)
}

func TestLiquidateRecordsNoActivity(t *testing.T) {
	writer := newFakeWriter()
	recorder := &fakeRecorder{}
	orch := newOrchestrator(writer, recorder)

	target := common.HexToAddress("0xdead")
	require.NoError(t, orch.Liquidate(context.Background(), target))

	sent := writer.sentTxs()
	require.Len(t, sent, 1)
	assert.Equal(t, "liquidate", sent[0].Method)
	assert.Equal(t, []interface{}{target}, sent[0].Args)
	assert.Empty(t, recorder.entries)
}

func TestDepositEndToEndWithFeed(t *testing.T) {
	storage, err := activity.NewStorage(filepath.Join(t.TempDir(), "queue.json"))
	require.NoError(t, err)
	feed := activity.NewFeed(nil, storage, vaultManagerAddr, 1000, zap.NewNop())

	writer := newFakeWriter()
	orch := newOrchestrator(writer, feed)

	require.NoError(t, orch.Deposit(context.Background(), wei(5), false))
	assert.True(t, orch.Idle())

	entries := feed.Entries()
	require.NotEmpty(t, entries)
	top := entries[0]
	assert.Equal(t, activity.KindDeposit, top.Kind)
	assert.Equal(t, "5", top.Amount)
	assert.Equal(t, "S", top.Token)
	assert.True(t, top.Optimistic)
	assert.Equal(t, writer.sentTxs()[1].Hash.Hex(), top.TxHash)
}
