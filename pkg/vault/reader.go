package vault

import (
	"context"
	"fmt"
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"sonic-vault/pkg/chain"
)

// ErrMetricsUnavailable is surfaced when any derived-risk read fails.
// The vault is never shown with zero-valued metrics in place of real
// ones: a missing price feed must look like an error, not a healthy
// vault.
var ErrMetricsUnavailable = fmt.Errorf("price feed unavailable or stale")

// BatchCaller is the read surface the reader needs from a chain client
type BatchCaller interface {
	CallBatch(ctx context.Context, calls []chain.Call) []chain.CallResult
}

// Reader fetches the on-chain vault record and its four derived risk
// metrics, reconciling them into one snapshot in the store.
type Reader struct {
	caller       BatchCaller
	vaultManager common.Address
	store        *Store
	logger       *zap.Logger
}

// NewReader creates a reader writing into the given store
func NewReader(caller BatchCaller, vaultManager common.Address, store *Store, logger *zap.Logger) *Reader {
	return &Reader{
		caller:       caller,
		vaultManager: vaultManager,
		store:        store,
		logger:       logger,
	}
}

// Refresh performs the structural read and the four metric reads as a
// single batch. The update is all-or-nothing: if any metric read fails
// the store gets an error and the previous snapshot stays untouched.
// A zero account clears the store.
func (r *Reader) Refresh(ctx context.Context, account common.Address) error {
	if account == (common.Address{}) {
		r.store.Clear()
		return nil
	}

	r.store.SetLoading(true)
	defer r.store.SetLoading(false)

	calls := []chain.Call{
		{To: r.vaultManager, ABI: chain.VaultManagerABI, Method: "vaults", Args: []interface{}{account}},
		{To: r.vaultManager, ABI: chain.VaultManagerABI, Method: "getCollateralValue", Args: []interface{}{account}},
		{To: r.vaultManager, ABI: chain.VaultManagerABI, Method: "getLTV", Args: []interface{}{account}},
		{To: r.vaultManager, ABI: chain.VaultManagerABI, Method: "getHealthFactor", Args: []interface{}{account}},
		{To: r.vaultManager, ABI: chain.VaultManagerABI, Method: "getMaxMintable", Args: []interface{}{account}},
	}

	results := r.caller.CallBatch(ctx, calls)

	structural := results[0]
	if !structural.Ok() {
		r.logger.Warn("vault read failed", zap.Error(structural.Err))
		r.store.SetError("failed to load vault data")
		return structural.Err
	}

	for _, metric := range results[1:] {
		if !metric.Ok() {
			r.logger.Warn("vault metric read failed", zap.Error(metric.Err))
			r.store.SetError(ErrMetricsUnavailable.Error())
			return ErrMetricsUnavailable
		}
	}

	snapshot, err := buildSnapshot(structural, results[1:])
	if err != nil {
		r.logger.Warn("vault read returned malformed data", zap.Error(err))
		r.store.SetError("failed to load vault data")
		return err
	}

	r.store.Set(snapshot)
	return nil
}

func buildSnapshot(structural chain.CallResult, metrics []chain.CallResult) (*Snapshot, error) {
	if len(structural.Values) != 3 {
		return nil, fmt.Errorf("vaults returned %d values, want 3", len(structural.Values))
	}

	fields := make([]*big.Int, 3)
	for i, v := range structural.Values {
		n, ok := v.(*big.Int)
		if !ok {
			return nil, fmt.Errorf("unexpected vault field type %T", v)
		}
		fields[i] = n
	}

	collateralValue, err := metrics[0].BigInt()
	if err != nil {
		return nil, err
	}
	ltvBps, err := metrics[1].BigInt()
	if err != nil {
		return nil, err
	}
	hfBps, err := metrics[2].BigInt()
	if err != nil {
		return nil, err
	}
	maxMintable, err := metrics[3].BigInt()
	if err != nil {
		return nil, err
	}

	debt := fields[2]

	// LTV and health factor arrive in basis-point-like integer form
	ltv, _ := new(big.Float).SetInt(ltvBps).Float64()
	hf, _ := new(big.Float).SetInt(hfBps).Float64()
	ltv /= 100
	hf /= 100

	// A debt-free vault has no liquidation risk
	if debt.Sign() == 0 {
		hf = math.Inf(1)
	}

	return &Snapshot{
		CollateralS:     fields[0],
		CollateralStS:   fields[1],
		Debt:            debt,
		CollateralValue: collateralValue,
		LTV:             ltv,
		HealthFactor:    hf,
		MaxMintable:     maxMintable,
	}, nil
}
