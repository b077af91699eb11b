package stats

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"sonic-vault/pkg/chain"
)

// ProtocolStats holds the protocol-wide figures shown on the dashboard
type ProtocolStats struct {
	TotalValueLocked *big.Int // aggregate collateral value, quote units
	TotalMinted      *big.Int // stablecoin total supply, smallest unit
}

// BatchCaller is the read surface needed from a chain client
type BatchCaller interface {
	CallBatch(ctx context.Context, calls []chain.Call) []chain.CallResult
}

// Reader queries protocol-level totals
type Reader struct {
	caller       BatchCaller
	vaultManager common.Address
	stablecoin   common.Address
}

// NewReader creates a protocol stats reader
func NewReader(caller BatchCaller, vaultManager, stablecoin common.Address) *Reader {
	return &Reader{
		caller:       caller,
		vaultManager: vaultManager,
		stablecoin:   stablecoin,
	}
}

// Read fetches TVL and total minted supply as one batch
func (r *Reader) Read(ctx context.Context) (*ProtocolStats, error) {
	calls := []chain.Call{
		{To: r.vaultManager, ABI: chain.VaultManagerABI, Method: "getTotalCollateralValue"},
		{To: r.stablecoin, ABI: chain.ERC20ABI, Method: "totalSupply"},
	}

	results := r.caller.CallBatch(ctx, calls)

	tvl, err := results[0].BigInt()
	if err != nil {
		return nil, err
	}
	supply, err := results[1].BigInt()
	if err != nil {
		return nil, err
	}

	return &ProtocolStats{
		TotalValueLocked: tvl,
		TotalMinted:      supply,
	}, nil
}
