package balance

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"sonic-vault/pkg/chain"
)

// Balances holds the connected account's token balances, smallest unit
type Balances struct {
	S     *big.Int
	StS   *big.Int
	ESUSD *big.Int
}

// BatchCaller is the read surface needed from a chain client
type BatchCaller interface {
	CallBatch(ctx context.Context, calls []chain.Call) []chain.CallResult
}

// Reader queries ERC20 balances for the three protocol tokens
type Reader struct {
	caller     BatchCaller
	sToken     common.Address
	stSToken   common.Address
	stablecoin common.Address
}

// NewReader creates a balance reader for the configured token contracts
func NewReader(caller BatchCaller, sToken, stSToken, stablecoin common.Address) *Reader {
	return &Reader{
		caller:     caller,
		sToken:     sToken,
		stSToken:   stSToken,
		stablecoin: stablecoin,
	}
}

// Read fetches all three balances as one batch. A failed individual read
// falls back to zero for display; only whole-batch failure is an error.
func (r *Reader) Read(ctx context.Context, account common.Address) (*Balances, error) {
	calls := []chain.Call{
		{To: r.sToken, ABI: chain.ERC20ABI, Method: "balanceOf", Args: []interface{}{account}},
		{To: r.stSToken, ABI: chain.ERC20ABI, Method: "balanceOf", Args: []interface{}{account}},
		{To: r.stablecoin, ABI: chain.ERC20ABI, Method: "balanceOf", Args: []interface{}{account}},
	}

	results := r.caller.CallBatch(ctx, calls)

	allFailed := true
	values := make([]*big.Int, 3)
	for i, res := range results {
		if n, err := res.BigInt(); err == nil {
			values[i] = n
			allFailed = false
		} else {
			values[i] = big.NewInt(0)
		}
	}

	if allFailed {
		return nil, results[0].Err
	}

	return &Balances{
		S:     values[0],
		StS:   values[1],
		ESUSD: values[2],
	}, nil
}
