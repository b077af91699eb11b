package activity

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// Kind classifies an activity row
type Kind string

const (
	KindDeposit     Kind = "deposit"
	KindWithdraw    Kind = "withdraw"
	KindMint        Kind = "mint"
	KindRepay       Kind = "repay"
	KindLiquidation Kind = "liquidation"
)

// Entry is one row in the recent-activity feed. Optimistic entries are
// locally predicted at submission time and superseded once the matching
// confirmed on-chain event is observed.
type Entry struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	Amount     string    `json:"amount"` // decimal units, not smallest-unit
	Token      string    `json:"token"`
	Timestamp  time.Time `json:"timestamp"`
	TxHash     string    `json:"tx_hash"`
	Optimistic bool      `json:"optimistic"`
}

// TokenDecimals is the decimal count shared by all protocol tokens
const TokenDecimals = 18

// FormatAmount scales a smallest-unit integer to decimal units
func FormatAmount(amount *big.Int) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -TokenDecimals).String()
}
