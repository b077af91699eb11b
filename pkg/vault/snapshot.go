package vault

import (
	"encoding/json"
	"math"
	"math/big"
)

// Snapshot is the user's vault state as last observed on-chain. It is
// replaced wholesale on every successful read and never partially
// mutated.
type Snapshot struct {
	CollateralS     *big.Int `json:"collateral_s"`     // S collateral, smallest unit
	CollateralStS   *big.Int `json:"collateral_sts"`   // stS collateral, smallest unit
	Debt            *big.Int `json:"debt"`             // outstanding eSUSD debt, smallest unit
	CollateralValue *big.Int `json:"collateral_value"` // aggregate value in quote units
	LTV             float64  `json:"ltv"`              // loan-to-value, percent
	HealthFactor    float64  `json:"health_factor"`    // +Inf when debt is zero
	MaxMintable     *big.Int `json:"max_mintable"`     // additional eSUSD mintable, smallest unit
}

// MarshalJSON renders the debt-free infinite health factor as null;
// encoding/json rejects +Inf outright.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	var hf *float64
	if !math.IsInf(s.HealthFactor, 1) {
		hf = &s.HealthFactor
	}
	return json.Marshal(struct {
		CollateralS     *big.Int `json:"collateral_s"`
		CollateralStS   *big.Int `json:"collateral_sts"`
		Debt            *big.Int `json:"debt"`
		CollateralValue *big.Int `json:"collateral_value"`
		LTV             float64  `json:"ltv"`
		HealthFactor    *float64 `json:"health_factor"`
		MaxMintable     *big.Int `json:"max_mintable"`
	}{s.CollateralS, s.CollateralStS, s.Debt, s.CollateralValue, s.LTV, hf, s.MaxMintable})
}

// HasDebt reports whether the vault owes anything
func (s *Snapshot) HasDebt() bool {
	return s.Debt != nil && s.Debt.Sign() > 0
}

// TotalCollateral returns collateral across both assets, smallest unit
func (s *Snapshot) TotalCollateral() *big.Int {
	total := new(big.Int)
	if s.CollateralS != nil {
		total.Add(total, s.CollateralS)
	}
	if s.CollateralStS != nil {
		total.Add(total, s.CollateralStS)
	}
	return total
}

// Safe reports whether the health factor is above the liquidation band
func (s *Snapshot) Safe() bool {
	return math.IsInf(s.HealthFactor, 1) || s.HealthFactor >= SafeHealthFactor
}
