package vault

import (
	"math"
	"math/big"
)

// Protocol risk thresholds, in percent. The contract enforces them; these
// mirror its constants for previews and display.
const (
	// MinCollateralRatio is the minimum collateralization the contract
	// accepts on withdraw/mint
	MinCollateralRatio = 150

	// SafeHealthFactor is the display threshold above which a vault is
	// considered safe
	SafeHealthFactor = 150

	// CautionHealthFactor marks the band between safe and liquidatable
	CautionHealthFactor = 120
)

// HealthFactorFromLTV derives the health factor from a loan-to-value
// percentage. A vault with no debt (LTV 0) has no liquidation risk and
// the factor is infinite.
func HealthFactorFromLTV(ltv float64) float64 {
	if ltv <= 0 {
		return math.Inf(1)
	}
	return (MinCollateralRatio * 100) / ltv
}

// LTVPercent computes debt over collateral value as a percentage
func LTVPercent(debt, collateralValue *big.Int) float64 {
	if debt == nil || debt.Sign() == 0 {
		return 0
	}
	if collateralValue == nil || collateralValue.Sign() == 0 {
		return math.Inf(1)
	}
	num := new(big.Float).SetInt(debt)
	den := new(big.Float).SetInt(collateralValue)
	ratio, _ := new(big.Float).Quo(num, den).Float64()
	return ratio * 100
}

// Projection is the preview of vault risk after a hypothetical action
type Projection struct {
	LTV          float64
	HealthFactor float64
}

// Project computes the post-action metrics from the new debt and
// collateral value. Every action preview goes through here so the
// formulas cannot drift between deposit, withdraw, mint, and repay.
func Project(newDebt, newCollateralValue *big.Int) Projection {
	ltv := LTVPercent(newDebt, newCollateralValue)
	return Projection{
		LTV:          ltv,
		HealthFactor: HealthFactorFromLTV(ltv),
	}
}

// ProjectMint previews minting more stablecoin against the current
// collateral. Debt and the minted amount share the same quote units.
func ProjectMint(s *Snapshot, amount *big.Int) Projection {
	newDebt := new(big.Int).Add(s.Debt, amount)
	return Project(newDebt, s.CollateralValue)
}

// ProjectRepay previews burning stablecoin against the current debt
func ProjectRepay(s *Snapshot, amount *big.Int) Projection {
	newDebt := new(big.Int).Sub(s.Debt, amount)
	if newDebt.Sign() < 0 {
		newDebt.SetInt64(0)
	}
	return Project(newDebt, s.CollateralValue)
}

// ProjectCollateralChange previews a deposit (positive delta) or withdraw
// (negative delta) of collateral, valued at the vault's implied unit
// price. The price comes from the authoritative on-chain collateral
// value, never a hard-coded constant.
func ProjectCollateralChange(s *Snapshot, delta *big.Int) Projection {
	total := s.TotalCollateral()
	if total.Sign() == 0 {
		// Nothing deposited yet: the on-chain read gives no price basis,
		// so the projection keeps current metrics
		return Project(s.Debt, s.CollateralValue)
	}

	valueDelta := new(big.Int).Mul(s.CollateralValue, delta)
	valueDelta.Quo(valueDelta, total)

	newValue := new(big.Int).Add(s.CollateralValue, valueDelta)
	if newValue.Sign() < 0 {
		newValue.SetInt64(0)
	}
	return Project(s.Debt, newValue)
}

// CanWithdraw reports whether a withdrawal preview keeps the vault above
// the minimum collateral ratio. Vaults with no debt may always withdraw.
func CanWithdraw(s *Snapshot, amount *big.Int) bool {
	if !s.HasDebt() {
		return true
	}
	p := ProjectCollateralChange(s, new(big.Int).Neg(amount))
	return math.IsInf(p.HealthFactor, 1) || p.HealthFactor >= MinCollateralRatio
}
