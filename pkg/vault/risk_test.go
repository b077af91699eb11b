package vault

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wei(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

func TestHealthFactorFromLTV(t *testing.T) {
	tests := []struct {
		name string
		ltv  float64
		want float64
	}{
		{name: "no debt is infinitely safe", ltv: 0, want: math.Inf(1)},
		{name: "half leverage", ltv: 50, want: 300},
		{name: "full leverage", ltv: 100, want: 150},
		{name: "at liquidation threshold", ltv: 150, want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HealthFactorFromLTV(tt.ltv)
			if math.IsInf(tt.want, 1) {
				assert.True(t, math.IsInf(got, 1))
				return
			}
			assert.InDelta(t, tt.want, got, 0.001)
		})
	}
}

func TestLTVPercent(t *testing.T) {
	assert.Equal(t, float64(0), LTVPercent(big.NewInt(0), wei(100)))
	assert.InDelta(t, 50, LTVPercent(wei(50), wei(100)), 0.001)
	assert.True(t, math.IsInf(LTVPercent(wei(1), big.NewInt(0)), 1))
}

func TestProjectMint(t *testing.T) {
	snap := &Snapshot{
		Debt:            wei(100),
		CollateralValue: wei(1000),
		LTV:             10,
		HealthFactor:    1500,
	}

	p := ProjectMint(snap, wei(400))
	assert.InDelta(t, 50, p.LTV, 0.001)
	assert.InDelta(t, 300, p.HealthFactor, 0.001)
}

func TestProjectRepay(t *testing.T) {
	snap := &Snapshot{
		Debt:            wei(500),
		CollateralValue: wei(1000),
	}

	p := ProjectRepay(snap, wei(250))
	assert.InDelta(t, 25, p.LTV, 0.001)

	// Repaying everything removes liquidation risk entirely
	p = ProjectRepay(snap, wei(500))
	assert.Equal(t, float64(0), p.LTV)
	assert.True(t, math.IsInf(p.HealthFactor, 1))

	// Over-repay clamps at zero rather than going negative
	p = ProjectRepay(snap, wei(600))
	assert.Equal(t, float64(0), p.LTV)
}

func TestProjectCollateralChange(t *testing.T) {
	snap := &Snapshot{
		CollateralS:     wei(10),
		CollateralStS:   big.NewInt(0),
		Debt:            wei(500),
		CollateralValue: wei(1000), // implied unit value: 100 per token
	}

	// Deposit doubles collateral value, halving LTV
	p := ProjectCollateralChange(snap, wei(10))
	assert.InDelta(t, 25, p.LTV, 0.001)

	// Withdraw half, LTV doubles
	p = ProjectCollateralChange(snap, new(big.Int).Neg(wei(5)))
	assert.InDelta(t, 100, p.LTV, 0.001)
}

func TestProjectCollateralChangeEmptyVault(t *testing.T) {
	snap := &Snapshot{
		CollateralS:     big.NewInt(0),
		CollateralStS:   big.NewInt(0),
		Debt:            big.NewInt(0),
		CollateralValue: big.NewInt(0),
	}

	// No price basis from the chain yet: projection keeps current metrics
	p := ProjectCollateralChange(snap, wei(5))
	assert.Equal(t, float64(0), p.LTV)
	assert.True(t, math.IsInf(p.HealthFactor, 1))
}

func TestSnapshotHelpers(t *testing.T) {
	snap := &Snapshot{
		CollateralS:   wei(10),
		CollateralStS: wei(2),
		Debt:          big.NewInt(0),
		HealthFactor:  math.Inf(1),
	}
	assert.False(t, snap.HasDebt())
	assert.Equal(t, wei(12), snap.TotalCollateral())
	assert.True(t, snap.Safe())

	snap.Debt = wei(1)
	snap.HealthFactor = 130
	assert.True(t, snap.HasDebt())
	assert.False(t, snap.Safe())
}

func TestCanWithdraw(t *testing.T) {
	debtFree := &Snapshot{
		CollateralS:     wei(10),
		CollateralStS:   big.NewInt(0),
		Debt:            big.NewInt(0),
		CollateralValue: wei(1000),
	}
	require.True(t, CanWithdraw(debtFree, wei(10)))

	leveraged := &Snapshot{
		CollateralS:     wei(10),
		CollateralStS:   big.NewInt(0),
		Debt:            wei(500),
		CollateralValue: wei(1000),
	}

	// Withdrawing a little keeps the ratio above 150%
	assert.True(t, CanWithdraw(leveraged, wei(1)))

	// Withdrawing half would leave exactly 100% health
	assert.False(t, CanWithdraw(leveraged, wei(5)))
}
