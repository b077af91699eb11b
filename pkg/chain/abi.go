package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// VaultManager contract ABI (reads, writes, and the five activity events)
const vaultManagerABI = `[
	{"type":"function","name":"vaults","stateMutability":"view","inputs":[{"name":"user","type":"address"}],"outputs":[{"name":"collateralS","type":"uint256"},{"name":"collateralStS","type":"uint256"},{"name":"debt","type":"uint256"}]},
	{"type":"function","name":"getCollateralValue","stateMutability":"view","inputs":[{"name":"user","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"getLTV","stateMutability":"view","inputs":[{"name":"user","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"getHealthFactor","stateMutability":"view","inputs":[{"name":"user","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"getMaxMintable","stateMutability":"view","inputs":[{"name":"user","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"getTotalCollateralValue","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"depositCollateral","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"},{"name":"isStS","type":"bool"}],"outputs":[]},
	{"type":"function","name":"withdrawCollateral","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"},{"name":"isStS","type":"bool"}],"outputs":[]},
	{"type":"function","name":"mintStable","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"burnStable","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"liquidate","stateMutability":"nonpayable","inputs":[{"name":"user","type":"address"}],"outputs":[]},
	{"type":"event","name":"CollateralDeposited","inputs":[{"name":"user","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false},{"name":"isStS","type":"bool","indexed":false}],"anonymous":false},
	{"type":"event","name":"CollateralWithdrawn","inputs":[{"name":"user","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false},{"name":"isStS","type":"bool","indexed":false}],"anonymous":false},
	{"type":"event","name":"StableMinted","inputs":[{"name":"user","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false}],"anonymous":false},
	{"type":"event","name":"StableBurned","inputs":[{"name":"user","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false}],"anonymous":false},
	{"type":"event","name":"VaultLiquidated","inputs":[{"name":"user","type":"address","indexed":true},{"name":"liquidator","type":"address","indexed":true},{"name":"debtRepaid","type":"uint256","indexed":false}],"anonymous":false}
]`

// Minimal ERC20 ABI for approvals and balance reads
const erc20ABI = `[
	{"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"totalSupply","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]}
]`

var (
	// VaultManagerABI is the parsed VaultManager contract interface
	VaultManagerABI = mustParseABI(vaultManagerABI)

	// ERC20ABI is the parsed ERC20 token interface
	ERC20ABI = mustParseABI(erc20ABI)
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}
