package action

// Kind identifies a user-initiated operation
type Kind string

const (
	KindNone      Kind = "none"
	KindDeposit   Kind = "deposit"
	KindWithdraw  Kind = "withdraw"
	KindMint      Kind = "mint"
	KindRepay     Kind = "repay"
	KindLiquidate Kind = "liquidate"
)

// TwoStep reports whether the operation needs an allowance approval first
func (k Kind) TwoStep() bool {
	return k == KindDeposit || k == KindRepay
}

// State is the lifecycle of one pending operation
type State string

const (
	StateIdle      State = "idle"
	StateApproving State = "approving"
	StateActing    State = "acting"
	StateSettled   State = "settled"
	StateFailed    State = "failed"
)

// Terminal reports whether the operation has finished
func (s State) Terminal() bool {
	return s == StateSettled || s == StateFailed
}

// StepStatus tracks one transaction step of an operation
type StepStatus string

const (
	StepNotStarted StepStatus = "not-started"
	StepInProgress StepStatus = "in-progress"
	StepCompleted  StepStatus = "completed"
	StepFailed     StepStatus = "failed"
)

// Step is the live status of one transaction within an operation
type Step struct {
	Status StepStatus `json:"status"`
	TxHash string     `json:"tx_hash,omitempty"` // set once submitted
}

// Status is a snapshot of the current (or last terminal) operation
type Status struct {
	Kind    Kind   `json:"kind"`
	State   State  `json:"state"`
	Approve Step   `json:"approve"` // unused for single-step operations
	Act     Step   `json:"act"`
	Err     string `json:"error,omitempty"`
}
