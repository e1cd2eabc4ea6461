package audithook

// Action constants for audit events.
const (
	// Value movement actions
	ActionDepositNative    = "deposit.native"
	ActionDepositToken     = "deposit.token"
	ActionWithdrawNative   = "withdrawal.native"
	ActionWithdrawToken    = "withdrawal.token"
	ActionInternalTransfer = "transfer.internal"

	// Administrative actions
	ActionWalletPaused   = "wallet.paused"
	ActionWalletUnpaused = "wallet.unpaused"
	ActionOwnerChanged   = "owner.changed"
	ActionPolicyChanged  = "policy.changed"
	ActionAssetListed    = "asset.listed"
	ActionAssetDelisted  = "asset.delisted"
)

// Resource constants for audit events.
const (
	ResourceBalance = "balance"
	ResourceWallet  = "wallet"
	ResourcePolicy  = "policy"
	ResourceAsset   = "asset"
)

// Category constants for audit events.
const (
	CategoryCustody    = "custody"
	CategoryAccess     = "access"
	CategoryGovernance = "governance"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
