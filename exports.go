package custody

import "github.com/xraph/custody/types"

// Re-export common types for convenience so users don't have to import the
// types package.

// Principal is re-exported from types package.
type Principal = types.Principal

// AssetID is re-exported from types package.
type AssetID = types.AssetID

// Entity is re-exported from types package.
type Entity = types.Entity

// Re-exported constants.
const (
	BurnPrincipal         = types.BurnPrincipal
	NativeAsset           = types.NativeAsset
	DefaultCustodyAccount = types.DefaultCustodyAccount
)

// Re-export amount helpers.
var (
	SplitFee    = types.SplitFee
	FormatUnits = types.FormatUnits
	ParseUnits  = types.ParseUnits
	NewEntity   = types.NewEntity
)
