// Package types provides common types used across custody.
package types

import "strings"

// Principal is an opaque identifier for a user, the owner, or the ledger's
// own custody account.
type Principal string

// AssetID identifies an asset held by the ledger. Token assets are named by
// the principal of their contract; the native asset has a reserved id.
type AssetID string

// BurnPrincipal is the reserved principal that can never own anything.
// It is rejected as an owner and as an internal transfer recipient.
const BurnPrincipal Principal = "SP000000000000000000002Q6VF78"

// NativeAsset is the balance key under which native-asset holdings are
// recorded. It shares the burn principal's encoding, matching the wire
// format of the historical deployment.
const NativeAsset AssetID = AssetID(BurnPrincipal)

// DefaultCustodyAccount is the principal holding custodied assets when no
// other account is configured.
const DefaultCustodyAccount Principal = "custody"

// String implements fmt.Stringer.
func (p Principal) String() string { return string(p) }

// IsZero reports whether the principal is empty.
func (p Principal) IsZero() bool { return strings.TrimSpace(string(p)) == "" }

// IsBurn reports whether p is the reserved burn principal.
func (p Principal) IsBurn() bool { return p == BurnPrincipal }

// String implements fmt.Stringer.
func (a AssetID) String() string { return string(a) }

// IsNative reports whether a names the native asset.
func (a AssetID) IsNative() bool { return a == NativeAsset }
