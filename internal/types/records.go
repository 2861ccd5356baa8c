/*

This file defines the persisted records of the engine (Connector,
ChargePolicy, GlobalConfig) and the ephemeral Converted result returned by
the bonding-curve transforms.

*/

package types

import (
	sdkmath "cosmossdk.io/math"
)

// BaseFeePolicy is the shared fee shape used by both the global default and
// the per-pool override: a permyriad proportional rate plus a flat fee
// denominated in the connected token.
type BaseFeePolicy struct {
	Rate int64 `json:"rate"`
	Flat Asset `json:"flat"`
}

// IsExempted reports whether the policy charges nothing at all. An exempted
// policy never imposes the minimum fee.
func (p BaseFeePolicy) IsExempted() bool {
	return p.Rate == 0 && !p.Flat.IsPositive()
}

// ChargePolicy is an optional per-pool fee override, keyed by the smart
// token denomination.
type ChargePolicy struct {
	Smart ExtendedSymbol `json:"smart"`
	BaseFeePolicy
}

// GlobalConfig is the singleton engine configuration: the accepted connected
// token, the default fee policy, and the fee-recipient authority.
type GlobalConfig struct {
	Connected ExtendedSymbol `json:"connected"`
	Owner     string         `json:"owner"`
	BaseFeePolicy
}

// Connector is the per-pool record backing one smart token with a reserve of
// the connected token.
//
// Balance never goes negative, Weight is fixed at creation, and Activated
// transitions false to true exactly once when the issuer seeds the declared
// reserve.
type Connector struct {
	Smart     ExtendedSymbol    `json:"smart"`
	Balance   Asset             `json:"balance"`
	Weight    sdkmath.LegacyDec `json:"weight"`
	Activated bool              `json:"activated"`
}

// Converted is the result of one bonding-curve transform. Value is the
// realized output, Delta the reserve-side change applied to the connector,
// and Ratio the fraction of the theoretical continuous output the integer
// truncation actually realized (always in (0, 1], recomputed per call).
type Converted struct {
	Value ExtendedAsset
	Delta Asset
	Ratio float64
}
