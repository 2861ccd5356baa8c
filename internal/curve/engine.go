/*

This file implements the four bonding-curve transforms over a connector:

	ConvertToSmart        reserve deposit  -> smart mint amount
	ConvertFromSmart      smart burn       -> reserve payout
	ConvertToExactSmart   exact smart out  -> required reserve input
	ConvertExactFromSmart exact reserve out-> required smart burn

All four take the connector's current balance and a supply snapshot read once
by the caller, mutate the connector balance in place on success, and leave it
untouched on any error. The truncation-correction ratio keeps the reserve
change consistent with the realized integer output: the portion of an input
wasted by truncation is refunded, never retained by the pool.

*/

package curve

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/bce/internal/types"
	"github.com/elys-network/bce/internal/utils"
)

var (
	ErrInsufficientPayment = errors.New("payment too small to produce any converted amount")
	ErrInvalidWeight       = errors.New("connector weight must be in (0, 1]")
	ErrSupplyExceeded      = errors.New("conversion exceeds outstanding smart supply")
	ErrInsufficientReserve = errors.New("conversion exceeds connector reserve")
)

// ValidateWeight checks that a connector weight lies in (0, 1]. Weight
// exactly 1 degenerates the curve to a constant-price model and is allowed.
func ValidateWeight(weight sdkmath.LegacyDec) error {
	if weight.IsNil() || !weight.IsPositive() || weight.GT(sdkmath.LegacyOneDec()) {
		return ErrInvalidWeight
	}
	return nil
}

// ConvertToSmart converts a reserve deposit into the smart tokens it mints:
// dS = S * ((1 + dC/C)^w - 1). supply is the smart token's current supply.
func ConvertToSmart(conn *types.Connector, supply sdkmath.Int, from types.ExtendedAsset, to types.ExtendedSymbol) (types.Converted, error) {
	return convertToSmart(conn, supply, from, to, false)
}

// ConvertFromSmart converts a smart-token burn into the reserve it releases:
// dC = C * ((1 + dS/S)^(1/w) - 1). supply is the smart token's current supply.
func ConvertFromSmart(conn *types.Connector, supply sdkmath.Int, from types.ExtendedAsset, to types.ExtendedSymbol) (types.Converted, error) {
	return convertFromSmart(conn, supply, from, to, false)
}

// ConvertToExactSmart answers "how much reserve is required to mint exactly
// `to` smart tokens" by running the from-smart transform with roles reversed;
// the connector balance increases by the required reserve.
func ConvertToExactSmart(conn *types.Connector, supply sdkmath.Int, from types.ExtendedSymbol, to types.ExtendedAsset) (types.Converted, error) {
	return convertFromSmart(conn, supply, to, from, true)
}

// ConvertExactFromSmart answers "how many smart tokens must be burned to
// release exactly `to` of the reserve" by running the to-smart transform with
// roles reversed; the connector balance decreases by the released reserve.
func ConvertExactFromSmart(conn *types.Connector, supply sdkmath.Int, from types.ExtendedSymbol, to types.ExtendedAsset) (types.Converted, error) {
	return convertToSmart(conn, supply, to, from, true)
}

func convertToSmart(conn *types.Connector, supply sdkmath.Int, from types.ExtendedAsset, to types.ExtendedSymbol, reverse bool) (types.Converted, error) {
	weight, err := connectorWeight(conn)
	if err != nil {
		return types.Converted{}, err
	}
	if !from.Quantity.Symbol.Equal(conn.Balance.Symbol) {
		return types.Converted{}, fmt.Errorf("%w: deposit %s against reserve %s",
			types.ErrDenominationMismatch, from.Quantity.Symbol, conn.Balance.Symbol)
	}
	if !from.Quantity.IsPositive() {
		return types.Converted{}, fmt.Errorf("%w: non-positive deposit %s", ErrInsufficientPayment, from.Quantity)
	}

	s, err := utils.IntToFloat64(supply)
	if err != nil {
		return types.Converted{}, err
	}
	c, err := utils.IntToFloat64(conn.Balance.Amount)
	if err != nil {
		return types.Converted{}, err
	}
	dc, err := utils.IntToFloat64(from.Quantity.Amount)
	if err != nil {
		return types.Converted{}, err
	}

	ds := s * (pow(1+dc/c, weight) - 1)
	if ds < 0 {
		ds = 0
	}

	minted, err := utils.TruncateToInt(ds)
	if err != nil {
		return types.Converted{}, err
	}
	if !minted.IsPositive() {
		return types.Converted{}, fmt.Errorf("%w: %s converts to no smart tokens", ErrInsufficientPayment, from.Quantity)
	}
	mintedF, err := utils.IntToFloat64(minted)
	if err != nil {
		return types.Converted{}, err
	}
	ratio := mintedF / ds

	// The reserve change is the deposit minus its unconverted portion, so
	// delta + refund == dC holds exactly in integer arithmetic.
	refund, err := Unconverted(from.Quantity.Amount, ratio)
	if err != nil {
		return types.Converted{}, err
	}
	delta := from.Quantity.Amount.Sub(refund)

	if !reverse {
		conn.Balance.Amount = conn.Balance.Amount.Add(delta)
	} else {
		if delta.GT(conn.Balance.Amount) {
			return types.Converted{}, fmt.Errorf("%w: need %s, reserve holds %s",
				ErrInsufficientReserve, delta, conn.Balance.Amount)
		}
		conn.Balance.Amount = conn.Balance.Amount.Sub(delta)
	}

	return types.Converted{
		Value: types.ExtendedAsset{Quantity: types.NewAssetFromInt(minted, to.Symbol), Issuer: to.Issuer},
		Delta: types.NewAssetFromInt(delta, conn.Balance.Symbol),
		Ratio: ratio,
	}, nil
}

func convertFromSmart(conn *types.Connector, supply sdkmath.Int, from types.ExtendedAsset, to types.ExtendedSymbol, reverse bool) (types.Converted, error) {
	weight, err := connectorWeight(conn)
	if err != nil {
		return types.Converted{}, err
	}
	if !from.Quantity.Symbol.Equal(conn.Smart.Symbol) {
		return types.Converted{}, fmt.Errorf("%w: burn %s against smart token %s",
			types.ErrDenominationMismatch, from.Quantity.Symbol, conn.Smart.Symbol)
	}
	if !from.Quantity.IsPositive() {
		return types.Converted{}, fmt.Errorf("%w: non-positive burn %s", ErrInsufficientPayment, from.Quantity)
	}
	if from.Quantity.Amount.GT(supply) {
		return types.Converted{}, fmt.Errorf("%w: burning %s of supply %s",
			ErrSupplyExceeded, from.Quantity.Amount, supply)
	}

	c, err := utils.IntToFloat64(conn.Balance.Amount)
	if err != nil {
		return types.Converted{}, err
	}
	s, err := utils.IntToFloat64(supply)
	if err != nil {
		return types.Converted{}, err
	}
	dsNeg, err := utils.IntToFloat64(from.Quantity.Amount)
	if err != nil {
		return types.Converted{}, err
	}

	dc := c * (pow(1-dsNeg/s, 1/weight) - 1)
	if dc > 0 {
		dc = 0
	}
	payout := -dc

	value, err := utils.TruncateToInt(payout)
	if err != nil {
		return types.Converted{}, err
	}
	if !value.IsPositive() {
		return types.Converted{}, fmt.Errorf("%w: %s converts to no reserve", ErrInsufficientPayment, from.Quantity)
	}
	valueF, err := utils.IntToFloat64(value)
	if err != nil {
		return types.Converted{}, err
	}
	ratio := valueF / payout

	if !reverse {
		if value.GT(conn.Balance.Amount) {
			return types.Converted{}, fmt.Errorf("%w: paying out %s, reserve holds %s",
				ErrInsufficientReserve, value, conn.Balance.Amount)
		}
		conn.Balance.Amount = conn.Balance.Amount.Sub(value)
	} else {
		conn.Balance.Amount = conn.Balance.Amount.Add(value)
	}

	return types.Converted{
		Value: types.ExtendedAsset{Quantity: types.NewAssetFromInt(value, to.Symbol), Issuer: to.Issuer},
		Delta: types.NewAssetFromInt(value, conn.Balance.Symbol),
		Ratio: ratio,
	}, nil
}

// Unconverted returns the portion of amount wasted by truncation, i.e.
// trunc(amount * (1 - ratio)). It is the refund owed back to the sender.
func Unconverted(amount sdkmath.Int, ratio float64) (sdkmath.Int, error) {
	f, err := utils.IntToFloat64(amount)
	if err != nil {
		return sdkmath.Int{}, err
	}
	unconverted, err := utils.TruncateToInt(f * (1 - ratio))
	if err != nil {
		return sdkmath.Int{}, err
	}
	if unconverted.IsNegative() {
		return sdkmath.ZeroInt(), nil
	}
	return unconverted, nil
}

func connectorWeight(conn *types.Connector) (float64, error) {
	if err := ValidateWeight(conn.Weight); err != nil {
		return 0, err
	}
	weight, err := conn.Weight.Float64()
	if err != nil {
		return 0, fmt.Errorf("connector weight: %w", err)
	}
	return weight, nil
}
