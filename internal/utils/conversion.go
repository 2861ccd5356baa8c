/*
This file contains the numeric bridge between the integer amounts held in
records and the real-number bonding-curve computation. All conversions are
zero-tolerance: NaN, infinity, and overflow are errors, never silently
clamped.
*/

package utils

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	sdkmath "cosmossdk.io/math"
)

// Error definitions for zero-tolerance error handling
var (
	ErrAmountNil        = errors.New("amount is nil")
	ErrNotFinite        = errors.New("value is not finite")
	ErrConversionFailed = errors.New("conversion failed")
)

// IntToFloat64 converts a raw integer magnitude to float64. Magnitudes above
// 2^53 lose precision, matching the reference curve computation which also
// operates in double precision.
func IntToFloat64(amount sdkmath.Int) (float64, error) {
	if amount.IsNil() {
		return 0, ErrAmountNil
	}
	result, _ := new(big.Float).SetInt(amount.BigInt()).Float64()
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0, fmt.Errorf("%w: %s does not fit in a float64", ErrNotFinite, amount)
	}
	return result, nil
}

// TruncateToInt converts a float64 to an integer magnitude, rounding toward
// zero. This is the single rounding mode used when curve output re-enters
// integer arithmetic.
func TruncateToInt(value float64) (sdkmath.Int, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return sdkmath.Int{}, fmt.Errorf("%w: %f", ErrNotFinite, value)
	}
	truncated := math.Trunc(value)
	bigInt, acc := big.NewFloat(truncated).Int(nil)
	if bigInt == nil || acc != big.Exact {
		return sdkmath.Int{}, fmt.Errorf("%w: cannot truncate %f", ErrConversionFailed, value)
	}
	return sdkmath.NewIntFromBigInt(bigInt), nil
}
