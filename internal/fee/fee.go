/*

This file implements the conversion fee engine: a proportional permyriad
rate plus a flat fee in the connected token, with an inverse used by the
exact-output flows to find the smallest pre-fee amount that still covers a
requested target after charging.

*/

package fee

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/bce/internal/types"
)

// RateScale is the permyriad denominator: a rate of 100 charges 1%.
const RateScale = 10000

var (
	ErrRateOutOfRange     = errors.New("charge rate out of range [0, 10000]")
	ErrTargetNotCoverable = errors.New("no pre-fee amount can cover the target under this policy")
	ErrNonPositiveTarget  = errors.New("fee target must be positive")
)

// ValidateRate checks a permyriad proportional rate.
func ValidateRate(rate int64) error {
	if rate < 0 || rate > RateScale {
		return fmt.Errorf("%w: %d", ErrRateOutOfRange, rate)
	}
	return nil
}

// Compute returns the fee charged against a pre-fee amount. An exempted
// policy charges nothing, unconditionally. Otherwise the fee is the flat
// component plus ceil(value / (RateScale/rate)), floored at 1 unit so that
// rounding never produces a free conversion.
func Compute(policy types.BaseFeePolicy, value sdkmath.Int) sdkmath.Int {
	if policy.IsExempted() {
		return sdkmath.ZeroInt()
	}
	fee := flatAmount(policy)
	if policy.Rate > 0 && value.IsPositive() {
		p := sdkmath.NewInt(RateScale / policy.Rate)
		fee = fee.Add(ceilDiv(value, p))
	}
	if !fee.IsPositive() {
		return sdkmath.OneInt()
	}
	return fee
}

// Required returns the fee for an exact-output flow: the smallest fee such
// that a pre-fee amount of target+fee still leaves at least target after
// Compute is charged against it. The algebraic estimate
// x = ceil((target+flat) * p / (p-1)) is used as a floor and then verified
// against the forward formula, stepping up until it covers; net(x+1)-net(x)
// is always 0 or 1, so the walk terminates within the approximation gap.
func Required(policy types.BaseFeePolicy, target sdkmath.Int) (sdkmath.Int, error) {
	if target.IsNil() || !target.IsPositive() {
		return sdkmath.Int{}, fmt.Errorf("%w: %s", ErrNonPositiveTarget, target)
	}
	if policy.IsExempted() {
		return sdkmath.ZeroInt(), nil
	}

	flat := flatAmount(policy)
	pre := target.Add(flat)
	if policy.Rate > 0 {
		p := RateScale / policy.Rate
		if p <= 1 {
			// The proportional charge consumes the whole amount.
			return sdkmath.Int{}, fmt.Errorf("%w: rate %d permyriad", ErrTargetNotCoverable, policy.Rate)
		}
		pInt := sdkmath.NewInt(int64(p))
		pre = ceilDiv(target.Add(flat).Mul(pInt), pInt.SubRaw(1))
	}
	for pre.Sub(Compute(policy, pre)).LT(target) {
		pre = pre.Add(sdkmath.OneInt())
	}
	return pre.Sub(target), nil
}

func flatAmount(policy types.BaseFeePolicy) sdkmath.Int {
	if policy.Flat.Amount.IsNil() {
		return sdkmath.ZeroInt()
	}
	return policy.Flat.Amount
}

// ceilDiv returns ceil(a / b) for positive b.
func ceilDiv(a, b sdkmath.Int) sdkmath.Int {
	return a.Add(b).Sub(sdkmath.OneInt()).Quo(b)
}
