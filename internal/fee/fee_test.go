package fee

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/bce/internal/types"
)

func eos() types.Symbol { return types.Symbol{Code: "EOS", Precision: 4} }

func policy(rate int64, flat int64) types.BaseFeePolicy {
	return types.BaseFeePolicy{Rate: rate, Flat: types.NewAsset(flat, eos())}
}

func TestValidateRate(t *testing.T) {
	require.NoError(t, ValidateRate(0))
	require.NoError(t, ValidateRate(100))
	require.NoError(t, ValidateRate(RateScale))
	require.ErrorIs(t, ValidateRate(-1), ErrRateOutOfRange)
	require.ErrorIs(t, ValidateRate(RateScale+1), ErrRateOutOfRange)
}

func TestComputeExempted(t *testing.T) {
	require.True(t, Compute(policy(0, 0), sdkmath.NewInt(1000000)).IsZero())
}

func TestComputeProportional(t *testing.T) {
	// Rate 100 permyriad = 1%: p = 100, fee = ceil(value/100).
	p := policy(100, 0)
	require.Equal(t, int64(100), Compute(p, sdkmath.NewInt(10000)).Int64())
	require.Equal(t, int64(1), Compute(p, sdkmath.NewInt(100)).Int64())
	require.Equal(t, int64(1), Compute(p, sdkmath.NewInt(99)).Int64()) // ceil, never free
	require.Equal(t, int64(2), Compute(p, sdkmath.NewInt(101)).Int64())
}

func TestComputeFlatPlusProportional(t *testing.T) {
	p := policy(100, 5)
	require.Equal(t, int64(105), Compute(p, sdkmath.NewInt(10000)).Int64())
}

func TestComputeMinimumOneUnit(t *testing.T) {
	// Non-exempted policy whose components round to zero still charges 1.
	p := policy(100, 0)
	require.Equal(t, int64(1), Compute(p, sdkmath.ZeroInt()).Int64())

	flatOnly := policy(0, 3)
	require.Equal(t, int64(3), Compute(flatOnly, sdkmath.NewInt(10000)).Int64())
}

func TestComputeMonotonic(t *testing.T) {
	// In the charged value, for a fixed policy.
	p := policy(250, 2)
	prev := sdkmath.ZeroInt()
	for v := int64(1); v <= 2000; v++ {
		fee := Compute(p, sdkmath.NewInt(v))
		require.True(t, fee.GTE(prev), "fee decreased at value %d", v)
		prev = fee
	}

	// In the rate, for a fixed value: p = RateScale/rate shrinks as the rate
	// grows, so the proportional charge never decreases.
	value := sdkmath.NewInt(10000)
	prev = sdkmath.ZeroInt()
	for rate := int64(1); rate <= RateScale; rate++ {
		fee := Compute(policy(rate, 0), value)
		require.True(t, fee.GTE(prev), "fee decreased at rate %d", rate)
		prev = fee
	}

	// In the flat component, for fixed value and rate.
	prev = sdkmath.ZeroInt()
	for flat := int64(0); flat <= 100; flat++ {
		fee := Compute(policy(100, flat), value)
		require.True(t, fee.GTE(prev), "fee decreased at flat %d", flat)
		prev = fee
	}
}

func TestRequiredExempted(t *testing.T) {
	fee, err := Required(policy(0, 0), sdkmath.NewInt(1000))
	require.NoError(t, err)
	require.True(t, fee.IsZero())
}

func TestRequiredFlatOnly(t *testing.T) {
	fee, err := Required(policy(0, 7), sdkmath.NewInt(1000))
	require.NoError(t, err)
	require.Equal(t, int64(7), fee.Int64())
}

func TestRequiredCoversTarget(t *testing.T) {
	for _, p := range []types.BaseFeePolicy{
		policy(1, 0), policy(100, 0), policy(100, 5),
		policy(2500, 0), policy(5000, 10), policy(0, 1),
	} {
		for _, target := range []int64{1, 2, 99, 100, 101, 9999, 123456789} {
			tgt := sdkmath.NewInt(target)
			fee, err := Required(p, tgt)
			require.NoError(t, err)

			pre := tgt.Add(fee)
			net := pre.Sub(Compute(p, pre))
			require.True(t, net.GTE(tgt),
				"rate=%d flat=%s target=%d: pre %s nets %s", p.Rate, p.Flat.Amount, target, pre, net)

			// Minimality: one unit less must not cover.
			if fee.IsPositive() {
				short := pre.Sub(sdkmath.OneInt())
				require.True(t, short.Sub(Compute(p, short)).LT(tgt),
					"rate=%d flat=%s target=%d: fee %s is not minimal", p.Rate, p.Flat.Amount, target, fee)
			}
		}
	}
}

func TestRequiredNotCoverable(t *testing.T) {
	// Rates above 5000 permyriad make p = RateScale/rate collapse to 1; the
	// proportional charge then eats every marginal unit.
	_, err := Required(policy(5001, 0), sdkmath.NewInt(100))
	require.ErrorIs(t, err, ErrTargetNotCoverable)
	_, err = Required(policy(RateScale, 0), sdkmath.NewInt(100))
	require.ErrorIs(t, err, ErrTargetNotCoverable)
}

func TestRequiredNonPositiveTarget(t *testing.T) {
	_, err := Required(policy(100, 0), sdkmath.ZeroInt())
	require.ErrorIs(t, err, ErrNonPositiveTarget)
	_, err = Required(policy(100, 0), sdkmath.NewInt(-5))
	require.ErrorIs(t, err, ErrNonPositiveTarget)
}

func FuzzRequiredFee(f *testing.F) {
	f.Add(int64(100), int64(0), int64(1000))
	f.Add(int64(1), int64(3), int64(1))
	f.Add(int64(5000), int64(0), int64(99999))
	f.Fuzz(func(t *testing.T, rate, flat, target int64) {
		if rate < 0 || rate > 5000 || flat < 0 || flat > 1<<40 || target <= 0 || target > 1<<40 {
			t.Skip()
		}
		p := types.BaseFeePolicy{Rate: rate, Flat: types.NewAsset(flat, eos())}
		tgt := sdkmath.NewInt(target)

		fee, err := Required(p, tgt)
		require.NoError(t, err)
		require.False(t, fee.IsNegative())

		pre := tgt.Add(fee)
		require.True(t, pre.Sub(Compute(p, pre)).GTE(tgt))
	})
}
