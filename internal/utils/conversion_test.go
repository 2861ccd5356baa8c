package utils

import (
	"math"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"
)

func TestIntToFloat64(t *testing.T) {
	f, err := IntToFloat64(sdkmath.NewInt(12345))
	require.NoError(t, err)
	require.Equal(t, 12345.0, f)

	f, err = IntToFloat64(sdkmath.ZeroInt())
	require.NoError(t, err)
	require.Equal(t, 0.0, f)

	_, err = IntToFloat64(sdkmath.Int{})
	require.ErrorIs(t, err, ErrAmountNil)
}

func TestTruncateToInt(t *testing.T) {
	cases := []struct {
		in   float64
		want int64
	}{
		{0, 0},
		{0.999, 0},
		{1.0, 1},
		{488.088, 488},
		{-97.5, -97},
	}
	for _, tc := range cases {
		got, err := TruncateToInt(tc.in)
		require.NoError(t, err)
		require.Equal(t, tc.want, got.Int64(), "input %f", tc.in)
	}

	_, err := TruncateToInt(math.NaN())
	require.ErrorIs(t, err, ErrNotFinite)
	_, err = TruncateToInt(math.Inf(1))
	require.ErrorIs(t, err, ErrNotFinite)
}
