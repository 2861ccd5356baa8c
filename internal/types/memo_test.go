package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseMemoWholeDeposit(t *testing.T) {
	target, err := ParseMemo("AAA@pool.issuer")
	require.NoError(t, err)
	require.Equal(t, "AAA", target.Code)
	require.Equal(t, "pool.issuer", target.Issuer)
	require.Empty(t, target.Amount)
}

func TestParseMemoExactTarget(t *testing.T) {
	target, err := ParseMemo("12.5 AAA@pool.issuer")
	require.NoError(t, err)
	require.Equal(t, "AAA", target.Code)
	require.Equal(t, "pool.issuer", target.Issuer)
	require.Equal(t, "12.5", target.Amount)
}

func TestParseMemoErrors(t *testing.T) {
	for _, memo := range []string{
		"",
		"AAA",            // no issuer
		"AAA@",           // empty issuer
		"AAA@a b",        // space in issuer
		"aaa@pool",       // lowercase code
		"x AAA@pool",     // non-numeric amount
		". AAA@pool",     // no digits
		"1.2.3 AAA@pool", // two points
		"-5 AAA@pool",    // sign not allowed
		"0 AAA@pool",     // explicit amount must be positive
		"0.000 AAA@pool", // still zero
	} {
		_, err := ParseMemo(memo)
		require.ErrorIs(t, err, ErrMalformedMemo, "memo %q", memo)
	}
}
