package types

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"
)

func eos() Symbol { return Symbol{Code: "EOS", Precision: 4} }

func TestSymbolValidate(t *testing.T) {
	require.NoError(t, Symbol{Code: "EOS", Precision: 4}.Validate())
	require.NoError(t, Symbol{Code: "A", Precision: 0}.Validate())
	require.NoError(t, Symbol{Code: "ABCDEFG", Precision: 18}.Validate())

	require.ErrorIs(t, Symbol{Code: "", Precision: 4}.Validate(), ErrMalformedSymbol)
	require.ErrorIs(t, Symbol{Code: "TOOLONGG", Precision: 4}.Validate(), ErrMalformedSymbol)
	require.ErrorIs(t, Symbol{Code: "eos", Precision: 4}.Validate(), ErrMalformedSymbol)
	require.ErrorIs(t, Symbol{Code: "EO5", Precision: 4}.Validate(), ErrMalformedSymbol)
	require.ErrorIs(t, Symbol{Code: "EOS", Precision: -1}.Validate(), ErrMalformedSymbol)
	require.ErrorIs(t, Symbol{Code: "EOS", Precision: 19}.Validate(), ErrMalformedSymbol)
}

func TestAssetArithmetic(t *testing.T) {
	a := NewAsset(1000, eos())
	b := NewAsset(234, eos())

	sum, err := a.Add(b)
	require.NoError(t, err)
	require.Equal(t, int64(1234), sum.Amount.Int64())

	diff, err := a.Sub(b)
	require.NoError(t, err)
	require.Equal(t, int64(766), diff.Amount.Int64())

	// Same code, different precision is a different denomination.
	_, err = a.Add(NewAsset(1, Symbol{Code: "EOS", Precision: 3}))
	require.ErrorIs(t, err, ErrDenominationMismatch)
	_, err = a.Sub(NewAsset(1, Symbol{Code: "AAA", Precision: 4}))
	require.ErrorIs(t, err, ErrDenominationMismatch)
}

func TestAssetString(t *testing.T) {
	cases := []struct {
		amount    int64
		precision int
		want      string
	}{
		{10000, 4, "1.0000 EOS"},
		{12345, 4, "1.2345 EOS"},
		{5, 4, "0.0005 EOS"},
		{0, 4, "0.0000 EOS"},
		{-12345, 4, "-1.2345 EOS"},
		{42, 0, "42 EOS"},
	}
	for _, tc := range cases {
		got := NewAsset(tc.amount, Symbol{Code: "EOS", Precision: tc.precision}).String()
		require.Equal(t, tc.want, got)
	}
}

func TestParseAssetRoundTrip(t *testing.T) {
	for _, s := range []string{"1.0000 EOS", "0.0005 EOS", "42 BNT", "123456.789 AAA"} {
		asset, err := ParseAsset(s)
		require.NoError(t, err)
		require.Equal(t, s, asset.String())
	}
}

func TestParseAssetErrors(t *testing.T) {
	_, err := ParseAsset("1.0000")
	require.ErrorIs(t, err, ErrMalformedAsset)
	_, err = ParseAsset("abc EOS")
	require.ErrorIs(t, err, ErrMalformedAsset)
	_, err = ParseAsset("1.0000 eos")
	require.ErrorIs(t, err, ErrMalformedSymbol)
	_, err = ParseAsset("1.00000000000000000000 EOS")
	require.ErrorIs(t, err, ErrMalformedSymbol)
}

func TestParseExtendedAsset(t *testing.T) {
	ext, err := ParseExtendedAsset("100.0000 EOS@eosio.token")
	require.NoError(t, err)
	require.Equal(t, "eosio.token", ext.Issuer)
	require.Equal(t, int64(1000000), ext.Quantity.Amount.Int64())
	require.Equal(t, "100.0000 EOS@eosio.token", ext.String())

	_, err = ParseExtendedAsset("100.0000 EOS")
	require.ErrorIs(t, err, ErrMalformedAsset)
	_, err = ParseExtendedAsset("100.0000 EOS@")
	require.ErrorIs(t, err, ErrMalformedAsset)
}

func TestSameTokenIgnoresPrecision(t *testing.T) {
	a := ExtendedSymbol{Symbol: Symbol{Code: "AAA", Precision: 4}, Issuer: "pool"}
	b := ExtendedSymbol{Symbol: Symbol{Code: "AAA", Precision: 0}, Issuer: "pool"}
	require.True(t, a.SameToken(b))
	require.False(t, a.Equal(b))
	require.False(t, a.SameToken(ExtendedSymbol{Symbol: Symbol{Code: "AAA", Precision: 4}, Issuer: "other"}))
}

func TestAmountFromString(t *testing.T) {
	amount, err := AmountFromString("1.5", 4)
	require.NoError(t, err)
	require.Equal(t, int64(15000), amount.Int64())

	amount, err = AmountFromString("7", 4)
	require.NoError(t, err)
	require.Equal(t, int64(70000), amount.Int64())

	amount, err = AmountFromString("0.0001", 4)
	require.NoError(t, err)
	require.True(t, amount.Equal(sdkmath.OneInt()))

	// More fractional digits than the token carries.
	_, err = AmountFromString("1.00001", 4)
	require.ErrorIs(t, err, ErrDenominationMismatch)

	_, err = AmountFromString("", 4)
	require.ErrorIs(t, err, ErrMalformedAsset)
}
