package curve

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/bce/internal/types"
)

var (
	smartSym = types.ExtendedSymbol{
		Symbol: types.Symbol{Code: "AAA", Precision: 0},
		Issuer: "pool.issuer",
	}
	reserveSym = types.ExtendedSymbol{
		Symbol: types.Symbol{Code: "EOS", Precision: 0},
		Issuer: "eosio.token",
	}
)

func newConnector(balance int64, weight string) *types.Connector {
	return &types.Connector{
		Smart:     smartSym,
		Balance:   types.NewAsset(balance, reserveSym.Symbol),
		Weight:    sdkmath.LegacyMustNewDecFromStr(weight),
		Activated: true,
	}
}

func reserveDeposit(amount int64) types.ExtendedAsset {
	return types.ExtendedAsset{Quantity: types.NewAsset(amount, reserveSym.Symbol), Issuer: reserveSym.Issuer}
}

func smartDeposit(amount int64) types.ExtendedAsset {
	return types.ExtendedAsset{Quantity: types.NewAsset(amount, smartSym.Symbol), Issuer: smartSym.Issuer}
}

func TestValidateWeight(t *testing.T) {
	require.NoError(t, ValidateWeight(sdkmath.LegacyMustNewDecFromStr("0.5")))
	require.NoError(t, ValidateWeight(sdkmath.LegacyOneDec()))
	require.ErrorIs(t, ValidateWeight(sdkmath.LegacyZeroDec()), ErrInvalidWeight)
	require.ErrorIs(t, ValidateWeight(sdkmath.LegacyMustNewDecFromStr("1.5")), ErrInvalidWeight)
	require.ErrorIs(t, ValidateWeight(sdkmath.LegacyMustNewDecFromStr("-0.5")), ErrInvalidWeight)
	require.ErrorIs(t, ValidateWeight(sdkmath.LegacyDec{}), ErrInvalidWeight)
}

func TestConvertToSmart(t *testing.T) {
	// dS = 10000 * ((1 + 100/1000)^0.5 - 1) = 488.088..., truncated to 488.
	conn := newConnector(1000, "0.5")
	out, err := ConvertToSmart(conn, sdkmath.NewInt(10000), reserveDeposit(100), smartSym)
	require.NoError(t, err)

	require.Equal(t, int64(488), out.Value.Quantity.Amount.Int64())
	require.Equal(t, smartSym.Issuer, out.Value.Issuer)
	// The truncated sliver is below one reserve unit, so the full deposit
	// enters the pool.
	require.Equal(t, int64(100), out.Delta.Amount.Int64())
	require.Equal(t, int64(1100), conn.Balance.Amount.Int64())
	require.Greater(t, out.Ratio, 0.0)
	require.LessOrEqual(t, out.Ratio, 1.0)
}

func TestConvertToSmartRefundsUnconvertedReserve(t *testing.T) {
	// dS = 100 * (sqrt(1.5) - 1) = 22.47..., truncated to 22. The 10 reserve
	// units the truncation wasted stay out of the pool.
	conn := newConnector(1000, "0.5")
	out, err := ConvertToSmart(conn, sdkmath.NewInt(100), reserveDeposit(500), smartSym)
	require.NoError(t, err)

	require.Equal(t, int64(22), out.Value.Quantity.Amount.Int64())
	require.Equal(t, int64(490), out.Delta.Amount.Int64())
	require.Equal(t, int64(1490), conn.Balance.Amount.Int64())

	refund, err := Unconverted(sdkmath.NewInt(500), out.Ratio)
	require.NoError(t, err)
	require.Equal(t, int64(10), refund.Int64())
	// delta + refund reconstructs the deposit exactly.
	require.Equal(t, int64(500), out.Delta.Amount.Add(refund).Int64())
}

func TestConvertToSmartLinearWeight(t *testing.T) {
	// Weight 1 is the constant-price degenerate case: dS = S * dC/C.
	conn := newConnector(1000, "1.0")
	out, err := ConvertToSmart(conn, sdkmath.NewInt(10000), reserveDeposit(100), smartSym)
	require.NoError(t, err)
	require.Equal(t, int64(1000), out.Value.Quantity.Amount.Int64())
	require.Equal(t, int64(100), out.Delta.Amount.Int64())
	require.InDelta(t, 1.0, out.Ratio, 1e-9)
}

func TestConvertToSmartTooSmall(t *testing.T) {
	conn := newConnector(100000, "0.5")
	before := conn.Balance.Amount
	_, err := ConvertToSmart(conn, sdkmath.NewInt(10), reserveDeposit(1), smartSym)
	require.ErrorIs(t, err, ErrInsufficientPayment)
	require.True(t, conn.Balance.Amount.Equal(before), "failed conversion must not touch the balance")

	_, err = ConvertToSmart(conn, sdkmath.NewInt(10), reserveDeposit(0), smartSym)
	require.ErrorIs(t, err, ErrInsufficientPayment)
}

func TestConvertToSmartDenominationMismatch(t *testing.T) {
	conn := newConnector(1000, "0.5")
	_, err := ConvertToSmart(conn, sdkmath.NewInt(10000), smartDeposit(100), smartSym)
	require.ErrorIs(t, err, types.ErrDenominationMismatch)
}

func TestConvertFromSmart(t *testing.T) {
	// dC = 1000 * ((1 - 500/10000)^2 - 1) = -97.5, payout truncated to 97.
	conn := newConnector(1000, "0.5")
	out, err := ConvertFromSmart(conn, sdkmath.NewInt(10000), smartDeposit(500), reserveSym)
	require.NoError(t, err)

	require.Equal(t, int64(97), out.Value.Quantity.Amount.Int64())
	require.Equal(t, reserveSym.Issuer, out.Value.Issuer)
	require.Equal(t, int64(903), conn.Balance.Amount.Int64())

	// 2 of the 500 burned tokens paid for nothing; they go back as dust.
	dust, err := Unconverted(sdkmath.NewInt(500), out.Ratio)
	require.NoError(t, err)
	require.Equal(t, int64(2), dust.Int64())
}

func TestConvertFromSmartSupplyExceeded(t *testing.T) {
	conn := newConnector(1000, "0.5")
	_, err := ConvertFromSmart(conn, sdkmath.NewInt(100), smartDeposit(101), reserveSym)
	require.ErrorIs(t, err, ErrSupplyExceeded)
}

func TestConvertFromSmartTooSmall(t *testing.T) {
	// Burning one token out of a huge supply releases less than one reserve unit.
	conn := newConnector(10, "0.5")
	_, err := ConvertFromSmart(conn, sdkmath.NewInt(1000000), smartDeposit(1), reserveSym)
	require.ErrorIs(t, err, ErrInsufficientPayment)
}

func TestConvertToExactSmart(t *testing.T) {
	// Required reserve for exactly 400 smart out of S=10000, C=1000, w=0.5:
	// |1000 * ((1 - 400/10000)^2 - 1)| = 78.4, truncated to 78.
	conn := newConnector(1000, "0.5")
	out, err := ConvertToExactSmart(conn, sdkmath.NewInt(10000), reserveSym, smartDeposit(400))
	require.NoError(t, err)

	require.Equal(t, int64(78), out.Value.Quantity.Amount.Int64())
	require.Equal(t, int64(1078), conn.Balance.Amount.Int64())
}

func TestConvertExactFromSmart(t *testing.T) {
	// Burn required for exactly 90 reserve out of S=10000, C=1000, w=0.5:
	// 10000 * (sqrt(1.09) - 1) = 440.3..., truncated to 440.
	conn := newConnector(1000, "0.5")
	out, err := ConvertExactFromSmart(conn, sdkmath.NewInt(10000), smartSym, reserveDeposit(90))
	require.NoError(t, err)

	require.Equal(t, int64(440), out.Value.Quantity.Amount.Int64())
	require.Equal(t, int64(910), conn.Balance.Amount.Int64())
}

func TestConvertExactFromSmartInsufficientReserve(t *testing.T) {
	conn := newConnector(100, "0.5")
	before := conn.Balance.Amount
	_, err := ConvertExactFromSmart(conn, sdkmath.NewInt(10000), smartSym, reserveDeposit(200))
	require.ErrorIs(t, err, ErrInsufficientReserve)
	require.True(t, conn.Balance.Amount.Equal(before))
}

func TestRoundTripCreatesNoValue(t *testing.T) {
	// Buying and then selling everything received must never pay out more
	// reserve than was deposited.
	for _, weight := range []string{"0.1", "0.25", "0.5", "0.75", "1.0"} {
		conn := newConnector(100000, weight)
		supply := sdkmath.NewInt(1000000)

		buy, err := ConvertToSmart(conn, supply, reserveDeposit(12345), smartSym)
		require.NoError(t, err)
		supply = supply.Add(buy.Value.Quantity.Amount)

		sell, err := ConvertFromSmart(conn, supply, types.ExtendedAsset{
			Quantity: buy.Value.Quantity, Issuer: smartSym.Issuer,
		}, reserveSym)
		require.NoError(t, err)

		require.LessOrEqual(t, sell.Value.Quantity.Amount.Int64(), buy.Delta.Amount.Int64(),
			"weight %s paid out more than deposited", weight)
	}
}

func TestUnconverted(t *testing.T) {
	refund, err := Unconverted(sdkmath.NewInt(500), 0.75)
	require.NoError(t, err)
	require.Equal(t, int64(125), refund.Int64())

	refund, err = Unconverted(sdkmath.NewInt(500), 1.0)
	require.NoError(t, err)
	require.True(t, refund.IsZero())
}
