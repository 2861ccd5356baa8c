/*

This file implements the deposit state machine. Every inbound transfer
notification is handled as one atomic unit: load records, compute the full
conversion against a supply snapshot read once, issue the outbound
transfers, then persist the updated connector as the final commit step. Any
failure before that persists nothing.

*/

package engine

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"

	"github.com/elys-network/bce/internal/curve"
	"github.com/elys-network/bce/internal/fee"
	"github.com/elys-network/bce/internal/types"
)

// Receipt kinds, one per branch of the state machine.
const (
	KindActivate  = "activate"
	KindBuy       = "buy"
	KindBuyExact  = "buy_exact"
	KindSell      = "sell"
	KindSellExact = "sell_exact"
)

// Receipt records the outcome of one processed deposit.
type Receipt struct {
	ID        string              `json:"id"`
	Kind      string              `json:"kind"`
	From      string              `json:"from"`
	Deposited types.ExtendedAsset `json:"deposited"`
	Output    types.ExtendedAsset `json:"output"`
	Fee       types.Asset         `json:"fee"`
	Refund    types.Asset         `json:"refund"`
	Ratio     float64             `json:"ratio"`
}

// OnTransfer is the deposit-notification hook. It returns (nil, nil) for
// notifications the engine ignores: transfers it sent itself and transfers
// not addressed to its escrow account.
func (e *Engine) OnTransfer(from, to string, deposited types.ExtendedAsset, memo string) (*Receipt, error) {
	if from == e.account || to != e.account {
		return nil, nil
	}

	cfg, err := e.GlobalConfig()
	if err != nil {
		return nil, err
	}

	target, err := types.ParseMemo(memo)
	if err != nil {
		return nil, err
	}

	if !deposited.Quantity.IsPositive() {
		return nil, fmt.Errorf("%w: deposit %s", curve.ErrInsufficientPayment, deposited)
	}

	if deposited.ExtendedSymbol().SameToken(cfg.Connected) {
		return e.handleConnectedDeposit(cfg, from, deposited, target)
	}
	return e.handleSmartDeposit(cfg, from, deposited, target)
}

// handleConnectedDeposit covers the buy side: connector activation, market
// buys, and exact-output buys.
func (e *Engine) handleConnectedDeposit(cfg *types.GlobalConfig, from string, deposited types.ExtendedAsset, target types.MemoTarget) (*Receipt, error) {
	if !deposited.ExtendedSymbol().Equal(cfg.Connected) {
		return nil, fmt.Errorf("%w: deposit %s against connected token %s",
			types.ErrDenominationMismatch, deposited.ExtendedSymbol(), cfg.Connected)
	}

	pool := types.ExtendedSymbol{Symbol: types.Symbol{Code: target.Code}, Issuer: target.Issuer}

	lock := e.locks.forConnector(pool)
	lock.Lock()
	defer lock.Unlock()

	// Resolve the pool token's canonical precision and supply snapshot.
	supply, err := e.ledger.GetSupply(pool)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConnectorNotFound, pool, err)
	}
	pool.Symbol = supply.Symbol

	conn, err := e.connectors.Get(pool)
	if err != nil {
		return nil, fmt.Errorf("loading connector %s: %w", pool, err)
	}
	if conn == nil {
		return nil, fmt.Errorf("%w: %s", ErrConnectorNotFound, pool)
	}

	if !conn.Activated {
		return e.activate(conn, pool, from, deposited)
	}

	targetAmount, err := resolveTargetAmount(target, pool.Symbol.Precision)
	if err != nil {
		return nil, err
	}
	policy, err := e.effectivePolicy(pool, cfg)
	if err != nil {
		return nil, err
	}
	if targetAmount.IsZero() {
		return e.marketBuy(cfg, conn, pool, supply, from, deposited, policy)
	}
	return e.buyExact(cfg, conn, pool, supply, from, deposited, policy, targetAmount)
}

// activate performs the one-time transition to trading: the issuer seeds the
// declared reserve. No conversion, no fee, no output transfer.
func (e *Engine) activate(conn *types.Connector, pool types.ExtendedSymbol, from string, deposited types.ExtendedAsset) (*Receipt, error) {
	issuer, err := e.ledger.GetIssuer(pool)
	if err != nil {
		return nil, fmt.Errorf("resolving issuer of %s: %w", pool, err)
	}
	if from != issuer {
		return nil, fmt.Errorf("%w: only issuer %s can activate %s", ErrUnauthorized, issuer, pool)
	}
	if !deposited.Quantity.Equal(conn.Balance) {
		return nil, fmt.Errorf("initial balance %s does not match declared seed %s: %w",
			deposited.Quantity, conn.Balance, ErrConnectorNotActivated)
	}

	conn.Activated = true
	if err := e.connectors.Put(*conn); err != nil {
		return nil, fmt.Errorf("storing connector %s: %w", pool, err)
	}

	e.logger.Info().
		Str("pool", pool.String()).
		Str("seed", deposited.Quantity.String()).
		Msg("Connector activated")

	return e.receipt(KindActivate, from, deposited, types.ExtendedAsset{}, types.ZeroAsset(deposited.Quantity.Symbol), types.ZeroAsset(deposited.Quantity.Symbol), 1), nil
}

func (e *Engine) marketBuy(cfg *types.GlobalConfig, conn *types.Connector, pool types.ExtendedSymbol, supply types.Asset, from string, deposited types.ExtendedAsset, policy types.BaseFeePolicy) (*Receipt, error) {
	feeAmount := fee.Compute(policy, deposited.Quantity.Amount)
	postFee := deposited.Quantity.Amount.Sub(feeAmount)
	if !postFee.IsPositive() {
		return nil, fmt.Errorf("%w: deposit %s does not cover fee %s",
			curve.ErrInsufficientPayment, deposited.Quantity, feeAmount)
	}

	converted, err := curve.ConvertToSmart(conn, supply.Amount, e.connectedAsset(cfg, postFee), pool)
	if err != nil {
		return nil, err
	}

	issuer, err := e.ledger.GetIssuer(pool)
	if err != nil {
		return nil, fmt.Errorf("resolving issuer of %s: %w", pool, err)
	}

	// The truncated part of the post-fee deposit is refunded, and the slice
	// of the fee that matches the unconverted fraction is credited back too.
	refund := postFee.Sub(converted.Delta.Amount)
	feeRefund, err := curve.Unconverted(feeAmount, converted.Ratio)
	if err != nil {
		return nil, err
	}
	feeAmount = feeAmount.Sub(feeRefund)
	refund = refund.Add(feeRefund)

	if err := e.ledger.Issue(issuer, converted.Value, ""); err != nil {
		return nil, fmt.Errorf("issuing %s: %w", converted.Value, err)
	}
	if err := e.ledger.Transfer(issuer, from, converted.Value, ""); err != nil {
		return nil, fmt.Errorf("delivering %s: %w", converted.Value, err)
	}
	if err := e.payFeeAndRefund(cfg, from, feeAmount, e.connectedAsset(cfg, refund)); err != nil {
		return nil, err
	}

	if err := e.connectors.Put(*conn); err != nil {
		return nil, fmt.Errorf("storing connector %s: %w", pool, err)
	}

	e.logger.Info().
		Str("pool", pool.String()).
		Str("deposited", deposited.Quantity.String()).
		Str("minted", converted.Value.Quantity.String()).
		Str("fee", types.NewAssetFromInt(feeAmount, cfg.Connected.Symbol).String()).
		Float64("ratio", converted.Ratio).
		Msg("Market buy")

	return e.receipt(KindBuy, from, deposited, converted.Value,
		types.NewAssetFromInt(feeAmount, cfg.Connected.Symbol),
		types.NewAssetFromInt(refund, cfg.Connected.Symbol), converted.Ratio), nil
}

func (e *Engine) buyExact(cfg *types.GlobalConfig, conn *types.Connector, pool types.ExtendedSymbol, supply types.Asset, from string, deposited types.ExtendedAsset, policy types.BaseFeePolicy, targetAmount sdkmath.Int) (*Receipt, error) {
	targetAsset := types.ExtendedAsset{Quantity: types.NewAssetFromInt(targetAmount, pool.Symbol), Issuer: pool.Issuer}

	converted, err := curve.ConvertToExactSmart(conn, supply.Amount, cfg.Connected, targetAsset)
	if err != nil {
		return nil, err
	}
	required := converted.Value.Quantity.Amount

	feeAmount, err := fee.Required(policy, required)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", curve.ErrInsufficientPayment, err)
	}

	leftover := deposited.Quantity.Amount.Sub(required).Sub(feeAmount)
	if leftover.IsNegative() {
		return nil, fmt.Errorf("%w: deposit %s does not cover %s required plus %s fee",
			curve.ErrInsufficientPayment, deposited.Quantity,
			types.NewAssetFromInt(required, cfg.Connected.Symbol),
			types.NewAssetFromInt(feeAmount, cfg.Connected.Symbol))
	}

	issuer, err := e.ledger.GetIssuer(pool)
	if err != nil {
		return nil, fmt.Errorf("resolving issuer of %s: %w", pool, err)
	}

	if err := e.ledger.Issue(issuer, targetAsset, ""); err != nil {
		return nil, fmt.Errorf("issuing %s: %w", targetAsset, err)
	}
	if err := e.ledger.Transfer(issuer, from, targetAsset, ""); err != nil {
		return nil, fmt.Errorf("delivering %s: %w", targetAsset, err)
	}
	if err := e.payFeeAndRefund(cfg, from, feeAmount, e.connectedAsset(cfg, leftover)); err != nil {
		return nil, err
	}

	if err := e.connectors.Put(*conn); err != nil {
		return nil, fmt.Errorf("storing connector %s: %w", pool, err)
	}

	e.logger.Info().
		Str("pool", pool.String()).
		Str("minted", targetAsset.Quantity.String()).
		Str("required", types.NewAssetFromInt(required, cfg.Connected.Symbol).String()).
		Str("fee", types.NewAssetFromInt(feeAmount, cfg.Connected.Symbol).String()).
		Msg("Buy exact")

	return e.receipt(KindBuyExact, from, deposited, targetAsset,
		types.NewAssetFromInt(feeAmount, cfg.Connected.Symbol),
		types.NewAssetFromInt(leftover, cfg.Connected.Symbol), converted.Ratio), nil
}

// handleSmartDeposit covers the sell side: market sells and exact-output
// sells of a smart token back into the reserve.
func (e *Engine) handleSmartDeposit(cfg *types.GlobalConfig, from string, deposited types.ExtendedAsset, target types.MemoTarget) (*Receipt, error) {
	pool := deposited.ExtendedSymbol()

	lock := e.locks.forConnector(pool)
	lock.Lock()
	defer lock.Unlock()

	conn, err := e.connectors.Get(pool)
	if err != nil {
		return nil, fmt.Errorf("loading connector %s: %w", pool, err)
	}
	if conn == nil {
		return nil, fmt.Errorf("%w: %s", ErrConnectorNotFound, pool)
	}
	if !conn.Activated {
		return nil, fmt.Errorf("%w: %s", ErrConnectorNotActivated, pool)
	}

	if target.Code != cfg.Connected.Symbol.Code || target.Issuer != cfg.Connected.Issuer {
		return nil, fmt.Errorf("%w: sell memo names %s@%s, connected token is %s",
			types.ErrDenominationMismatch, target.Code, target.Issuer, cfg.Connected)
	}
	targetAmount, err := resolveTargetAmount(target, cfg.Connected.Symbol.Precision)
	if err != nil {
		return nil, err
	}

	supply, err := e.ledger.GetSupply(pool)
	if err != nil {
		return nil, fmt.Errorf("reading supply of %s: %w", pool, err)
	}
	pool.Symbol = supply.Symbol

	policy, err := e.effectivePolicy(pool, cfg)
	if err != nil {
		return nil, err
	}
	if targetAmount.IsZero() {
		return e.marketSell(cfg, conn, pool, supply, from, deposited, policy)
	}
	return e.sellExact(cfg, conn, pool, supply, from, deposited, policy, targetAmount)
}

func (e *Engine) marketSell(cfg *types.GlobalConfig, conn *types.Connector, pool types.ExtendedSymbol, supply types.Asset, from string, deposited types.ExtendedAsset, policy types.BaseFeePolicy) (*Receipt, error) {
	converted, err := curve.ConvertFromSmart(conn, supply.Amount, deposited, cfg.Connected)
	if err != nil {
		return nil, err
	}
	payout := converted.Value.Quantity.Amount

	feeAmount := fee.Compute(policy, payout)
	net := payout.Sub(feeAmount)
	if !net.IsPositive() {
		return nil, fmt.Errorf("%w: payout %s does not cover fee %s",
			curve.ErrInsufficientPayment, converted.Value.Quantity,
			types.NewAssetFromInt(feeAmount, cfg.Connected.Symbol))
	}

	// The smart tokens whose burn produced no payout (truncation dust) go
	// back to the seller instead of being retired.
	dust, err := curve.Unconverted(deposited.Quantity.Amount, converted.Ratio)
	if err != nil {
		return nil, err
	}
	retire := types.ExtendedAsset{
		Quantity: types.NewAssetFromInt(deposited.Quantity.Amount.Sub(dust), pool.Symbol),
		Issuer:   pool.Issuer,
	}

	issuer, err := e.ledger.GetIssuer(pool)
	if err != nil {
		return nil, fmt.Errorf("resolving issuer of %s: %w", pool, err)
	}

	if err := e.ledger.Transfer(e.account, issuer, retire, ""); err != nil {
		return nil, fmt.Errorf("returning %s to issuer: %w", retire, err)
	}
	if err := e.ledger.Retire(retire, ""); err != nil {
		return nil, fmt.Errorf("retiring %s: %w", retire, err)
	}
	proceeds := e.connectedAsset(cfg, net)
	if err := e.ledger.Transfer(e.account, from, proceeds, ""); err != nil {
		return nil, fmt.Errorf("paying out %s: %w", proceeds, err)
	}
	if feeAmount.IsPositive() {
		if err := e.ledger.Transfer(e.account, cfg.Owner, e.connectedAsset(cfg, feeAmount), "conversion fee"); err != nil {
			return nil, fmt.Errorf("forwarding fee: %w", err)
		}
	}
	if dust.IsPositive() {
		dustAsset := types.ExtendedAsset{Quantity: types.NewAssetFromInt(dust, pool.Symbol), Issuer: pool.Issuer}
		if err := e.ledger.Transfer(e.account, from, dustAsset, "refund not converted amount"); err != nil {
			return nil, fmt.Errorf("refunding %s: %w", dustAsset, err)
		}
	}

	if err := e.connectors.Put(*conn); err != nil {
		return nil, fmt.Errorf("storing connector %s: %w", pool, err)
	}

	e.logger.Info().
		Str("pool", pool.String()).
		Str("sold", deposited.Quantity.String()).
		Str("proceeds", proceeds.Quantity.String()).
		Str("fee", types.NewAssetFromInt(feeAmount, cfg.Connected.Symbol).String()).
		Float64("ratio", converted.Ratio).
		Msg("Market sell")

	return e.receipt(KindSell, from, deposited, proceeds,
		types.NewAssetFromInt(feeAmount, cfg.Connected.Symbol),
		types.NewAssetFromInt(dust, pool.Symbol), converted.Ratio), nil
}

func (e *Engine) sellExact(cfg *types.GlobalConfig, conn *types.Connector, pool types.ExtendedSymbol, supply types.Asset, from string, deposited types.ExtendedAsset, policy types.BaseFeePolicy, targetAmount sdkmath.Int) (*Receipt, error) {
	feeAmount, err := fee.Required(policy, targetAmount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", curve.ErrInsufficientPayment, err)
	}
	gross := e.connectedAsset(cfg, targetAmount.Add(feeAmount))

	converted, err := curve.ConvertExactFromSmart(conn, supply.Amount, pool, gross)
	if err != nil {
		return nil, err
	}
	burn := converted.Value.Quantity.Amount

	leftover := deposited.Quantity.Amount.Sub(burn)
	if leftover.IsNegative() {
		return nil, fmt.Errorf("%w: deposit %s does not cover required burn %s",
			curve.ErrInsufficientPayment, deposited.Quantity, converted.Value.Quantity)
	}

	issuer, err := e.ledger.GetIssuer(pool)
	if err != nil {
		return nil, fmt.Errorf("resolving issuer of %s: %w", pool, err)
	}

	retire := types.ExtendedAsset{Quantity: types.NewAssetFromInt(burn, pool.Symbol), Issuer: pool.Issuer}
	if err := e.ledger.Transfer(e.account, issuer, retire, ""); err != nil {
		return nil, fmt.Errorf("returning %s to issuer: %w", retire, err)
	}
	if err := e.ledger.Retire(retire, ""); err != nil {
		return nil, fmt.Errorf("retiring %s: %w", retire, err)
	}
	proceeds := e.connectedAsset(cfg, targetAmount)
	if err := e.ledger.Transfer(e.account, from, proceeds, ""); err != nil {
		return nil, fmt.Errorf("paying out %s: %w", proceeds, err)
	}
	if feeAmount.IsPositive() {
		if err := e.ledger.Transfer(e.account, cfg.Owner, e.connectedAsset(cfg, feeAmount), "conversion fee"); err != nil {
			return nil, fmt.Errorf("forwarding fee: %w", err)
		}
	}
	if leftover.IsPositive() {
		leftoverAsset := types.ExtendedAsset{Quantity: types.NewAssetFromInt(leftover, pool.Symbol), Issuer: pool.Issuer}
		if err := e.ledger.Transfer(e.account, from, leftoverAsset, "refund not converted amount"); err != nil {
			return nil, fmt.Errorf("refunding %s: %w", leftoverAsset, err)
		}
	}

	if err := e.connectors.Put(*conn); err != nil {
		return nil, fmt.Errorf("storing connector %s: %w", pool, err)
	}

	e.logger.Info().
		Str("pool", pool.String()).
		Str("burned", retire.Quantity.String()).
		Str("proceeds", proceeds.Quantity.String()).
		Str("fee", types.NewAssetFromInt(feeAmount, cfg.Connected.Symbol).String()).
		Msg("Sell exact")

	return e.receipt(KindSellExact, from, deposited, proceeds,
		types.NewAssetFromInt(feeAmount, cfg.Connected.Symbol),
		types.NewAssetFromInt(leftover, pool.Symbol), converted.Ratio), nil
}

// payFeeAndRefund forwards the retained fee to the owner and returns any
// unconverted remainder to the sender, both in the connected token.
func (e *Engine) payFeeAndRefund(cfg *types.GlobalConfig, from string, feeAmount sdkmath.Int, refund types.ExtendedAsset) error {
	if feeAmount.IsPositive() {
		if err := e.ledger.Transfer(e.account, cfg.Owner, e.connectedAsset(cfg, feeAmount), "conversion fee"); err != nil {
			return fmt.Errorf("forwarding fee: %w", err)
		}
	}
	if refund.Quantity.IsPositive() {
		if err := e.ledger.Transfer(e.account, from, refund, "refund not converted amount"); err != nil {
			return fmt.Errorf("refunding %s: %w", refund, err)
		}
	}
	return nil
}

func (e *Engine) connectedAsset(cfg *types.GlobalConfig, amount sdkmath.Int) types.ExtendedAsset {
	return types.ExtendedAsset{
		Quantity: types.NewAssetFromInt(amount, cfg.Connected.Symbol),
		Issuer:   cfg.Connected.Issuer,
	}
}

func (e *Engine) receipt(kind, from string, deposited, output types.ExtendedAsset, feeAsset, refund types.Asset, ratio float64) *Receipt {
	return &Receipt{
		ID:        uuid.NewString(),
		Kind:      kind,
		From:      from,
		Deposited: deposited,
		Output:    output,
		Fee:       feeAsset,
		Refund:    refund,
		Ratio:     ratio,
	}
}

// resolveTargetAmount turns a memo's decimal amount into an integer magnitude
// at the target token's precision. A missing amount means convert-all.
func resolveTargetAmount(target types.MemoTarget, precision int) (sdkmath.Int, error) {
	if target.Amount == "" {
		return sdkmath.ZeroInt(), nil
	}
	return types.AmountFromString(target.Amount, precision)
}
