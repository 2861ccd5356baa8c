/*

This file implements the administrative mutations: init, connect, setcharge,
and setowner. Authorization decisions are made against the already-verified
actor name the caller supplies; signature verification itself lives outside
the engine.

*/

package engine

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/bce/internal/curve"
	"github.com/elys-network/bce/internal/fee"
	"github.com/elys-network/bce/internal/types"
)

// Init creates the global configuration with a zero default fee. The
// connected token must exist on the ledger; its canonical precision is
// resolved there. Contract-authority only.
func (e *Engine) Init(actor, owner string, connected types.ExtendedSymbol) error {
	if actor != e.account {
		return fmt.Errorf("%w: init requires the contract authority", ErrUnauthorized)
	}
	if owner == "" {
		return fmt.Errorf("owner cannot be empty")
	}

	existing, err := e.config.Get()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if existing != nil {
		return ErrAlreadyInitialized
	}

	supply, err := e.ledger.GetSupply(connected)
	if err != nil {
		return fmt.Errorf("resolving connected token %s: %w", connected, err)
	}
	connected.Symbol = supply.Symbol

	cfg := types.GlobalConfig{
		Connected: connected,
		Owner:     owner,
		BaseFeePolicy: types.BaseFeePolicy{
			Rate: 0,
			Flat: types.ZeroAsset(connected.Symbol),
		},
	}
	if err := e.config.Put(cfg); err != nil {
		return fmt.Errorf("storing config: %w", err)
	}

	e.logger.Info().
		Str("connected", connected.String()).
		Str("owner", owner).
		Msg("Engine initialized")
	return nil
}

// Connect creates a connector for a smart token in the inactive state. Only
// the smart token's issuer may connect it, the seed balance must be
// denominated in the connected token, and the weight must lie in (0, 1].
func (e *Engine) Connect(actor string, smart types.ExtendedSymbol, seed types.ExtendedAsset, weight sdkmath.LegacyDec) error {
	cfg, err := e.GlobalConfig()
	if err != nil {
		return err
	}

	issuer, err := e.ledger.GetIssuer(smart)
	if err != nil {
		return fmt.Errorf("resolving issuer of %s: %w", smart, err)
	}
	if actor != issuer {
		return fmt.Errorf("%w: connect requires issuer %s", ErrUnauthorized, issuer)
	}

	if !seed.ExtendedSymbol().Equal(cfg.Connected) {
		return fmt.Errorf("%w: seed %s must be denominated in %s",
			types.ErrDenominationMismatch, seed.ExtendedSymbol(), cfg.Connected)
	}
	if !seed.Quantity.IsPositive() {
		return fmt.Errorf("seed balance %s must be positive", seed.Quantity)
	}
	if err := curve.ValidateWeight(weight); err != nil {
		return err
	}

	supply, err := e.ledger.GetSupply(smart)
	if err != nil {
		return fmt.Errorf("resolving smart token %s: %w", smart, err)
	}
	smart.Symbol = supply.Symbol

	lock := e.locks.forConnector(smart)
	lock.Lock()
	defer lock.Unlock()

	existing, err := e.connectors.Get(smart)
	if err != nil {
		return fmt.Errorf("loading connector %s: %w", smart, err)
	}
	if existing != nil {
		return fmt.Errorf("%w: %s", ErrConnectorExists, smart)
	}

	conn := types.Connector{
		Smart:     smart,
		Balance:   seed.Quantity,
		Weight:    weight,
		Activated: false,
	}
	if err := e.connectors.Put(conn); err != nil {
		return fmt.Errorf("storing connector %s: %w", smart, err)
	}

	e.logger.Info().
		Str("pool", smart.String()).
		Str("seed", seed.Quantity.String()).
		Str("weight", weight.String()).
		Msg("Connector created")
	return nil
}

// SetCharge mutates the fee policy. Without a pool it updates the global
// default; with one it creates or updates that pool's override. A rate of -1
// deletes an existing override. Contract-authority only.
func (e *Engine) SetCharge(actor string, rate int64, flat *types.Asset, pool *types.ExtendedSymbol) error {
	if actor != e.account {
		return fmt.Errorf("%w: setcharge requires the contract authority", ErrUnauthorized)
	}
	cfg, err := e.GlobalConfig()
	if err != nil {
		return err
	}

	if rate == -1 {
		if pool == nil {
			return fmt.Errorf("%w: the default policy cannot be deleted", fee.ErrRateOutOfRange)
		}
		resolved, err := e.resolvePool(*pool)
		if err != nil {
			return err
		}
		existing, err := e.charges.Get(resolved)
		if err != nil {
			return fmt.Errorf("loading charge policy for %s: %w", resolved, err)
		}
		if existing == nil {
			return fmt.Errorf("%w: %s", ErrNoOverridePolicy, resolved)
		}
		if err := e.charges.Delete(resolved); err != nil {
			return fmt.Errorf("deleting charge policy for %s: %w", resolved, err)
		}
		e.logger.Info().Str("pool", resolved.String()).Msg("Charge override deleted")
		return nil
	}

	if err := fee.ValidateRate(rate); err != nil {
		return err
	}
	flatFee := types.ZeroAsset(cfg.Connected.Symbol)
	if flat != nil {
		if !flat.Symbol.Equal(cfg.Connected.Symbol) {
			return fmt.Errorf("%w: flat fee %s must be denominated in %s",
				types.ErrDenominationMismatch, flat, cfg.Connected.Symbol)
		}
		if flat.Amount.IsNegative() {
			return fmt.Errorf("flat fee %s cannot be negative", flat)
		}
		flatFee = *flat
	}
	policy := types.BaseFeePolicy{Rate: rate, Flat: flatFee}

	if pool == nil {
		cfg.BaseFeePolicy = policy
		if err := e.config.Put(*cfg); err != nil {
			return fmt.Errorf("storing config: %w", err)
		}
		e.logger.Info().Int64("rate", rate).Str("flat", flatFee.String()).Msg("Default charge updated")
		return nil
	}

	resolved, err := e.resolvePool(*pool)
	if err != nil {
		return err
	}
	if err := e.charges.Put(types.ChargePolicy{Smart: resolved, BaseFeePolicy: policy}); err != nil {
		return fmt.Errorf("storing charge policy for %s: %w", resolved, err)
	}
	e.logger.Info().
		Str("pool", resolved.String()).
		Int64("rate", rate).
		Str("flat", flatFee.String()).
		Msg("Charge override updated")
	return nil
}

// SetOwner changes the fee-recipient/admin authority. Contract-authority
// only.
func (e *Engine) SetOwner(actor, newOwner string) error {
	if actor != e.account {
		return fmt.Errorf("%w: setowner requires the contract authority", ErrUnauthorized)
	}
	if newOwner == "" {
		return fmt.Errorf("owner cannot be empty")
	}
	cfg, err := e.GlobalConfig()
	if err != nil {
		return err
	}

	cfg.Owner = newOwner
	if err := e.config.Put(*cfg); err != nil {
		return fmt.Errorf("storing config: %w", err)
	}
	e.logger.Info().Str("owner", newOwner).Msg("Owner updated")
	return nil
}

// resolvePool canonicalizes a pool symbol against the ledger and checks a
// connector exists for it.
func (e *Engine) resolvePool(pool types.ExtendedSymbol) (types.ExtendedSymbol, error) {
	supply, err := e.ledger.GetSupply(pool)
	if err != nil {
		return types.ExtendedSymbol{}, fmt.Errorf("%w: %s: %v", ErrConnectorNotFound, pool, err)
	}
	pool.Symbol = supply.Symbol

	conn, err := e.connectors.Get(pool)
	if err != nil {
		return types.ExtendedSymbol{}, fmt.Errorf("loading connector %s: %w", pool, err)
	}
	if conn == nil {
		return types.ExtendedSymbol{}, fmt.Errorf("%w: %s", ErrConnectorNotFound, pool)
	}
	return pool, nil
}
