// ./internal/state/charge_store.go
package state

import (
	"database/sql"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog/log"

	"github.com/elys-network/bce/internal/types"
)

// ChargeStore persists per-pool fee overrides in the charge_policies table.
type ChargeStore struct{}

func NewChargeStore() *ChargeStore {
	return &ChargeStore{}
}

func (s *ChargeStore) Get(sym types.ExtendedSymbol) (*types.ChargePolicy, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	query := `
		SELECT smart_code, smart_issuer, smart_precision,
		       rate, flat_amount, flat_code, flat_precision
		FROM charge_policies
		WHERE smart_code = $1 AND smart_issuer = $2;`

	var (
		smartCode, smartIssuer, flatAmount, flatCode string
		smartPrecision, flatPrecision                int
		rate                                         int64
	)
	err := DB.QueryRow(query, sym.Symbol.Code, sym.Issuer).Scan(
		&smartCode, &smartIssuer, &smartPrecision,
		&rate, &flatAmount, &flatCode, &flatPrecision)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load charge policy %s: %w", sym, err)
	}

	amount, ok := sdkmath.NewIntFromString(flatAmount)
	if !ok {
		return nil, fmt.Errorf("invalid flat fee amount %q", flatAmount)
	}
	return &types.ChargePolicy{
		Smart: types.ExtendedSymbol{
			Symbol: types.Symbol{Code: smartCode, Precision: smartPrecision},
			Issuer: smartIssuer,
		},
		BaseFeePolicy: types.BaseFeePolicy{
			Rate: rate,
			Flat: types.NewAssetFromInt(amount, types.Symbol{Code: flatCode, Precision: flatPrecision}),
		},
	}, nil
}

func (s *ChargeStore) Put(policy types.ChargePolicy) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	stmt := `
		INSERT INTO charge_policies (
			smart_code, smart_issuer, smart_precision,
			rate, flat_amount, flat_code, flat_precision, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, CURRENT_TIMESTAMP)
		ON CONFLICT (smart_code, smart_issuer) DO UPDATE SET
			smart_precision = EXCLUDED.smart_precision,
			rate = EXCLUDED.rate,
			flat_amount = EXCLUDED.flat_amount,
			flat_code = EXCLUDED.flat_code,
			flat_precision = EXCLUDED.flat_precision,
			updated_at = CURRENT_TIMESTAMP;`

	flat := policy.Flat
	if flat.Amount.IsNil() {
		flat = types.ZeroAsset(flat.Symbol)
	}
	_, err := DB.Exec(stmt,
		policy.Smart.Symbol.Code, policy.Smart.Issuer, policy.Smart.Symbol.Precision,
		policy.Rate, flat.Amount.String(), flat.Symbol.Code, flat.Symbol.Precision,
	)
	if err != nil {
		return fmt.Errorf("failed to store charge policy %s: %w", policy.Smart, err)
	}

	log.Debug().Str("pool", policy.Smart.String()).Int64("rate", policy.Rate).Msg("Stored charge policy")
	return nil
}

func (s *ChargeStore) Delete(sym types.ExtendedSymbol) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	stmt := `DELETE FROM charge_policies WHERE smart_code = $1 AND smart_issuer = $2;`
	if _, err := DB.Exec(stmt, sym.Symbol.Code, sym.Issuer); err != nil {
		return fmt.Errorf("failed to delete charge policy %s: %w", sym, err)
	}

	log.Debug().Str("pool", sym.String()).Msg("Deleted charge policy")
	return nil
}
