// ./internal/state/config_store.go
package state

import (
	"database/sql"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog/log"

	"github.com/elys-network/bce/internal/types"
)

// ConfigStore persists the singleton engine configuration in the
// engine_config table (one row enforced by a CHECK constraint).
type ConfigStore struct{}

func NewConfigStore() *ConfigStore {
	return &ConfigStore{}
}

func (s *ConfigStore) Get() (*types.GlobalConfig, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	query := `
		SELECT connected_code, connected_issuer, connected_precision,
		       owner, rate, flat_amount, flat_code, flat_precision
		FROM engine_config
		WHERE id = 1;`

	var (
		connectedCode, connectedIssuer, owner, flatAmount, flatCode string
		connectedPrecision, flatPrecision                           int
		rate                                                        int64
	)
	err := DB.QueryRow(query).Scan(
		&connectedCode, &connectedIssuer, &connectedPrecision,
		&owner, &rate, &flatAmount, &flatCode, &flatPrecision)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load engine config: %w", err)
	}

	amount, ok := sdkmath.NewIntFromString(flatAmount)
	if !ok {
		return nil, fmt.Errorf("invalid flat fee amount %q", flatAmount)
	}
	return &types.GlobalConfig{
		Connected: types.ExtendedSymbol{
			Symbol: types.Symbol{Code: connectedCode, Precision: connectedPrecision},
			Issuer: connectedIssuer,
		},
		Owner: owner,
		BaseFeePolicy: types.BaseFeePolicy{
			Rate: rate,
			Flat: types.NewAssetFromInt(amount, types.Symbol{Code: flatCode, Precision: flatPrecision}),
		},
	}, nil
}

func (s *ConfigStore) Put(cfg types.GlobalConfig) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	stmt := `
		INSERT INTO engine_config (
			id, connected_code, connected_issuer, connected_precision,
			owner, rate, flat_amount, flat_code, flat_precision, updated_at
		) VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO UPDATE SET
			connected_code = EXCLUDED.connected_code,
			connected_issuer = EXCLUDED.connected_issuer,
			connected_precision = EXCLUDED.connected_precision,
			owner = EXCLUDED.owner,
			rate = EXCLUDED.rate,
			flat_amount = EXCLUDED.flat_amount,
			flat_code = EXCLUDED.flat_code,
			flat_precision = EXCLUDED.flat_precision,
			updated_at = CURRENT_TIMESTAMP;`

	flat := cfg.Flat
	if flat.Amount.IsNil() {
		flat = types.ZeroAsset(flat.Symbol)
	}
	_, err := DB.Exec(stmt,
		cfg.Connected.Symbol.Code, cfg.Connected.Issuer, cfg.Connected.Symbol.Precision,
		cfg.Owner, cfg.Rate, flat.Amount.String(), flat.Symbol.Code, flat.Symbol.Precision,
	)
	if err != nil {
		return fmt.Errorf("failed to store engine config: %w", err)
	}

	log.Debug().Str("connected", cfg.Connected.String()).Str("owner", cfg.Owner).Msg("Stored engine config")
	return nil
}
