// ./internal/state/connector_store.go
package state

import (
	"database/sql"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog/log"

	"github.com/elys-network/bce/internal/types"
)

// ConnectorStore persists connectors in the connectors table, keyed by the
// smart token's code and issuing authority.
type ConnectorStore struct{}

func NewConnectorStore() *ConnectorStore {
	return &ConnectorStore{}
}

func (s *ConnectorStore) Get(sym types.ExtendedSymbol) (*types.Connector, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	query := `
		SELECT smart_code, smart_issuer, smart_precision,
		       balance_amount, balance_code, balance_precision,
		       weight, activated
		FROM connectors
		WHERE smart_code = $1 AND smart_issuer = $2;`

	row := DB.QueryRow(query, sym.Symbol.Code, sym.Issuer)
	conn, err := scanConnector(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load connector %s: %w", sym, err)
	}
	return conn, nil
}

func (s *ConnectorStore) Put(conn types.Connector) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	stmt := `
		INSERT INTO connectors (
			smart_code, smart_issuer, smart_precision,
			balance_amount, balance_code, balance_precision,
			weight, activated, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, CURRENT_TIMESTAMP)
		ON CONFLICT (smart_code, smart_issuer) DO UPDATE SET
			smart_precision = EXCLUDED.smart_precision,
			balance_amount = EXCLUDED.balance_amount,
			balance_code = EXCLUDED.balance_code,
			balance_precision = EXCLUDED.balance_precision,
			weight = EXCLUDED.weight,
			activated = EXCLUDED.activated,
			updated_at = CURRENT_TIMESTAMP;`

	_, err := DB.Exec(stmt,
		conn.Smart.Symbol.Code, conn.Smart.Issuer, conn.Smart.Symbol.Precision,
		conn.Balance.Amount.String(), conn.Balance.Symbol.Code, conn.Balance.Symbol.Precision,
		conn.Weight.String(), conn.Activated,
	)
	if err != nil {
		return fmt.Errorf("failed to store connector %s: %w", conn.Smart, err)
	}

	log.Debug().
		Str("pool", conn.Smart.String()).
		Str("balance", conn.Balance.String()).
		Bool("activated", conn.Activated).
		Msg("Stored connector")
	return nil
}

func (s *ConnectorStore) List() ([]types.Connector, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	query := `
		SELECT smart_code, smart_issuer, smart_precision,
		       balance_amount, balance_code, balance_precision,
		       weight, activated
		FROM connectors
		ORDER BY smart_code, smart_issuer;`

	rows, err := DB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list connectors: %w", err)
	}
	defer rows.Close()

	var out []types.Connector
	for rows.Next() {
		conn, err := scanConnector(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan connector: %w", err)
		}
		out = append(out, *conn)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConnector(row rowScanner) (*types.Connector, error) {
	var (
		smartCode, smartIssuer, balanceAmount, balanceCode, weight string
		smartPrecision, balancePrecision                           int
		activated                                                  bool
	)
	if err := row.Scan(&smartCode, &smartIssuer, &smartPrecision,
		&balanceAmount, &balanceCode, &balancePrecision,
		&weight, &activated); err != nil {
		return nil, err
	}

	amount, ok := sdkmath.NewIntFromString(balanceAmount)
	if !ok {
		return nil, fmt.Errorf("invalid balance amount %q", balanceAmount)
	}
	weightDec, err := sdkmath.LegacyNewDecFromStr(weight)
	if err != nil {
		return nil, fmt.Errorf("invalid weight %q: %w", weight, err)
	}

	return &types.Connector{
		Smart: types.ExtendedSymbol{
			Symbol: types.Symbol{Code: smartCode, Precision: smartPrecision},
			Issuer: smartIssuer,
		},
		Balance:   types.NewAssetFromInt(amount, types.Symbol{Code: balanceCode, Precision: balancePrecision}),
		Weight:    weightDec,
		Activated: activated,
	}, nil
}
