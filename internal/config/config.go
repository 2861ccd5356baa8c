package config

import (
	"errors"
	"os"

	"github.com/rs/zerolog/log"
)

// AppConfig holds all application configuration loaded from environment
// variables. These are populated at startup by the LoadConfig function.
var (
	// Account is the engine's own escrow account name on the ledger.
	// Outbound payouts and refunds originate from it, and administrative
	// actions authorize against it.
	Account string

	// ConnectedMaxSupply is the connected token declaration for standalone
	// mode, as an extended asset string, e.g.
	// "10000000000.0000 EOS@eosio.token".
	ConnectedMaxSupply string

	// ConnectedIssuerAccount is the account holding mint rights for the
	// connected token in standalone mode.
	ConnectedIssuerAccount string
)

// LoadConfig loads configuration from environment variables and sets the
// global config vars. All listed environment variables are required.
func LoadConfig() error {
	log.Info().Msg("Loading application configuration from environment variables...")

	var err error

	Account, err = getEnv("BCE_ACCOUNT")
	if err != nil {
		return err
	}

	ConnectedMaxSupply, err = getEnv("CONNECTED_MAX_SUPPLY")
	if err != nil {
		return err
	}

	ConnectedIssuerAccount, err = getEnv("CONNECTED_ISSUER_ACCOUNT")
	if err != nil {
		return err
	}

	log.Debug().
		Str("Account", Account).
		Str("ConnectedMaxSupply", ConnectedMaxSupply).
		Msg("Configuration loaded successfully.")

	return nil
}

// getEnv retrieves a string environment variable. Returns error if not set.
func getEnv(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists {
		return value, nil
	}
	return "", errors.New("environment variable " + key + " is required but not set")
}
