package main

import (
	"os"
	"strconv"

	"github.com/elys-network/bce/internal/config"
	"github.com/elys-network/bce/internal/engine"
	"github.com/elys-network/bce/internal/ledger"
	"github.com/elys-network/bce/internal/logger"
	"github.com/elys-network/bce/internal/state"
	"github.com/elys-network/bce/internal/types"
	"github.com/elys-network/bce/internal/web"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// main is the entry point for the bonding-curve exchange service.
func main() {
	// --- 1. Initialization Phase ---
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}

	// Load configuration from environment variables
	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Initialize(os.Getenv("LOG_LEVEL"))
	log.Info().Msg("Bonding Curve Exchange Starting...")

	// Initialize Database Connection
	dbCfg := state.DBConfig{
		Host: os.Getenv("DB_HOST"), Port: mustAtoi(os.Getenv("DB_PORT"), 5432),
		User: os.Getenv("DB_USER"), Password: os.Getenv("DB_PASSWORD"),
		DBName: os.Getenv("DB_NAME"), SSLMode: os.Getenv("DB_SSLMODE"),
	}
	if err := state.InitDB(dbCfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer state.CloseDB()
	if err := state.EnsureSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure database schema")
	}

	// --- 2. Token Ledger Initialization (with Safety Switch) ---
	// Only the in-process ledger is wired today. The gate stays so a future
	// live-ledger adapter cannot be reached by accident.
	var tl ledger.TokenLedger
	bceMode := os.Getenv("BCE_MODE")

	if bceMode == "standalone" {
		log.Info().Msg("Initializing exchange in STANDALONE mode with an in-process ledger.")
		mem := ledger.NewMemory()
		maxSupply, err := types.ParseExtendedAsset(config.ConnectedMaxSupply)
		if err != nil {
			log.Fatal().Err(err).Str("value", config.ConnectedMaxSupply).Msg("Invalid CONNECTED_MAX_SUPPLY")
		}
		if err := mem.Create(maxSupply.Issuer, maxSupply.Quantity, config.ConnectedIssuerAccount); err != nil {
			log.Fatal().Err(err).Msg("Failed to register connected token")
		}
		tl = mem
	} else {
		log.Fatal().Msg("BCE_MODE is not set to 'standalone'. Halting to prevent accidental execution. Set BCE_MODE=standalone to run.")
	}

	// --- 3. Create Engine Instance with Dependency Injection ---
	log.Info().Msg("Creating exchange engine with dependency injection...")

	engineConfig := engine.Config{
		Account:    config.Account,
		Ledger:     tl,
		Connectors: state.NewConnectorStore(),
		Charges:    state.NewChargeStore(),
		Global:     state.NewConfigStore(),
	}

	eng, err := engine.New(engineConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create exchange engine")
	}

	log.Info().Str("account", eng.Account()).Msg("Exchange engine created successfully")

	// --- 4. Start Web Server ---
	webPort := os.Getenv("WEB_PORT")
	if webPort == "" {
		webPort = "8080"
	}

	webServer := web.NewWebServer(webPort, eng)
	log.Info().Str("port", webPort).Str("url", "http://localhost:"+webPort).Msg("Starting exchange API server")
	if err := webServer.Start(); err != nil {
		log.Fatal().Err(err).Msg("Web server failed")
	}
}

// Helper to convert string to int with a default value
func mustAtoi(s string, defaultValue int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return i
}
