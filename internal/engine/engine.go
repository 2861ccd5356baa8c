/*

This file wires the exchange engine together: the store interfaces it loads
records through, the dependency-injected Engine struct, and the per-connector
serialization that keeps concurrent deposits against the same pool strictly
ordered while leaving independent pools free to run in parallel.

*/

package engine

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/elys-network/bce/internal/ledger"
	"github.com/elys-network/bce/internal/logger"
	"github.com/elys-network/bce/internal/types"
)

// ConnectorStore persists connectors keyed by smart-token code and authority
// (precision is ignored for lookups). Get returns (nil, nil) when absent.
type ConnectorStore interface {
	Get(sym types.ExtendedSymbol) (*types.Connector, error)
	Put(conn types.Connector) error
	List() ([]types.Connector, error)
}

// ChargeStore persists optional per-pool fee overrides. Get returns
// (nil, nil) when no override exists.
type ChargeStore interface {
	Get(sym types.ExtendedSymbol) (*types.ChargePolicy, error)
	Put(policy types.ChargePolicy) error
	Delete(sym types.ExtendedSymbol) error
}

// ConfigStore persists the singleton global configuration. Get returns
// (nil, nil) before initialization.
type ConfigStore interface {
	Get() (*types.GlobalConfig, error)
	Put(cfg types.GlobalConfig) error
}

// Engine is the exchange orchestrator: it classifies inbound deposits,
// drives the curve and fee computations, mutates connector state, and issues
// the outbound transfers through the token ledger.
type Engine struct {
	logger     zerolog.Logger
	account    string
	ledger     ledger.TokenLedger
	connectors ConnectorStore
	charges    ChargeStore
	config     ConfigStore

	locks lockTable
}

// Config holds the dependencies for creating an Engine.
type Config struct {
	// Account is the engine's own escrow account on the ledger. Outbound
	// payouts and refunds originate from it; inbound notifications it sent
	// itself are ignored.
	Account    string
	Ledger     ledger.TokenLedger
	Connectors ConnectorStore
	Charges    ChargeStore
	Global     ConfigStore
}

// New creates an Engine after validating every dependency is present.
func New(cfg Config) (*Engine, error) {
	if cfg.Account == "" {
		return nil, fmt.Errorf("engine account cannot be empty")
	}
	if cfg.Ledger == nil {
		return nil, fmt.Errorf("token ledger cannot be nil")
	}
	if cfg.Connectors == nil || cfg.Charges == nil || cfg.Global == nil {
		return nil, fmt.Errorf("stores cannot be nil")
	}
	return &Engine{
		logger:     logger.GetForComponent("exchange_engine"),
		account:    cfg.Account,
		ledger:     cfg.Ledger,
		connectors: cfg.Connectors,
		charges:    cfg.Charges,
		config:     cfg.Global,
	}, nil
}

// Account returns the engine's escrow account name.
func (e *Engine) Account() string {
	return e.account
}

// Connectors lists all persisted connectors.
func (e *Engine) Connectors() ([]types.Connector, error) {
	return e.connectors.List()
}

// GlobalConfig returns the persisted configuration, or ErrNotInitialized.
func (e *Engine) GlobalConfig() (*types.GlobalConfig, error) {
	cfg, err := e.config.Get()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if cfg == nil {
		return nil, ErrNotInitialized
	}
	return cfg, nil
}

// effectivePolicy resolves the fee policy for a pool: the per-pool override
// when present, the global default otherwise.
func (e *Engine) effectivePolicy(pool types.ExtendedSymbol, cfg *types.GlobalConfig) (types.BaseFeePolicy, error) {
	override, err := e.charges.Get(pool)
	if err != nil {
		return types.BaseFeePolicy{}, fmt.Errorf("loading charge policy for %s: %w", pool, err)
	}
	if override != nil {
		return override.BaseFeePolicy, nil
	}
	return cfg.BaseFeePolicy, nil
}

// lockTable hands out one mutex per connector so deposits targeting the same
// pool serialize while different pools proceed concurrently.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (t *lockTable) forConnector(sym types.ExtendedSymbol) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.locks == nil {
		t.locks = make(map[string]*sync.Mutex)
	}
	key := sym.Symbol.Code + "@" + sym.Issuer
	lock, ok := t.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		t.locks[key] = lock
	}
	return lock
}
