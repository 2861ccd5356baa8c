// ./internal/state/memory.go
package state

import (
	"sync"

	"github.com/elys-network/bce/internal/types"
)

// Memory-backed store variants, interchangeable with the Postgres stores.
// Used by the engine test suites and available to deployments that keep all
// durable state in the surrounding ledger transaction.

type poolKey struct {
	code   string
	issuer string
}

func keyFor(sym types.ExtendedSymbol) poolKey {
	return poolKey{code: sym.Symbol.Code, issuer: sym.Issuer}
}

// MemoryConnectorStore keeps connectors in a map.
type MemoryConnectorStore struct {
	mu    sync.RWMutex
	conns map[poolKey]types.Connector
}

func NewMemoryConnectorStore() *MemoryConnectorStore {
	return &MemoryConnectorStore{conns: make(map[poolKey]types.Connector)}
}

func (s *MemoryConnectorStore) Get(sym types.ExtendedSymbol) (*types.Connector, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conn, ok := s.conns[keyFor(sym)]
	if !ok {
		return nil, nil
	}
	return &conn, nil
}

func (s *MemoryConnectorStore) Put(conn types.Connector) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[keyFor(conn.Smart)] = conn
	return nil
}

func (s *MemoryConnectorStore) List() ([]types.Connector, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Connector, 0, len(s.conns))
	for _, conn := range s.conns {
		out = append(out, conn)
	}
	return out, nil
}

// MemoryChargeStore keeps per-pool fee overrides in a map.
type MemoryChargeStore struct {
	mu       sync.RWMutex
	policies map[poolKey]types.ChargePolicy
}

func NewMemoryChargeStore() *MemoryChargeStore {
	return &MemoryChargeStore{policies: make(map[poolKey]types.ChargePolicy)}
}

func (s *MemoryChargeStore) Get(sym types.ExtendedSymbol) (*types.ChargePolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	policy, ok := s.policies[keyFor(sym)]
	if !ok {
		return nil, nil
	}
	return &policy, nil
}

func (s *MemoryChargeStore) Put(policy types.ChargePolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies[keyFor(policy.Smart)] = policy
	return nil
}

func (s *MemoryChargeStore) Delete(sym types.ExtendedSymbol) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.policies, keyFor(sym))
	return nil
}

// MemoryConfigStore keeps the singleton configuration.
type MemoryConfigStore struct {
	mu  sync.RWMutex
	cfg *types.GlobalConfig
}

func NewMemoryConfigStore() *MemoryConfigStore {
	return &MemoryConfigStore{}
}

func (s *MemoryConfigStore) Get() (*types.GlobalConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cfg == nil {
		return nil, nil
	}
	cfg := *s.cfg
	return &cfg, nil
}

func (s *MemoryConfigStore) Put(cfg types.GlobalConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = &cfg
	return nil
}
