/*

This file implements TokenLedger with in-process maps. It backs the test
suites and the standalone service mode; a production deployment substitutes
the real account ledger behind the same interface.

*/

package ledger

import (
	"fmt"
	"sync"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/bce/internal/types"
)

type tokenKey struct {
	issuer string
	code   string
}

type tokenRecord struct {
	symbol    types.Symbol
	supply    sdkmath.Int
	maxSupply sdkmath.Int
	issuer    string
}

// Memory is a thread-safe in-memory token ledger.
type Memory struct {
	mu       sync.RWMutex
	tokens   map[tokenKey]*tokenRecord
	balances map[string]map[tokenKey]sdkmath.Int
}

func NewMemory() *Memory {
	return &Memory{
		tokens:   make(map[tokenKey]*tokenRecord),
		balances: make(map[string]map[tokenKey]sdkmath.Int),
	}
}

// Create registers a token under the given authority with a max supply and
// an issuer account that holds mint/retire rights.
func (m *Memory) Create(authority string, maxSupply types.Asset, issuerAccount string) error {
	if err := maxSupply.Symbol.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := tokenKey{issuer: authority, code: maxSupply.Symbol.Code}
	if _, ok := m.tokens[key]; ok {
		return fmt.Errorf("%w: %s@%s", ErrTokenExists, maxSupply.Symbol.Code, authority)
	}
	m.tokens[key] = &tokenRecord{
		symbol:    maxSupply.Symbol,
		supply:    sdkmath.ZeroInt(),
		maxSupply: maxSupply.Amount,
		issuer:    issuerAccount,
	}
	return nil
}

func (m *Memory) GetSupply(sym types.ExtendedSymbol) (types.Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, err := m.lookup(sym)
	if err != nil {
		return types.Asset{}, err
	}
	return types.NewAssetFromInt(rec.supply, rec.symbol), nil
}

func (m *Memory) GetIssuer(sym types.ExtendedSymbol) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, err := m.lookup(sym)
	if err != nil {
		return "", err
	}
	return rec.issuer, nil
}

func (m *Memory) Issue(to string, quantity types.ExtendedAsset, memo string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.lookup(quantity.ExtendedSymbol())
	if err != nil {
		return err
	}
	if !quantity.Quantity.IsPositive() {
		return fmt.Errorf("issue amount must be positive, got %s", quantity.Quantity)
	}
	next := rec.supply.Add(quantity.Quantity.Amount)
	if next.GT(rec.maxSupply) {
		return fmt.Errorf("%w: supply %s + %s over cap %s", ErrMaxSupplyExceeded, rec.supply, quantity.Quantity.Amount, rec.maxSupply)
	}
	rec.supply = next
	m.credit(to, quantity.Issuer, rec.symbol.Code, quantity.Quantity.Amount)
	return nil
}

func (m *Memory) Retire(quantity types.ExtendedAsset, memo string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.lookup(quantity.ExtendedSymbol())
	if err != nil {
		return err
	}
	if !quantity.Quantity.IsPositive() {
		return fmt.Errorf("retire amount must be positive, got %s", quantity.Quantity)
	}
	if err := m.debit(rec.issuer, quantity.Issuer, rec.symbol.Code, quantity.Quantity.Amount); err != nil {
		return err
	}
	rec.supply = rec.supply.Sub(quantity.Quantity.Amount)
	return nil
}

func (m *Memory) Transfer(from, to string, quantity types.ExtendedAsset, memo string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.lookup(quantity.ExtendedSymbol())
	if err != nil {
		return err
	}
	if !quantity.Quantity.IsPositive() {
		return fmt.Errorf("transfer amount must be positive, got %s", quantity.Quantity)
	}
	if err := m.debit(from, quantity.Issuer, rec.symbol.Code, quantity.Quantity.Amount); err != nil {
		return err
	}
	m.credit(to, quantity.Issuer, rec.symbol.Code, quantity.Quantity.Amount)
	return nil
}

// Balance returns an account's holding of the token, with canonical
// precision. Unknown accounts hold zero.
func (m *Memory) Balance(account string, sym types.ExtendedSymbol) (types.Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, err := m.lookup(sym)
	if err != nil {
		return types.Asset{}, err
	}
	key := tokenKey{issuer: sym.Issuer, code: sym.Symbol.Code}
	if acct, ok := m.balances[account]; ok {
		if amount, ok := acct[key]; ok {
			return types.NewAssetFromInt(amount, rec.symbol), nil
		}
	}
	return types.ZeroAsset(rec.symbol), nil
}

func (m *Memory) lookup(sym types.ExtendedSymbol) (*tokenRecord, error) {
	rec, ok := m.tokens[tokenKey{issuer: sym.Issuer, code: sym.Symbol.Code}]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTokenNotFound, sym)
	}
	return rec, nil
}

func (m *Memory) credit(account, issuer, code string, amount sdkmath.Int) {
	key := tokenKey{issuer: issuer, code: code}
	acct, ok := m.balances[account]
	if !ok {
		acct = make(map[tokenKey]sdkmath.Int)
		m.balances[account] = acct
	}
	if held, ok := acct[key]; ok {
		acct[key] = held.Add(amount)
	} else {
		acct[key] = amount
	}
}

func (m *Memory) debit(account, issuer, code string, amount sdkmath.Int) error {
	key := tokenKey{issuer: issuer, code: code}
	acct, ok := m.balances[account]
	if !ok {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, account)
	}
	held, ok := acct[key]
	if !ok {
		held = sdkmath.ZeroInt()
	}
	if held.LT(amount) {
		return fmt.Errorf("%w: %s holds %s, needs %s", ErrInsufficientFunds, account, held, amount)
	}
	acct[key] = held.Sub(amount)
	return nil
}
