package ledger

import (
	"errors"

	"github.com/elys-network/bce/internal/types"
)

var (
	ErrTokenNotFound     = errors.New("token not found")
	ErrAccountNotFound   = errors.New("account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrMaxSupplyExceeded = errors.New("max supply exceeded")
	ErrTokenExists       = errors.New("token already exists")
)

// TokenLedger is the narrow collaborator interface the engine drives for
// everything token-side: supply and issuer lookups, mint/retire under the
// issuer's authority, and balance transfers. Tokens are matched by symbol
// code and issuing authority; lookups return assets carrying the token's
// canonical precision, so callers may pass symbols with precision unresolved.
//
// The concrete ledger is external to this system; tests and standalone mode
// substitute the in-memory implementation in this package.
type TokenLedger interface {
	// GetSupply returns the current outstanding supply of the token.
	GetSupply(sym types.ExtendedSymbol) (types.Asset, error)

	// GetIssuer returns the account allowed to mint and retire the token.
	GetIssuer(sym types.ExtendedSymbol) (string, error)

	// Issue mints quantity to the given account.
	Issue(to string, quantity types.ExtendedAsset, memo string) error

	// Retire burns quantity out of the issuer account's balance.
	Retire(quantity types.ExtendedAsset, memo string) error

	// Transfer moves quantity between accounts.
	Transfer(from, to string, quantity types.ExtendedAsset, memo string) error
}
