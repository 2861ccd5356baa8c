/*

This file defines the denominated value types used everywhere amounts flow
through the engine: a Symbol (code + decimal precision), an Asset (integer
magnitude + symbol), and their issuer-scoped extended variants. Arithmetic
between two assets is only defined when their symbols match exactly.

*/

package types

import (
	"errors"
	"fmt"
	"strings"

	sdkmath "cosmossdk.io/math"
)

var (
	ErrDenominationMismatch = errors.New("denomination mismatch")
	ErrMalformedAsset       = errors.New("malformed asset string")
	ErrMalformedSymbol      = errors.New("malformed symbol")
)

// Symbol identifies a token denomination: an uppercase code plus the number
// of decimal places its integer magnitudes carry.
type Symbol struct {
	Code      string `json:"code"`
	Precision int    `json:"precision"`
}

// Equal reports whether both code and precision match.
func (s Symbol) Equal(other Symbol) bool {
	return s.Code == other.Code && s.Precision == other.Precision
}

func (s Symbol) String() string {
	return fmt.Sprintf("%d,%s", s.Precision, s.Code)
}

// Validate checks the symbol code against the allowed grammar (1-7 uppercase
// letters) and the precision range supported by the amount formatting.
func (s Symbol) Validate() error {
	if len(s.Code) < 1 || len(s.Code) > 7 {
		return fmt.Errorf("%w: code %q must be 1-7 characters", ErrMalformedSymbol, s.Code)
	}
	for _, c := range s.Code {
		if c < 'A' || c > 'Z' {
			return fmt.Errorf("%w: code %q must be uppercase A-Z", ErrMalformedSymbol, s.Code)
		}
	}
	if s.Precision < 0 || s.Precision > 18 {
		return fmt.Errorf("%w: precision %d out of range [0, 18]", ErrMalformedSymbol, s.Precision)
	}
	return nil
}

// ExtendedSymbol scopes a symbol to the authority that issues the token.
type ExtendedSymbol struct {
	Symbol Symbol `json:"symbol"`
	Issuer string `json:"issuer"`
}

func (s ExtendedSymbol) Equal(other ExtendedSymbol) bool {
	return s.Symbol.Equal(other.Symbol) && s.Issuer == other.Issuer
}

// SameToken reports whether two extended symbols name the same token,
// ignoring precision. Lookups resolved against the ledger carry the
// canonical precision; memo-derived symbols do not.
func (s ExtendedSymbol) SameToken(other ExtendedSymbol) bool {
	return s.Symbol.Code == other.Symbol.Code && s.Issuer == other.Issuer
}

func (s ExtendedSymbol) String() string {
	return fmt.Sprintf("%s@%s", s.Symbol.Code, s.Issuer)
}

// Asset is an integer token amount bound to a symbol.
type Asset struct {
	Amount sdkmath.Int `json:"amount"`
	Symbol Symbol      `json:"symbol"`
}

// NewAsset builds an asset from a raw int64 magnitude.
func NewAsset(amount int64, sym Symbol) Asset {
	return Asset{Amount: sdkmath.NewInt(amount), Symbol: sym}
}

// NewAssetFromInt builds an asset from an sdkmath.Int magnitude.
func NewAssetFromInt(amount sdkmath.Int, sym Symbol) Asset {
	return Asset{Amount: amount, Symbol: sym}
}

// ZeroAsset is the zero amount of the given symbol.
func ZeroAsset(sym Symbol) Asset {
	return Asset{Amount: sdkmath.ZeroInt(), Symbol: sym}
}

// Add returns a + b. Both assets must share the same symbol.
func (a Asset) Add(b Asset) (Asset, error) {
	if !a.Symbol.Equal(b.Symbol) {
		return Asset{}, fmt.Errorf("%w: cannot add %s to %s", ErrDenominationMismatch, b.Symbol, a.Symbol)
	}
	return Asset{Amount: a.Amount.Add(b.Amount), Symbol: a.Symbol}, nil
}

// Sub returns a - b. Both assets must share the same symbol.
func (a Asset) Sub(b Asset) (Asset, error) {
	if !a.Symbol.Equal(b.Symbol) {
		return Asset{}, fmt.Errorf("%w: cannot subtract %s from %s", ErrDenominationMismatch, b.Symbol, a.Symbol)
	}
	return Asset{Amount: a.Amount.Sub(b.Amount), Symbol: a.Symbol}, nil
}

func (a Asset) IsPositive() bool {
	return !a.Amount.IsNil() && a.Amount.IsPositive()
}

func (a Asset) IsZero() bool {
	return a.Amount.IsNil() || a.Amount.IsZero()
}

func (a Asset) Equal(b Asset) bool {
	return a.Symbol.Equal(b.Symbol) && a.Amount.Equal(b.Amount)
}

// String renders the asset with its full precision, e.g. "1.0000 EOS".
func (a Asset) String() string {
	amount := a.Amount
	if amount.IsNil() {
		amount = sdkmath.ZeroInt()
	}
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}
	if a.Symbol.Precision == 0 {
		return fmt.Sprintf("%s%s %s", sign, amount.String(), a.Symbol.Code)
	}
	scale := sdkmath.NewIntWithDecimal(1, a.Symbol.Precision)
	whole := amount.Quo(scale)
	frac := amount.Mod(scale).String()
	if pad := a.Symbol.Precision - len(frac); pad > 0 {
		frac = strings.Repeat("0", pad) + frac
	}
	return fmt.Sprintf("%s%s.%s %s", sign, whole.String(), frac, a.Symbol.Code)
}

// ParseAsset parses a string of the form "<numeric> <CODE>" where the number
// of digits after the decimal point defines the symbol's precision.
func ParseAsset(s string) (Asset, error) {
	spacePos := strings.IndexByte(s, ' ')
	if spacePos < 0 {
		return Asset{}, fmt.Errorf("%w: %q needs numeric and symbol", ErrMalformedAsset, s)
	}
	numeric := s[:spacePos]
	code := s[spacePos+1:]

	precision := 0
	if dotPos := strings.IndexByte(numeric, '.'); dotPos >= 0 {
		precision = len(numeric) - dotPos - 1
		numeric = numeric[:dotPos] + numeric[dotPos+1:]
	}
	sym := Symbol{Code: code, Precision: precision}
	if err := sym.Validate(); err != nil {
		return Asset{}, err
	}

	amount, ok := sdkmath.NewIntFromString(numeric)
	if !ok {
		return Asset{}, fmt.Errorf("%w: %q is not a valid amount", ErrMalformedAsset, numeric)
	}
	return Asset{Amount: amount, Symbol: sym}, nil
}

// ExtendedAsset is an asset scoped to its issuing authority.
type ExtendedAsset struct {
	Quantity Asset  `json:"quantity"`
	Issuer   string `json:"issuer"`
}

func (a ExtendedAsset) ExtendedSymbol() ExtendedSymbol {
	return ExtendedSymbol{Symbol: a.Quantity.Symbol, Issuer: a.Issuer}
}

func (a ExtendedAsset) String() string {
	return fmt.Sprintf("%s@%s", a.Quantity, a.Issuer)
}

// ParseExtendedAsset parses "<numeric> <CODE>@<issuer>".
func ParseExtendedAsset(s string) (ExtendedAsset, error) {
	atPos := strings.LastIndexByte(s, '@')
	if atPos < 0 {
		return ExtendedAsset{}, fmt.Errorf("%w: %q needs asset and issuer", ErrMalformedAsset, s)
	}
	issuer := s[atPos+1:]
	if issuer == "" {
		return ExtendedAsset{}, fmt.Errorf("%w: %q has an empty issuer", ErrMalformedAsset, s)
	}
	asset, err := ParseAsset(s[:atPos])
	if err != nil {
		return ExtendedAsset{}, err
	}
	return ExtendedAsset{Quantity: asset, Issuer: issuer}, nil
}

// AmountFromString converts a decimal amount string into an integer magnitude
// at the given precision. The string may carry fewer fractional digits than
// the precision (they are zero-padded) but never more.
func AmountFromString(numeric string, precision int) (sdkmath.Int, error) {
	if numeric == "" {
		return sdkmath.Int{}, fmt.Errorf("%w: empty amount", ErrMalformedAsset)
	}
	digits := numeric
	frac := 0
	if dotPos := strings.IndexByte(numeric, '.'); dotPos >= 0 {
		frac = len(numeric) - dotPos - 1
		digits = numeric[:dotPos] + numeric[dotPos+1:]
	}
	if frac > precision {
		return sdkmath.Int{}, fmt.Errorf("%w: %q carries %d fractional digits, token precision is %d",
			ErrDenominationMismatch, numeric, frac, precision)
	}
	for i := frac; i < precision; i++ {
		digits += "0"
	}
	amount, ok := sdkmath.NewIntFromString(digits)
	if !ok {
		return sdkmath.Int{}, fmt.Errorf("%w: %q is not a valid amount", ErrMalformedAsset, numeric)
	}
	return amount, nil
}
