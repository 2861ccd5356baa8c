package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedMemo is returned when a deposit memo does not match the
// conversion grammar.
var ErrMalformedMemo = errors.New("malformed memo")

// MemoTarget is the parsed form of a deposit memo. Amount is the raw decimal
// string ("" means convert everything); its integer magnitude is only
// resolved once the target token's precision is known.
type MemoTarget struct {
	Code   string
	Issuer string
	Amount string
}

// ParseMemo parses a conversion memo. Accepted forms:
//
//	"<CODE>@<issuer>"            convert the whole deposit
//	"<amount> <CODE>@<issuer>"   produce exactly <amount> of the target
func ParseMemo(memo string) (MemoTarget, error) {
	atPos := strings.LastIndexByte(memo, '@')
	if atPos < 0 {
		return MemoTarget{}, fmt.Errorf("%w: %q needs `@`", ErrMalformedMemo, memo)
	}
	issuer := memo[atPos+1:]
	if issuer == "" || strings.ContainsRune(issuer, ' ') {
		return MemoTarget{}, fmt.Errorf("%w: %q has an invalid issuer", ErrMalformedMemo, memo)
	}

	head := memo[:atPos]
	target := MemoTarget{Issuer: issuer}
	if spacePos := strings.IndexByte(head, ' '); spacePos >= 0 {
		target.Amount = head[:spacePos]
		target.Code = head[spacePos+1:]
		if !validMemoAmount(target.Amount) {
			return MemoTarget{}, fmt.Errorf("%w: %q is not a valid target amount", ErrMalformedMemo, target.Amount)
		}
	} else {
		target.Code = head
	}

	sym := Symbol{Code: target.Code}
	if err := sym.Validate(); err != nil {
		return MemoTarget{}, fmt.Errorf("%w: %v", ErrMalformedMemo, err)
	}
	return target, nil
}

// validMemoAmount accepts a positive decimal number with at most one point.
// An all-zero amount is rejected; the amountless memo form is the only way
// to request convert-all.
func validMemoAmount(s string) bool {
	if s == "" {
		return false
	}
	dots := 0
	digits := 0
	nonzero := false
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
			digits++
			if c != '0' {
				nonzero = true
			}
		case c == '.':
			dots++
			if dots > 1 {
				return false
			}
		default:
			return false
		}
	}
	return digits > 0 && nonzero
}
