// Package rut validates and formats Chilean national identity keys (RUT),
// the primary key for every person entity in the directory. It is pure: no
// storage, no scope, safe to reuse standalone.
package rut

import (
	"strings"

	dErrors "furgon/pkg/domain-errors"
)

// Key is a canonical identity key: digits-only body, a dash, and a single
// check character (0-9 or K). Produced by Normalize; nothing else should
// construct one.
type Key string

func (k Key) String() string { return string(k) }

// Body returns the digits before the check character.
func (k Key) Body() string {
	if i := strings.IndexByte(string(k), '-'); i >= 0 {
		return string(k)[:i]
	}
	return string(k)
}

// minBodyLen is the shortest body accepted; shorter inputs are treated as
// incomplete rather than checksum failures.
const minBodyLen = 7

// Normalize strips formatting from raw, validates the mod-11 check digit and
// returns the canonical "body-check" form. Errors carry one of the codes
// CodeMalformedKey, CodeKeyTooShort or CodeCheckDigitMismatch.
func Normalize(raw string) (Key, error) {
	cleaned := clean(raw)
	if cleaned == "" {
		return "", dErrors.New(dErrors.CodeMalformedKey, "identity key is empty")
	}

	body := cleaned[:len(cleaned)-1]
	check := cleaned[len(cleaned)-1]

	if body == "" {
		return "", dErrors.New(dErrors.CodeMalformedKey, "identity key has no body")
	}
	for i := 0; i < len(body); i++ {
		if body[i] < '0' || body[i] > '9' {
			return "", dErrors.New(dErrors.CodeMalformedKey, "identity key body must be numeric")
		}
	}
	if len(body) < minBodyLen {
		return "", dErrors.New(dErrors.CodeKeyTooShort, "identity key body must have at least 7 digits")
	}
	if expected := checkChar(body); expected != check {
		return "", dErrors.New(dErrors.CodeCheckDigitMismatch, "identity key check digit does not match")
	}
	return Key(body + "-" + string(check)), nil
}

// Format renders raw for display: cleaned body, a dash, and the trailing
// check character. It does not validate; use Normalize for that. Inputs of a
// single character are returned as-is.
func Format(raw string) string {
	cleaned := clean(raw)
	if len(cleaned) <= 1 {
		return cleaned
	}
	return cleaned[:len(cleaned)-1] + "-" + cleaned[len(cleaned)-1:]
}

// clean drops everything except digits and k/K, uppercases K, and collapses
// any interior K so at most one remains, at the end.
func clean(raw string) string {
	var b strings.Builder
	sawK := false
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == 'k' || r == 'K':
			sawK = true
		}
	}
	if sawK {
		b.WriteByte('K')
	}
	return b.String()
}

// checkChar computes the expected check character for a numeric body using
// the weighted mod-11 scheme: multipliers cycle 2,3,4,5,6,7 from the least
// significant digit; 11 maps to '0' and 10 to 'K'.
func checkChar(body string) byte {
	sum := 0
	mult := 2
	for i := len(body) - 1; i >= 0; i-- {
		sum += mult * int(body[i]-'0')
		if mult < 7 {
			mult++
		} else {
			mult = 2
		}
	}
	switch expected := 11 - (sum % 11); expected {
	case 11:
		return '0'
	case 10:
		return 'K'
	default:
		return byte('0' + expected)
	}
}
