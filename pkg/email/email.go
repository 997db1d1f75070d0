// Package email derives presentation defaults from an email address.
package email

import (
	"strings"
	"unicode"
)

// DeriveName splits the local part of an address into a first and last name
// guess, for records created without explicit names. "ana.rojas@x.cl" yields
// ("Ana", "Rojas"); a single-word local part repeats as both.
func DeriveName(address string) (string, string) {
	local := address
	if at := strings.IndexByte(address, '@'); at > 0 {
		local = address[:at]
	}
	parts := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(parts) == 0 {
		return "", ""
	}
	first := capitalize(parts[0])
	last := first
	if len(parts) > 1 {
		last = capitalize(parts[len(parts)-1])
	}
	return first, last
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
