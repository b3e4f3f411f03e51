// Package email derives display names from email addresses. The owner
// directory only resolves contact points, so reminder salutations are
// built from the address itself.
package email

import (
	"strings"
	"unicode"
)

// DeriveNameFromEmail splits the local part of an address on common
// separators and returns (first, last) name guesses. Unparseable input
// falls back to "User".
func DeriveNameFromEmail(address string) (string, string) {
	local := address
	if at := strings.IndexByte(address, '@'); at > 0 {
		local = address[:at]
	}

	parts := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(parts) == 0 {
		return "User", "User"
	}

	first := capitalize(parts[0])
	last := "User"
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
