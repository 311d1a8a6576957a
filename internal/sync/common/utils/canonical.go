package utils

import (
	"strings"

	"golang.org/x/net/idna"
)

// CanonicalDomain returns a domain name in canonical form:
// - Trimmed of surrounding whitespace
// - Lowercased
// - No trailing dot
// - Unicode labels converted to their IDNA ASCII (punycode) form
//
// Federated servers report internationalized domains inconsistently; folding
// everything to the ASCII form keeps map keys comparable across sources.
// If IDNA conversion fails the lowercased form is returned unchanged.
func CanonicalDomain(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ToLower(name)
	for strings.HasSuffix(name, ".") {
		name = strings.TrimSuffix(name, ".")
	}
	if name == "" {
		return name
	}
	ascii, err := idna.Lookup.ToASCII(name)
	if err != nil {
		return name
	}
	return ascii
}
