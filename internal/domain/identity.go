package domain

import (
	"strings"
	"unicode"
)

// Slugify lowercases s and collapses every run of non-alphanumeric characters
// into a single dash.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if r == '_' {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.Trim(b.String(), "-")
}

func alnumOnly(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IdentityKeys returns the three comparison forms of a room identifier:
// lowercase-trimmed raw, slug, and alphanumeric-only.
func IdentityKeys(s string) [3]string {
	raw := strings.ToLower(strings.TrimSpace(s))
	return [3]string{raw, Slugify(raw), alnumOnly(raw)}
}

// KeysMatch reports whether any comparison form of a equals the same form of b.
func KeysMatch(a, b string) bool {
	ka, kb := IdentityKeys(a), IdentityKeys(b)
	for i := range ka {
		if ka[i] != "" && ka[i] == kb[i] {
			return true
		}
	}
	return false
}
