package coerce

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// accentStripper decomposes characters and drops combining marks, turning
// "Crédito" into "Credito". Built once; transform.String is safe for
// concurrent use.
var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// StripAccents removes diacritical marks from s. On transform failure the
// input is returned unchanged, which only costs detection accuracy.
func StripAccents(s string) string {
	out, _, err := transform.String(accentStripper, s)
	if err != nil {
		return s
	}
	return out
}

// Slug normalizes a raw header for role detection: lowercase, accents
// stripped, runs of non [a-z0-9] collapsed to single underscores, leading
// and trailing underscores trimmed. "Nro. Comprobante" -> "nro_comprobante",
// "__id__" -> "id".
func Slug(header string) string {
	s := strings.ToLower(StripAccents(header))

	var b strings.Builder
	b.Grow(len(s))
	lastUnderscore := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}

	return strings.Trim(b.String(), "_")
}

// CleanText trims and accent-strips free text (descriptions, voucher
// numbers). Missing values become empty strings, never nulls.
func CleanText(s string) string {
	return strings.TrimSpace(StripAccents(s))
}
