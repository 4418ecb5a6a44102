package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	PlaceholderDocument = "00000000000000"
	PlaceholderEmail    = "pendente@email.com"
	PlaceholderPhone    = "0000000000"

	// Provenance tag written on addresses that came from a manifest.
	AddressSourceImport = "manifest-import"
)

// Strip every non-alphanumeric character ("12.345.678/0001-99" -> "12345678000199").
func NormalizeDocument(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return strings.ToUpper(b.String())
}

// Normalize a vehicle plate: upper-cased, separators removed.
func NormalizePlate(s string) string {
	return NormalizeDocument(s)
}

// Normalize a free-form identifier (document or name) to a comparison key:
// accents folded, non-alphanumerics removed, upper-cased.
func NormalizeIdentifier(s string) string {
	return NormalizeDocument(FoldAccents(s))
}

// Remove diacritics ("Veículo" -> "Veiculo").
func FoldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Report whether a document is absent for matching purposes
// (blank or an all-zero placeholder).
func IsPlaceholderDocument(s string) bool {
	key := NormalizeDocument(s)
	return strings.Trim(key, "0") == ""
}
