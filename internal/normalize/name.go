package normalize

import (
	"strings"

	"github.com/mozillazg/go-unidecode"
)

// punctuation is the ASCII punctuation set removed from names before comparison.
const punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// Name canonicalizes a free-text person or place name into a comparison key.
// It lowercases, trims, removes ASCII punctuation and transliterates to ASCII.
// The empty string means "no usable name".
func Name(raw string) string {
	s := removePunctuation(strings.ToLower(strings.TrimSpace(raw)))
	s = unidecode.Unidecode(s)

	// Transliteration can introduce punctuation ("«" -> "<<") or edge spaces,
	// so strip once more to keep Name idempotent.
	return strings.TrimSpace(removePunctuation(strings.ToLower(s)))
}

// IsBlank reports whether raw normalizes to the empty sentinel.
func IsBlank(raw string) bool {
	return Name(raw) == ""
}

func removePunctuation(s string) string {
	b := strings.Builder{}
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x80 && strings.ContainsRune(punctuation, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
