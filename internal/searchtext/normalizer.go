package searchtext

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Config controls text normalization. Substitutions cover base letters that
// NFD decomposition leaves untouched: the Vietnamese đ/Đ carry no combining
// mark, so stripping marks alone would never fold them to d/D.
type Config struct {
	Substitutions map[rune]rune
}

// DefaultConfig returns the Vietnamese substitution table.
func DefaultConfig() Config {
	return Config{
		Substitutions: map[rune]rune{
			'đ': 'd',
			'Đ': 'D',
		},
	}
}

// Normalizer folds text for accent-insensitive matching. The exact same
// instance must be applied to stored text at write time and to queries at
// read time; any divergence makes stored and queried text incomparable.
type Normalizer struct {
	subs map[rune]rune
}

func NewNormalizer(cfg Config) *Normalizer {
	subs := make(map[rune]rune, len(cfg.Substitutions))
	for from, to := range cfg.Substitutions {
		subs[from] = to
	}
	return &Normalizer{subs: subs}
}

// Normalize lowercases, strips diacritics, applies the substitution table
// and collapses whitespace. It is total and idempotent:
// Normalize(Normalize(s)) == Normalize(s) for every input.
//
// The ordering is load-bearing. Lowercasing runs before mark stripping: a
// few code points lower into a base letter plus a combining mark, which
// would survive a strip-then-lower order. Whitespace collapses last:
// stripping can erase a token made of bare combining marks, and collapsing
// first would leave its surrounding spaces behind.
func (n *Normalizer) Normalize(s string) string {
	s = strings.ToLower(s)

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if stripped, _, err := transform.String(t, s); err == nil {
		s = stripped
	}

	if len(n.subs) > 0 {
		s = strings.Map(func(r rune) rune {
			if sub, ok := n.subs[r]; ok {
				return sub
			}
			return r
		}, s)
	}

	return strings.Join(strings.Fields(s), " ")
}
