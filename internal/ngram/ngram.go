// Package ngram generates search tokens for payer/payee names so that
// backends without native text search can answer prefix and substring
// queries through exact-prefix lookups.
package ngram

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMinTokenSize is the shortest prefix emitted for a word. Words at
// or below this length are emitted whole.
const DefaultMinTokenSize = 3

// CapitaliseFirst returns s with its leading rune upper-cased.
func CapitaliseFirst(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

// LowercaseFirst returns s with its leading rune lower-cased.
func LowercaseFirst(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[size:]
}

// Tokens splits input on whitespace and emits every prefix of each word
// from minSize up to the word's length; words no longer than minSize are
// emitted whole. Deriving tokens from an unchanged input always produces
// the same token list, so index rebuilds are safe.
//
// When multiCase is set, each token is emitted twice: once with the
// leading letter upper-cased and once lower-cased. Two capitalisations
// bound the index size while tolerating the two most common input cases.
func Tokens(input string, minSize int, multiCase bool) []string {
	if minSize <= 0 {
		minSize = DefaultMinTokenSize
	}

	var tokens []string
	emit := func(token string) {
		if multiCase {
			tokens = append(tokens, CapitaliseFirst(token), LowercaseFirst(token))
			return
		}
		tokens = append(tokens, token)
	}

	for _, word := range strings.Fields(input) {
		runes := []rune(word)
		if len(runes) <= minSize {
			emit(word)
			continue
		}
		for i := minSize; i <= len(runes); i++ {
			emit(string(runes[:i]))
		}
	}

	return tokens
}

// Combinations returns every leading-letter capitalisation combination of
// the query: each word may start upper or lower, giving 2^wordcount
// variants. Word order and spacing are normalised to single spaces, which
// matches how names are tokenised at write time.
func Combinations(query string) []string {
	words := strings.Fields(query)
	if len(words) == 0 {
		return nil
	}

	variants := []string{""}
	for i, word := range words {
		sep := " "
		if i == 0 {
			sep = ""
		}
		next := make([]string, 0, len(variants)*2)
		upper := CapitaliseFirst(word)
		lower := LowercaseFirst(word)
		for _, prefix := range variants {
			next = append(next, prefix+sep+upper)
			if lower != upper {
				next = append(next, prefix+sep+lower)
			}
		}
		variants = next
	}

	return variants
}
