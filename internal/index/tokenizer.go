// Package index implements the two retrieval channels of the engine: an
// Okapi BM25 index over token sequences and a dense cosine-similarity index
// over embedding vectors. Both are rebuilt from the document store and hold
// no owning references into it.
package index

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// minTokenLen is the shortest term retained by the tokenizer.
const minTokenLen = 3

// Tokenize turns raw text into a normalized term sequence: lowercases,
// replaces every non-alphanumeric character with whitespace, splits on
// whitespace and drops terms shorter than minTokenLen runes.
//
// It is a pure function and must be used identically for indexing and for
// queries, since the sparse vocabulary is built exactly from its output.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}

	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, text)

	fields := strings.Fields(cleaned)
	tokens := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) >= minTokenLen {
			tokens = append(tokens, f)
		}
	}
	if len(tokens) == 0 {
		return nil
	}
	return tokens
}
