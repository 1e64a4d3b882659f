// Package text provides tokenisation and normalisation for verse text and
// queries. It lower-cases input, splits on non-alphanumeric boundaries, and
// removes stop-words. There is deliberately no stemmer: keyword matching
// relies on the curated taxonomy rather than linguistic normalisation.
package text

import (
	"strings"
	"unicode"
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "he": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"or": {}, "that": {}, "the": {}, "to": {}, "was": {}, "were": {},
	"will": {}, "with": {}, "this": {}, "but": {}, "they": {},
	"have": {}, "had": {}, "what": {}, "when": {}, "where": {},
	"who": {}, "which": {}, "their": {}, "if": {}, "each": {},
	"do": {}, "not": {}, "no": {}, "so": {}, "can": {},
	"shall": {}, "unto": {}, "thee": {}, "thou": {}, "thy": {}, "ye": {},
}

// Token represents a single normalised term and its position in the kept
// token sequence.
type Token struct {
	Term     string
	Position int
}

// IsStopWord reports whether the lowercased word is in the stop-word set.
func IsStopWord(word string) bool {
	_, ok := stopWords[strings.ToLower(word)]
	return ok
}

// Tokenize breaks text into lowercased Tokens with stop-words and one-character
// fragments removed. Positions index the kept token sequence, not the raw
// words.
func Tokenize(text string) []Token {
	text = strings.ToLower(text)
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]Token, 0, len(words)/2)
	pos := 0
	for _, word := range words {
		if len(word) < 2 {
			continue
		}
		if _, isStop := stopWords[word]; isStop {
			continue
		}
		tokens = append(tokens, Token{
			Term:     word,
			Position: pos,
		})
		pos++
	}
	return tokens
}

// Terms returns just the term strings from Tokenize.
func Terms(text string) []string {
	tokens := Tokenize(text)
	terms := make([]string, len(tokens))
	for i, tok := range tokens {
		terms[i] = tok.Term
	}
	return terms
}

var quoteReplacer = strings.NewReplacer(
	"“", `"`, // left double quote
	"”", `"`, // right double quote
	"‘", "'", // left single quote
	"’", "'", // right single quote
	"–", "-", // en dash
	"—", "-", // em dash
)

// Normalize prepares a raw query string for parsing: lowercase, curly quotes
// straightened, whitespace collapsed, and anything outside a conservative
// allow-list (letters, digits, space, quote, apostrophe, colon, dash, comma)
// stripped.
func Normalize(raw string) string {
	s := quoteReplacer.Replace(raw)
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == ' ' || r == '\t' || r == '\n':
			b.WriteRune(' ')
		case r == '"' || r == '\'' || r == ':' || r == '-' || r == ',':
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// NormalizeVerse lower-cases verse text and collapses whitespace; punctuation
// is kept so highlight offsets computed against it stay meaningful.
func NormalizeVerse(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}
