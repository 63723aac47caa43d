package ingest

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// WordTokenizer splits text into lowercase runs of letters, digits and
// underscores. Hyphens inside a word are kept ("machine-learning"), leading
// and trailing ones are stripped. Input is NFC-normalized first so that
// composed and decomposed spellings yield the same token.
type WordTokenizer struct {
	keepCase bool
}

// NewWordTokenizer creates a lowercasing tokenizer.
func NewWordTokenizer() *WordTokenizer {
	return &WordTokenizer{}
}

// KeepCase disables lowercasing.
func (t *WordTokenizer) KeepCase() *WordTokenizer {
	t.keepCase = true
	return t
}

// Tokenize never fails.
func (t *WordTokenizer) Tokenize(text string) ([]string, error) {
	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		if word := cleanToken(current.String()); word != "" {
			tokens = append(tokens, word)
		}
		current.Reset()
	}

	for _, r := range norm.NFC.String(text) {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' || r == '-' || unicode.Is(unicode.Mn, r) {
			if !t.keepCase {
				r = unicode.ToLower(r)
			}
			current.WriteRune(r)
			continue
		}
		flush()
	}
	flush()

	return tokens, nil
}

// cleanToken strips leading/trailing hyphens and collapses consecutive ones.
func cleanToken(token string) string {
	token = strings.Trim(token, "-")
	for strings.Contains(token, "--") {
		token = strings.ReplaceAll(token, "--", "-")
	}
	return token
}

// TermCounter counts raw token occurrences.
type TermCounter struct{}

// Count never fails.
func (TermCounter) Count(tokens []string) (Weights, error) {
	w := make(Weights, len(tokens))
	for _, tok := range tokens {
		w[tok]++
	}
	return w, nil
}

// MinLength drops tokens shorter than n runes.
func MinLength(n int) Preprocessor {
	return PreprocessorFunc(func(tokens []string) ([]string, error) {
		out := tokens[:0:0]
		for _, tok := range tokens {
			if len([]rune(tok)) >= n {
				out = append(out, tok)
			}
		}
		return out, nil
	})
}
