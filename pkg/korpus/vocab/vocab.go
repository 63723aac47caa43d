// Package vocab assigns stable integer ids to tokens in first-seen order.
package vocab

import (
	"bufio"
	"io"
)

// Vocabulary is an insertion-ordered token↔id bijection. It only grows.
// A Vocabulary is owned by a single export run and is not safe for
// concurrent use.
type Vocabulary struct {
	base   int
	ids    map[string]int
	tokens []string
}

// New creates a vocabulary whose first id is base (0 for LDA-C, 1 for
// SVMlight).
func New(base int) *Vocabulary {
	return &Vocabulary{base: base, ids: make(map[string]int)}
}

// Intern returns the id of token, assigning the next free id if the token
// has not been seen before.
func (v *Vocabulary) Intern(token string) int {
	if id, ok := v.ids[token]; ok {
		return id
	}
	id := v.base + len(v.tokens)
	v.ids[token] = id
	v.tokens = append(v.tokens, token)
	return id
}

// ID looks up a token without interning it.
func (v *Vocabulary) ID(token string) (int, bool) {
	id, ok := v.ids[token]
	return id, ok
}

// Token returns the token with the given id.
func (v *Vocabulary) Token(id int) (string, bool) {
	i := id - v.base
	if i < 0 || i >= len(v.tokens) {
		return "", false
	}
	return v.tokens[i], true
}

// Base returns the first id.
func (v *Vocabulary) Base() int { return v.base }

// Len returns the number of distinct tokens.
func (v *Vocabulary) Len() int { return len(v.tokens) }

// Tokens returns the tokens in id order.
func (v *Vocabulary) Tokens() []string {
	out := make([]string, len(v.tokens))
	copy(out, v.tokens)
	return out
}

// WriteTo writes one token per line in id order.
func (v *Vocabulary) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	for _, tok := range v.tokens {
		k, err := bw.WriteString(tok + "\n")
		n += int64(k)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}
