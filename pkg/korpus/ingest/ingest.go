// Package ingest defines the caller-supplied text processing collaborators
// (tokenizer, counter, preprocessing chain) and the pipeline that runs them.
package ingest

import (
	"fmt"
	"sort"
)

// Weights maps a token to its (usually integer) frequency or weight.
type Weights map[string]float64

// Tokenizer splits a document body into an ordered token sequence.
type Tokenizer interface {
	Tokenize(text string) ([]string, error)
}

// Counter turns a token sequence into per-token weights.
type Counter interface {
	Count(tokens []string) (Weights, error)
}

// Preprocessor transforms a token sequence, e.g. removing stopwords.
type Preprocessor interface {
	Process(tokens []string) ([]string, error)
}

// TokenizerFunc adapts a function to Tokenizer.
type TokenizerFunc func(text string) ([]string, error)

// Tokenize calls f(text).
func (f TokenizerFunc) Tokenize(text string) ([]string, error) { return f(text) }

// CounterFunc adapts a function to Counter.
type CounterFunc func(tokens []string) (Weights, error)

// Count calls f(tokens).
func (f CounterFunc) Count(tokens []string) (Weights, error) { return f(tokens) }

// PreprocessorFunc adapts a function to Preprocessor.
type PreprocessorFunc func(tokens []string) ([]string, error)

// Process calls f(tokens).
func (f PreprocessorFunc) Process(tokens []string) ([]string, error) { return f(tokens) }

// Term is one distinct token of a document with its weight.
type Term struct {
	Token  string
	Weight float64
}

// ProcessedDoc represents a document after the pipeline ran.
type ProcessedDoc struct {
	Tokens []string // after preprocessing
	Terms  []Term   // distinct tokens with non-zero weight
}

// Total returns the sum of all term weights.
func (d ProcessedDoc) Total() float64 {
	var sum float64
	for _, t := range d.Terms {
		sum += t.Weight
	}
	return sum
}

// Pipeline orchestrates the flow:
// text → tokenize → preprocessing chain (left to right) → count
type Pipeline struct {
	tokenizer Tokenizer
	counter   Counter
	chain     []Preprocessor
}

// NewPipeline creates a pipeline. A nil tokenizer or counter falls back to
// WordTokenizer and TermCounter.
func NewPipeline(tokenizer Tokenizer, counter Counter, chain ...Preprocessor) *Pipeline {
	if tokenizer == nil {
		tokenizer = NewWordTokenizer()
	}
	if counter == nil {
		counter = TermCounter{}
	}
	return &Pipeline{
		tokenizer: tokenizer,
		counter:   counter,
		chain:     chain,
	}
}

// Process runs a document body through the pipeline.
//
// Terms are ordered by first appearance in the preprocessed token sequence.
// Weighted tokens that never appear in that sequence (a counter may
// synthesize features) follow in lexical order. Zero weights are dropped.
func (p *Pipeline) Process(text string) (ProcessedDoc, error) {
	tokens, err := p.tokenizer.Tokenize(text)
	if err != nil {
		return ProcessedDoc{}, fmt.Errorf("tokenize: %w", err)
	}

	for i, step := range p.chain {
		tokens, err = step.Process(tokens)
		if err != nil {
			return ProcessedDoc{}, fmt.Errorf("preprocess step %d: %w", i+1, err)
		}
	}

	weights, err := p.counter.Count(tokens)
	if err != nil {
		return ProcessedDoc{}, fmt.Errorf("count: %w", err)
	}

	terms := make([]Term, 0, len(weights))
	seen := make(map[string]struct{}, len(weights))
	for _, tok := range tokens {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		if w := weights[tok]; w != 0 {
			terms = append(terms, Term{Token: tok, Weight: w})
		}
	}

	var extra []string
	for tok, w := range weights {
		if _, ok := seen[tok]; !ok && w != 0 {
			extra = append(extra, tok)
		}
	}
	sort.Strings(extra)
	for _, tok := range extra {
		terms = append(terms, Term{Token: tok, Weight: weights[tok]})
	}

	return ProcessedDoc{Tokens: tokens, Terms: terms}, nil
}
