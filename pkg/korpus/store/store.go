package store

import (
	"context"
	"time"
)

// Store persists one export run: the documents, the token table and the
// per-document weights.
type Store interface {
	Close() error

	// Runs
	BeginRun(ctx context.Context, id, format string) error
	GetRun(ctx context.Context, id string) (Run, error)

	// Docs
	AddDocument(ctx context.Context, d Doc) (int64, error)
	GetDoc(ctx context.Context, id int64) (Doc, error)
	DocCount(ctx context.Context) (int64, error)

	// Tokens & weights
	InternToken(ctx context.Context, token string) (int64, error)
	AddWeights(ctx context.Context, docID int64, weights []Weight) error
	TokenCount(ctx context.Context) (int64, error)
}

// Run records a single export invocation.
type Run struct {
	ID        string
	Format    string
	CreatedAt time.Time
}

// Doc represents a stored document
type Doc struct {
	ID       int64
	Stem     string
	Metadata map[string]string
	Text     string
	Terms    []Term // filled by GetDoc
}

// Weight links a token id to its weight within one document.
type Weight struct {
	TokenID int64
	Weight  float64
}

// Term is a weight resolved to its token.
type Term struct {
	Token  string
	Weight float64
}
