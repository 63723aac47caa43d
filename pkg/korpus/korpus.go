// Package korpus converts a directory of plain-text documents, whose
// filenames carry metadata, into corpus formats used by text-analysis tools:
// JSON, a document-term matrix, graphs, LDA-C, SVMlight and SQLite.
package korpus

import (
	"context"
	"fmt"

	"github.com/cognicore/korpus/internal/log"
	"github.com/cognicore/korpus/pkg/korpus/config"
	"github.com/cognicore/korpus/pkg/korpus/export"
	"github.com/cognicore/korpus/pkg/korpus/ingest"
	"github.com/cognicore/korpus/pkg/korpus/internalerr"
	"github.com/cognicore/korpus/pkg/korpus/metadata"
	"github.com/cognicore/korpus/pkg/korpus/source"
	"github.com/cognicore/korpus/pkg/korpus/store"
)

// Corpus is the main conversion facade. Every To* call walks the source
// directory again, so one Corpus can produce any number of formats.
type Corpus struct {
	src      *source.Source
	exporter *export.Exporter
	pipeline *ingest.Pipeline
}

// Options configures a Corpus
type Options struct {
	Source     string
	Target     string
	Pattern    string // "" means metadata.DefaultPattern
	Glob       string // "" means source.DefaultGlob
	OnMismatch source.MismatchPolicy

	// Collaborators; nil tokenizer/counter fall back to the defaults.
	Tokenizer     ingest.Tokenizer
	Counter       ingest.Counter
	Preprocessors []ingest.Preprocessor

	Logger log.Logger
}

// New creates a Corpus and the target directory.
func New(opts Options) (*Corpus, error) {
	raw := opts.Pattern
	if raw == "" {
		raw = metadata.DefaultPattern
	}
	pattern, err := metadata.Compile(raw)
	if err != nil {
		return nil, err
	}

	src, err := source.New(source.Options{
		Dir:        opts.Source,
		Pattern:    pattern,
		Glob:       opts.Glob,
		OnMismatch: opts.OnMismatch,
	})
	if err != nil {
		return nil, err
	}

	exp, err := export.New(export.Options{
		Source: src,
		Target: opts.Target,
		Logger: opts.Logger,
	})
	if err != nil {
		return nil, err
	}

	return &Corpus{
		src:      src,
		exporter: exp,
		pipeline: ingest.NewPipeline(opts.Tokenizer, opts.Counter, opts.Preprocessors...),
	}, nil
}

// FromConfig validates cfg, loads its preprocessing files and creates a
// Corpus with the default tokenizer and counter.
func FromConfig(cfg *config.Config) (*Corpus, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", internalerr.ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	srcOpts, err := cfg.SourceOptions()
	if err != nil {
		return nil, err
	}
	chain, err := config.NewLoader(cfg).Chain()
	if err != nil {
		return nil, err
	}
	return New(Options{
		Source:        srcOpts.Dir,
		Target:        cfg.Target,
		Pattern:       srcOpts.Pattern.String(),
		Glob:          srcOpts.Glob,
		OnMismatch:    srcOpts.OnMismatch,
		Preprocessors: chain,
	})
}

// Documents reads the whole source into memory.
func (c *Corpus) Documents(ctx context.Context) ([]source.Document, error) {
	return c.src.Documents(ctx)
}

// ToJSON writes corpus.json (onefile) or one <stem>.json per document.
func (c *Corpus) ToJSON(ctx context.Context, onefile bool) (export.Result, error) {
	return c.exporter.JSON(ctx, onefile)
}

// ToMatrix writes corpus.matrix and corpus.metadata.
func (c *Corpus) ToMatrix(ctx context.Context) (export.Result, error) {
	return c.exporter.Matrix(ctx, c.pipeline)
}

// ToGraph writes corpus.<variant>; see graph.Variants.
func (c *Corpus) ToGraph(ctx context.Context, variant string) (export.Result, error) {
	return c.exporter.Graph(ctx, c.pipeline, variant)
}

// ToLDAC writes corpus.ldac, corpus.tokens and corpus.metadata.
func (c *Corpus) ToLDAC(ctx context.Context) (export.Result, error) {
	return c.exporter.LDAC(ctx, c.pipeline)
}

// ToSVMLight writes corpus.svmlight, corpus.tokens and corpus.metadata.
// classes pairs positionally with the documents in filename order.
func (c *Corpus) ToSVMLight(ctx context.Context, classes []string) (export.Result, error) {
	return c.exporter.SVMLight(ctx, c.pipeline, classes)
}

// ToSQLite writes corpus.sqlite.
func (c *Corpus) ToSQLite(ctx context.Context) (export.Result, error) {
	return c.exporter.SQLite(ctx, c.pipeline)
}

// ToStore writes the corpus into st, which the caller keeps open.
func (c *Corpus) ToStore(ctx context.Context, st store.Store) (export.Result, error) {
	return c.exporter.Store(ctx, c.pipeline, st)
}
