// Package source enumerates a directory of plain-text documents and pairs
// each one with the metadata encoded in its filename.
package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/cognicore/korpus/pkg/korpus/internalerr"
	"github.com/cognicore/korpus/pkg/korpus/metadata"
)

// DefaultGlob selects the files read from the source directory.
const DefaultGlob = "*.txt"

// StemField is the only field of a record produced by MismatchStem.
const StemField = "stem"

// MismatchPolicy decides what happens when a filename does not fit the pattern.
type MismatchPolicy int

const (
	// MismatchFail aborts the walk with a metadata.MismatchError.
	MismatchFail MismatchPolicy = iota
	// MismatchStem substitutes a single-field record {stem: <stem>}.
	MismatchStem
)

func (p MismatchPolicy) String() string {
	switch p {
	case MismatchStem:
		return "stem"
	default:
		return "fail"
	}
}

// ParseMismatchPolicy accepts "fail" (or "") and "stem".
func ParseMismatchPolicy(s string) (MismatchPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fail":
		return MismatchFail, nil
	case "stem":
		return MismatchStem, nil
	default:
		return MismatchFail, fmt.Errorf("%w: unknown mismatch policy %q (want fail or stem)", internalerr.ErrInvalidInput, s)
	}
}

// Document is one source file with its extracted metadata.
type Document struct {
	Metadata metadata.Record
	Text     string
	Stem     string // filename without directory and extension
	Path     string
}

// Options configures a Source.
type Options struct {
	Dir        string
	Pattern    *metadata.Pattern // nil means metadata.DefaultPattern
	Glob       string            // matched against the base name; "" means DefaultGlob
	OnMismatch MismatchPolicy
}

// Source is a re-iterable document collection: every Walk lists the
// directory again and yields a fresh sequence.
type Source struct {
	dir        string
	pattern    *metadata.Pattern
	glob       string
	onMismatch MismatchPolicy
}

// New validates opts and returns a Source.
func New(opts Options) (*Source, error) {
	if strings.TrimSpace(opts.Dir) == "" {
		return nil, fmt.Errorf("%w: source directory is required", internalerr.ErrInvalidInput)
	}
	glob := opts.Glob
	if glob == "" {
		glob = DefaultGlob
	}
	if !doublestar.ValidatePattern(glob) {
		return nil, fmt.Errorf("%w: bad glob %q", internalerr.ErrInvalidInput, glob)
	}
	pattern := opts.Pattern
	if pattern == nil {
		pattern = metadata.MustCompile(metadata.DefaultPattern)
	}
	return &Source{
		dir:        opts.Dir,
		pattern:    pattern,
		glob:       glob,
		onMismatch: opts.OnMismatch,
	}, nil
}

// Dir returns the source directory.
func (s *Source) Dir() string { return s.dir }

// Pattern returns the filename pattern.
func (s *Source) Pattern() *metadata.Pattern { return s.pattern }

// Paths lists matching regular files (non-recursive) in lexical order.
func (s *Source) Paths() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read source dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ok, err := doublestar.Match(s.glob, e.Name())
		if err != nil {
			return nil, fmt.Errorf("match %q: %w", e.Name(), err)
		}
		if !ok {
			continue
		}
		p := filepath.Join(s.dir, e.Name())
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.Mode().IsRegular() {
			continue
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// Walk calls fn once per document, in lexical filename order. Each file is
// opened, read and closed before fn is called, so at most one handle is
// open at a time. The first error from metadata extraction, reading or fn
// stops the walk and is returned.
func (s *Source) Walk(ctx context.Context, fn func(Document) error) error {
	paths, err := s.Paths()
	if err != nil {
		return err
	}
	for _, p := range paths {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		doc, err := s.load(p)
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
	return nil
}

// Documents materializes the whole collection. Intended for small corpora.
func (s *Source) Documents(ctx context.Context) ([]Document, error) {
	var docs []Document
	err := s.Walk(ctx, func(d Document) error {
		docs = append(docs, d)
		return nil
	})
	return docs, err
}

func (s *Source) load(path string) (Document, error) {
	base := filepath.Base(path)
	stem := Stem(base)

	rec, err := s.pattern.Extract(stem)
	if err != nil {
		if s.onMismatch != MismatchStem {
			return Document{}, err
		}
		rec = metadata.Record{{Name: StemField, Value: stem}}
	}

	text, err := readText(path)
	if err != nil {
		return Document{}, fmt.Errorf("read %s: %w", base, err)
	}

	return Document{
		Metadata: rec,
		Text:     text,
		Stem:     stem,
		Path:     path,
	}, nil
}

// Stem strips directory and extension from a filename.
func Stem(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func readText(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		f, err := os.Open(path)
		if err != nil {
			return "", err
		}
		defer f.Close()
		return extractHTML(f)
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}
