package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/cognicore/korpus/pkg/korpus/ingest"
	"github.com/cognicore/korpus/pkg/korpus/source"
	"github.com/cognicore/korpus/pkg/korpus/vocab"
)

const basenameField = "basename"

// errClassesExhausted stops a SVMlight walk once every label was used.
var errClassesExhausted = errors.New("class labels exhausted")

type sparseFormat struct {
	name string
	file string
	base int
	// label returns the first field of a line for document i.
	label func(i int, terms []ingest.Term) string
	// sorted orders the features of a line by ascending id.
	sorted bool
}

// LDAC writes one "M id:count ..." line per document to corpus.ldac, where
// M is the number of distinct tokens and ids are 0-based in first-seen
// order. Features keep the order in which tokens first appear in the
// document.
func (e *Exporter) LDAC(ctx context.Context, pipe *ingest.Pipeline) (Result, error) {
	return e.sparse(ctx, pipe, sparseFormat{
		name: "ldac",
		file: LDACFile,
		base: 0,
		label: func(_ int, terms []ingest.Term) string {
			return strconv.Itoa(len(terms))
		},
	}, -1)
}

// SVMLight writes one "class id:value ..." line per document to
// corpus.svmlight with 1-based ids. classes pairs positionally with the
// documents; when the lengths differ the shorter one wins and a warning is
// logged. Features are sorted by id as svm_light requires.
func (e *Exporter) SVMLight(ctx context.Context, pipe *ingest.Pipeline, classes []string) (Result, error) {
	return e.sparse(ctx, pipe, sparseFormat{
		name: "svmlight",
		file: SVMLightFile,
		base: 1,
		label: func(i int, _ []ingest.Term) string {
			return classes[i]
		},
		sorted: true,
	}, len(classes))
}

// sparse drives both line formats. limit < 0 means every document.
func (e *Exporter) sparse(ctx context.Context, pipe *ingest.Pipeline, f sparseFormat, limit int) (Result, error) {
	r := e.start(f.name)

	// Truncated once here; a failed run leaves the lines written so far.
	linesPath := e.path(f.file)
	out, err := createSink(linesPath)
	if err != nil {
		return *r, err
	}
	defer out.Close()

	voc := vocab.New(f.base)
	meta := newMetaTable(basenameField)

	err = e.walk(ctx, r, func(doc source.Document) error {
		if limit >= 0 && r.Documents >= limit {
			return errClassesExhausted
		}
		processed, err := pipe.Process(doc.Text)
		if err != nil {
			return err
		}
		if err := out.WriteLine(sparseLine(f, r.Documents, processed.Terms, voc)); err != nil {
			return err
		}
		meta.add(filepath.Base(doc.Path), doc.Metadata)
		return nil
	})
	if errors.Is(err, errClassesExhausted) {
		err = nil
	}
	if err != nil {
		return *r, err
	}
	if limit >= 0 && r.Documents < limit {
		e.logger.Warnf("run=%s %d class labels for %d documents, extra labels ignored", r.RunID, limit, r.Documents)
	}
	if limit >= 0 && r.Documents == limit {
		if more, cerr := e.hasMoreThan(limit); cerr == nil && more {
			e.logger.Warnf("run=%s only %d class labels, remaining documents skipped", r.RunID, limit)
		}
	}
	if err := out.Close(); err != nil {
		return *r, err
	}

	tokensPath := e.path(TokensFile)
	if err := writeFile(tokensPath, func(w io.Writer) error {
		_, err := voc.WriteTo(w)
		return err
	}); err != nil {
		return *r, err
	}

	metaPath := e.path(MetadataFile)
	if err := writeFile(metaPath, meta.writeTo); err != nil {
		return *r, err
	}

	r.Vocabulary = voc.Len()
	r.Artifacts = append(r.Artifacts, linesPath, tokensPath, metaPath)
	e.finish(r)
	return *r, nil
}

func sparseLine(f sparseFormat, i int, terms []ingest.Term, voc *vocab.Vocabulary) string {
	type feature struct {
		id     int
		weight float64
	}
	features := make([]feature, len(terms))
	for j, t := range terms {
		features[j] = feature{id: voc.Intern(t.Token), weight: t.Weight}
	}
	if f.sorted {
		sort.Slice(features, func(a, b int) bool { return features[a].id < features[b].id })
	}

	var b strings.Builder
	b.WriteString(f.label(i, terms))
	for _, ft := range features {
		fmt.Fprintf(&b, " %d:%s", ft.id, formatWeight(ft.weight))
	}
	return b.String()
}

func (e *Exporter) hasMoreThan(n int) (bool, error) {
	paths, err := e.src.Paths()
	if err != nil {
		return false, err
	}
	return len(paths) > n, nil
}
