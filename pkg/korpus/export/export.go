// Package export implements the corpus emitters. Each emitter walks the
// source once, owns its own accumulators and writes its artifacts under the
// target directory.
package export

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/korpus/internal/log"
	"github.com/cognicore/korpus/pkg/korpus/internalerr"
	"github.com/cognicore/korpus/pkg/korpus/source"
)

// Artifact file names.
const (
	JSONFile     = "corpus.json"
	MatrixFile   = "corpus.matrix"
	MetadataFile = "corpus.metadata"
	LDACFile     = "corpus.ldac"
	SVMLightFile = "corpus.svmlight"
	TokensFile   = "corpus.tokens"
	SQLiteFile   = "corpus.sqlite"
	graphBase    = "corpus"
)

// Result describes what one export wrote.
type Result struct {
	RunID      string
	Format     string
	Documents  int
	Vocabulary int
	Artifacts  []string
}

// Options configures an Exporter.
type Options struct {
	Source *source.Source
	Target string
	Logger log.Logger // nil means log.Default
}

// Exporter runs the emitters against one source and target directory.
type Exporter struct {
	src     *source.Source
	target  string
	logger  log.Logger
	entropy *ulid.MonotonicEntropy
}

// New validates opts and creates the target directory if it is missing.
func New(opts Options) (*Exporter, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("%w: source is required", internalerr.ErrInvalidInput)
	}
	if strings.TrimSpace(opts.Target) == "" {
		return nil, fmt.Errorf("%w: target directory is required", internalerr.ErrInvalidInput)
	}
	if err := os.MkdirAll(opts.Target, 0o755); err != nil {
		return nil, fmt.Errorf("create target dir: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default
	}
	return &Exporter{
		src:     opts.Source,
		target:  opts.Target,
		logger:  logger,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}, nil
}

// Target returns the target directory.
func (e *Exporter) Target() string { return e.target }

func (e *Exporter) path(name string) string {
	return filepath.Join(e.target, name)
}

// start opens a run: it allocates the run id and logs the start line.
func (e *Exporter) start(format string) *Result {
	res := &Result{
		RunID:  ulid.MustNew(ulid.Now(), e.entropy).String(),
		Format: format,
	}
	e.logger.Infof("export started run=%s format=%s source=%s target=%s",
		res.RunID, format, e.src.Dir(), e.target)
	return res
}

func (e *Exporter) finish(res *Result) {
	e.logger.Infof("export finished run=%s format=%s documents=%d vocabulary=%d artifacts=%s",
		res.RunID, res.Format, res.Documents, res.Vocabulary, strings.Join(res.Artifacts, ","))
}

func (e *Exporter) walk(ctx context.Context, res *Result, fn func(source.Document) error) error {
	return e.src.Walk(ctx, func(doc source.Document) error {
		e.logger.Debugf("run=%s document=%s", res.RunID, doc.Stem)
		if err := fn(doc); err != nil {
			return fmt.Errorf("%s: %w", filepath.Base(doc.Path), err)
		}
		res.Documents++
		return nil
	})
}

// stems maps a document stem to the file it came from. Stem-keyed
// artifacts need every stem to be unique.
type stems map[string]string

func (s stems) claim(doc source.Document) error {
	name := filepath.Base(doc.Path)
	if prev, ok := s[doc.Stem]; ok {
		return fmt.Errorf("%w: %s and %s share the stem %q", internalerr.ErrInvalidInput, prev, name, doc.Stem)
	}
	s[doc.Stem] = name
	return nil
}
