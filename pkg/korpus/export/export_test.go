package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/korpus/pkg/korpus/graph"
	"github.com/cognicore/korpus/pkg/korpus/ingest"
	"github.com/cognicore/korpus/pkg/korpus/internalerr"
	"github.com/cognicore/korpus/pkg/korpus/metadata"
	"github.com/cognicore/korpus/pkg/korpus/source"
	"github.com/cognicore/korpus/pkg/korpus/store"
	"github.com/cognicore/korpus/pkg/korpus/store/memstore"
	"github.com/cognicore/korpus/pkg/korpus/store/sqlite"
)

var corpusFiles = map[string]string{
	"peter_doc1.txt": "The cat sat on the mat",
	"paul_doc2.txt":  "the dog sat",
	"mary_doc3.txt":  "a cat and a dog",
}

type recordingLogger struct {
	mu    sync.Mutex
	warns []string
}

func (l *recordingLogger) Debugf(string, ...any) {}
func (l *recordingLogger) Infof(string, ...any)  {}
func (l *recordingLogger) Errorf(string, ...any) {}
func (l *recordingLogger) Warnf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, fmt.Sprintf(format, args...))
}

func writeCorpus(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func newExporter(t *testing.T, dir, pattern string) (*Exporter, *recordingLogger) {
	t.Helper()
	p, err := metadata.Compile(pattern)
	require.NoError(t, err)
	src, err := source.New(source.Options{Dir: dir, Pattern: p})
	require.NoError(t, err)

	logger := &recordingLogger{}
	exp, err := New(Options{
		Source: src,
		Target: filepath.Join(t.TempDir(), "out"),
		Logger: logger,
	})
	require.NoError(t, err)
	return exp, logger
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestNewCreatesTarget(t *testing.T) {
	dir := writeCorpus(t, nil)
	src, err := source.New(source.Options{Dir: dir})
	require.NoError(t, err)

	target := filepath.Join(t.TempDir(), "a", "b")
	_, err = New(Options{Source: src, Target: target})
	require.NoError(t, err)
	assert.DirExists(t, target)

	_, err = New(Options{Source: src})
	assert.ErrorIs(t, err, internalerr.ErrInvalidInput)
	_, err = New(Options{Target: target})
	assert.ErrorIs(t, err, internalerr.ErrInvalidInput)
}

func TestJSONMultiFile(t *testing.T) {
	exp, _ := newExporter(t, writeCorpus(t, corpusFiles), "{author}_{title}")

	res, err := exp.JSON(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Documents)
	assert.NotEmpty(t, res.RunID)
	assert.Len(t, res.Artifacts, 3)

	assert.Equal(t, []string{"mary_doc3.json", "paul_doc2.json", "peter_doc1.json"}, listDir(t, exp.Target()))

	data, err := os.ReadFile(filepath.Join(exp.Target(), "peter_doc1.json"))
	require.NoError(t, err)
	var rec map[string]string
	require.NoError(t, json.Unmarshal(data, &rec))
	assert.Equal(t, map[string]string{
		"author": "peter",
		"title":  "doc1",
		"text":   "The cat sat on the mat",
		"stem":   "peter_doc1",
	}, rec)
}

func TestJSONOneFile(t *testing.T) {
	exp, _ := newExporter(t, writeCorpus(t, corpusFiles), "{author}_{title}")

	res, err := exp.JSON(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(exp.Target(), JSONFile)}, res.Artifacts)

	data, err := os.ReadFile(filepath.Join(exp.Target(), JSONFile))
	require.NoError(t, err)
	var all map[string]map[string]string
	require.NoError(t, json.Unmarshal(data, &all))

	require.Len(t, all, len(corpusFiles))
	for name, body := range corpusFiles {
		rec := all[source.Stem(name)]
		assert.Equal(t, body, rec["text"])
		_, hasStem := rec["stem"]
		assert.False(t, hasStem)
	}
	assert.Equal(t, "mary", all["mary_doc3"]["author"])
}

func TestJSONPatternMismatch(t *testing.T) {
	exp, _ := newExporter(t, writeCorpus(t, corpusFiles), "{author}/{title}")

	_, err := exp.JSON(context.Background(), true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, metadata.ErrPatternMismatch))
	assert.Contains(t, err.Error(), "mary_doc3")
	assert.NoFileExists(t, filepath.Join(exp.Target(), JSONFile))
}

func TestJSONStemFallback(t *testing.T) {
	dir := writeCorpus(t, map[string]string{"untitled.txt": "x"})
	src, err := source.New(source.Options{Dir: dir, OnMismatch: source.MismatchStem})
	require.NoError(t, err)
	exp, err := New(Options{Source: src, Target: t.TempDir(), Logger: &recordingLogger{}})
	require.NoError(t, err)

	_, err = exp.JSON(context.Background(), false)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(exp.Target(), "untitled.json"))
	require.NoError(t, err)
	var rec map[string]string
	require.NoError(t, json.Unmarshal(data, &rec))
	assert.Equal(t, map[string]string{"stem": "untitled", "text": "x"}, rec)
}

func newStemExporter(t *testing.T, files map[string]string, glob string) *Exporter {
	t.Helper()
	src, err := source.New(source.Options{
		Dir:        writeCorpus(t, files),
		Glob:       glob,
		OnMismatch: source.MismatchStem,
	})
	require.NoError(t, err)
	exp, err := New(Options{Source: src, Target: t.TempDir(), Logger: &recordingLogger{}})
	require.NoError(t, err)
	return exp
}

func TestJSONDuplicateStem(t *testing.T) {
	files := map[string]string{"a_b.txt": "plain text", "a_b.html": "<p>markup</p>"}

	for _, onefile := range []bool{false, true} {
		t.Run(fmt.Sprintf("onefile=%v", onefile), func(t *testing.T) {
			exp := newStemExporter(t, files, "*.{txt,html}")

			_, err := exp.JSON(context.Background(), onefile)
			require.Error(t, err)
			assert.True(t, errors.Is(err, internalerr.ErrInvalidInput))
			assert.Contains(t, err.Error(), "a_b.txt")
			assert.Contains(t, err.Error(), "a_b.html")
			assert.NoFileExists(t, filepath.Join(exp.Target(), JSONFile))
		})
	}
}

func TestMatrixDuplicateStem(t *testing.T) {
	exp := newStemExporter(t, map[string]string{"a_b.txt": "cat", "a_b.html": "<p>dog</p>"}, "*.{txt,html}")

	_, err := exp.Matrix(context.Background(), ingest.NewPipeline(nil, nil))
	require.Error(t, err)
	assert.True(t, errors.Is(err, internalerr.ErrInvalidInput))
	assert.Contains(t, err.Error(), "a_b.txt")
	assert.Contains(t, err.Error(), "a_b.html")
	assert.NoFileExists(t, filepath.Join(exp.Target(), MatrixFile))
}

func TestMatrixStemFallbackMetadata(t *testing.T) {
	exp := newStemExporter(t, map[string]string{"nounderscore.txt": "cat sat"}, "")

	_, err := exp.Matrix(context.Background(), ingest.NewPipeline(nil, nil))
	require.NoError(t, err)

	meta := readCSV(t, filepath.Join(exp.Target(), MetadataFile))
	assert.Equal(t, [][]string{{"stem"}, {"nounderscore"}}, meta)
}

func TestMatrix(t *testing.T) {
	exp, _ := newExporter(t, writeCorpus(t, corpusFiles), "{author}_{title}")

	res, err := exp.Matrix(context.Background(), ingest.NewPipeline(nil, nil))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Documents)
	assert.Equal(t, 8, res.Vocabulary)

	rows := readCSV(t, filepath.Join(exp.Target(), MatrixFile))
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"", "the", "a", "cat", "dog", "sat", "and", "on", "mat"}, rows[0])
	assert.Equal(t, []string{"mary_doc3", "0", "2", "1", "1", "0", "1", "0", "0"}, rows[1])
	assert.Equal(t, []string{"paul_doc2", "1", "0", "0", "1", "1", "0", "0", "0"}, rows[2])
	assert.Equal(t, []string{"peter_doc1", "2", "0", "1", "0", "1", "0", "1", "1"}, rows[3])

	meta := readCSV(t, filepath.Join(exp.Target(), MetadataFile))
	assert.Equal(t, [][]string{
		{"stem", "author", "title"},
		{"mary_doc3", "mary", "doc3"},
		{"paul_doc2", "paul", "doc2"},
		{"peter_doc1", "peter", "doc1"},
	}, meta)
}

func TestMatrixRowSumsAndColumnOrder(t *testing.T) {
	exp, _ := newExporter(t, writeCorpus(t, corpusFiles), "{author}_{title}")
	pipe := ingest.NewPipeline(nil, nil, ingest.MinLength(3))

	_, err := exp.Matrix(context.Background(), pipe)
	require.NoError(t, err)

	rows := readCSV(t, filepath.Join(exp.Target(), MatrixFile))
	totals := make([]float64, len(rows[0])-1)
	for _, row := range rows[1:] {
		var sum float64
		for i, cell := range row[1:] {
			var v float64
			_, err := fmt.Sscan(cell, &v)
			require.NoError(t, err)
			sum += v
			totals[i] += v
		}
		name := row[0] + ".txt"
		processed, err := pipe.Process(corpusFiles[name])
		require.NoError(t, err)
		assert.Equal(t, processed.Total(), sum, row[0])
	}
	assert.True(t, sort.SliceIsSorted(totals, func(i, j int) bool { return totals[i] > totals[j] }))
}

func TestGraph(t *testing.T) {
	exp, _ := newExporter(t, writeCorpus(t, corpusFiles), "{author}_{title}")

	res, err := exp.Graph(context.Background(), ingest.NewPipeline(nil, nil), "gexf")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Documents)
	assert.Equal(t, 8, res.Vocabulary)
	assert.FileExists(t, filepath.Join(exp.Target(), "corpus.gexf"))
}

func TestGraphAllVariants(t *testing.T) {
	exp, _ := newExporter(t, writeCorpus(t, corpusFiles), "{author}_{title}")
	for _, v := range graph.Variants {
		_, err := exp.Graph(context.Background(), ingest.NewPipeline(nil, nil), string(v))
		require.NoError(t, err, v)
		assert.FileExists(t, filepath.Join(exp.Target(), "corpus."+string(v)))
	}
}

func TestGraphUnsupportedVariant(t *testing.T) {
	exp, _ := newExporter(t, writeCorpus(t, corpusFiles), "{author}_{title}")

	_, err := exp.Graph(context.Background(), ingest.NewPipeline(nil, nil), "notsupported")
	require.Error(t, err)
	assert.True(t, errors.Is(err, internalerr.ErrInvalidInput))
	assert.Contains(t, err.Error(), "graphml")
	assert.Empty(t, listDir(t, exp.Target()))
}

func TestLDAC(t *testing.T) {
	exp, _ := newExporter(t, writeCorpus(t, corpusFiles), "{author}_{title}")

	res, err := exp.LDAC(context.Background(), ingest.NewPipeline(nil, nil))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Documents)
	assert.Equal(t, 8, res.Vocabulary)

	assert.Equal(t, []string{
		"4 0:2 1:1 2:1 3:1",
		"3 4:1 3:1 5:1",
		"5 4:2 1:1 5:1 6:1 7:1",
	}, readLines(t, filepath.Join(exp.Target(), LDACFile)))

	assert.Equal(t, []string{"a", "cat", "and", "dog", "the", "sat", "on", "mat"},
		readLines(t, filepath.Join(exp.Target(), TokensFile)))

	meta := readCSV(t, filepath.Join(exp.Target(), MetadataFile))
	assert.Equal(t, []string{"basename", "author", "title"}, meta[0])
	assert.Equal(t, []string{"mary_doc3.txt", "mary", "doc3"}, meta[1])
}

func TestSVMLight(t *testing.T) {
	exp, logger := newExporter(t, writeCorpus(t, corpusFiles), "{author}_{title}")

	res, err := exp.SVMLight(context.Background(), ingest.NewPipeline(nil, nil), []string{"+1", "-1", "+1"})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Documents)
	assert.Empty(t, logger.warns)

	assert.Equal(t, []string{
		"+1 1:2 2:1 3:1 4:1",
		"-1 4:1 5:1 6:1",
		"+1 2:1 5:2 6:1 7:1 8:1",
	}, readLines(t, filepath.Join(exp.Target(), SVMLightFile)))
	assert.Equal(t, "a", readLines(t, filepath.Join(exp.Target(), TokensFile))[0])
}

func TestSVMLightTruncatesToShorter(t *testing.T) {
	exp, logger := newExporter(t, writeCorpus(t, corpusFiles), "{author}_{title}")

	res, err := exp.SVMLight(context.Background(), ingest.NewPipeline(nil, nil), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Documents)
	assert.Len(t, readLines(t, filepath.Join(exp.Target(), SVMLightFile)), 2)
	require.Len(t, logger.warns, 1)
	assert.Contains(t, logger.warns[0], "remaining documents skipped")

	logger.warns = nil
	res, err = exp.SVMLight(context.Background(), ingest.NewPipeline(nil, nil), []string{"a", "b", "c", "d"})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Documents)
	require.Len(t, logger.warns, 1)
	assert.Contains(t, logger.warns[0], "extra labels ignored")
}

func TestSparseRerunDoesNotGrow(t *testing.T) {
	exp, _ := newExporter(t, writeCorpus(t, corpusFiles), "{author}_{title}")
	pipe := ingest.NewPipeline(nil, nil)
	classes := []string{"1", "2", "3"}

	for i := 0; i < 3; i++ {
		_, err := exp.LDAC(context.Background(), pipe)
		require.NoError(t, err)
		_, err = exp.SVMLight(context.Background(), pipe, classes)
		require.NoError(t, err)
	}
	assert.Len(t, readLines(t, filepath.Join(exp.Target(), LDACFile)), len(corpusFiles))
	assert.Len(t, readLines(t, filepath.Join(exp.Target(), SVMLightFile)), len(corpusFiles))
}

func TestCollaboratorFailureAborts(t *testing.T) {
	exp, _ := newExporter(t, writeCorpus(t, corpusFiles), "{author}_{title}")
	boom := errors.New("boom")
	calls := 0
	tok := ingest.TokenizerFunc(func(text string) ([]string, error) {
		calls++
		if calls == 2 {
			return nil, boom
		}
		return strings.Fields(text), nil
	})

	_, err := exp.LDAC(context.Background(), ingest.NewPipeline(tok, nil))
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Contains(t, err.Error(), "paul_doc2.txt")

	// The first line was flushed before the failure; no vocabulary was written.
	assert.Len(t, readLines(t, filepath.Join(exp.Target(), LDACFile)), 1)
	assert.NoFileExists(t, filepath.Join(exp.Target(), TokensFile))
}

func TestCancelledContext(t *testing.T) {
	exp, _ := newExporter(t, writeCorpus(t, corpusFiles), "{author}_{title}")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := exp.Matrix(ctx, ingest.NewPipeline(nil, nil))
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, filepath.Join(exp.Target(), MatrixFile))
}

func TestSQLite(t *testing.T) {
	exp, _ := newExporter(t, writeCorpus(t, corpusFiles), "{author}_{title}")
	pipe := ingest.NewPipeline(nil, nil)

	var res Result
	var err error
	for i := 0; i < 2; i++ {
		res, err = exp.SQLite(context.Background(), pipe)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, res.Documents)
	assert.Equal(t, 8, res.Vocabulary)

	ctx := context.Background()
	st, err := sqlite.OpenSQLite(ctx, filepath.Join(exp.Target(), SQLiteFile))
	require.NoError(t, err)
	defer st.Close()

	docs, err := st.DocCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), docs)

	run, err := st.GetRun(ctx, res.RunID)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", run.Format)

	doc, err := st.GetDoc(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "mary_doc3", doc.Stem)
	assert.Equal(t, "mary", doc.Metadata["author"])
	require.NotEmpty(t, doc.Terms)
	assert.Equal(t, "a", doc.Terms[0].Token)
	assert.Equal(t, 2.0, doc.Terms[0].Weight)
}

func TestStoreInMemory(t *testing.T) {
	exp, _ := newExporter(t, writeCorpus(t, corpusFiles), "{author}_{title}")
	st := memstore.New()

	res, err := exp.Store(context.Background(), ingest.NewPipeline(nil, nil), st)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Documents)
	assert.Equal(t, 8, res.Vocabulary)
	assert.Empty(t, res.Artifacts)

	run, err := st.GetRun(context.Background(), res.RunID)
	require.NoError(t, err)
	assert.Equal(t, "store", run.Format)

	doc, err := st.GetDoc(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "peter_doc1", doc.Stem)
	// ordered by token id: a cat and dog the sat on mat
	assert.Equal(t, []store.Term{
		{Token: "cat", Weight: 1},
		{Token: "the", Weight: 2},
		{Token: "sat", Weight: 1},
		{Token: "on", Weight: 1},
		{Token: "mat", Weight: 1},
	}, doc.Terms)
}
