package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/korpus/pkg/korpus/internalerr"
	"github.com/cognicore/korpus/pkg/korpus/store"
)

func openTemp(t *testing.T) (store.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.sqlite")
	st, err := OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st, path
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	st, _ := openTemp(t)

	require.NoError(t, st.BeginRun(ctx, "01JRUN", "sqlite"))
	run, err := st.GetRun(ctx, "01JRUN")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", run.Format)
	assert.False(t, run.CreatedAt.IsZero())

	docID, err := st.AddDocument(ctx, store.Doc{
		Stem:     "peter_doc1",
		Metadata: map[string]string{"author": "peter", "title": "doc1"},
		Text:     "the cat sat",
	})
	require.NoError(t, err)

	cat, err := st.InternToken(ctx, "cat")
	require.NoError(t, err)
	sat, err := st.InternToken(ctx, "sat")
	require.NoError(t, err)
	again, err := st.InternToken(ctx, "cat")
	require.NoError(t, err)

	assert.Equal(t, int64(1), cat)
	assert.Equal(t, int64(2), sat)
	assert.Equal(t, cat, again)

	require.NoError(t, st.AddWeights(ctx, docID, []store.Weight{
		{TokenID: cat, Weight: 2},
		{TokenID: sat, Weight: 0.5},
	}))

	doc, err := st.GetDoc(ctx, docID)
	require.NoError(t, err)
	assert.Equal(t, "peter_doc1", doc.Stem)
	assert.Equal(t, "peter", doc.Metadata["author"])
	assert.Equal(t, "the cat sat", doc.Text)
	assert.Equal(t, []store.Term{{Token: "cat", Weight: 2}, {Token: "sat", Weight: 0.5}}, doc.Terms)

	docs, err := st.DocCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), docs)

	toks, err := st.TokenCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), toks)
}

func TestSQLiteAddWeightsReplaces(t *testing.T) {
	ctx := context.Background()
	st, _ := openTemp(t)

	docID, err := st.AddDocument(ctx, store.Doc{Stem: "d"})
	require.NoError(t, err)
	tok, err := st.InternToken(ctx, "x")
	require.NoError(t, err)

	require.NoError(t, st.AddWeights(ctx, docID, []store.Weight{{TokenID: tok, Weight: 1}}))
	require.NoError(t, st.AddWeights(ctx, docID, []store.Weight{{TokenID: tok, Weight: 3}}))

	doc, err := st.GetDoc(ctx, docID)
	require.NoError(t, err)
	require.Len(t, doc.Terms, 1)
	assert.Equal(t, 3.0, doc.Terms[0].Weight)
	assert.Empty(t, doc.Metadata)
}

func TestSQLiteNotFound(t *testing.T) {
	ctx := context.Background()
	st, _ := openTemp(t)

	_, err := st.GetDoc(ctx, 42)
	assert.True(t, errors.Is(err, internalerr.ErrNotFound))

	_, err = st.GetRun(ctx, "missing")
	assert.True(t, errors.Is(err, internalerr.ErrNotFound))
}

func TestSQLiteReopenKeepsTokenIDs(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "corpus.sqlite")

	st, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	_, err = st.InternToken(ctx, "alpha")
	require.NoError(t, err)
	require.NoError(t, st.Close())

	st, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer st.Close()

	id, err := st.InternToken(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	id, err = st.InternToken(ctx, "beta")
	require.NoError(t, err)
	assert.Equal(t, int64(2), id)
}
