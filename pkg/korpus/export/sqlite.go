package export

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/cognicore/korpus/pkg/korpus/ingest"
	"github.com/cognicore/korpus/pkg/korpus/source"
	"github.com/cognicore/korpus/pkg/korpus/store"
	"github.com/cognicore/korpus/pkg/korpus/store/sqlite"
)

// SQLite writes documents, tokens and weights to a fresh corpus.sqlite.
// Token ids are 1-based in first-seen order. The run id is recorded in the
// runs table.
func (e *Exporter) SQLite(ctx context.Context, pipe *ingest.Pipeline) (Result, error) {
	res := e.start("sqlite")

	path := e.path(SQLiteFile)
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return *res, fmt.Errorf("remove stale %s: %w", p, err)
		}
	}

	st, err := sqlite.OpenSQLite(ctx, path)
	if err != nil {
		return *res, fmt.Errorf("open %s: %w", path, err)
	}
	defer st.Close()

	if err := e.fillStore(ctx, res, pipe, st); err != nil {
		return *res, err
	}
	if err := st.Close(); err != nil {
		return *res, err
	}

	res.Artifacts = append(res.Artifacts, path)
	e.finish(res)
	return *res, nil
}

// Store writes the corpus into st, which the caller owns.
func (e *Exporter) Store(ctx context.Context, pipe *ingest.Pipeline, st store.Store) (Result, error) {
	res := e.start("store")
	if err := e.fillStore(ctx, res, pipe, st); err != nil {
		return *res, err
	}
	e.finish(res)
	return *res, nil
}

func (e *Exporter) fillStore(ctx context.Context, res *Result, pipe *ingest.Pipeline, st store.Store) error {
	if err := st.BeginRun(ctx, res.RunID, res.Format); err != nil {
		return err
	}

	err := e.walk(ctx, res, func(doc source.Document) error {
		processed, err := pipe.Process(doc.Text)
		if err != nil {
			return err
		}
		docID, err := st.AddDocument(ctx, store.Doc{
			Stem:     doc.Stem,
			Metadata: doc.Metadata.Map(),
			Text:     doc.Text,
		})
		if err != nil {
			return err
		}
		weights := make([]store.Weight, 0, len(processed.Terms))
		for _, term := range processed.Terms {
			id, err := st.InternToken(ctx, term.Token)
			if err != nil {
				return err
			}
			weights = append(weights, store.Weight{TokenID: id, Weight: term.Weight})
		}
		return st.AddWeights(ctx, docID, weights)
	})
	if err != nil {
		return err
	}

	tokens, err := st.TokenCount(ctx)
	if err != nil {
		return err
	}
	res.Vocabulary = int(tokens)
	return nil
}
