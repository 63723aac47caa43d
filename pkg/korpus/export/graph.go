package export

import (
	"context"
	"io"

	"github.com/cognicore/korpus/pkg/korpus/graph"
	"github.com/cognicore/korpus/pkg/korpus/ingest"
	"github.com/cognicore/korpus/pkg/korpus/source"
)

// Graph builds the document/token graph and writes corpus.<variant>. The
// variant is checked before the source is touched.
func (e *Exporter) Graph(ctx context.Context, pipe *ingest.Pipeline, variant string) (Result, error) {
	v, err := graph.ParseVariant(variant)
	if err != nil {
		return Result{Format: "graph"}, err
	}

	res := e.start("graph")
	g := graph.New()

	err = e.walk(ctx, res, func(doc source.Document) error {
		processed, err := pipe.Process(doc.Text)
		if err != nil {
			return err
		}
		node := g.AddDocument(doc.Stem, doc.Metadata)
		for _, term := range processed.Terms {
			g.AddTerm(node, term.Token, term.Weight)
		}
		return nil
	})
	if err != nil {
		return *res, err
	}

	path := e.path(graphBase + v.Extension())
	if err := writeFile(path, func(w io.Writer) error { return graph.Encode(w, g, v) }); err != nil {
		return *res, err
	}

	res.Vocabulary = g.NodeCount() - g.Documents()
	res.Artifacts = append(res.Artifacts, path)
	e.finish(res)
	return *res, nil
}
