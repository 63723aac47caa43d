package export

import (
	"context"
	"encoding/csv"
	"io"
	"sort"
	"strconv"

	"github.com/cognicore/korpus/pkg/korpus/ingest"
	"github.com/cognicore/korpus/pkg/korpus/source"
)

type matrixRow struct {
	stem    string
	weights map[int]float64 // column index → weight
}

// Matrix writes a dense document-term matrix to corpus.matrix and the
// metadata side table to corpus.metadata. Columns are ordered by descending
// total weight; ties keep first-seen order. Rows are labelled by stem, so
// stems must be unique.
func (e *Exporter) Matrix(ctx context.Context, pipe *ingest.Pipeline) (Result, error) {
	res := e.start("matrix")

	var (
		columns []string
		totals  []float64
		rows    []matrixRow
	)
	index := make(map[string]int)
	meta := newMetaTable(stemField)
	seen := make(stems)

	err := e.walk(ctx, res, func(doc source.Document) error {
		if err := seen.claim(doc); err != nil {
			return err
		}
		processed, err := pipe.Process(doc.Text)
		if err != nil {
			return err
		}
		row := matrixRow{stem: doc.Stem, weights: make(map[int]float64, len(processed.Terms))}
		for _, term := range processed.Terms {
			col, ok := index[term.Token]
			if !ok {
				col = len(columns)
				index[term.Token] = col
				columns = append(columns, term.Token)
				totals = append(totals, 0)
			}
			row.weights[col] = term.Weight
			totals[col] += term.Weight
		}
		rows = append(rows, row)
		meta.add(doc.Stem, doc.Metadata)
		return nil
	})
	if err != nil {
		return *res, err
	}

	order := make([]int, len(columns))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return totals[order[a]] > totals[order[b]] })

	matrixPath := e.path(MatrixFile)
	err = writeFile(matrixPath, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		header := make([]string, 0, len(order)+1)
		header = append(header, "")
		for _, col := range order {
			header = append(header, columns[col])
		}
		if err := cw.Write(header); err != nil {
			return err
		}
		for _, row := range rows {
			line := make([]string, 0, len(order)+1)
			line = append(line, row.stem)
			for _, col := range order {
				line = append(line, formatWeight(row.weights[col]))
			}
			if err := cw.Write(line); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
	if err != nil {
		return *res, err
	}

	metaPath := e.path(MetadataFile)
	if err := writeFile(metaPath, meta.writeTo); err != nil {
		return *res, err
	}

	res.Vocabulary = len(columns)
	res.Artifacts = append(res.Artifacts, matrixPath, metaPath)
	e.finish(res)
	return *res, nil
}

// formatWeight prints the shortest decimal that reads back exactly.
func formatWeight(w float64) string {
	return strconv.FormatFloat(w, 'f', -1, 64)
}
