package export

import (
	"encoding/csv"
	"io"

	"github.com/cognicore/korpus/pkg/korpus/metadata"
)

// metaTable accumulates per-document metadata for corpus.metadata. Columns
// are the row key followed by the union of fields in first-seen order. A
// field named like the key column is not repeated.
type metaTable struct {
	keyColumn string
	fields    []string
	seen      map[string]struct{}
	rows      []metaRow
}

type metaRow struct {
	key    string
	record metadata.Record
}

func newMetaTable(keyColumn string) *metaTable {
	return &metaTable{keyColumn: keyColumn, seen: map[string]struct{}{keyColumn: {}}}
}

func (t *metaTable) add(key string, rec metadata.Record) {
	for _, f := range rec {
		if _, ok := t.seen[f.Name]; ok {
			continue
		}
		t.seen[f.Name] = struct{}{}
		t.fields = append(t.fields, f.Name)
	}
	t.rows = append(t.rows, metaRow{key: key, record: rec})
}

func (t *metaTable) writeTo(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := append([]string{t.keyColumn}, t.fields...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range t.rows {
		line := make([]string, 0, len(header))
		line = append(line, row.key)
		for _, name := range t.fields {
			v, _ := row.record.Get(name)
			line = append(line, v)
		}
		if err := cw.Write(line); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
