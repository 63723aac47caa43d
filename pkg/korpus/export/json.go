package export

import (
	"context"
	"encoding/json"
	"io"

	"github.com/cognicore/korpus/pkg/korpus/source"
)

const (
	textField = "text"
	stemField = "stem"
)

// JSON writes the documents as JSON. With onefile every record goes into
// corpus.json keyed by stem, written after the whole source was read, so a
// failing document leaves no corpus.json behind. Otherwise one <stem>.json
// is written per document as soon as it is read. Two documents with the
// same stem are rejected.
func (e *Exporter) JSON(ctx context.Context, onefile bool) (Result, error) {
	res := e.start("json")

	var all map[string]map[string]string
	if onefile {
		all = make(map[string]map[string]string)
	}

	seen := make(stems)
	err := e.walk(ctx, res, func(doc source.Document) error {
		if err := seen.claim(doc); err != nil {
			return err
		}
		rec := jsonRecord(doc)
		if onefile {
			all[doc.Stem] = rec
			return nil
		}
		rec[stemField] = doc.Stem
		path := e.path(doc.Stem + ".json")
		if err := writeFile(path, func(w io.Writer) error { return encodeJSON(w, rec) }); err != nil {
			return err
		}
		res.Artifacts = append(res.Artifacts, path)
		return nil
	})
	if err != nil {
		return *res, err
	}

	if onefile {
		path := e.path(JSONFile)
		if err := writeFile(path, func(w io.Writer) error { return encodeJSON(w, all) }); err != nil {
			return *res, err
		}
		res.Artifacts = append(res.Artifacts, path)
	}

	e.finish(res)
	return *res, nil
}

func jsonRecord(doc source.Document) map[string]string {
	rec := doc.Metadata.Map()
	rec[textField] = doc.Text
	return rec
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
