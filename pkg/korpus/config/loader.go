package config

import (
	"fmt"

	"github.com/cognicore/korpus/pkg/korpus/ingest"
	"github.com/cognicore/korpus/pkg/korpus/lexicon"
	"github.com/cognicore/korpus/pkg/korpus/stoplist"
)

// Loader loads the preprocessing files and constructs components
type Loader struct {
	StoplistPath string
	LexiconPath  string
	DictPath     string
	MinLength    int
}

// NewLoader takes the preprocessing settings from cfg.
func NewLoader(cfg *Config) *Loader {
	return &Loader{
		StoplistPath: cfg.Stoplist,
		LexiconPath:  cfg.Lexicon,
		DictPath:     cfg.Dict,
		MinLength:    cfg.MinLength,
	}
}

// Components holds the loaded preprocessors. Nil fields were not configured.
type Components struct {
	Merger   *ingest.PhraseMerger
	Lexicon  *lexicon.Lexicon
	Stoplist *stoplist.Manager
}

// Load reads all configured files.
func (l *Loader) Load() (*Components, error) {
	comp := &Components{}

	if l.DictPath != "" {
		dict, err := LoadDict(l.DictPath)
		if err != nil {
			return nil, fmt.Errorf("load dictionary: %w", err)
		}
		entries := make([]ingest.DictEntry, len(dict.Entries))
		for i, e := range dict.Entries {
			entries[i] = ingest.DictEntry{
				Canonical: e.Canonical,
				Variants:  e.Variants,
				Category:  e.Category,
			}
		}
		comp.Merger = ingest.NewPhraseMerger(entries)
	}

	if l.LexiconPath != "" {
		lex, err := lexicon.LoadFromYAML(l.LexiconPath)
		if err != nil {
			return nil, fmt.Errorf("load lexicon: %w", err)
		}
		comp.Lexicon = lex
	}

	if l.StoplistPath != "" {
		sl, err := LoadStoplist(l.StoplistPath)
		if err != nil {
			return nil, fmt.Errorf("load stoplist: %w", err)
		}
		comp.Stoplist = stoplist.NewManager(sl.Terms)
	}

	return comp, nil
}

// Chain returns the preprocessing chain:
// phrase merging → synonym normalisation → stopword removal → minimum length.
func (l *Loader) Chain() ([]ingest.Preprocessor, error) {
	comp, err := l.Load()
	if err != nil {
		return nil, err
	}

	var chain []ingest.Preprocessor
	if comp.Merger != nil {
		chain = append(chain, comp.Merger)
	}
	if comp.Lexicon != nil {
		chain = append(chain, comp.Lexicon)
	}
	if comp.Stoplist != nil {
		chain = append(chain, comp.Stoplist)
	}
	if l.MinLength > 0 {
		chain = append(chain, ingest.MinLength(l.MinLength))
	}
	return chain, nil
}
