package ingest

import "strings"

// PhraseMerger recognizes multi-word phrases and replaces them with a
// single canonical token.
type PhraseMerger struct {
	dict   map[string]DictEntry // phrase → entry
	maxLen int
}

// DictEntry represents a dictionary entry for a multi-token phrase
type DictEntry struct {
	Canonical string
	Category  string
	Variants  []string
}

// NewPhraseMerger creates a merger from dictionary entries.
func NewPhraseMerger(entries []DictEntry) *PhraseMerger {
	dict := make(map[string]DictEntry)
	maxLen := 1
	for _, e := range entries {
		canonical := strings.ToLower(e.Canonical)
		dict[canonical] = e
		if l := phraseLen(canonical); l > maxLen {
			maxLen = l
		}
		for _, v := range e.Variants {
			variant := strings.ToLower(v)
			dict[variant] = e
			if l := phraseLen(variant); l > maxLen {
				maxLen = l
			}
		}
	}
	return &PhraseMerger{dict: dict, maxLen: maxLen}
}

// Process applies greedy longest-match. Single tokens that are listed as a
// variant are mapped to their canonical form too.
func (p *PhraseMerger) Process(tokens []string) ([]string, error) {
	result := make([]string, 0, len(tokens))
	i := 0

	for i < len(tokens) {
		matched := ""
		matchLen := 1

		maxPhrase := p.maxLen
		if remaining := len(tokens) - i; maxPhrase > remaining {
			maxPhrase = remaining
		}
		for n := maxPhrase; n >= 2; n-- {
			phrase := strings.ToLower(strings.Join(tokens[i:i+n], " "))
			if entry, ok := p.dict[phrase]; ok {
				matched = entry.Canonical
				matchLen = n
				break
			}
		}

		if matched != "" {
			result = append(result, matched)
			i += matchLen
			continue
		}
		if entry, ok := p.dict[strings.ToLower(tokens[i])]; ok {
			result = append(result, entry.Canonical)
		} else {
			result = append(result, tokens[i])
		}
		i++
	}

	return result, nil
}

func phraseLen(phrase string) int {
	if phrase == "" {
		return 1
	}
	return len(strings.Fields(phrase))
}
