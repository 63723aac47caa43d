// Package metadata extracts structured records from document filenames.
//
// A pattern is a template with named placeholders, for example
// "{author}_{title}". Literal braces are written as "{{" and "}}".
// A placeholder matches the shortest non-empty run of characters that
// still lets the whole name match, so "{author}_{title}" splits
// "mann_der_zauberberg" into author "mann" and title "der_zauberberg".
package metadata

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/cognicore/korpus/pkg/korpus/internalerr"
)

// DefaultPattern is used when no pattern is configured.
const DefaultPattern = "{author}_{title}"

// ErrPatternMismatch is returned when a name does not fit the pattern.
var ErrPatternMismatch = errors.New("filename does not match pattern")

// MismatchError names the offending filename and pattern.
type MismatchError struct {
	Name    string
	Pattern string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("filename %q does not match pattern %q", e.Name, e.Pattern)
}

// Unwrap makes errors.Is(err, ErrPatternMismatch) work.
func (e *MismatchError) Unwrap() error { return ErrPatternMismatch }

// Field is a single named metadata value.
type Field struct {
	Name  string
	Value string
}

// Record is an ordered field→value mapping. Field order follows the
// placeholder order of the pattern that produced it.
type Record []Field

// Get returns the value for name.
func (r Record) Get(name string) (string, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Keys returns the field names in order.
func (r Record) Keys() []string {
	keys := make([]string, len(r))
	for i, f := range r {
		keys[i] = f.Name
	}
	return keys
}

// Map returns the record as an unordered map.
func (r Record) Map() map[string]string {
	m := make(map[string]string, len(r))
	for _, f := range r {
		m[f.Name] = f.Value
	}
	return m
}

// Pattern is a compiled filename template.
type Pattern struct {
	raw    string
	fields []string
	re     *regexp.Regexp
}

// Compile parses a template. Placeholder names must be non-empty and unique.
func Compile(pattern string) (*Pattern, error) {
	var (
		expr   strings.Builder
		fields []string
		seen   = make(map[string]struct{})
	)
	expr.WriteString("^")

	rest := pattern
	for len(rest) > 0 {
		switch {
		case strings.HasPrefix(rest, "{{"):
			expr.WriteString(regexp.QuoteMeta("{"))
			rest = rest[2:]
		case strings.HasPrefix(rest, "}}"):
			expr.WriteString(regexp.QuoteMeta("}"))
			rest = rest[2:]
		case rest[0] == '{':
			end := strings.IndexByte(rest, '}')
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated placeholder in pattern %q", internalerr.ErrInvalidInput, pattern)
			}
			name := strings.TrimSpace(rest[1:end])
			if name == "" {
				return nil, fmt.Errorf("%w: empty placeholder in pattern %q", internalerr.ErrInvalidInput, pattern)
			}
			if _, dup := seen[name]; dup {
				return nil, fmt.Errorf("%w: duplicate placeholder %q in pattern %q", internalerr.ErrInvalidInput, name, pattern)
			}
			seen[name] = struct{}{}
			fields = append(fields, name)
			expr.WriteString("(.+?)")
			rest = rest[end+1:]
		case rest[0] == '}':
			return nil, fmt.Errorf("%w: unbalanced '}' in pattern %q", internalerr.ErrInvalidInput, pattern)
		default:
			next := strings.IndexAny(rest, "{}")
			if next < 0 {
				next = len(rest)
			}
			expr.WriteString(regexp.QuoteMeta(rest[:next]))
			rest = rest[next:]
		}
	}
	expr.WriteString("$")

	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: pattern %q has no placeholders", internalerr.ErrInvalidInput, pattern)
	}

	re, err := regexp.Compile(expr.String())
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", pattern, err)
	}
	return &Pattern{raw: pattern, fields: fields, re: re}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(pattern string) *Pattern {
	p, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the template the pattern was compiled from.
func (p *Pattern) String() string { return p.raw }

// Fields returns the placeholder names in template order.
func (p *Pattern) Fields() []string {
	out := make([]string, len(p.fields))
	copy(out, p.fields)
	return out
}

// Extract matches name (a filename stem, no directory, no extension)
// against the pattern.
func (p *Pattern) Extract(name string) (Record, error) {
	m := p.re.FindStringSubmatch(name)
	if m == nil {
		return nil, &MismatchError{Name: name, Pattern: p.raw}
	}
	rec := make(Record, len(p.fields))
	for i, field := range p.fields {
		rec[i] = Field{Name: field, Value: m[i+1]}
	}
	return rec, nil
}
