package graph

import (
	"fmt"
	"io"
	"strings"

	"github.com/cognicore/korpus/pkg/korpus/internalerr"
)

// Variant selects an output format.
type Variant string

const (
	GEXF    Variant = "gexf"
	GML     Variant = "gml"
	GraphML Variant = "graphml"
	Pajek   Variant = "pajek"
	Graph6  Variant = "graph6"
	YAML    Variant = "yaml"
)

// Variants lists the supported formats.
var Variants = []Variant{GEXF, GML, GraphML, Pajek, Graph6, YAML}

// ErrUnsupportedVariant is returned for unknown format names.
var ErrUnsupportedVariant = fmt.Errorf("%w: unsupported graph variant", internalerr.ErrInvalidInput)

// ParseVariant validates a format name.
func ParseVariant(s string) (Variant, error) {
	for _, v := range Variants {
		if string(v) == s {
			return v, nil
		}
	}
	names := make([]string, len(Variants))
	for i, v := range Variants {
		names[i] = string(v)
	}
	return "", fmt.Errorf("%w %q (allowed: %s)", ErrUnsupportedVariant, s, strings.Join(names, ", "))
}

// Extension returns the file extension, including the dot.
func (v Variant) Extension() string { return "." + string(v) }

// Encode writes g to w in the given format.
func Encode(w io.Writer, g *Graph, v Variant) error {
	switch v {
	case GEXF:
		return encodeGEXF(w, g)
	case GML:
		return encodeGML(w, g)
	case GraphML:
		return encodeGraphML(w, g)
	case Pajek:
		return encodePajek(w, g)
	case Graph6:
		return encodeGraph6(w, g)
	case YAML:
		return encodeYAML(w, g)
	default:
		_, err := ParseVariant(string(v))
		return err
	}
}
