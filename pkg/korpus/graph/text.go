package graph

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"

	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding/graph6"
)

var gmlEscaper = strings.NewReplacer("&", "&amp;", `"`, "&quot;")

// gmlKey turns an arbitrary metadata name into a GML key
// ([A-Za-z][A-Za-z0-9]*). Names clashing with structural keys get a prefix.
func gmlKey(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	key := b.String()
	switch {
	case key == "":
		return "meta"
	case unicode.IsDigit(rune(key[0])):
		return "meta" + key
	case key == "id" || key == "label" || key == "source" || key == "target" || key == "kind":
		return "meta" + key
	}
	return key
}

func encodeGML(w io.Writer, g *Graph) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "graph [")
	fmt.Fprintln(bw, "  directed 1")
	for _, n := range g.Nodes() {
		fmt.Fprintln(bw, "  node [")
		fmt.Fprintf(bw, "    id %d\n", n.ID())
		fmt.Fprintf(bw, "    label \"%s\"\n", gmlEscaper.Replace(n.Label))
		fmt.Fprintf(bw, "    kind \"%s\"\n", n.Kind)
		for _, f := range n.Meta {
			fmt.Fprintf(bw, "    %s \"%s\"\n", gmlKey(f.Name), gmlEscaper.Replace(f.Value))
		}
		fmt.Fprintln(bw, "  ]")
	}
	for _, e := range g.Edges() {
		fmt.Fprintln(bw, "  edge [")
		fmt.Fprintf(bw, "    source %d\n", e.From.ID())
		fmt.Fprintf(bw, "    target %d\n", e.To.ID())
		fmt.Fprintf(bw, "    frequency %s\n", formatFloat(e.Frequency))
		fmt.Fprintln(bw, "  ]")
	}
	fmt.Fprintln(bw, "]")
	return bw.Flush()
}

// encodePajek writes the NET format. Vertices are numbered from 1.
func encodePajek(w io.Writer, g *Graph) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "*vertices %d\n", g.NodeCount())
	for _, n := range g.Nodes() {
		label := strings.ReplaceAll(n.Label, `"`, "'")
		fmt.Fprintf(bw, "%d \"%s\"\n", n.ID()+1, label)
	}
	fmt.Fprintln(bw, "*arcs")
	for _, e := range g.Edges() {
		fmt.Fprintf(bw, "%d %d %s\n", e.From.ID()+1, e.To.ID()+1, formatFloat(e.Frequency))
	}
	return bw.Flush()
}

// encodeGraph6 writes the topology only. graph6 describes undirected
// graphs, so each token → document arc becomes an undirected edge.
func encodeGraph6(w io.Writer, g *Graph) error {
	enc := graph6.Encode(gonum.Undirect{G: g.Directed()})
	_, err := fmt.Fprintf(w, ">>graph6<<%s\n", enc)
	return err
}
