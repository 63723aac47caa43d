// Package graph builds the document/token graph of a corpus and encodes it
// in several interchange formats.
//
// Every document becomes a node carrying its metadata, every distinct token
// becomes a node, and each (document, token) pair with a non-zero frequency
// becomes a directed edge token → document weighted by that frequency.
package graph

import (
	"strconv"

	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/cognicore/korpus/pkg/korpus/metadata"
)

// Kind distinguishes document nodes from token nodes.
type Kind int

const (
	KindDocument Kind = iota
	KindToken
)

func (k Kind) String() string {
	if k == KindToken {
		return "token"
	}
	return "document"
}

// Node is a graph vertex. It implements gonum's graph.Node and
// encoding.Attributer.
type Node struct {
	id    int64
	Kind  Kind
	Label string
	Meta  metadata.Record // documents only
}

// ID implements graph.Node.
func (n *Node) ID() int64 { return n.id }

// Attributes returns the metadata fields as encoding attributes.
func (n *Node) Attributes() []encoding.Attribute {
	attrs := make([]encoding.Attribute, len(n.Meta))
	for i, f := range n.Meta {
		attrs[i] = encoding.Attribute{Key: f.Name, Value: f.Value}
	}
	return attrs
}

// Edge is a token → document link.
type Edge struct {
	From      *Node
	To        *Node
	Frequency float64
}

// Graph is a directed corpus graph. Node and edge order is insertion order.
type Graph struct {
	g      *simple.WeightedDirectedGraph
	nodes  []*Node
	tokens map[string]*Node
	edges  []Edge
	edgeAt map[[2]int64]int
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		g:      simple.NewWeightedDirectedGraph(0, 0),
		tokens: make(map[string]*Node),
		edgeAt: make(map[[2]int64]int),
	}
}

func (g *Graph) addNode(kind Kind, label string, meta metadata.Record) *Node {
	n := &Node{id: int64(len(g.nodes)), Kind: kind, Label: label, Meta: meta}
	g.g.AddNode(n)
	g.nodes = append(g.nodes, n)
	return n
}

// AddDocument adds a document node. Every call creates a new node, so two
// documents never merge even if they share a label.
func (g *Graph) AddDocument(label string, meta metadata.Record) *Node {
	return g.addNode(KindDocument, label, meta)
}

// Token returns the node for token, if present.
func (g *Graph) Token(token string) (*Node, bool) {
	n, ok := g.tokens[token]
	return n, ok
}

// AddTerm links token to doc with the given frequency. A zero frequency is
// ignored; adding the same pair twice replaces the frequency.
func (g *Graph) AddTerm(doc *Node, token string, frequency float64) {
	if frequency == 0 {
		return
	}
	tn, ok := g.tokens[token]
	if !ok {
		tn = g.addNode(KindToken, token, nil)
		g.tokens[token] = tn
	}

	g.g.SetWeightedEdge(g.g.NewWeightedEdge(tn, doc, frequency))

	key := [2]int64{tn.id, doc.id}
	if i, ok := g.edgeAt[key]; ok {
		g.edges[i].Frequency = frequency
		return
	}
	g.edgeAt[key] = len(g.edges)
	g.edges = append(g.edges, Edge{From: tn, To: doc, Frequency: frequency})
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node { return g.nodes }

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []Edge { return g.edges }

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Documents returns the number of document nodes.
func (g *Graph) Documents() int { return len(g.nodes) - len(g.tokens) }

// Directed exposes the underlying gonum graph.
func (g *Graph) Directed() gonum.WeightedDirected { return g.g }

// Frequency returns the weight of the token → doc edge.
func (g *Graph) Frequency(token string, doc *Node) (float64, bool) {
	tn, ok := g.tokens[token]
	if !ok {
		return 0, false
	}
	return g.g.Weight(tn.id, doc.id)
}

// metaKeys returns the union of document metadata keys in first-seen order.
func (g *Graph) metaKeys() []string {
	var keys []string
	seen := make(map[string]struct{})
	for _, n := range g.nodes {
		for _, f := range n.Meta {
			if _, ok := seen[f.Name]; ok {
				continue
			}
			seen[f.Name] = struct{}{}
			keys = append(keys, f.Name)
		}
	}
	return keys
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
