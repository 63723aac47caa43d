package graph

import (
	"encoding/xml"
	"fmt"
	"io"
)

// GraphML has no gonum encoder; the document is small enough to describe
// with encoding/xml struct tags.
type graphML struct {
	XMLName xml.Name     `xml:"http://graphml.graphdrawing.org/xmlns graphml"`
	Keys    []graphMLKey `xml:"key"`
	Graph   graphMLGraph `xml:"graph"`
}

type graphMLKey struct {
	ID       string `xml:"id,attr"`
	For      string `xml:"for,attr"`
	AttrName string `xml:"attr.name,attr"`
	AttrType string `xml:"attr.type,attr"`
}

type graphMLGraph struct {
	ID          string        `xml:"id,attr"`
	EdgeDefault string        `xml:"edgedefault,attr"`
	Nodes       []graphMLNode `xml:"node"`
	Edges       []graphMLEdge `xml:"edge"`
}

type graphMLNode struct {
	ID   string        `xml:"id,attr"`
	Data []graphMLData `xml:"data"`
}

type graphMLEdge struct {
	Source string        `xml:"source,attr"`
	Target string        `xml:"target,attr"`
	Data   []graphMLData `xml:"data"`
}

type graphMLData struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

func encodeGraphML(w io.Writer, g *Graph) error {
	const (
		labelKey = "d0"
		kindKey  = "d1"
	)
	doc := graphML{
		Keys: []graphMLKey{
			{ID: labelKey, For: "node", AttrName: "label", AttrType: "string"},
			{ID: kindKey, For: "node", AttrName: "kind", AttrType: "string"},
		},
		Graph: graphMLGraph{ID: "G", EdgeDefault: "directed"},
	}

	keyID := make(map[string]string)
	for _, k := range g.metaKeys() {
		id := fmt.Sprintf("d%d", len(doc.Keys))
		keyID[k] = id
		doc.Keys = append(doc.Keys, graphMLKey{ID: id, For: "node", AttrName: k, AttrType: "string"})
	}
	freqKey := fmt.Sprintf("d%d", len(doc.Keys))
	doc.Keys = append(doc.Keys, graphMLKey{ID: freqKey, For: "edge", AttrName: "frequency", AttrType: "double"})

	for _, n := range g.Nodes() {
		node := graphMLNode{
			ID: nodeName(n),
			Data: []graphMLData{
				{Key: labelKey, Value: n.Label},
				{Key: kindKey, Value: n.Kind.String()},
			},
		}
		for _, f := range n.Meta {
			node.Data = append(node.Data, graphMLData{Key: keyID[f.Name], Value: f.Value})
		}
		doc.Graph.Nodes = append(doc.Graph.Nodes, node)
	}
	for _, e := range g.Edges() {
		doc.Graph.Edges = append(doc.Graph.Edges, graphMLEdge{
			Source: nodeName(e.From),
			Target: nodeName(e.To),
			Data:   []graphMLData{{Key: freqKey, Value: formatFloat(e.Frequency)}},
		})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func nodeName(n *Node) string {
	return fmt.Sprintf("n%d", n.ID())
}
