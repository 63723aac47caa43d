package graph

import (
	"encoding/xml"
	"io"
	"strconv"

	"gonum.org/v1/gonum/graph/formats/gexf12"
)

const gexfFrequencyAttr = "frequency"

func encodeGEXF(w io.Writer, g *Graph) error {
	keys := g.metaKeys()
	keyID := make(map[string]string, len(keys))
	nodeAttrs := gexf12.Attributes{Class: "node", Mode: "static"}
	for i, k := range keys {
		id := strconv.Itoa(i)
		keyID[k] = id
		nodeAttrs.Attributes = append(nodeAttrs.Attributes, gexf12.Attribute{ID: id, Title: k, Type: "string"})
	}
	edgeAttrs := gexf12.Attributes{
		Class:      "edge",
		Mode:       "static",
		Attributes: []gexf12.Attribute{{ID: gexfFrequencyAttr, Title: gexfFrequencyAttr, Type: "double"}},
	}

	content := gexf12.Content{
		Version: "1.2",
		Graph: gexf12.Graph{
			DefaultEdgeType: "directed",
			Mode:            "static",
			Attributes:      []gexf12.Attributes{nodeAttrs, edgeAttrs},
			Nodes:           gexf12.Nodes{Count: g.NodeCount()},
			Edges:           gexf12.Edges{Count: g.EdgeCount()},
		},
	}

	for _, n := range g.Nodes() {
		node := gexf12.Node{ID: strconv.FormatInt(n.ID(), 10), Label: n.Label}
		if len(n.Meta) > 0 {
			vals := &gexf12.AttValues{}
			for _, f := range n.Meta {
				vals.AttValues = append(vals.AttValues, gexf12.AttValue{For: keyID[f.Name], Value: f.Value})
			}
			node.AttValues = vals
		}
		content.Graph.Nodes.Nodes = append(content.Graph.Nodes.Nodes, node)
	}

	for i, e := range g.Edges() {
		content.Graph.Edges.Edges = append(content.Graph.Edges.Edges, gexf12.Edge{
			ID:     strconv.Itoa(i),
			Source: strconv.FormatInt(e.From.ID(), 10),
			Target: strconv.FormatInt(e.To.ID(), 10),
			Weight: e.Frequency,
			AttValues: &gexf12.AttValues{AttValues: []gexf12.AttValue{
				{For: gexfFrequencyAttr, Value: formatFloat(e.Frequency)},
			}},
		})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(content); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
