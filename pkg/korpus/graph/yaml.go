package graph

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/korpus/pkg/korpus/metadata"
)

type yamlGraph struct {
	Directed bool       `yaml:"directed"`
	Nodes    []yamlNode `yaml:"nodes"`
	Edges    []yamlEdge `yaml:"edges"`
}

type yamlNode struct {
	ID         int64      `yaml:"id"`
	Kind       string     `yaml:"kind"`
	Label      string     `yaml:"label"`
	Attributes yamlRecord `yaml:"attributes,omitempty"`
}

type yamlEdge struct {
	Source    int64   `yaml:"source"`
	Target    int64   `yaml:"target"`
	Frequency float64 `yaml:"frequency"`
}

// yamlRecord keeps metadata field order in the output mapping.
type yamlRecord metadata.Record

func (r yamlRecord) IsZero() bool { return len(r) == 0 }

func (r yamlRecord) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, f := range r {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Name},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Value},
		)
	}
	return node, nil
}

func encodeYAML(w io.Writer, g *Graph) error {
	out := yamlGraph{Directed: true}
	for _, n := range g.Nodes() {
		out.Nodes = append(out.Nodes, yamlNode{
			ID:         n.ID(),
			Kind:       n.Kind.String(),
			Label:      n.Label,
			Attributes: yamlRecord(n.Meta),
		})
	}
	for _, e := range g.Edges() {
		out.Edges = append(out.Edges, yamlEdge{
			Source:    e.From.ID(),
			Target:    e.To.ID(),
			Frequency: e.Frequency,
		})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return err
	}
	return enc.Close()
}
