package export

import (
	"encoding/xml"
	"fmt"

	"github.com/kgraph-dev/kgraph/pkg/graph"
)

// GEXF 1.2 document model, the XML interchange alternative to GraphML.
// It carries the same attribute set, so the two variants are
// attribute-compatible.
type gexfDoc struct {
	XMLName xml.Name  `xml:"gexf"`
	XMLNS   string    `xml:"xmlns,attr"`
	Version string    `xml:"version,attr"`
	Graph   gexfGraph `xml:"graph"`
}

type gexfGraph struct {
	Name            string           `xml:"name,attr,omitempty"`
	DefaultEdgeType string           `xml:"defaultedgetype,attr"`
	Attributes      []gexfAttributes `xml:"attributes"`
	Nodes           gexfNodes        `xml:"nodes"`
	Edges           gexfEdges        `xml:"edges"`
}

type gexfAttributes struct {
	Class string          `xml:"class,attr"` // node or edge
	Attrs []gexfAttribute `xml:"attribute"`
}

type gexfAttribute struct {
	ID    string `xml:"id,attr"`
	Title string `xml:"title,attr"`
	Type  string `xml:"type,attr"`
}

type gexfNodes struct {
	Nodes []gexfNode `xml:"node"`
}

type gexfNode struct {
	ID        string         `xml:"id,attr"`
	Label     string         `xml:"label,attr"`
	AttValues *gexfAttValues `xml:"attvalues"`
}

type gexfEdges struct {
	Edges []gexfEdge `xml:"edge"`
}

type gexfEdge struct {
	ID        string         `xml:"id,attr"`
	Source    string         `xml:"source,attr"`
	Target    string         `xml:"target,attr"`
	AttValues *gexfAttValues `xml:"attvalues"`
}

type gexfAttValues struct {
	Values []gexfAttValue `xml:"attvalue"`
}

type gexfAttValue struct {
	For   string `xml:"for,attr"`
	Value string `xml:"value,attr"`
}

const gexfNamespace = "http://www.gexf.net/1.2draft"

// gexfType maps a GraphML attr.type to its GEXF spelling.
func gexfType(t string) string {
	if t == "int" {
		return "integer"
	}
	return t
}

func marshalGEXF(g *graph.KnowledgeGraph) ([]byte, error) {
	doc := gexfDoc{
		XMLNS:   gexfNamespace,
		Version: "1.2",
		Graph: gexfGraph{
			Name:            g.Name(),
			DefaultEdgeType: "directed",
		},
	}

	nodeDefs := gexfAttributes{Class: "node"}
	for _, k := range graphmlNodeKeys {
		nodeDefs.Attrs = append(nodeDefs.Attrs, gexfAttribute{ID: k.id, Title: k.name, Type: gexfType(k.typ)})
	}
	edgeDefs := gexfAttributes{Class: "edge"}
	for _, k := range graphmlEdgeKeys {
		edgeDefs.Attrs = append(edgeDefs.Attrs, gexfAttribute{ID: k.id, Title: k.name, Type: gexfType(k.typ)})
	}
	doc.Graph.Attributes = []gexfAttributes{nodeDefs, edgeDefs}

	for _, n := range g.Nodes() {
		attrs, err := nodeAttributes(n)
		if err != nil {
			return nil, err
		}
		values := &gexfAttValues{}
		for _, k := range graphmlNodeKeys {
			if v, ok := attrs[k.name]; ok {
				values.Values = append(values.Values, gexfAttValue{For: k.id, Value: v})
			}
		}
		doc.Graph.Nodes.Nodes = append(doc.Graph.Nodes.Nodes, gexfNode{
			ID:        n.ID,
			Label:     n.Text,
			AttValues: values,
		})
	}

	for i, e := range g.Edges() {
		attrs, err := edgeAttributes(e)
		if err != nil {
			return nil, err
		}
		values := &gexfAttValues{}
		for _, k := range graphmlEdgeKeys {
			if v, ok := attrs[k.name]; ok {
				values.Values = append(values.Values, gexfAttValue{For: k.id, Value: v})
			}
		}
		doc.Graph.Edges.Edges = append(doc.Graph.Edges.Edges, gexfEdge{
			ID:        fmt.Sprintf("%d", i),
			Source:    e.SourceID,
			Target:    e.TargetID,
			AttValues: values,
		})
	}

	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}

func unmarshalGEXF(data []byte) (*graph.KnowledgeGraph, error) {
	var doc gexfDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	nodeNames := make(map[string]string)
	edgeNames := make(map[string]string)
	for _, defs := range doc.Graph.Attributes {
		for _, a := range defs.Attrs {
			switch defs.Class {
			case "node":
				nodeNames[a.ID] = a.Title
			case "edge":
				edgeNames[a.ID] = a.Title
			}
		}
	}

	g := graph.New(doc.Graph.Name)
	for _, xn := range doc.Graph.Nodes.Nodes {
		attrs := make(map[string]string)
		if xn.AttValues != nil {
			for _, v := range xn.AttValues.Values {
				if name, ok := nodeNames[v.For]; ok {
					attrs[name] = v.Value
				}
			}
		}
		// The label doubles as the surface text when the attribute
		// set came from a foreign writer.
		if _, ok := attrs[attrText]; !ok {
			attrs[attrText] = xn.Label
		}
		n, err := nodeFromAttributes(xn.ID, attrs)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", xn.ID, err)
		}
		g.PutNode(n)
	}
	for _, xe := range doc.Graph.Edges.Edges {
		attrs := make(map[string]string)
		if xe.AttValues != nil {
			for _, v := range xe.AttValues.Values {
				if name, ok := edgeNames[v.For]; ok {
					attrs[name] = v.Value
				}
			}
		}
		e, err := edgeFromAttributes(xe.Source, xe.Target, attrs)
		if err != nil {
			return nil, fmt.Errorf("edge %s -> %s: %w", xe.Source, xe.Target, err)
		}
		if !g.PutEdge(e) {
			return nil, fmt.Errorf("edge references unknown node: %s -> %s", xe.Source, xe.Target)
		}
	}
	return g, nil
}
