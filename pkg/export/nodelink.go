package export

import (
	"encoding/json"
	"fmt"

	"github.com/kgraph-dev/kgraph/pkg/graph"
	"github.com/kgraph-dev/kgraph/pkg/model"
)

// nodeLinkDoc is the JSON node-link interchange document. Parallel edges
// appear as distinct entries in Links.
type nodeLinkDoc struct {
	Directed   bool              `json:"directed"`
	Multigraph bool              `json:"multigraph"`
	Graph      nodeLinkGraphMeta `json:"graph"`
	Nodes      []nodeLinkNode    `json:"nodes"`
	Links      []nodeLinkLink    `json:"links"`
}

type nodeLinkGraphMeta struct {
	Name string `json:"name,omitempty"`
}

type nodeLinkNode struct {
	ID             string                 `json:"id"`
	EntityType     string                 `json:"entity_type"`
	Text           string                 `json:"text"`
	Confidence     float64                `json:"confidence"`
	SourceDocument string                 `json:"source_document,omitempty"`
	SourceChunk    string                 `json:"source_chunk,omitempty"`
	PageNumber     int                    `json:"page_number,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	MergedFrom     []string               `json:"merged_from,omitempty"`
}

type nodeLinkLink struct {
	Source           string                 `json:"source"`
	Target           string                 `json:"target"`
	RelationshipType string                 `json:"relationship_type"`
	Confidence       float64                `json:"confidence"`
	Evidence         string                 `json:"evidence,omitempty"`
	SourceDocument   string                 `json:"source_document,omitempty"`
	SourceChunk      string                 `json:"source_chunk,omitempty"`
	PageNumber       int                    `json:"page_number,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

func marshalNodeLink(g *graph.KnowledgeGraph) ([]byte, error) {
	doc := nodeLinkDoc{
		Directed:   true,
		Multigraph: true,
		Graph:      nodeLinkGraphMeta{Name: g.Name()},
		Nodes:      make([]nodeLinkNode, 0, g.NodeCount()),
		Links:      make([]nodeLinkLink, 0, g.EdgeCount()),
	}

	for _, n := range g.Nodes() {
		doc.Nodes = append(doc.Nodes, nodeLinkNode{
			ID:             n.ID,
			EntityType:     string(n.Type),
			Text:           n.Text,
			Confidence:     n.Confidence,
			SourceDocument: n.SourceDocument,
			SourceChunk:    n.SourceChunk,
			PageNumber:     n.PageNumber,
			Metadata:       n.Metadata,
			MergedFrom:     n.MergedFrom,
		})
	}
	for _, e := range g.Edges() {
		doc.Links = append(doc.Links, nodeLinkLink{
			Source:           e.SourceID,
			Target:           e.TargetID,
			RelationshipType: e.RelationshipType,
			Confidence:       e.Confidence,
			Evidence:         e.Evidence,
			SourceDocument:   e.SourceDocument,
			SourceChunk:      e.SourceChunk,
			PageNumber:       e.PageNumber,
			Metadata:         e.Metadata,
		})
	}

	return json.MarshalIndent(doc, "", "  ")
}

func unmarshalNodeLink(data []byte) (*graph.KnowledgeGraph, error) {
	var doc nodeLinkDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	g := graph.New(doc.Graph.Name)
	for _, n := range doc.Nodes {
		g.PutNode(&graph.Node{
			ID:             n.ID,
			Type:           model.NormalizeType(n.EntityType),
			Text:           n.Text,
			Confidence:     n.Confidence,
			SourceDocument: n.SourceDocument,
			SourceChunk:    n.SourceChunk,
			PageNumber:     n.PageNumber,
			Metadata:       n.Metadata,
			MergedFrom:     n.MergedFrom,
		})
	}
	for _, l := range doc.Links {
		ok := g.PutEdge(&graph.Edge{
			SourceID:         l.Source,
			TargetID:         l.Target,
			RelationshipType: l.RelationshipType,
			Confidence:       l.Confidence,
			Evidence:         l.Evidence,
			SourceDocument:   l.SourceDocument,
			SourceChunk:      l.SourceChunk,
			PageNumber:       l.PageNumber,
			Metadata:         l.Metadata,
		})
		if !ok {
			return nil, fmt.Errorf("link references unknown node: %s -> %s", l.Source, l.Target)
		}
	}
	return g, nil
}
