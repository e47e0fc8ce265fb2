package export

import (
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/kgraph-dev/kgraph/pkg/graph"
	"github.com/kgraph-dev/kgraph/pkg/model"
)

// GraphML document model, the attributed-graph XML variant. Attribute
// values live in <data> elements keyed by <key> declarations.
type graphmlDoc struct {
	XMLName xml.Name     `xml:"graphml"`
	XMLNS   string       `xml:"xmlns,attr"`
	Keys    []graphmlKey `xml:"key"`
	Graph   graphmlGraph `xml:"graph"`
}

type graphmlKey struct {
	ID       string `xml:"id,attr"`
	For      string `xml:"for,attr"`
	AttrName string `xml:"attr.name,attr"`
	AttrType string `xml:"attr.type,attr"`
}

type graphmlGraph struct {
	ID          string        `xml:"id,attr"`
	EdgeDefault string        `xml:"edgedefault,attr"`
	Nodes       []graphmlNode `xml:"node"`
	Edges       []graphmlEdge `xml:"edge"`
}

type graphmlNode struct {
	ID   string        `xml:"id,attr"`
	Data []graphmlData `xml:"data"`
}

type graphmlEdge struct {
	Source string        `xml:"source,attr"`
	Target string        `xml:"target,attr"`
	Data   []graphmlData `xml:"data"`
}

type graphmlData struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

const graphmlNamespace = "http://graphml.graphdrawing.org/xmlns"

// Attribute names shared by the two XML formats.
const (
	attrEntityType     = "entity_type"
	attrText           = "text"
	attrConfidence     = "confidence"
	attrSourceDocument = "source_document"
	attrSourceChunk    = "source_chunk"
	attrPageNumber     = "page_number"
	attrMetadata       = "metadata"
	attrMergedFrom     = "merged_from"
	attrRelType        = "relationship_type"
	attrEvidence       = "evidence"
)

type attrDef struct {
	id   string
	name string
	typ  string // GraphML attr.type: string, double, int
}

var graphmlNodeKeys = []attrDef{
	{"d0", attrEntityType, "string"},
	{"d1", attrText, "string"},
	{"d2", attrConfidence, "double"},
	{"d3", attrSourceDocument, "string"},
	{"d4", attrSourceChunk, "string"},
	{"d5", attrPageNumber, "int"},
	{"d6", attrMetadata, "string"},
	{"d7", attrMergedFrom, "string"},
}

var graphmlEdgeKeys = []attrDef{
	{"e0", attrRelType, "string"},
	{"e1", attrConfidence, "double"},
	{"e2", attrEvidence, "string"},
	{"e3", attrSourceDocument, "string"},
	{"e4", attrSourceChunk, "string"},
	{"e5", attrPageNumber, "int"},
	{"e6", attrMetadata, "string"},
}

func marshalGraphML(g *graph.KnowledgeGraph) ([]byte, error) {
	doc := graphmlDoc{
		XMLNS: graphmlNamespace,
		Graph: graphmlGraph{ID: g.Name(), EdgeDefault: "directed"},
	}
	for _, k := range graphmlNodeKeys {
		doc.Keys = append(doc.Keys, graphmlKey{ID: k.id, For: "node", AttrName: k.name, AttrType: k.typ})
	}
	for _, k := range graphmlEdgeKeys {
		doc.Keys = append(doc.Keys, graphmlKey{ID: k.id, For: "edge", AttrName: k.name, AttrType: k.typ})
	}

	for _, n := range g.Nodes() {
		attrs, err := nodeAttributes(n)
		if err != nil {
			return nil, err
		}
		node := graphmlNode{ID: n.ID}
		for _, k := range graphmlNodeKeys {
			if v, ok := attrs[k.name]; ok {
				node.Data = append(node.Data, graphmlData{Key: k.id, Value: v})
			}
		}
		doc.Graph.Nodes = append(doc.Graph.Nodes, node)
	}

	for _, e := range g.Edges() {
		attrs, err := edgeAttributes(e)
		if err != nil {
			return nil, err
		}
		edge := graphmlEdge{Source: e.SourceID, Target: e.TargetID}
		for _, k := range graphmlEdgeKeys {
			if v, ok := attrs[k.name]; ok {
				edge.Data = append(edge.Data, graphmlData{Key: k.id, Value: v})
			}
		}
		doc.Graph.Edges = append(doc.Graph.Edges, edge)
	}

	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}

func unmarshalGraphML(data []byte) (*graph.KnowledgeGraph, error) {
	var doc graphmlDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	// Resolve key ids through the declarations so documents with a
	// different key numbering still load.
	keyNames := make(map[string]string, len(doc.Keys))
	for _, k := range doc.Keys {
		keyNames[k.ID] = k.AttrName
	}

	g := graph.New(doc.Graph.ID)
	for _, xn := range doc.Graph.Nodes {
		attrs := make(map[string]string, len(xn.Data))
		for _, d := range xn.Data {
			if name, ok := keyNames[d.Key]; ok {
				attrs[name] = d.Value
			}
		}
		n, err := nodeFromAttributes(xn.ID, attrs)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", xn.ID, err)
		}
		g.PutNode(n)
	}
	for _, xe := range doc.Graph.Edges {
		attrs := make(map[string]string, len(xe.Data))
		for _, d := range xe.Data {
			if name, ok := keyNames[d.Key]; ok {
				attrs[name] = d.Value
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

// nodeAttributes flattens a node to the shared scalar attribute set.
// Empty optional values are omitted so documents stay compact.
func nodeAttributes(n *graph.Node) (map[string]string, error) {
	meta, err := encodeMap(n.Metadata)
	if err != nil {
		return nil, fmt.Errorf("node %q metadata: %w", n.ID, err)
	}
	merged, err := encodeList(n.MergedFrom)
	if err != nil {
		return nil, fmt.Errorf("node %q merged_from: %w", n.ID, err)
	}

	attrs := map[string]string{
		attrEntityType: string(n.Type),
		attrText:       n.Text,
		attrConfidence: strconv.FormatFloat(n.Confidence, 'g', -1, 64),
	}
	if n.SourceDocument != "" {
		attrs[attrSourceDocument] = n.SourceDocument
	}
	if n.SourceChunk != "" {
		attrs[attrSourceChunk] = n.SourceChunk
	}
	if n.PageNumber != 0 {
		attrs[attrPageNumber] = strconv.Itoa(n.PageNumber)
	}
	if meta != "" {
		attrs[attrMetadata] = meta
	}
	if merged != "" {
		attrs[attrMergedFrom] = merged
	}
	return attrs, nil
}

func edgeAttributes(e *graph.Edge) (map[string]string, error) {
	meta, err := encodeMap(e.Metadata)
	if err != nil {
		return nil, fmt.Errorf("edge %s -> %s metadata: %w", e.SourceID, e.TargetID, err)
	}

	attrs := map[string]string{
		attrRelType:    e.RelationshipType,
		attrConfidence: strconv.FormatFloat(e.Confidence, 'g', -1, 64),
	}
	if e.Evidence != "" {
		attrs[attrEvidence] = e.Evidence
	}
	if e.SourceDocument != "" {
		attrs[attrSourceDocument] = e.SourceDocument
	}
	if e.SourceChunk != "" {
		attrs[attrSourceChunk] = e.SourceChunk
	}
	if e.PageNumber != 0 {
		attrs[attrPageNumber] = strconv.Itoa(e.PageNumber)
	}
	if meta != "" {
		attrs[attrMetadata] = meta
	}
	return attrs, nil
}

func nodeFromAttributes(id string, attrs map[string]string) (*graph.Node, error) {
	n := &graph.Node{
		ID:             id,
		Type:           model.NormalizeType(attrs[attrEntityType]),
		Text:           attrs[attrText],
		SourceDocument: attrs[attrSourceDocument],
		SourceChunk:    attrs[attrSourceChunk],
	}
	if v, ok := attrs[attrConfidence]; ok {
		c, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("confidence: %w", err)
		}
		n.Confidence = c
	}
	if v, ok := attrs[attrPageNumber]; ok {
		p, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("page_number: %w", err)
		}
		n.PageNumber = p
	}
	meta, err := decodeMap(attrs[attrMetadata])
	if err != nil {
		return nil, fmt.Errorf("metadata: %w", err)
	}
	n.Metadata = meta
	merged, err := decodeList(attrs[attrMergedFrom])
	if err != nil {
		return nil, fmt.Errorf("merged_from: %w", err)
	}
	n.MergedFrom = merged
	return n, nil
}

func edgeFromAttributes(source, target string, attrs map[string]string) (*graph.Edge, error) {
	e := &graph.Edge{
		SourceID:         source,
		TargetID:         target,
		RelationshipType: attrs[attrRelType],
		Evidence:         attrs[attrEvidence],
		SourceDocument:   attrs[attrSourceDocument],
		SourceChunk:      attrs[attrSourceChunk],
	}
	if v, ok := attrs[attrConfidence]; ok {
		c, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("confidence: %w", err)
		}
		e.Confidence = c
	}
	if v, ok := attrs[attrPageNumber]; ok {
		p, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("page_number: %w", err)
		}
		e.PageNumber = p
	}
	meta, err := decodeMap(attrs[attrMetadata])
	if err != nil {
		return nil, fmt.Errorf("metadata: %w", err)
	}
	e.Metadata = meta
	return e, nil
}
