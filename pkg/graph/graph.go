package graph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kgraph-dev/kgraph/pkg/logging"
	"github.com/kgraph-dev/kgraph/pkg/model"
)

// ErrNodeNotFound is returned when an operation names a node id that is
// not present in the graph.
var ErrNodeNotFound = errors.New("node not found")

// Node is an entity resident in the graph. A node exists once per
// deduplicated entity; ids of nodes absorbed into it via merge are
// recorded in MergedFrom.
type Node struct {
	ID             string                 `json:"id"`
	Type           model.EntityType       `json:"entity_type"`
	Text           string                 `json:"text"`
	Confidence     float64                `json:"confidence"`
	SourceDocument string                 `json:"source_document,omitempty"`
	SourceChunk    string                 `json:"source_chunk,omitempty"`
	PageNumber     int                    `json:"page_number,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	MergedFrom     []string               `json:"merged_from,omitempty"`
}

// Edge is one asserted relationship instance. Parallel edges between the
// same ordered node pair are retained as distinct records.
type Edge struct {
	SourceID         string                 `json:"source"`
	TargetID         string                 `json:"target"`
	RelationshipType string                 `json:"relationship_type"`
	Confidence       float64                `json:"confidence"`
	Evidence         string                 `json:"evidence,omitempty"`
	SourceDocument   string                 `json:"source_document,omitempty"`
	SourceChunk      string                 `json:"source_chunk,omitempty"`
	PageNumber       int                    `json:"page_number,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

// indexKey identifies a node by normalized surface form and type.
type indexKey struct {
	text string
	typ  model.EntityType
}

// KnowledgeGraph is a directed multigraph of entities and relationships
// with a (text, type) lookup index. It has no internal locking: callers
// that mutate from multiple goroutines must serialize access themselves.
// Read-only queries may run concurrently with each other.
type KnowledgeGraph struct {
	name      string
	nodes     map[string]*Node
	order     []string           // node ids in insertion order
	out       map[string][]*Edge // outgoing edges per node, in insertion order
	in        map[string][]*Edge // incoming edges per node, in insertion order
	index     map[indexKey]string
	edgeCount int
}

// New creates an empty knowledge graph.
func New(name string) *KnowledgeGraph {
	if name == "" {
		name = "knowledge_graph"
	}
	return &KnowledgeGraph{
		name:  name,
		nodes: make(map[string]*Node),
		out:   make(map[string][]*Edge),
		in:    make(map[string][]*Edge),
		index: make(map[indexKey]string),
	}
}

// Name returns the graph's display name.
func (g *KnowledgeGraph) Name() string { return g.name }

// AddEntity inserts the entity as a node, overwriting the attributes of
// an existing node with the same id while keeping its edges and merge
// lineage. The entity index entry for (lower(text), type) is updated
// last-write-wins: a previously indexed node under the same key stays in
// the graph but is no longer reachable through FindEntity.
func (g *KnowledgeGraph) AddEntity(e model.Entity) string {
	typ := model.NormalizeType(string(e.Type))
	node := &Node{
		ID:             e.ID,
		Type:           typ,
		Text:           e.Text,
		Confidence:     e.Confidence,
		SourceDocument: e.SourceDocument,
		SourceChunk:    e.SourceChunk,
		PageNumber:     e.PageNumber,
		Metadata:       e.Metadata,
	}
	if node.Metadata == nil {
		node.Metadata = make(map[string]interface{})
	}

	if prev, ok := g.nodes[e.ID]; ok {
		node.MergedFrom = prev.MergedFrom
	} else {
		g.order = append(g.order, e.ID)
	}
	g.nodes[e.ID] = node
	g.index[indexKey{text: strings.ToLower(e.Text), typ: typ}] = e.ID

	return e.ID
}

// AddEntitiesBatch inserts entities one at a time and returns their node
// ids in input order.
func (g *KnowledgeGraph) AddEntitiesBatch(entities []model.Entity) []string {
	ids := make([]string, 0, len(entities))
	for _, e := range entities {
		ids = append(ids, g.AddEntity(e))
	}
	return ids
}

// AddRelationship appends the relationship as a new parallel edge.
// It returns false and leaves the graph unchanged when either endpoint
// is absent; this is a reported skip, not an error.
func (g *KnowledgeGraph) AddRelationship(r model.Relationship) bool {
	if _, ok := g.nodes[r.SourceID]; !ok {
		logging.Warn("skipping relationship, node not in graph",
			"source", r.SourceID, "target", r.TargetID, "type", r.RelationshipType)
		return false
	}
	if _, ok := g.nodes[r.TargetID]; !ok {
		logging.Warn("skipping relationship, node not in graph",
			"source", r.SourceID, "target", r.TargetID, "type", r.RelationshipType)
		return false
	}

	edge := &Edge{
		SourceID:         r.SourceID,
		TargetID:         r.TargetID,
		RelationshipType: r.RelationshipType,
		Confidence:       r.Confidence,
		Evidence:         r.Evidence,
		SourceDocument:   r.SourceDocument,
		SourceChunk:      r.SourceChunk,
		PageNumber:       r.PageNumber,
		Metadata:         r.Metadata,
	}
	if edge.Metadata == nil {
		edge.Metadata = make(map[string]interface{})
	}

	g.out[r.SourceID] = append(g.out[r.SourceID], edge)
	g.in[r.TargetID] = append(g.in[r.TargetID], edge)
	g.edgeCount++
	return true
}

// AddRelationshipsBatch applies relationships one at a time with no
// rollback: skipped records do not undo earlier successful inserts.
// Returns the number of edges added.
func (g *KnowledgeGraph) AddRelationshipsBatch(rels []model.Relationship) int {
	added := 0
	for _, r := range rels {
		if g.AddRelationship(r) {
			added++
		}
	}
	return added
}

// RemoveNode removes the node and every edge incident to it in either
// direction, along with its entity index keys. Returns false if the id
// is absent.
func (g *KnowledgeGraph) RemoveNode(id string) bool {
	if _, ok := g.nodes[id]; !ok {
		return false
	}

	for _, e := range g.out[id] {
		if e.TargetID != id {
			g.in[e.TargetID] = dropEdge(g.in[e.TargetID], e)
		}
		g.edgeCount--
	}
	for _, e := range g.in[id] {
		if e.SourceID == id {
			continue // self-loop, already counted above
		}
		g.out[e.SourceID] = dropEdge(g.out[e.SourceID], e)
		g.edgeCount--
	}

	delete(g.out, id)
	delete(g.in, id)
	delete(g.nodes, id)
	g.order = dropID(g.order, id)
	for k, v := range g.index {
		if v == id {
			delete(g.index, k)
		}
	}
	return true
}

// MergeEntities absorbs one node into the other. keepID selects the
// surviving node and defaults to idA; every edge of the discarded node is
// re-targeted at the kept node with its attributes intact, the discarded
// id is appended to the kept node's MergedFrom, and the discarded node's
// index keys are re-pointed at the kept node. Merging an id that was
// already merged away fails with ErrNodeNotFound.
func (g *KnowledgeGraph) MergeEntities(idA, idB, keepID string) (string, error) {
	if _, ok := g.nodes[idA]; !ok {
		return "", fmt.Errorf("merge %q: %w", idA, ErrNodeNotFound)
	}
	if _, ok := g.nodes[idB]; !ok {
		return "", fmt.Errorf("merge %q: %w", idB, ErrNodeNotFound)
	}
	if keepID == "" {
		keepID = idA
	}
	if keepID != idA && keepID != idB {
		return "", fmt.Errorf("merge keep id %q: %w", keepID, ErrNodeNotFound)
	}
	removeID := idB
	if keepID == idB {
		removeID = idA
	}

	for _, e := range g.in[removeID] {
		if e.SourceID == removeID {
			continue // self-loop, re-targeted with the outgoing pass
		}
		e.TargetID = keepID
		g.in[keepID] = append(g.in[keepID], e)
	}
	for _, e := range g.out[removeID] {
		e.SourceID = keepID
		if e.TargetID == removeID {
			e.TargetID = keepID
			g.in[keepID] = append(g.in[keepID], e)
		}
		g.out[keepID] = append(g.out[keepID], e)
	}

	kept := g.nodes[keepID]
	kept.MergedFrom = append(kept.MergedFrom, removeID)

	delete(g.nodes, removeID)
	delete(g.out, removeID)
	delete(g.in, removeID)
	g.order = dropID(g.order, removeID)
	for k, v := range g.index {
		if v == removeID {
			g.index[k] = keepID
		}
	}

	logging.Debug("merged entities", "kept", keepID, "removed", removeID)
	return keepID, nil
}

// FindEntity resolves an entity text to a node id. With a type the
// lookup is an exact index hit on (lower(text), type). Without one it is
// a best-effort scan in node insertion order; when several nodes of
// different types share the text, the earliest inserted wins.
func (g *KnowledgeGraph) FindEntity(text string, entityType model.EntityType) (string, bool) {
	lower := strings.ToLower(text)
	if entityType != "" {
		id, ok := g.index[indexKey{text: lower, typ: entityType}]
		return id, ok
	}
	for _, id := range g.order {
		if strings.ToLower(g.nodes[id].Text) == lower {
			return id, true
		}
	}
	return "", false
}

// Neighbors returns all node ids reachable from id within depth hops,
// treating edges as undirected. The origin is excluded even when a cycle
// leads back to it. An unknown id yields an empty set.
func (g *KnowledgeGraph) Neighbors(id string, depth int) map[string]struct{} {
	result := make(map[string]struct{})
	if _, ok := g.nodes[id]; !ok {
		return result
	}
	frontier := map[string]struct{}{id: {}}
	for hop := 0; hop < depth; hop++ {
		next := make(map[string]struct{})
		for n := range frontier {
			for _, e := range g.out[n] {
				next[e.TargetID] = struct{}{}
			}
			for _, e := range g.in[n] {
				next[e.SourceID] = struct{}{}
			}
		}
		for n := range next {
			result[n] = struct{}{}
		}
		frontier = next
	}
	delete(result, id)
	return result
}

// Node returns the node for id.
func (g *KnowledgeGraph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// HasNode reports whether id is in the node table.
func (g *KnowledgeGraph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// NodeIDs returns all node ids in insertion order.
func (g *KnowledgeGraph) NodeIDs() []string {
	ids := make([]string, len(g.order))
	copy(ids, g.order)
	return ids
}

// Nodes returns all nodes in insertion order.
func (g *KnowledgeGraph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		nodes = append(nodes, g.nodes[id])
	}
	return nodes
}

// Edges returns every edge, grouped by source node in insertion order.
func (g *KnowledgeGraph) Edges() []*Edge {
	edges := make([]*Edge, 0, g.edgeCount)
	for _, id := range g.order {
		edges = append(edges, g.out[id]...)
	}
	return edges
}

// EdgesBetween returns the parallel edges from source to target, in
// insertion order.
func (g *KnowledgeGraph) EdgesBetween(sourceID, targetID string) []*Edge {
	var edges []*Edge
	for _, e := range g.out[sourceID] {
		if e.TargetID == targetID {
			edges = append(edges, e)
		}
	}
	return edges
}

// NodeCount returns the number of nodes.
func (g *KnowledgeGraph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges, counting parallel edges.
func (g *KnowledgeGraph) EdgeCount() int { return g.edgeCount }

// Degree returns the in- and out-degree of id, counting parallel edges.
func (g *KnowledgeGraph) Degree(id string) (in, out int) {
	return len(g.in[id]), len(g.out[id])
}

// UndirectedNeighbors returns the distinct neighbors of id with edge
// direction ignored, ordered by first edge insertion (outgoing before
// incoming). Self-loops do not make a node its own neighbor.
func (g *KnowledgeGraph) UndirectedNeighbors(id string) []string {
	seen := make(map[string]struct{})
	var neighbors []string
	add := func(n string) {
		if n == id {
			return
		}
		if _, ok := seen[n]; ok {
			return
		}
		seen[n] = struct{}{}
		neighbors = append(neighbors, n)
	}
	for _, e := range g.out[id] {
		add(e.TargetID)
	}
	for _, e := range g.in[id] {
		add(e.SourceID)
	}
	return neighbors
}

// PutNode inserts a fully formed node, preserving its merge lineage.
// Used when reconstructing a graph from a serialized form; the entity
// index picks up the node's key.
func (g *KnowledgeGraph) PutNode(n *Node) {
	if n.Metadata == nil {
		n.Metadata = make(map[string]interface{})
	}
	if _, ok := g.nodes[n.ID]; !ok {
		g.order = append(g.order, n.ID)
	}
	g.nodes[n.ID] = n
	g.index[indexKey{text: strings.ToLower(n.Text), typ: n.Type}] = n.ID
}

// PutEdge appends a fully formed edge. Like AddRelationship it refuses
// edges whose endpoints are not in the node table.
func (g *KnowledgeGraph) PutEdge(e *Edge) bool {
	if _, ok := g.nodes[e.SourceID]; !ok {
		return false
	}
	if _, ok := g.nodes[e.TargetID]; !ok {
		return false
	}
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	g.out[e.SourceID] = append(g.out[e.SourceID], e)
	g.in[e.TargetID] = append(g.in[e.TargetID], e)
	g.edgeCount++
	return true
}

// Subgraph extracts the induced subgraph over ids as a new graph,
// copying node and edge records.
func (g *KnowledgeGraph) Subgraph(ids []string) *KnowledgeGraph {
	keep := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		keep[id] = struct{}{}
	}
	sub := New(g.name + "_subgraph")
	for _, id := range g.order {
		if _, ok := keep[id]; !ok {
			continue
		}
		n := *g.nodes[id]
		sub.PutNode(&n)
	}
	for _, id := range g.order {
		if _, ok := keep[id]; !ok {
			continue
		}
		for _, e := range g.out[id] {
			if _, ok := keep[e.TargetID]; !ok {
				continue
			}
			c := *e
			sub.PutEdge(&c)
		}
	}
	return sub
}

func dropEdge(list []*Edge, target *Edge) []*Edge {
	for i, e := range list {
		if e == target {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}

func dropID(list []string, id string) []string {
	for i, v := range list {
		if v == id {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}
