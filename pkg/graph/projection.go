package graph

import (
	"gonum.org/v1/gonum/graph/simple"
)

// Projection is an undirected gonum view of the graph for algorithms
// that ignore edge direction. Internal int64 ids are assigned in node
// insertion order, so projections of the same graph are stable.
// Parallel edges collapse to a single adjacency and self-loops are
// dropped; the edge table itself is untouched.
type Projection struct {
	Graph *simple.UndirectedGraph
	IDs   map[string]int64
	Names map[int64]string
}

// WeightedProjection is the undirected view with parallel-edge
// multiplicity folded into edge weights, as modularity-based community
// detection expects.
type WeightedProjection struct {
	Graph *simple.WeightedUndirectedGraph
	IDs   map[string]int64
	Names map[int64]string
}

// Undirected builds the unweighted undirected projection.
func (g *KnowledgeGraph) Undirected() *Projection {
	p := &Projection{
		Graph: simple.NewUndirectedGraph(),
		IDs:   make(map[string]int64, len(g.order)),
		Names: make(map[int64]string, len(g.order)),
	}
	var next int64
	for _, id := range g.order {
		p.IDs[id] = next
		p.Names[next] = id
		p.Graph.AddNode(simple.Node(next))
		next++
	}
	for _, id := range g.order {
		for _, e := range g.out[id] {
			u, v := p.IDs[e.SourceID], p.IDs[e.TargetID]
			if u == v {
				continue
			}
			if !p.Graph.HasEdgeBetween(u, v) {
				p.Graph.SetEdge(p.Graph.NewEdge(p.Graph.Node(u), p.Graph.Node(v)))
			}
		}
	}
	return p
}

// WeightedUndirected builds the weighted undirected projection. The
// weight of a pair is the number of parallel edges between its nodes,
// both directions summed.
func (g *KnowledgeGraph) WeightedUndirected() *WeightedProjection {
	p := &WeightedProjection{
		Graph: simple.NewWeightedUndirectedGraph(0, 0),
		IDs:   make(map[string]int64, len(g.order)),
		Names: make(map[int64]string, len(g.order)),
	}
	var next int64
	for _, id := range g.order {
		p.IDs[id] = next
		p.Names[next] = id
		p.Graph.AddNode(simple.Node(next))
		next++
	}

	type pair struct{ u, v int64 }
	weights := make(map[pair]float64)
	var pairs []pair // insertion order, for a deterministic edge set
	for _, id := range g.order {
		for _, e := range g.out[id] {
			u, v := p.IDs[e.SourceID], p.IDs[e.TargetID]
			if u == v {
				continue
			}
			if u > v {
				u, v = v, u
			}
			key := pair{u, v}
			if _, ok := weights[key]; !ok {
				pairs = append(pairs, key)
			}
			weights[key]++
		}
	}
	for _, key := range pairs {
		p.Graph.SetWeightedEdge(p.Graph.NewWeightedEdge(
			p.Graph.Node(key.u), p.Graph.Node(key.v), weights[key]))
	}
	return p
}
