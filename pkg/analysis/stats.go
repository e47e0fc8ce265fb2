package analysis

import (
	"gonum.org/v1/gonum/graph/topo"

	"github.com/kgraph-dev/kgraph/pkg/graph"
	"github.com/kgraph-dev/kgraph/pkg/model"
)

// Statistics derives aggregate counts and ratios from the current graph
// state. Density is directed-multigraph density, edges over possible
// directed pairs with parallel edges additive in the numerator.
// Components are counted on the undirected projection.
func Statistics(g *graph.KnowledgeGraph) model.Stats {
	stats := model.Stats{
		TotalNodes:        g.NodeCount(),
		TotalEdges:        g.EdgeCount(),
		NodeTypes:         make(map[string]int),
		RelationshipTypes: make(map[string]int),
	}

	for _, n := range g.Nodes() {
		stats.NodeTypes[string(n.Type)]++
	}
	for _, e := range g.Edges() {
		stats.RelationshipTypes[e.RelationshipType]++
	}

	if stats.TotalNodes > 0 {
		degreeSum := 0
		for _, id := range g.NodeIDs() {
			in, out := g.Degree(id)
			degreeSum += in + out
		}
		stats.AvgDegree = float64(degreeSum) / float64(stats.TotalNodes)
	}
	if stats.TotalNodes > 1 {
		stats.Density = float64(stats.TotalEdges) /
			float64(stats.TotalNodes*(stats.TotalNodes-1))
	}

	if stats.TotalNodes > 0 {
		components := topo.ConnectedComponents(g.Undirected().Graph)
		stats.ConnectedComponents = len(components)
		for _, c := range components {
			if len(c) > stats.LargestComponentSize {
				stats.LargestComponentSize = len(c)
			}
		}
	}

	return stats
}
