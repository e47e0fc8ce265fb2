package analysis

import (
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/graph/community"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/kgraph-dev/kgraph/pkg/graph"
)

// Communities partitions every node into disjoint, exhaustive
// communities by modularity maximization over the weighted undirected
// projection, with parallel-edge multiplicity as edge weight. The
// randomized search is seeded with a fixed source so the partition is
// deterministic for a fixed build order. Graphs whose projection has no
// edges fall back to connected components, which for such graphs means
// one community per node.
func Communities(g *graph.KnowledgeGraph) [][]string {
	if g.NodeCount() == 0 {
		return nil
	}

	p := g.WeightedUndirected()
	if p.Graph.Edges().Len() == 0 {
		return componentPartition(g)
	}

	reduced := community.Modularize(p.Graph, 1.0, rand.NewPCG(1, 1))
	var result [][]string
	for _, comm := range reduced.Communities() {
		ids := make([]string, 0, len(comm))
		for _, n := range comm {
			ids = append(ids, p.Names[n.ID()])
		}
		sort.Strings(ids)
		result = append(result, ids)
	}
	sortPartition(result)
	return result
}

// componentPartition is the connected-components fallback. It satisfies
// the same exhaustive-partition contract with coarser communities.
func componentPartition(g *graph.KnowledgeGraph) [][]string {
	p := g.Undirected()
	var result [][]string
	for _, comp := range topo.ConnectedComponents(p.Graph) {
		ids := make([]string, 0, len(comp))
		for _, n := range comp {
			ids = append(ids, p.Names[n.ID()])
		}
		sort.Strings(ids)
		result = append(result, ids)
	}
	sortPartition(result)
	return result
}

func sortPartition(parts [][]string) {
	sort.Slice(parts, func(i, j int) bool {
		return parts[i][0] < parts[j][0]
	})
}
