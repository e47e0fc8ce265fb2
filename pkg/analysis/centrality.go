package analysis

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/graph/network"

	"github.com/kgraph-dev/kgraph/pkg/graph"
)

// ErrUnknownAlgorithm is returned for a centrality algorithm name
// outside degree, betweenness, closeness and eigenvector.
var ErrUnknownAlgorithm = errors.New("unknown centrality algorithm")

const (
	// Power iteration budget for eigenvector centrality.
	maxPowerIterations = 1000
	powerTolerance     = 1e-6
)

// Centrality computes a score per node id using the named algorithm.
//
// degree is the raw in+out edge count, direction-sensitive and counting
// parallel edges; the other measures run on the undirected projection.
// eigenvector may return an empty map when power iteration does not
// converge within its budget; callers must treat empty as unavailable,
// not as all-zero.
func Centrality(g *graph.KnowledgeGraph, algorithm string) (map[string]float64, error) {
	switch algorithm {
	case "degree":
		return degreeCentrality(g), nil
	case "betweenness":
		return betweennessCentrality(g), nil
	case "closeness":
		return closenessCentrality(g), nil
	case "eigenvector":
		return eigenvectorCentrality(g), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
	}
}

func degreeCentrality(g *graph.KnowledgeGraph) map[string]float64 {
	scores := make(map[string]float64, g.NodeCount())
	for _, id := range g.NodeIDs() {
		in, out := g.Degree(id)
		scores[id] = float64(in + out)
	}
	return scores
}

// betweennessCentrality is the fraction of all-pairs shortest paths
// passing through each node, normalized by (n-1)(n-2).
func betweennessCentrality(g *graph.KnowledgeGraph) map[string]float64 {
	ids := g.NodeIDs()
	scores := make(map[string]float64, len(ids))
	for _, id := range ids {
		scores[id] = 0
	}
	n := len(ids)
	if n < 3 {
		return scores
	}
	p := g.Undirected()
	norm := float64((n - 1) * (n - 2))
	for gid, v := range network.Betweenness(p.Graph) {
		scores[p.Names[gid]] = v / norm
	}
	return scores
}

// closenessCentrality uses the reachable-set-scaled formula: the inverse
// of the mean distance to reachable peers, scaled by the fraction of the
// graph that is reachable. Nodes with no reachable peers score 0.
func closenessCentrality(g *graph.KnowledgeGraph) map[string]float64 {
	ids := g.NodeIDs()
	n := len(ids)
	scores := make(map[string]float64, n)
	for _, id := range ids {
		dist := bfsDistances(g, id)
		reachable := len(dist) - 1 // excludes the origin
		if reachable == 0 {
			scores[id] = 0
			continue
		}
		var total float64
		for _, d := range dist {
			total += float64(d)
		}
		c := float64(reachable) / total
		scores[id] = c * float64(reachable) / float64(n-1)
	}
	return scores
}

// bfsDistances returns hop counts from src to every reachable node over
// the undirected projection, src included at distance 0.
func bfsDistances(g *graph.KnowledgeGraph, src string) map[string]int {
	dist := map[string]int{src: 0}
	queue := []string{src}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, v := range g.UndirectedNeighbors(u) {
			if _, seen := dist[v]; seen {
				continue
			}
			dist[v] = dist[u] + 1
			queue = append(queue, v)
		}
	}
	return dist
}

// eigenvectorCentrality runs power iteration over the undirected
// adjacency with L2 normalization each round. Non-convergence inside the
// iteration budget yields an empty map rather than an error.
func eigenvectorCentrality(g *graph.KnowledgeGraph) map[string]float64 {
	ids := g.NodeIDs()
	n := len(ids)
	if n == 0 {
		return map[string]float64{}
	}

	x := make(map[string]float64, n)
	for _, id := range ids {
		x[id] = 1.0 / float64(n)
	}
	tol := powerTolerance * float64(n)

	for iter := 0; iter < maxPowerIterations; iter++ {
		next := make(map[string]float64, n)
		for _, id := range ids {
			var sum float64
			for _, nb := range g.UndirectedNeighbors(id) {
				sum += x[nb]
			}
			// Keep a fraction of the previous score so bipartite
			// structures do not oscillate forever.
			next[id] = x[id] + sum
		}

		var norm float64
		for _, v := range next {
			norm += v * v
		}
		norm = math.Sqrt(norm)
		if norm == 0 {
			return map[string]float64{}
		}

		var delta float64
		for _, id := range ids {
			next[id] /= norm
			delta += math.Abs(next[id] - x[id])
		}
		x = next
		if delta < tol {
			return x
		}
	}
	return map[string]float64{}
}
