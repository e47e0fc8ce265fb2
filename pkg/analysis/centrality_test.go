package analysis

import (
	"errors"
	"math"
	"testing"

	"github.com/kgraph-dev/kgraph/pkg/graph"
	"github.com/kgraph-dev/kgraph/pkg/model"
)

func addEntity(g *graph.KnowledgeGraph, id, text string) {
	g.AddEntity(model.Entity{ID: id, Type: model.EntityPerson, Text: text, Confidence: 1})
}

func addRel(g *graph.KnowledgeGraph, source, target string) {
	g.AddRelationship(model.Relationship{
		SourceID: source, TargetID: target, RelationshipType: "related_to", Confidence: 1,
	})
}

// buildStarGraph wires hub <- and -> three leaves.
func buildStarGraph() *graph.KnowledgeGraph {
	g := graph.New("star")
	addEntity(g, "hub", "Hub")
	for _, id := range []string{"a", "b", "c"} {
		addEntity(g, id, id)
		addRel(g, "hub", id)
	}
	return g
}

func TestCentralityUnknownAlgorithm(t *testing.T) {
	g := graph.New("test")
	if _, err := Centrality(g, "pagerank"); !errors.Is(err, ErrUnknownAlgorithm) {
		t.Errorf("error = %v, want ErrUnknownAlgorithm", err)
	}
}

func TestDegreeCentrality(t *testing.T) {
	g := buildStarGraph()
	addRel(g, "a", "hub") // parallel in the undirected sense, distinct edge

	scores, err := Centrality(g, "degree")
	if err != nil {
		t.Fatalf("Centrality: %v", err)
	}
	if scores["hub"] != 4 {
		t.Errorf("degree(hub) = %v, want 4 (in+out, parallel edges counted)", scores["hub"])
	}
	if scores["a"] != 2 {
		t.Errorf("degree(a) = %v, want 2", scores["a"])
	}
	if scores["b"] != 1 || scores["c"] != 1 {
		t.Errorf("leaf degrees = %v/%v, want 1/1", scores["b"], scores["c"])
	}
}

func TestBetweennessCentrality(t *testing.T) {
	g := buildStarGraph()
	scores, err := Centrality(g, "betweenness")
	if err != nil {
		t.Fatalf("Centrality: %v", err)
	}
	if len(scores) != 4 {
		t.Fatalf("scores for %d nodes, want 4", len(scores))
	}
	// Every leaf-to-leaf shortest path runs through the hub; leaves lie
	// on no path. Assert the ordering, not a particular normalization.
	if scores["hub"] <= scores["a"] {
		t.Errorf("betweenness hub %v should exceed leaf %v", scores["hub"], scores["a"])
	}
	for _, leaf := range []string{"a", "b", "c"} {
		if scores[leaf] != 0 {
			t.Errorf("betweenness(%s) = %v, want 0", leaf, scores[leaf])
		}
	}
}

func TestBetweennessTinyGraph(t *testing.T) {
	g := graph.New("pair")
	addEntity(g, "a", "A")
	addEntity(g, "b", "B")
	addRel(g, "a", "b")

	scores, err := Centrality(g, "betweenness")
	if err != nil {
		t.Fatalf("Centrality: %v", err)
	}
	for id, v := range scores {
		if v != 0 {
			t.Errorf("betweenness(%s) = %v, want 0 on a two-node graph", id, v)
		}
	}
}

func TestClosenessCentrality(t *testing.T) {
	g := buildStarGraph()
	scores, err := Centrality(g, "closeness")
	if err != nil {
		t.Fatalf("Centrality: %v", err)
	}
	// Star with 4 nodes: hub at distance 1 from all three leaves gives
	// closeness 1. A leaf reaches one node at 1 and two at 2, so
	// 3/5 scaled by 3/3 = 0.6.
	if math.Abs(scores["hub"]-1.0) > 1e-9 {
		t.Errorf("closeness(hub) = %v, want 1.0", scores["hub"])
	}
	if math.Abs(scores["a"]-0.6) > 1e-9 {
		t.Errorf("closeness(a) = %v, want 0.6", scores["a"])
	}
}

func TestClosenessIsolatedNode(t *testing.T) {
	g := buildStarGraph()
	addEntity(g, "lone", "Lone")

	scores, err := Centrality(g, "closeness")
	if err != nil {
		t.Fatalf("Centrality: %v", err)
	}
	if scores["lone"] != 0 {
		t.Errorf("closeness(lone) = %v, want 0", scores["lone"])
	}
	// Reachable-set scaling: hub now reaches 3 of 4 peers at distance 1,
	// so (3/3) * (3/4) = 0.75.
	if math.Abs(scores["hub"]-0.75) > 1e-9 {
		t.Errorf("closeness(hub) = %v, want 0.75", scores["hub"])
	}
}

func TestEigenvectorCentrality(t *testing.T) {
	g := buildStarGraph()
	scores, err := Centrality(g, "eigenvector")
	if err != nil {
		t.Fatalf("Centrality: %v", err)
	}
	if len(scores) == 0 {
		t.Fatal("eigenvector did not converge on a small star graph")
	}
	if scores["hub"] <= scores["a"] {
		t.Errorf("eigenvector hub %v should exceed leaf %v", scores["hub"], scores["a"])
	}
	// Leaves are symmetric.
	if math.Abs(scores["a"]-scores["b"]) > 1e-6 {
		t.Errorf("symmetric leaves differ: %v vs %v", scores["a"], scores["b"])
	}

	var norm float64
	for _, v := range scores {
		norm += v * v
	}
	if math.Abs(math.Sqrt(norm)-1.0) > 1e-6 {
		t.Errorf("score vector norm = %v, want 1", math.Sqrt(norm))
	}
}

func TestEigenvectorEdgelessGraph(t *testing.T) {
	g := graph.New("edgeless")
	addEntity(g, "a", "A")
	addEntity(g, "b", "B")

	scores, err := Centrality(g, "eigenvector")
	if err != nil {
		t.Fatalf("Centrality: %v", err)
	}
	// With no edges the iteration is stationary and converges at once.
	if len(scores) != 2 {
		t.Fatalf("scores = %v, want both nodes", scores)
	}
	if math.Abs(scores["a"]-scores["b"]) > 1e-9 {
		t.Errorf("scores differ on symmetric nodes: %v", scores)
	}
}

func TestCentralityEmptyGraph(t *testing.T) {
	g := graph.New("empty")
	for _, algorithm := range []string{"degree", "betweenness", "closeness", "eigenvector"} {
		scores, err := Centrality(g, algorithm)
		if err != nil {
			t.Fatalf("Centrality(%s): %v", algorithm, err)
		}
		if len(scores) != 0 {
			t.Errorf("Centrality(%s) on empty graph = %v, want empty", algorithm, scores)
		}
	}
}
