package analysis

import (
	"math"
	"testing"

	"github.com/kgraph-dev/kgraph/pkg/graph"
	"github.com/kgraph-dev/kgraph/pkg/model"
)

func TestStatisticsEmptyGraph(t *testing.T) {
	stats := Statistics(graph.New("empty"))
	if stats.TotalNodes != 0 || stats.TotalEdges != 0 {
		t.Errorf("counts = %d/%d, want 0/0", stats.TotalNodes, stats.TotalEdges)
	}
	if stats.AvgDegree != 0 || stats.Density != 0 {
		t.Errorf("ratios = %v/%v, want 0/0", stats.AvgDegree, stats.Density)
	}
	if stats.ConnectedComponents != 0 {
		t.Errorf("components = %d, want 0", stats.ConnectedComponents)
	}
}

func TestStatistics(t *testing.T) {
	g := graph.New("test")
	g.AddEntity(model.Entity{ID: "e1", Type: model.EntityPerson, Text: "John Smith"})
	g.AddEntity(model.Entity{ID: "e2", Type: model.EntityPerson, Text: "Jane Doe"})
	g.AddEntity(model.Entity{ID: "e3", Type: model.EntityOrganization, Text: "Acme"})
	g.AddEntity(model.Entity{ID: "e4", Type: model.EntityLocation, Text: "Boston"})
	addRel(g, "e1", "e3")
	addRel(g, "e2", "e3")
	g.AddRelationship(model.Relationship{
		SourceID: "e1", TargetID: "e3", RelationshipType: "works_at", Confidence: 1,
	})

	stats := Statistics(g)
	if stats.TotalNodes != 4 || stats.TotalEdges != 3 {
		t.Errorf("counts = %d/%d, want 4/3", stats.TotalNodes, stats.TotalEdges)
	}
	if stats.NodeTypes["PERSON"] != 2 || stats.NodeTypes["ORGANIZATION"] != 1 || stats.NodeTypes["LOCATION"] != 1 {
		t.Errorf("node types = %v", stats.NodeTypes)
	}
	if stats.RelationshipTypes["related_to"] != 2 || stats.RelationshipTypes["works_at"] != 1 {
		t.Errorf("relationship types = %v", stats.RelationshipTypes)
	}
	// 3 edges contribute 6 endpoint degrees over 4 nodes.
	if math.Abs(stats.AvgDegree-1.5) > 1e-9 {
		t.Errorf("avg degree = %v, want 1.5", stats.AvgDegree)
	}
	// Directed density with parallel edges: 3 / (4*3).
	if math.Abs(stats.Density-0.25) > 1e-9 {
		t.Errorf("density = %v, want 0.25", stats.Density)
	}
	if stats.ConnectedComponents != 2 {
		t.Errorf("components = %d, want 2 (e4 isolated)", stats.ConnectedComponents)
	}
	if stats.LargestComponentSize != 3 {
		t.Errorf("largest component = %d, want 3", stats.LargestComponentSize)
	}
}
