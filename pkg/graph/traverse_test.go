package graph

import (
	"testing"

	"github.com/kgraph-dev/kgraph/pkg/model"
)

// buildChainGraph wires e1 -> e2 -> e4 and e1 -> e3 with e3 a dead end,
// so the only path from John Smith to Jane Doe runs through Acme.
func buildChainGraph() *KnowledgeGraph {
	g := New("test")
	g.AddEntity(entity("e1", "PERSON", "John Smith"))
	g.AddEntity(entity("e2", "ORGANIZATION", "Acme"))
	g.AddEntity(entity("e3", "LOCATION", "Boston"))
	g.AddEntity(entity("e4", "PERSON", "Jane Doe"))
	g.AddRelationship(rel("e1", "e2", "works_at"))
	g.AddRelationship(rel("e1", "e3", "lives_in"))
	g.AddRelationship(rel("e4", "e2", "works_at"))
	return g
}

func TestShortestPath(t *testing.T) {
	g := buildChainGraph()

	path := g.ShortestPath("e1", "e4")
	want := []string{"e1", "e2", "e4"}
	if len(path) != len(want) {
		t.Fatalf("path = %v, want %v", path, want)
	}
	for i := range want {
		if path[i] != want[i] {
			t.Fatalf("path = %v, want %v", path, want)
		}
	}
}

func TestShortestPathByEntityText(t *testing.T) {
	g := buildChainGraph()

	path := g.ShortestPath("John Smith", "Jane Doe")
	if len(path) != 3 || path[0] != "e1" || path[2] != "e4" {
		t.Fatalf("path by text = %v, want [e1 e2 e4]", path)
	}
}

func TestShortestPathIgnoresDirection(t *testing.T) {
	g := buildChainGraph()

	// e4 -> e2 is the only edge touching e4, so the reverse traversal
	// must walk it against its direction.
	path := g.ShortestPath("e4", "e1")
	if len(path) != 3 || path[0] != "e4" || path[2] != "e1" {
		t.Fatalf("reverse path = %v, want [e4 e2 e1]", path)
	}
}

func TestShortestPathSameNode(t *testing.T) {
	g := buildChainGraph()
	path := g.ShortestPath("e1", "e1")
	if len(path) != 1 || path[0] != "e1" {
		t.Errorf("path = %v, want [e1]", path)
	}
}

func TestShortestPathDisconnected(t *testing.T) {
	g := buildChainGraph()
	g.AddEntity(model.Entity{ID: "e5", Type: model.EntityPerson, Text: "Hermit"})

	if path := g.ShortestPath("e1", "e5"); path != nil {
		t.Errorf("path to isolated node = %v, want nil", path)
	}
	if path := g.ShortestPath("e1", "no such node"); path != nil {
		t.Errorf("path to unresolvable endpoint = %v, want nil", path)
	}
}
