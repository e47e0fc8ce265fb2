package export

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kgraph-dev/kgraph/pkg/graph"
	"github.com/kgraph-dev/kgraph/pkg/model"
)

// buildSampleGraph exercises every attribute the formats carry:
// optional fields, metadata, merge lineage and parallel edges.
func buildSampleGraph() *graph.KnowledgeGraph {
	g := graph.New("case_study")
	g.AddEntity(model.Entity{
		ID: "e1", Type: model.EntityPerson, Text: "John Smith", Confidence: 0.95,
		SourceDocument: "report.pdf", SourceChunk: "chunk-3", PageNumber: 12,
		Metadata: map[string]interface{}{"alias": "J.S."},
	})
	g.AddEntity(model.Entity{
		ID: "e2", Type: model.EntityOrganization, Text: "Acme", Confidence: 0.8,
	})
	g.AddEntity(model.Entity{
		ID: "e3", Type: model.EntityPerson, Text: "Johnny Smith", Confidence: 0.7,
	})
	g.AddRelationship(model.Relationship{
		ID: "r1", SourceID: "e1", TargetID: "e2", RelationshipType: "works_at",
		Confidence: 0.9, Evidence: "John Smith works at Acme.",
		SourceDocument: "report.pdf", SourceChunk: "chunk-3", PageNumber: 12,
		Metadata: map[string]interface{}{"extractor": "v2"},
	})
	g.AddRelationship(model.Relationship{
		ID: "r2", SourceID: "e1", TargetID: "e2", RelationshipType: "founded",
		Confidence: 0.6,
	})
	g.MergeEntities("e1", "e3", "e1")
	return g
}

func verifyRoundTrip(t *testing.T, format string) {
	t.Helper()
	g := buildSampleGraph()
	path := filepath.Join(t.TempDir(), "graph."+format)

	if err := Save(g, path, format); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path, format)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if loaded.Name() != g.Name() {
		t.Errorf("name = %q, want %q", loaded.Name(), g.Name())
	}
	if loaded.NodeCount() != g.NodeCount() || loaded.EdgeCount() != g.EdgeCount() {
		t.Fatalf("counts = %d/%d, want %d/%d",
			loaded.NodeCount(), loaded.EdgeCount(), g.NodeCount(), g.EdgeCount())
	}

	n, ok := loaded.Node("e1")
	if !ok {
		t.Fatal("node e1 missing after round trip")
	}
	if n.Type != model.EntityPerson || n.Text != "John Smith" || n.Confidence != 0.95 {
		t.Errorf("node core attributes lost: %+v", n)
	}
	if n.SourceDocument != "report.pdf" || n.SourceChunk != "chunk-3" || n.PageNumber != 12 {
		t.Errorf("node provenance lost: %+v", n)
	}
	if n.Metadata["alias"] != "J.S." {
		t.Errorf("node metadata lost: %v", n.Metadata)
	}
	if len(n.MergedFrom) != 1 || n.MergedFrom[0] != "e3" {
		t.Errorf("merge lineage lost: %v", n.MergedFrom)
	}

	edges := loaded.EdgesBetween("e1", "e2")
	if len(edges) != 2 {
		t.Fatalf("parallel edges = %d, want 2", len(edges))
	}
	if edges[0].RelationshipType != "works_at" || edges[1].RelationshipType != "founded" {
		t.Errorf("edge order or types lost: %s, %s",
			edges[0].RelationshipType, edges[1].RelationshipType)
	}
	if edges[0].Evidence != "John Smith works at Acme." {
		t.Errorf("edge evidence lost: %q", edges[0].Evidence)
	}
	if edges[0].Metadata["extractor"] != "v2" {
		t.Errorf("edge metadata lost: %v", edges[0].Metadata)
	}

	// The index is rebuilt on load.
	if id, ok := loaded.FindEntity("john smith", model.EntityPerson); !ok || id != "e1" {
		t.Errorf("index after load: FindEntity = %q, %v", id, ok)
	}
}

func TestRoundTripJSON(t *testing.T)    { verifyRoundTrip(t, FormatJSON) }
func TestRoundTripGraphML(t *testing.T) { verifyRoundTrip(t, FormatGraphML) }
func TestRoundTripGEXF(t *testing.T)    { verifyRoundTrip(t, FormatGEXF) }

func TestUnsupportedFormat(t *testing.T) {
	g := buildSampleGraph()
	path := filepath.Join(t.TempDir(), "graph.bin")

	if err := Save(g, path, "pickle"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Save error = %v, want ErrUnsupportedFormat", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Save with bad format must not create a file")
	}

	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path, "pickle"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Load error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestSaveCreatesParentDirs(t *testing.T) {
	g := buildSampleGraph()
	path := filepath.Join(t.TempDir(), "nested", "dir", "graph.json")
	if err := Save(g, path, FormatJSON); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("saved file missing: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json"), FormatJSON); err == nil {
		t.Error("Load of a missing file should fail")
	}
}

func TestLoadRejectsDanglingLink(t *testing.T) {
	data := []byte(`{
		"directed": true,
		"multigraph": true,
		"graph": {"name": "broken"},
		"nodes": [{"id": "e1", "entity_type": "PERSON", "text": "John"}],
		"links": [{"source": "e1", "target": "ghost", "relationship_type": "knows"}]
	}`)
	if _, err := Unmarshal(data, FormatJSON); err == nil {
		t.Error("link to an undeclared node should fail to load")
	}
}

func TestEmptyGraphRoundTrip(t *testing.T) {
	for _, format := range []string{FormatJSON, FormatGraphML, FormatGEXF} {
		g := graph.New("empty")
		path := filepath.Join(t.TempDir(), "empty."+format)
		if err := Save(g, path, format); err != nil {
			t.Fatalf("Save(%s): %v", format, err)
		}
		loaded, err := Load(path, format)
		if err != nil {
			t.Fatalf("Load(%s): %v", format, err)
		}
		if loaded.NodeCount() != 0 || loaded.EdgeCount() != 0 {
			t.Errorf("%s: empty graph round trip gained content", format)
		}
	}
}
