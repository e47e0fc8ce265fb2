package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kgraph-dev/kgraph/pkg/graph"
	"github.com/kgraph-dev/kgraph/pkg/model"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadRelationshipsAssignsIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.relationships.json")
	writeFile(t, path, `[
		{"source_id": "e1", "target_id": "e2", "relationship_type": "knows"},
		{"id": "r-fixed", "source_id": "e2", "target_id": "e1", "relationship_type": "knows"}
	]`)

	rels, err := LoadRelationships(path)
	if err != nil {
		t.Fatalf("LoadRelationships: %v", err)
	}
	if len(rels) != 2 {
		t.Fatalf("records = %d, want 2", len(rels))
	}
	if rels[0].ID == "" {
		t.Error("blank record id not assigned")
	}
	if rels[1].ID != "r-fixed" {
		t.Errorf("existing id overwritten: %q", rels[1].ID)
	}
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	// Relationship file sorts before the entity file; the loader must
	// still apply all entities first.
	writeFile(t, filepath.Join(dir, "a.relationships.json"), `[
		{"source_id": "e1", "target_id": "e2", "relationship_type": "works_at", "confidence": 0.9},
		{"source_id": "e1", "target_id": "ghost", "relationship_type": "knows"}
	]`)
	writeFile(t, filepath.Join(dir, "sub", "z.entities.json"), `[
		{"id": "e1", "type": "PERSON", "text": "John Smith", "confidence": 0.95},
		{"id": "e2", "type": "ORGANIZATION", "text": "Acme", "confidence": 0.8}
	]`)
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")

	g := graph.New("test")
	summary, err := LoadDirectory(g, dir)
	if err != nil {
		t.Fatalf("LoadDirectory: %v", err)
	}

	if summary.EntityFiles != 1 || summary.RelationshipFiles != 1 {
		t.Errorf("files = %d/%d, want 1/1", summary.EntityFiles, summary.RelationshipFiles)
	}
	if summary.Entities != 2 || summary.Relationships != 1 || summary.Skipped != 1 {
		t.Errorf("summary = %+v, want 2 entities, 1 relationship, 1 skipped", summary)
	}
	if g.NodeCount() != 2 || g.EdgeCount() != 1 {
		t.Errorf("graph = %d nodes / %d edges, want 2/1", g.NodeCount(), g.EdgeCount())
	}
	if id, ok := g.FindEntity("john smith", model.EntityPerson); !ok || id != "e1" {
		t.Errorf("FindEntity after load = %q, %v", id, ok)
	}
}

func TestLoadDirectoryBadJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bad.entities.json"), `{"not": "an array"}`)

	if _, err := LoadDirectory(graph.New("test"), dir); err == nil {
		t.Error("malformed record file should fail the load")
	}
}

func TestLoadDirectoryEmpty(t *testing.T) {
	g := graph.New("test")
	summary, err := LoadDirectory(g, t.TempDir())
	if err != nil {
		t.Fatalf("LoadDirectory: %v", err)
	}
	if summary.Entities != 0 || g.NodeCount() != 0 {
		t.Errorf("empty dir produced content: %+v", summary)
	}
}

func TestIsRecordFile(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"doc.entities.json", true},
		{"/records/sub/doc.relationships.json", true},
		{"doc.json", false},
		{"entities.json.bak", false},
	}
	for _, c := range cases {
		if got := IsRecordFile(c.path); got != c.want {
			t.Errorf("IsRecordFile(%q) = %v, want %v", c.path, got, c.want)
		}
	}
}
