// Package ingest reads the structured record files that extraction
// collaborators produce and feeds them into a knowledge graph. Entity
// files are applied before relationship files so edges find their
// endpoints; individual bad records are skipped and reported, never
// fatal.
package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/kgraph-dev/kgraph/pkg/graph"
	"github.com/kgraph-dev/kgraph/pkg/logging"
	"github.com/kgraph-dev/kgraph/pkg/model"
)

// File name suffixes recognized in a records directory.
const (
	EntitySuffix       = ".entities.json"
	RelationshipSuffix = ".relationships.json"
)

// Summary reports what a directory load applied to the graph.
type Summary struct {
	EntityFiles       int
	RelationshipFiles int
	Entities          int
	Relationships     int
	Skipped           int // relationship records with missing endpoints
}

// LoadEntities reads a JSON array of entity records.
func LoadEntities(path string) ([]model.Entity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading entity records: %w", err)
	}
	var entities []model.Entity
	if err := json.Unmarshal(data, &entities); err != nil {
		return nil, fmt.Errorf("parsing entity records %s: %w", path, err)
	}
	return entities, nil
}

// LoadRelationships reads a JSON array of relationship records,
// assigning a fresh id to any record the extractor left without one.
func LoadRelationships(path string) ([]model.Relationship, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading relationship records: %w", err)
	}
	var rels []model.Relationship
	if err := json.Unmarshal(data, &rels); err != nil {
		return nil, fmt.Errorf("parsing relationship records %s: %w", path, err)
	}
	for i := range rels {
		if rels[i].ID == "" {
			rels[i].ID = uuid.New().String()
		}
	}
	return rels, nil
}

// LoadDirectory scans dir for record files and populates g. Entities
// load first across all files, then relationships, so cross-file
// references resolve regardless of file order.
func LoadDirectory(g *graph.KnowledgeGraph, dir string) (Summary, error) {
	var summary Summary

	entityFiles, relFiles, err := findRecordFiles(dir)
	if err != nil {
		return summary, err
	}

	for _, path := range entityFiles {
		entities, err := LoadEntities(path)
		if err != nil {
			return summary, err
		}
		g.AddEntitiesBatch(entities)
		summary.EntityFiles++
		summary.Entities += len(entities)
	}
	for _, path := range relFiles {
		rels, err := LoadRelationships(path)
		if err != nil {
			return summary, err
		}
		added := g.AddRelationshipsBatch(rels)
		summary.RelationshipFiles++
		summary.Relationships += added
		summary.Skipped += len(rels) - added
	}

	logging.Info("records loaded", "dir", dir,
		"entities", summary.Entities,
		"relationships", summary.Relationships,
		"skipped", summary.Skipped)
	return summary, nil
}

// IsRecordFile reports whether path names an entity or relationship
// record file.
func IsRecordFile(path string) bool {
	name := filepath.Base(path)
	return strings.HasSuffix(name, EntitySuffix) || strings.HasSuffix(name, RelationshipSuffix)
}

func findRecordFiles(dir string) (entityFiles, relFiles []string, err error) {
	walkErr := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip entries we cannot access
		}
		if info.IsDir() {
			return nil
		}
		name := info.Name()
		switch {
		case strings.HasSuffix(name, EntitySuffix):
			entityFiles = append(entityFiles, path)
		case strings.HasSuffix(name, RelationshipSuffix):
			relFiles = append(relFiles, path)
		}
		return nil
	})
	if walkErr != nil {
		return nil, nil, fmt.Errorf("scanning records directory: %w", walkErr)
	}
	sort.Strings(entityFiles)
	sort.Strings(relFiles)
	return entityFiles, relFiles, nil
}
