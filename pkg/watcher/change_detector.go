package watcher

import (
	"strings"

	"github.com/kgraph-dev/kgraph/pkg/ingest"
)

// ChangeAnalysis describes which record kinds changed in a batch.
type ChangeAnalysis struct {
	EntityFiles       []string
	RelationshipFiles []string
}

// Any reports whether the batch touched any record file at all.
func (a *ChangeAnalysis) Any() bool {
	return len(a.EntityFiles) > 0 || len(a.RelationshipFiles) > 0
}

// AnalyzeChanges splits a change batch by record kind. Entity records
// must always be applied before relationship records, so the split lets
// the reload loop keep that ordering.
func AnalyzeChanges(event ChangeEvent) *ChangeAnalysis {
	analysis := &ChangeAnalysis{}
	for _, path := range event.Paths {
		switch {
		case strings.HasSuffix(path, ingest.EntitySuffix):
			analysis.EntityFiles = append(analysis.EntityFiles, path)
		case strings.HasSuffix(path, ingest.RelationshipSuffix):
			analysis.RelationshipFiles = append(analysis.RelationshipFiles, path)
		}
	}
	return analysis
}
