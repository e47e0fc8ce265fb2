package output

import (
	"fmt"
	"sort"

	"github.com/fatih/color"

	"github.com/kgraph-dev/kgraph/pkg/model"
)

// PrintStatsReport prints a nicely formatted graph summary with colors
func PrintStatsReport(name string, stats model.Stats) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	bold.Println("Knowledge Graph - Summary")
	bold.Println("=========================")
	fmt.Printf("Graph: %s\n", name)
	fmt.Printf("Nodes: %d\n", stats.TotalNodes)
	fmt.Printf("Edges: %d\n", stats.TotalEdges)
	fmt.Printf("Average degree: %.2f\n", stats.AvgDegree)
	fmt.Printf("Density: %.4f\n", stats.Density)

	if stats.ConnectedComponents <= 1 {
		green.Printf("Components: %d\n", stats.ConnectedComponents)
	} else {
		yellow.Printf("Components: %d (largest: %d nodes)\n",
			stats.ConnectedComponents, stats.LargestComponentSize)
	}
	fmt.Println()

	if len(stats.NodeTypes) > 0 {
		cyan.Println("ENTITY TYPES:")
		for _, kv := range sortedCounts(stats.NodeTypes) {
			fmt.Printf("  %-15s %d\n", kv.key, kv.count)
		}
		fmt.Println()
	}

	if len(stats.RelationshipTypes) > 0 {
		cyan.Println("RELATIONSHIP TYPES:")
		for _, kv := range sortedCounts(stats.RelationshipTypes) {
			fmt.Printf("  %-15s %d\n", kv.key, kv.count)
		}
		fmt.Println()
	}

	if stats.TotalNodes == 0 {
		yellow.Println("Graph is empty")
	}
}

// PrintCentrality prints the top-scoring nodes for one algorithm.
func PrintCentrality(algorithm string, scores map[string]float64, limit int) {
	bold := color.New(color.Bold)
	yellow := color.New(color.FgYellow)

	bold.Printf("CENTRALITY (%s):\n", algorithm)
	if len(scores) == 0 {
		yellow.Println("  no scores (empty graph or no convergence)")
		return
	}

	type ranked struct {
		id    string
		score float64
	}
	rows := make([]ranked, 0, len(scores))
	for id, score := range scores {
		rows = append(rows, ranked{id, score})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].score != rows[j].score {
			return rows[i].score > rows[j].score
		}
		return rows[i].id < rows[j].id
	})

	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	for _, r := range rows {
		fmt.Printf("  %-30s %.4f\n", r.id, r.score)
	}
}

// PrintCommunities prints the detected community partition.
func PrintCommunities(parts [][]string) {
	bold := color.New(color.Bold)
	cyan := color.New(color.FgCyan)

	bold.Printf("COMMUNITIES: %d\n", len(parts))
	for i, members := range parts {
		cyan.Printf("  [%d] %d members\n", i, len(members))
		for _, id := range members {
			fmt.Printf("      %s\n", id)
		}
	}
}

// PrintPath prints a traversal result between two endpoints.
func PrintPath(from, to string, path []string) {
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)

	bold.Printf("PATH %s -> %s:\n", from, to)
	if path == nil {
		red.Println("  no path found")
		return
	}
	green.Printf("  %d hop(s)\n", len(path)-1)
	for _, id := range path {
		fmt.Printf("  %s\n", id)
	}
}

type keyCount struct {
	key   string
	count int
}

// sortedCounts orders a count map by descending count, then key.
func sortedCounts(m map[string]int) []keyCount {
	rows := make([]keyCount, 0, len(m))
	for k, v := range m {
		rows = append(rows, keyCount{k, v})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count != rows[j].count {
			return rows[i].count > rows[j].count
		}
		return rows[i].key < rows[j].key
	})
	return rows
}
