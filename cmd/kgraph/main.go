package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/kgraph-dev/kgraph/pkg/analysis"
	"github.com/kgraph-dev/kgraph/pkg/config"
	"github.com/kgraph-dev/kgraph/pkg/export"
	"github.com/kgraph-dev/kgraph/pkg/graph"
	"github.com/kgraph-dev/kgraph/pkg/ingest"
	"github.com/kgraph-dev/kgraph/pkg/logging"
	"github.com/kgraph-dev/kgraph/pkg/output"
	"github.com/kgraph-dev/kgraph/pkg/watcher"
	"github.com/kgraph-dev/kgraph/pkg/web"
)

func main() {
	flags := pflag.NewFlagSet("kgraph", pflag.ExitOnError)
	flags.String("name", "knowledge_graph", "Graph display name")
	flags.String("records", "", "Directory of extraction record files to load")
	flags.String("graph", "", "Saved graph file to load at startup")
	flags.String("format", "json", "Graph file format: graphml, gexf or json")
	flags.String("output", "", "Path to save the graph to")
	flags.Bool("serve", false, "Start the HTTP API")
	flags.Int("port", 8080, "HTTP API port")
	flags.Bool("watch", false, "Reload records on change (with --serve)")
	flags.String("verbosity", "info", "Log level: debug, info, warn, error")
	flags.Bool("json-logs", false, "Emit logs as JSON")
	pathQuery := flags.String("path", "", "Print the shortest path between two endpoints, as from,to")
	centralityQuery := flags.String("centrality", "", "Print centrality scores: degree, betweenness, closeness or eigenvector")
	communitiesQuery := flags.Bool("communities", false, "Print detected communities")
	if err := flags.Parse(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logging.SetLevel(cfg.Verbosity)
	logging.SetJSONOutput(cfg.JSONLogs)

	g, err := buildGraph(cfg)
	if err != nil {
		logging.Error("building graph", "error", err)
		os.Exit(1)
	}

	if cfg.Serve {
		runServer(cfg, g)
		return
	}

	output.PrintStatsReport(g.Name(), analysis.Statistics(g))

	if *pathQuery != "" {
		from, to, ok := strings.Cut(*pathQuery, ",")
		if !ok {
			fmt.Fprintln(os.Stderr, "Error: --path expects from,to")
			os.Exit(1)
		}
		output.PrintPath(from, to, g.ShortestPath(from, to))
	}
	if *centralityQuery != "" {
		scores, err := analysis.Centrality(g, *centralityQuery)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		output.PrintCentrality(*centralityQuery, scores, 20)
	}
	if *communitiesQuery {
		output.PrintCommunities(analysis.Communities(g))
	}

	if cfg.Output != "" {
		if err := export.Save(g, cfg.Output, cfg.Format); err != nil {
			logging.Error("saving graph", "error", err)
			os.Exit(1)
		}
	}
}

// buildGraph assembles the startup graph: a saved graph file if one is
// configured, then any extraction records on top of it.
func buildGraph(cfg *config.Config) (*graph.KnowledgeGraph, error) {
	var g *graph.KnowledgeGraph

	if cfg.GraphFile != "" {
		loaded, err := export.Load(cfg.GraphFile, cfg.Format)
		if err != nil {
			return nil, fmt.Errorf("loading graph file: %w", err)
		}
		g = loaded
	} else {
		g = graph.New(cfg.Name)
	}

	if cfg.Records != "" {
		summary, err := ingest.LoadDirectory(g, cfg.Records)
		if err != nil {
			return nil, fmt.Errorf("loading records: %w", err)
		}
		logging.Info("records loaded",
			"entities", summary.Entities,
			"relationships", summary.Relationships,
			"skipped", summary.Skipped)
	}

	return g, nil
}

func runServer(cfg *config.Config, g *graph.KnowledgeGraph) {
	server := web.NewServer(g)

	if cfg.Watch && cfg.Records != "" {
		go watchRecords(cfg, server)
	}

	if err := server.Start(cfg.Port); err != nil {
		logging.Error("web server failed", "error", err)
		os.Exit(1)
	}
}

// watchRecords rebuilds the graph whenever the record directory settles
// after a burst of changes and swaps it into the running server.
func watchRecords(cfg *config.Config, server *web.Server) {
	ctx := context.Background()

	rw, err := watcher.NewRecordWatcher(cfg.Records)
	if err != nil {
		logging.Error("starting record watcher", "error", err)
		return
	}
	defer rw.Stop()

	if err := rw.Start(ctx); err != nil {
		logging.Error("starting record watcher", "error", err)
		return
	}

	debouncer := watcher.NewDebouncer(rw.Events(), 500*time.Millisecond, 5*time.Second)
	debouncer.Start(ctx)

	for event := range debouncer.Output() {
		changes := watcher.AnalyzeChanges(event)
		if !changes.Any() {
			continue
		}
		logging.Info("record change detected",
			"entity_files", len(changes.EntityFiles),
			"relationship_files", len(changes.RelationshipFiles))

		if err := server.PublishStatus("reloading", "record files changed"); err != nil {
			logging.Warn("publishing graph status", "error", err)
		}

		// Rebuild from scratch so deletions and rewrites take effect.
		rebuilt, err := buildGraph(cfg)
		if err != nil {
			logging.Error("rebuilding graph", "error", err)
			if err := server.PublishStatus("error", err.Error()); err != nil {
				logging.Warn("publishing graph status", "error", err)
			}
			continue
		}
		server.SetGraph(rebuilt)

		if err := server.PublishStatus("ready", "graph rebuilt"); err != nil {
			logging.Warn("publishing graph status", "error", err)
		}
	}
}
