// Package web exposes the knowledge graph over an HTTP API, including a
// server-sent-events stream for graph update notifications.
package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/mux"

	"github.com/kgraph-dev/kgraph/pkg/analysis"
	"github.com/kgraph-dev/kgraph/pkg/export"
	"github.com/kgraph-dev/kgraph/pkg/graph"
	"github.com/kgraph-dev/kgraph/pkg/logging"
	"github.com/kgraph-dev/kgraph/pkg/model"
	"github.com/kgraph-dev/kgraph/pkg/pubsub"
)

// Server serves the graph API. The underlying graph store is not safe
// for concurrent use, so every handler takes the server lock: shared
// for reads, exclusive for mutations and graph swaps.
type Server struct {
	router    *mux.Router
	publisher pubsub.Publisher

	mu    sync.RWMutex
	graph *graph.KnowledgeGraph
}

// NewServer creates a web server around an existing graph.
func NewServer(g *graph.KnowledgeGraph) *Server {
	ssePublisher := pubsub.NewSSEPublisher()

	// graph_status: buffer recent events, replay only the latest so a
	// new subscriber sees the current state immediately.
	ssePublisher.ConfigureTopic(pubsub.TopicGraphStatus, pubsub.TopicConfig{
		BufferSize: 10,
		ReplayAll:  false,
	})

	s := &Server{
		router:    mux.NewRouter(),
		publisher: ssePublisher,
		graph:     g,
	}
	s.setupRoutes()
	return s
}

// SetGraph swaps in a freshly rebuilt graph, e.g. after a watched
// record directory changed.
func (s *Server) SetGraph(g *graph.KnowledgeGraph) {
	s.mu.Lock()
	s.graph = g
	s.mu.Unlock()
}

// PublishStatus pushes a graph status event to SSE subscribers.
func (s *Server) PublishStatus(state, message string) error {
	s.mu.RLock()
	status := pubsub.GraphStatus{
		State:   state,
		Nodes:   s.graph.NodeCount(),
		Edges:   s.graph.EdgeCount(),
		Message: message,
	}
	s.mu.RUnlock()
	return s.publisher.Publish(pubsub.TopicGraphStatus, state, status)
}

func (s *Server) setupRoutes() {
	s.router.Use(logging.RequestIDMiddleware)

	s.router.HandleFunc("/api/events", s.handleEvents).Methods("GET")

	s.router.HandleFunc("/api/graph", s.handleGraph).Methods("GET")
	s.router.HandleFunc("/api/stats", s.handleStats).Methods("GET")
	s.router.HandleFunc("/api/centrality/{algorithm}", s.handleCentrality).Methods("GET")
	s.router.HandleFunc("/api/communities", s.handleCommunities).Methods("GET")
	s.router.HandleFunc("/api/path", s.handlePath).Methods("GET")
	s.router.HandleFunc("/api/neighbors/{id}", s.handleNeighbors).Methods("GET")
	s.router.HandleFunc("/api/entity", s.handleFindEntity).Methods("GET")

	s.router.HandleFunc("/api/entities", s.handleAddEntities).Methods("POST")
	s.router.HandleFunc("/api/relationships", s.handleAddRelationships).Methods("POST")
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// Initial comment establishes the connection (Safari compatibility)
	fmt.Fprintf(w, ": connected\n\n")
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	sub, err := s.publisher.Subscribe(r.Context(), pubsub.TopicGraphStatus)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer sub.Close()

	for event := range sub.Events() {
		if err := pubsub.WriteSSE(w, event); err != nil {
			logging.Warn("writing SSE event", "error", err)
			return
		}
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}
	}
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	data, err := export.Marshal(s.graph, export.FormatJSON)
	s.mu.RUnlock()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	stats := analysis.Statistics(s.graph)
	s.mu.RUnlock()
	writeJSON(w, stats)
}

func (s *Server) handleCentrality(w http.ResponseWriter, r *http.Request) {
	algorithm := mux.Vars(r)["algorithm"]

	s.mu.RLock()
	scores, err := analysis.Centrality(s.graph, algorithm)
	s.mu.RUnlock()
	if err != nil {
		if errors.Is(err, analysis.ErrUnknownAlgorithm) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{
		"algorithm": algorithm,
		"scores":    scores,
	})
}

func (s *Server) handleCommunities(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	parts := analysis.Communities(s.graph)
	s.mu.RUnlock()
	if parts == nil {
		parts = [][]string{}
	}
	writeJSON(w, map[string]interface{}{
		"count":       len(parts),
		"communities": parts,
	})
}

func (s *Server) handlePath(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		http.Error(w, "from and to parameters are required", http.StatusBadRequest)
		return
	}

	s.mu.RLock()
	path := s.graph.ShortestPath(from, to)
	s.mu.RUnlock()
	writeJSON(w, map[string]interface{}{
		"from":  from,
		"to":    to,
		"found": path != nil,
		"path":  path,
	})
}

func (s *Server) handleNeighbors(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	depth := 1
	if v := r.URL.Query().Get("depth"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil || d < 1 {
			http.Error(w, "depth must be a positive integer", http.StatusBadRequest)
			return
		}
		depth = d
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.graph.HasNode(id) {
		http.Error(w, "node not found", http.StatusNotFound)
		return
	}
	reached := s.graph.Neighbors(id, depth)
	ids := make([]string, 0, len(reached))
	for _, candidate := range s.graph.NodeIDs() {
		if _, ok := reached[candidate]; ok {
			ids = append(ids, candidate)
		}
	}
	writeJSON(w, map[string]interface{}{
		"id":        id,
		"depth":     depth,
		"neighbors": ids,
	})
}

func (s *Server) handleFindEntity(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("text")
	if text == "" {
		http.Error(w, "text parameter is required", http.StatusBadRequest)
		return
	}
	var entityType model.EntityType
	if v := r.URL.Query().Get("type"); v != "" {
		entityType = model.NormalizeType(v)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.graph.FindEntity(text, entityType)
	if !ok {
		http.Error(w, "entity not found", http.StatusNotFound)
		return
	}
	node, _ := s.graph.Node(id)
	writeJSON(w, node)
}

func (s *Server) handleAddEntities(w http.ResponseWriter, r *http.Request) {
	var entities []model.Entity
	if err := json.NewDecoder(r.Body).Decode(&entities); err != nil {
		http.Error(w, "invalid entity payload: "+err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	ids := s.graph.AddEntitiesBatch(entities)
	s.mu.Unlock()

	if err := s.PublishStatus("updated", fmt.Sprintf("%d entities added", len(ids))); err != nil {
		logging.Warn("publishing graph status", "error", err)
	}
	writeJSON(w, map[string]interface{}{
		"added": len(ids),
		"ids":   ids,
	})
}

func (s *Server) handleAddRelationships(w http.ResponseWriter, r *http.Request) {
	var rels []model.Relationship
	if err := json.NewDecoder(r.Body).Decode(&rels); err != nil {
		http.Error(w, "invalid relationship payload: "+err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	added := s.graph.AddRelationshipsBatch(rels)
	s.mu.Unlock()

	if err := s.PublishStatus("updated", fmt.Sprintf("%d relationships added", added)); err != nil {
		logging.Warn("publishing graph status", "error", err)
	}
	writeJSON(w, map[string]interface{}{
		"added":   added,
		"skipped": len(rels) - added,
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("encoding response", "error", err)
	}
}

// Handler returns the configured router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the HTTP server on the given port. Blocks until the
// server stops.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	logging.Info("web server listening", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}
