package graph

// ShortestPath returns the node ids on an unweighted shortest path
// between two endpoints, computed over the undirected projection of the
// graph. Each endpoint may be a node id or an entity text; texts are
// resolved through FindEntity without a type filter. Ties between
// equal-length paths break by edge insertion order, so the result is
// deterministic for a fixed build order. A nil result means an endpoint
// could not be resolved or no path exists; neither is an error.
func (g *KnowledgeGraph) ShortestPath(from, to string) []string {
	src, ok := g.resolve(from)
	if !ok {
		return nil
	}
	dst, ok := g.resolve(to)
	if !ok {
		return nil
	}
	if src == dst {
		return []string{src}
	}

	prev := map[string]string{src: ""}
	queue := []string{src}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, nb := range g.UndirectedNeighbors(n) {
			if _, visited := prev[nb]; visited {
				continue
			}
			prev[nb] = n
			if nb == dst {
				return backtrack(prev, dst)
			}
			queue = append(queue, nb)
		}
	}
	return nil
}

// resolve interprets s as a node id first and an entity text second.
func (g *KnowledgeGraph) resolve(s string) (string, bool) {
	if _, ok := g.nodes[s]; ok {
		return s, true
	}
	return g.FindEntity(s, "")
}

func backtrack(prev map[string]string, dst string) []string {
	var path []string
	for n := dst; n != ""; n = prev[n] {
		path = append(path, n)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
