package mindmap

// Stats summarizes the shape of a mind map.
type Stats struct {
	TotalNodes      int     `json:"total_nodes"`
	TotalEdges      int     `json:"total_edges"`
	MaxDepth        int     `json:"max_depth"`
	AvgConnections  float64 `json:"avg_connections"`
	ComplexityScore float64 `json:"complexity_score"`
	Orphans         int     `json:"orphans"` // nodes not reachable from the root
}

// Analyze computes structure metrics relative to root.
//
// Depth is the breadth-first distance from root over outgoing edges, so
// cycles and shared children are measured by their shortest path. Edges
// pointing at missing nodes still count towards TotalEdges. An empty map
// yields zero values.
func (m MindMap) Analyze(root string) Stats {
	s := Stats{
		TotalNodes: len(m.Nodes),
		TotalEdges: len(m.Edges),
	}
	if s.TotalNodes == 0 {
		return s
	}

	exists := make(map[string]bool, len(m.Nodes))
	for _, n := range m.Nodes {
		exists[n.ID] = true
	}
	children := make(map[string][]string)
	for _, e := range m.Edges {
		children[e.Source] = append(children[e.Source], e.Target)
	}

	depth := map[string]int{}
	if exists[root] {
		depth[root] = 0
		queue := []string{root}
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			for _, c := range children[id] {
				if _, seen := depth[c]; seen || !exists[c] {
					continue
				}
				depth[c] = depth[id] + 1
				if depth[c] > s.MaxDepth {
					s.MaxDepth = depth[c]
				}
				queue = append(queue, c)
			}
		}
	}

	s.Orphans = s.TotalNodes - len(depth)
	s.AvgConnections = float64(s.TotalEdges) / float64(s.TotalNodes)
	s.ComplexityScore = float64(s.TotalEdges*s.MaxDepth) / float64(s.TotalNodes)
	return s
}
