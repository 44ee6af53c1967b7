package nodegraph

// NodeSummary describes one registered node in a Summary.
type NodeSummary struct {
	ID      NodeID `json:"id"`
	Kind    string `json:"kind"`
	Cluster NodeID `json:"cluster,omitempty"`
	Marker  string `json:"marker,omitempty"`

	// Type is the Go type of a node no dispatcher recognized.
	Type string `json:"type,omitempty"`
}

// Summary is a structured view of a built graph, for consumers that want
// the node and edge tables rather than DOT text.
type Summary struct {
	Title    string        `json:"title"`
	Stats    Stats         `json:"stats"`
	Clusters []NodeID      `json:"clusters"`
	Nodes    []NodeSummary `json:"nodes"`
	Edges    []Edge        `json:"edges"`
}

func (g *Graph) Summary() Summary {
	s := Summary{
		Title:    g.Title,
		Stats:    g.Stats(),
		Clusters: g.Clusters(),
		Nodes:    make([]NodeSummary, 0, g.Registry.Len()),
		Edges:    append([]Edge{}, g.Edges.Edges()...),
	}
	if s.Clusters == nil {
		s.Clusters = []NodeID{}
	}
	for _, id := range g.Registry.IDs() {
		s.Nodes = append(s.Nodes, NodeSummary{
			ID:      id,
			Kind:    g.Kind(id),
			Cluster: g.heads[id],
			Marker:  g.marks[id].String(),
			Type:    g.unknown[id],
		})
	}
	return s
}
