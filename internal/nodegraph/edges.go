package nodegraph

// Edge links a parent record's field anchor to a child record.
type Edge struct {
	From  NodeID `json:"from"`
	To    NodeID `json:"to"`
	Label string `json:"label"`
}

type edgeKey struct {
	from, to NodeID
}

// EdgeTable holds at most one edge per ordered (from, to) pair, in insertion
// order. Recording a pair again replaces its label in place.
type EdgeTable struct {
	index map[edgeKey]int
	edges []Edge
}

func NewEdgeTable() *EdgeTable {
	return &EdgeTable{index: make(map[edgeKey]int)}
}

func (t *EdgeTable) Record(from, to NodeID, label string) {
	k := edgeKey{from, to}
	if i, ok := t.index[k]; ok {
		t.edges[i].Label = label
		return
	}
	t.index[k] = len(t.edges)
	t.edges = append(t.edges, Edge{From: from, To: to, Label: label})
}

// Edges returns the edges in insertion order. The slice is shared; callers
// must not modify it.
func (t *EdgeTable) Edges() []Edge {
	return t.edges
}

// Reverse returns a copy of the edges in reverse insertion order.
func (t *EdgeTable) Reverse() []Edge {
	out := make([]Edge, len(t.edges))
	for i, e := range t.edges {
		out[len(t.edges)-1-i] = e
	}
	return out
}

func (t *EdgeTable) Len() int {
	return len(t.edges)
}

// Outgoing returns the edges leaving id, in insertion order.
func (t *EdgeTable) Outgoing(id NodeID) []Edge {
	var out []Edge
	for _, e := range t.edges {
		if e.From == id {
			out = append(out, e)
		}
	}
	return out
}
