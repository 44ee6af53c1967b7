package nodegraph

// AssignClusters maps every node reachable from a marker to that marker.
// Markers head themselves; a node without a head takes its parent's head.
// Passes over the edges in reverse insertion order repeat until nothing
// changes. Nodes missing from the result are ungrouped.
func AssignClusters(edges *EdgeTable, marks map[NodeID]Mark) map[NodeID]NodeID {
	return propagateHeads(edges.Reverse(), marks)
}

func propagateHeads(edges []Edge, marks map[NodeID]Mark) map[NodeID]NodeID {
	heads := make(map[NodeID]NodeID, len(marks))
	for id, m := range marks {
		if m != NoMark {
			heads[id] = id
		}
	}

	for changed := true; changed; {
		changed = false
		for _, e := range edges {
			if _, ok := heads[e.To]; ok {
				continue
			}
			if h, ok := heads[e.From]; ok {
				heads[e.To] = h
				changed = true
			}
		}
	}
	return heads
}
