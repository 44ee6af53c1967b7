package nodegraph

import "testing"

func TestEdgeTable_InsertionOrder(t *testing.T) {
	et := NewEdgeTable()
	et.Record(1, 2, "a")
	et.Record(1, 3, "b")
	et.Record(3, 4, "c")

	edges := et.Edges()
	if len(edges) != 3 {
		t.Fatalf("expected 3 edges, got %d", len(edges))
	}
	want := []Edge{{1, 2, "a"}, {1, 3, "b"}, {3, 4, "c"}}
	for i, e := range edges {
		if e != want[i] {
			t.Errorf("edges[%d] = %+v, want %+v", i, e, want[i])
		}
	}
}

func TestEdgeTable_RecordTwiceOverwritesLabel(t *testing.T) {
	et := NewEdgeTable()
	et.Record(1, 2, "first")
	et.Record(1, 3, "other")
	et.Record(1, 2, "second")

	if et.Len() != 2 {
		t.Fatalf("expected 2 edges, got %d", et.Len())
	}
	if got := et.Edges()[0]; got.Label != "second" || got.To != 2 {
		t.Errorf("edges[0] = %+v, want label second in original position", got)
	}
}

func TestEdgeTable_Reverse(t *testing.T) {
	et := NewEdgeTable()
	et.Record(1, 2, "a")
	et.Record(2, 3, "b")

	rev := et.Reverse()
	if rev[0].From != 2 || rev[1].From != 1 {
		t.Errorf("Reverse = %+v", rev)
	}
	rev[0].Label = "changed"
	if et.Edges()[1].Label != "b" {
		t.Error("Reverse should return a copy")
	}
}

func TestEdgeTable_Outgoing(t *testing.T) {
	et := NewEdgeTable()
	et.Record(1, 2, "a")
	et.Record(2, 3, "b")
	et.Record(1, 4, "c")

	out := et.Outgoing(1)
	if len(out) != 2 || out[0].To != 2 || out[1].To != 4 {
		t.Errorf("Outgoing(1) = %+v", out)
	}
	if len(et.Outgoing(4)) != 0 {
		t.Error("Outgoing(4) should be empty")
	}
}
