package nodegraph

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestBuild_NilRoot(t *testing.T) {
	g := mustBuild(t, nil, Options{})
	if g.Registry.Len() != 0 || g.Edges.Len() != 0 {
		t.Errorf("expected empty graph, got %+v", g.Stats())
	}
}

func TestBuild_TypedNilRoot(t *testing.T) {
	var n *testNode
	g := mustBuild(t, n, Options{})
	if g.Registry.Len() != 0 {
		t.Errorf("typed nil root registered %d nodes", g.Registry.Len())
	}
}

func TestBuild_PreOrderNumbering(t *testing.T) {
	c, d := &testLeaf{v: "c"}, &testLeaf{v: "d"}
	b := node("B", Child{Label: "d", Node: d})
	root := node("A", Child{Label: "b", Node: b}, Child{Label: "c", Node: c})

	g := mustBuild(t, root, Options{})
	for want, ref := range []any{root, b, d, c} {
		if id := g.Registry.ID(ref); id != NodeID(want+1) {
			t.Errorf("node %d got id %d", want+1, id)
		}
	}
}

func TestBuild_SkipsAbsentChildren(t *testing.T) {
	var missing *testNode
	root := node("A", Child{Label: "x", Node: nil}, Child{Label: "y", Node: missing})

	g := mustBuild(t, root, Options{})
	if g.Registry.Len() != 1 || g.Edges.Len() != 0 {
		t.Errorf("stats = %+v, want 1 node, 0 edges", g.Stats())
	}
}

func TestBuild_SharedChildVisitedOnce(t *testing.T) {
	grandchild := &testLeaf{v: "g"}
	shared := node("Shared", Child{Label: "g", Node: grandchild})
	left := node("L", Child{Label: "s", Node: shared})
	right := node("R", Child{Label: "s", Node: shared})
	root := node("Root", Child{Label: "l", Node: left}, Child{Label: "r", Node: right})

	g := mustBuild(t, root, Options{})
	if g.Registry.Len() != 5 {
		t.Errorf("expected 5 nodes, got %d", g.Registry.Len())
	}

	sid := g.Registry.ID(shared)
	incoming := 0
	for _, e := range g.Edges.Edges() {
		if e.To == sid {
			incoming++
		}
	}
	if incoming != 2 {
		t.Errorf("expected 2 edges into shared node, got %d", incoming)
	}
	if n := len(g.Edges.Outgoing(sid)); n != 1 {
		t.Errorf("shared node children explored %d times, want 1", n)
	}
}

func TestBuild_CycleTerminates(t *testing.T) {
	a := node("A")
	b := node("B", Child{Label: "back", Node: a})
	a.children = []Child{{Label: "next", Node: b}}

	g := mustBuild(t, a, Options{})
	if g.Registry.Len() != 2 || g.Edges.Len() != 2 {
		t.Errorf("stats = %+v, want 2 nodes, 2 edges", g.Stats())
	}
}

func TestBuild_EdgeSoundness(t *testing.T) {
	shared := &testVar{attno: 1}
	tl := &testList{items: []any{shared, &testVar{attno: 2}}}
	qual := node("OpExpr", Child{Label: "args", Node: &testList{items: []any{shared, &testLeaf{v: "3"}}}})
	root := node("Plan",
		Child{Label: "targetlist", Node: tl, Mark: TargetList},
		Child{Label: "qual", Node: qual, Mark: ExprRoot},
		Child{Label: "lefttree", Node: nil},
	)

	g := mustBuild(t, root, Options{})
	d := dispatcher()
	for _, e := range g.Edges.Edges() {
		from, to := g.Registry.Ref(e.From), g.Registry.Ref(e.To)
		if from == nil || to == nil {
			t.Fatalf("edge %+v has unregistered endpoint", e)
		}
		desc, _ := d.Describe(from)
		found := false
		for _, c := range desc.Children {
			if c.Label == e.Label && c.Node == to {
				found = true
			}
		}
		for i, el := range desc.Elements {
			if e.Label == strconv.Itoa(i+1) && el == to {
				found = true
			}
		}
		if !found {
			t.Errorf("edge %+v does not match a child of %d", e, e.From)
		}
	}
}

func TestBuild_MarkersAreTheirOwnHeads(t *testing.T) {
	tl := varList(2)
	qual := node("BoolExpr", Child{Label: "args", Node: varList(1)})
	root := node("Plan",
		Child{Label: "targetlist", Node: tl, Mark: TargetList},
		Child{Label: "qual", Node: qual, Mark: ExprRoot},
	)

	g := mustBuild(t, root, Options{})
	for _, ref := range []any{tl, qual} {
		id := g.Registry.ID(ref)
		if g.Head(id) != id {
			t.Errorf("marker %d has head %d", id, g.Head(id))
		}
	}
	if g.Mark(g.Registry.ID(tl)) != TargetList {
		t.Error("target list lost its marker")
	}
	if g.Head(g.Registry.ID(root)) != 0 {
		t.Error("root should be ungrouped")
	}
	for _, id := range g.Registry.IDs() {
		if h := g.Head(id); h != 0 && g.Mark(h) == NoMark {
			t.Errorf("node %d has head %d which is not a marker", id, h)
		}
	}
}

func TestBuild_FirstMarkerWins(t *testing.T) {
	shared := node("Expr")
	root := node("Plan",
		Child{Label: "qual", Node: shared, Mark: ExprRoot},
		Child{Label: "targetlist", Node: shared, Mark: TargetList},
	)

	g := mustBuild(t, root, Options{})
	if m := g.Mark(g.Registry.ID(shared)); m != ExprRoot {
		t.Errorf("mark = %v, want Expression Tree", m)
	}
}

func TestBuild_CollapsesPassThroughTargetList(t *testing.T) {
	tl := varList(3)
	root := node("Plan", Child{Label: "targetlist", Node: tl, Mark: TargetList})

	g := mustBuild(t, root, Options{Simplify: true, PassThrough: identityVars})
	id := g.Registry.ID(tl)
	if !g.Collapsed(id) {
		t.Fatal("target list was not collapsed")
	}
	if g.Registry.Len() != 2 {
		t.Errorf("expected 2 nodes, got %d", g.Registry.Len())
	}
	if len(g.Edges.Outgoing(id)) != 0 {
		t.Error("collapsed list has outgoing edges")
	}
	if g.Mark(id) != NoMark || g.Head(id) != 0 {
		t.Error("collapsed list should not be a cluster root")
	}
	if g.Kind(id) != "Pseudo Node" {
		t.Errorf("Kind = %q", g.Kind(id))
	}
}

func TestBuild_CollapsesEmptyTargetList(t *testing.T) {
	tl := &testList{}
	root := node("Result", Child{Label: "targetlist", Node: tl, Mark: TargetList})

	g := mustBuild(t, root, Options{Simplify: true, PassThrough: identityVars})
	if !g.Collapsed(g.Registry.ID(tl)) {
		t.Error("empty target list should collapse")
	}
}

func TestBuild_NoCollapseWhenSimplifyOff(t *testing.T) {
	tl := varList(3)
	root := node("Plan", Child{Label: "targetlist", Node: tl, Mark: TargetList})

	g := mustBuild(t, root, Options{Simplify: false, PassThrough: identityVars})
	if g.Collapsed(g.Registry.ID(tl)) {
		t.Fatal("list collapsed with simplification off")
	}
	if g.Registry.Len() != 5 {
		t.Errorf("expected 5 nodes, got %d", g.Registry.Len())
	}
}

func TestBuild_NoCollapseOutsideTargetList(t *testing.T) {
	args := varList(2)
	root := node("FuncExpr", Child{Label: "args", Node: args})

	g := mustBuild(t, root, Options{Simplify: true, PassThrough: identityVars})
	if g.Collapsed(g.Registry.ID(args)) {
		t.Error("only target lists may collapse")
	}
}

func TestBuild_NoCollapseWhenNotIdentity(t *testing.T) {
	tl := &testList{items: []any{&testVar{attno: 2}, &testVar{attno: 1}}}
	root := node("Plan", Child{Label: "targetlist", Node: tl, Mark: TargetList})

	g := mustBuild(t, root, Options{Simplify: true, PassThrough: identityVars})
	if g.Collapsed(g.Registry.ID(tl)) {
		t.Error("permuted list collapsed")
	}
}

func TestBuild_SimplifyDoesNotChangeOtherNodes(t *testing.T) {
	other := &testLeaf{v: "x"}
	root := node("Plan",
		Child{Label: "targetlist", Node: varList(2), Mark: TargetList},
		Child{Label: "lefttree", Node: other},
	)
	plain := mustBuild(t, root, Options{})
	simple := mustBuild(t, root, Options{Simplify: true, PassThrough: identityVars})

	if plain.Registry.Has(other) != simple.Registry.Has(other) {
		t.Error("simplification changed registration of unrelated node")
	}
}

func TestBuild_UnknownKind(t *testing.T) {
	var logs bytes.Buffer
	root := node("Plan", Child{Label: "mystery", Node: &opaque{name: "x"}})

	g, err := Build(context.Background(), root, dispatcher(), Options{Logger: log.New(&logs)})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if g.Stats().Unknown != 1 {
		t.Errorf("Unknown = %d, want 1", g.Stats().Unknown)
	}
	if !strings.Contains(logs.String(), "could not dump unrecognized node type") {
		t.Errorf("expected warning, got %q", logs.String())
	}
	if !strings.Contains(logs.String(), "*nodegraph.opaque") {
		t.Errorf("warning should name the type, got %q", logs.String())
	}
}

func TestBuild_PanicBecomesWalkError(t *testing.T) {
	root := node("Plan", Child{Label: "lefttree", Node: node("Hash", Child{Label: "bad", Node: panicky{}})})

	g, err := Build(context.Background(), root, dispatcher(), Options{})
	if g != nil {
		t.Error("expected no graph on failure")
	}
	if !errors.Is(err, ErrWalkFailed) {
		t.Fatalf("got %v, want ErrWalkFailed", err)
	}
	var we *WalkError
	if !errors.As(err, &we) {
		t.Fatalf("got %T, want *WalkError", err)
	}
	if strings.Join(we.Path, ".") != "lefttree.bad" {
		t.Errorf("Path = %v", we.Path)
	}
	if !strings.Contains(err.Error(), "describe exploded") {
		t.Errorf("error should carry panic value: %v", err)
	}
}

func TestBuild_WalkErrorKindIsInnermost(t *testing.T) {
	root := node("Plan",
		Child{Label: "a", Node: node("Sort", Child{Label: "x", Node: node("Scan")})},
		Child{Label: "bad", Node: panicky{}},
	)

	_, err := Build(context.Background(), root, dispatcher(), Options{})
	var we *WalkError
	if !errors.As(err, &we) {
		t.Fatalf("got %v, want *WalkError", err)
	}
	if we.Kind != "Plan" {
		t.Errorf("Kind = %q, want Plan", we.Kind)
	}
	if strings.Join(we.Path, ".") != "bad" {
		t.Errorf("Path = %v", we.Path)
	}
}

func TestBuild_UncomparableChild(t *testing.T) {
	root := node("Plan", Child{Label: "bad", Node: []int{1, 2}})

	_, err := Build(context.Background(), root, dispatcher(), Options{})
	if !errors.Is(err, ErrUncomparableRef) || !errors.Is(err, ErrWalkFailed) {
		t.Errorf("got %v, want ErrUncomparableRef wrapped in ErrWalkFailed", err)
	}
}

func TestBuild_MaxDepth(t *testing.T) {
	var root any = &testLeaf{v: "bottom"}
	for range 10 {
		root = node("Wrap", Child{Label: "inner", Node: root})
	}

	if _, err := Build(context.Background(), root, dispatcher(), Options{MaxDepth: 5}); !errors.Is(err, ErrMaxDepth) {
		t.Errorf("got %v, want ErrMaxDepth", err)
	}
	if _, err := Build(context.Background(), root, dispatcher(), Options{MaxDepth: 20}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestWalkError_Message(t *testing.T) {
	err := &WalkError{Path: nil, Kind: "Plan", Err: errors.New("boom")}
	if got := err.Error(); got != "walking node tree at (root) (Plan): boom" {
		t.Errorf("Error() = %q", got)
	}
}

func TestKindTable_RegisteredTypeWins(t *testing.T) {
	kt := NewKindTable()
	Register(kt, func(l *testLeaf) Description {
		return Description{Kind: "Const", Shape: ShapeLeaf, Value: l.v}
	})
	d, ok := kt.Describe(&testLeaf{v: "1"})
	if !ok || d.Kind != "Const" {
		t.Errorf("Describe = (%+v, %v), want Const", d, ok)
	}
	if _, ok := kt.Describe(&opaque{}); ok {
		t.Error("opaque should be unknown")
	}
	if kt.Len() != 1 {
		t.Errorf("Len = %d, want 1", kt.Len())
	}
}

func TestSummary(t *testing.T) {
	tl := varList(1)
	root := node("Plan", Child{Label: "targetlist", Node: tl, Mark: TargetList})
	g := mustBuild(t, root, Options{Title: "q"})

	s := g.Summary()
	if s.Title != "q" || len(s.Nodes) != 3 || len(s.Edges) != 2 {
		t.Fatalf("Summary = %+v", s)
	}
	if s.Nodes[1].Marker != "Target List" || s.Nodes[2].Cluster != 2 {
		t.Errorf("nodes = %+v", s.Nodes)
	}
	if len(s.Clusters) != 1 || s.Clusters[0] != 2 {
		t.Errorf("clusters = %v", s.Clusters)
	}
}
