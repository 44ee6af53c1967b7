package nodegraph

import (
	"context"
	"strconv"
	"testing"
)

type testNode struct {
	kind     string
	fields   []Field
	children []Child
}

func (n *testNode) Describe() Description {
	return Description{
		Kind:     n.kind,
		Children: n.children,
		Fields:   func() []Field { return n.fields },
	}
}

type testList struct {
	items []any
}

func (l *testList) Describe() Description {
	return Description{Kind: "List", Shape: ShapeSequence, Elements: l.items}
}

type testLeaf struct {
	v string
}

func (l *testLeaf) Describe() Description {
	return Description{Kind: "Integer", Shape: ShapeLeaf, Value: l.v}
}

type testVar struct {
	attno int
}

func (v *testVar) Describe() Description {
	return Description{
		Kind:   "Var",
		Fields: func() []Field { return []Field{{Name: "varattno", Value: strconv.Itoa(v.attno)}} },
	}
}

// opaque has no describer.
type opaque struct {
	name string
}

type panicky struct{}

func (panicky) Describe() Description {
	panic("describe exploded")
}

type panickyFields struct{}

func (panickyFields) Describe() Description {
	return Description{
		Kind:   "Broken",
		Shape:  ShapeRecord,
		Fields: func() []Field { panic("fields exploded") },
	}
}

func identityVars(elements []any) bool {
	for i, el := range elements {
		v, ok := el.(*testVar)
		if !ok || v.attno != i+1 {
			return false
		}
	}
	return true
}

func node(kind string, children ...Child) *testNode {
	return &testNode{kind: kind, children: children}
}

func varList(n int) *testList {
	l := &testList{}
	for i := 1; i <= n; i++ {
		l.items = append(l.items, &testVar{attno: i})
	}
	return l
}

func dispatcher() Dispatcher {
	return NewKindTable()
}

func mustBuild(t *testing.T, root any, opts Options) *Graph {
	t.Helper()
	g, err := Build(context.Background(), root, dispatcher(), opts)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return g
}

func mustRender(t *testing.T, root any, opts Options) string {
	t.Helper()
	out, err := Render(context.Background(), root, dispatcher(), opts)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	return out
}
