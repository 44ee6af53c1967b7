package nodegraph

import "reflect"

// Shape tells the walker how a node's contents are laid out.
type Shape int

const (
	// ShapeRecord nodes have scalar fields and named child links.
	ShapeRecord Shape = iota
	// ShapeLeaf nodes render a single literal value and have no children.
	ShapeLeaf
	// ShapeSequence nodes are homogeneous ordered lists of children.
	ShapeSequence
)

// Mark flags a child link as the root of a cluster.
type Mark int

const (
	NoMark Mark = iota
	TargetList
	ExprRoot
)

func (m Mark) String() string {
	switch m {
	case TargetList:
		return "Target List"
	case ExprRoot:
		return "Expression Tree"
	default:
		return ""
	}
}

// Field is one scalar compartment of a record.
type Field struct {
	Name  string
	Value string
}

// Child is a structural link from a record. A nil Node means the link is
// absent and is skipped.
type Child struct {
	Label string
	Node  any
	Mark  Mark
}

// Description is what a dispatcher knows about one node.
type Description struct {
	Kind  string
	Shape Shape

	// Value is the literal shown for ShapeLeaf nodes.
	Value string

	// Elements are the members of a ShapeSequence node.
	Elements []any

	// Children and Fields describe a ShapeRecord node. Fields is called
	// once, during the walk, so a panic in it fails the build.
	Children []Child
	Fields   func() []Field
}

// Dispatcher maps a node reference to its description. It returns false for
// kinds it does not know.
type Dispatcher interface {
	Describe(ref any) (Description, bool)
}

// Describer is implemented by node types that describe themselves.
type Describer interface {
	Describe() Description
}

// KindTable is a Dispatcher backed by per-type describe functions.
type KindTable struct {
	kinds map[reflect.Type]func(any) Description
}

func NewKindTable() *KindTable {
	return &KindTable{kinds: make(map[reflect.Type]func(any) Description)}
}

// Register adds the describe function for values of dynamic type T.
func Register[T any](t *KindTable, fn func(T) Description) {
	typ := reflect.TypeFor[T]()
	t.kinds[typ] = func(ref any) Description {
		return fn(ref.(T))
	}
}

func (t *KindTable) Describe(ref any) (Description, bool) {
	if ref == nil {
		return Description{}, false
	}
	if fn, ok := t.kinds[reflect.TypeOf(ref)]; ok {
		return fn(ref), true
	}
	if d, ok := ref.(Describer); ok {
		return d.Describe(), true
	}
	return Description{}, false
}

// Len reports the number of registered kinds.
func (t *KindTable) Len() int {
	return len(t.kinds)
}

// isNil reports whether ref is nil or a typed nil.
func isNil(ref any) bool {
	if ref == nil {
		return true
	}
	v := reflect.ValueOf(ref)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return v.IsNil()
	}
	return false
}
