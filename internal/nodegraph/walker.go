package nodegraph

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/charmbracelet/log"
)

type walker struct {
	g        *Graph
	dispatch Dispatcher
	opts     Options
	logger   *log.Logger
	maxDepth int

	// path and kind track the current position for error reports.
	path []string
	kind string
}

// run walks root, converting a panic in a dispatcher callback into a
// WalkError so that no partial graph escapes.
func (w *walker) run(root any) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &WalkError{Path: slices.Clone(w.path), Kind: w.kind, Err: panicError(v)}
		}
	}()
	return w.walk(0, "", root, NoMark)
}

func (w *walker) walk(parent NodeID, label string, ref any, mark Mark) error {
	if isNil(ref) {
		return nil
	}
	// The path is popped without defer so a panic leaves it pointing at
	// the failing node.
	if parent != 0 {
		w.path = append(w.path, label)
	}
	err := w.enter(parent, label, ref, mark)
	if parent != 0 {
		w.path = w.path[:len(w.path)-1]
	}
	return err
}

func (w *walker) enter(parent NodeID, label string, ref any, mark Mark) error {
	if len(w.path) > w.maxDepth {
		return w.fail(fmt.Errorf("%w (%d)", ErrMaxDepth, w.maxDepth))
	}
	if err := checkComparable(ref); err != nil {
		return w.fail(err)
	}

	id, fresh := w.g.Registry.Register(ref)
	if parent != 0 {
		w.g.Edges.Record(parent, id, label)
	}
	if !fresh {
		if !w.g.collapsed[id] {
			w.g.mark(id, mark)
		}
		return nil
	}

	d, ok := w.dispatch.Describe(ref)
	if !ok {
		typ := fmt.Sprintf("%T", ref)
		w.g.unknown[id] = typ
		w.g.mark(id, mark)
		w.logger.Warn("could not dump unrecognized node type", "type", typ, "id", id)
		return nil
	}
	w.g.desc[id] = d

	// kind is restored without defer so a panic leaves it naming the
	// node being expanded.
	parentKind := w.kind
	w.kind = d.Kind
	err := w.expand(id, d, mark)
	w.kind = parentKind
	return err
}

func (w *walker) expand(id NodeID, d Description, mark Mark) error {
	switch d.Shape {
	case ShapeLeaf:
		w.g.mark(id, mark)
		return nil

	case ShapeSequence:
		if mark == TargetList && w.canCollapse(d.Elements) {
			w.g.collapsed[id] = true
			return nil
		}
		w.g.mark(id, mark)
		for i, el := range d.Elements {
			if err := w.walk(id, strconv.Itoa(i+1), el, NoMark); err != nil {
				return err
			}
		}
		return nil

	default:
		if d.Fields != nil {
			w.g.fields[id] = d.Fields()
		}
		w.g.mark(id, mark)
		for _, c := range d.Children {
			if err := w.walk(id, c.Label, c.Node, c.Mark); err != nil {
				return err
			}
		}
		return nil
	}
}

func (w *walker) canCollapse(elements []any) bool {
	return w.opts.Simplify && w.opts.PassThrough != nil && w.opts.PassThrough(elements)
}

func (w *walker) fail(err error) error {
	return &WalkError{Path: slices.Clone(w.path), Kind: w.kind, Err: err}
}
