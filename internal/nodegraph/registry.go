package nodegraph

import (
	"fmt"
	"reflect"
)

// NodeID identifies a registered node within one render. Ids start at 1.
type NodeID int

// Registry assigns sequential ids to node references by identity.
type Registry struct {
	ids  map[any]NodeID
	refs []any
}

func NewRegistry() *Registry {
	return &Registry{ids: make(map[any]NodeID)}
}

// Register returns the id for ref, assigning the next one on first sight.
// The bool reports whether the id was newly assigned.
func (r *Registry) Register(ref any) (NodeID, bool) {
	if id, ok := r.ids[ref]; ok {
		return id, false
	}
	r.refs = append(r.refs, ref)
	id := NodeID(len(r.refs))
	r.ids[ref] = id
	return id, true
}

func (r *Registry) Has(ref any) bool {
	_, ok := r.ids[ref]
	return ok
}

// ID returns the id of ref, or 0 if it was never registered.
func (r *Registry) ID(ref any) NodeID {
	return r.ids[ref]
}

// Ref returns the reference registered under id.
func (r *Registry) Ref(id NodeID) any {
	if id < 1 || int(id) > len(r.refs) {
		return nil
	}
	return r.refs[id-1]
}

func (r *Registry) Len() int {
	return len(r.refs)
}

// IDs returns every registered id in registration order.
func (r *Registry) IDs() []NodeID {
	ids := make([]NodeID, len(r.refs))
	for i := range r.refs {
		ids[i] = NodeID(i + 1)
	}
	return ids
}

// checkComparable rejects references that would panic as map keys.
func checkComparable(ref any) error {
	v := reflect.ValueOf(ref)
	if v.IsValid() && !v.Comparable() {
		return fmt.Errorf("%w: %s", ErrUncomparableRef, v.Type())
	}
	return nil
}
