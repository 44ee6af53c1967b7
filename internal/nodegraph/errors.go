package nodegraph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrWalkFailed wraps every failure that aborts a render.
	ErrWalkFailed = errors.New("walk failed")

	// ErrUncomparableRef is returned for node references that cannot be
	// compared by identity (slices, maps, funcs).
	ErrUncomparableRef = errors.New("uncomparable node reference")

	// ErrMaxDepth is returned when the tree is deeper than Options.MaxDepth.
	ErrMaxDepth = errors.New("maximum walk depth exceeded")
)

// WalkError reports where in the tree a render failed. Kind is the kind of
// the innermost node being expanded when the failure happened.
type WalkError struct {
	Path []string
	Kind string
	Err  error
}

func (e *WalkError) Error() string {
	path := "(root)"
	if len(e.Path) > 0 {
		path = strings.Join(e.Path, ".")
	}
	if e.Kind != "" {
		return fmt.Sprintf("walking node tree at %s (%s): %v", path, e.Kind, e.Err)
	}
	return fmt.Sprintf("walking node tree at %s: %v", path, e.Err)
}

func (e *WalkError) Unwrap() []error {
	return []error{ErrWalkFailed, e.Err}
}

// panicError turns a recovered panic value into an error.
func panicError(v any) error {
	if err, ok := v.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", v)
}
