package plantree

// IsPassThrough reports whether a target list only forwards its outer
// input's columns: entry i must be a Var reading OUTER_VAR column i+1. An
// empty list qualifies.
func IsPassThrough(elements []any) bool {
	for i, el := range elements {
		te, ok := el.(*TargetEntry)
		if !ok {
			return false
		}
		v, ok := te.Expr.(*Var)
		if !ok || v.Varno != OuterVar || v.Varattno != i+1 {
			return false
		}
	}
	return true
}
