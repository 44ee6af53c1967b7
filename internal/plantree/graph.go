package plantree

import (
	"context"
	"sync"

	"github.com/jacobarthurs/pgplandot/internal/nodegraph"
)

// DefaultTitle prefixes the graph label.
const DefaultTitle = "Plan Tree"

var catalog = sync.OnceValue(Catalog)

// Title builds a graph label from a title and the statement source, safe to
// pass to nodegraph.
func Title(title, source string) string {
	if title == "" {
		title = DefaultTitle
	}
	if source == "" {
		return nodegraph.SanitizeTitle(title)
	}
	return nodegraph.SanitizeTitle(title + ": " + source)
}

// Graph builds the node graph of stmt using the plan catalog. When
// opts.Simplify is set, pass-through target lists are collapsed.
func Graph(ctx context.Context, stmt *PlannedStmt, opts nodegraph.Options) (*nodegraph.Graph, error) {
	opts.PassThrough = IsPassThrough
	return nodegraph.Build(ctx, stmt, catalog(), opts)
}

// Render is Graph followed by DOT output.
func Render(ctx context.Context, stmt *PlannedStmt, opts nodegraph.Options) (string, error) {
	opts.PassThrough = IsPassThrough
	return nodegraph.Render(ctx, stmt, catalog(), opts)
}
