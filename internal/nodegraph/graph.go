// Package nodegraph turns an identity-linked node tree into a Graphviz DOT
// document. Shared substructure is registered once, target lists and
// expression roots are grouped into clusters, and identity projection lists
// can be collapsed into a single placeholder.
package nodegraph

import (
	"bytes"
	"context"
	"io"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// DefaultMaxDepth bounds recursion when Options.MaxDepth is zero.
const DefaultMaxDepth = 4096

// PassThroughFunc reports whether a target list only forwards its source's
// columns unchanged and in order.
type PassThroughFunc func(elements []any) bool

type Options struct {
	// Title is written verbatim into the graph label. See SanitizeTitle.
	Title string

	// Simplify collapses target lists accepted by PassThrough.
	Simplify    bool
	PassThrough PassThroughFunc

	// MaxDepth limits recursion. Zero means DefaultMaxDepth.
	MaxDepth int

	// Logger receives warnings about unrecognized kinds. Nil discards.
	Logger *log.Logger
}

// Stats summarizes one built graph.
type Stats struct {
	Nodes     int `json:"nodes"`
	Edges     int `json:"edges"`
	Clusters  int `json:"clusters"`
	Collapsed int `json:"collapsed"`
	Unknown   int `json:"unknown"`
}

// Graph is the result of walking one tree. It is owned by a single render
// call and is not safe for concurrent mutation.
type Graph struct {
	Title    string
	Registry *Registry
	Edges    *EdgeTable

	marks     map[NodeID]Mark
	collapsed map[NodeID]bool
	unknown   map[NodeID]string
	desc      map[NodeID]Description
	fields    map[NodeID][]Field
	heads     map[NodeID]NodeID
}

func newGraph(title string) *Graph {
	return &Graph{
		Title:     title,
		Registry:  NewRegistry(),
		Edges:     NewEdgeTable(),
		marks:     make(map[NodeID]Mark),
		collapsed: make(map[NodeID]bool),
		unknown:   make(map[NodeID]string),
		desc:      make(map[NodeID]Description),
		fields:    make(map[NodeID][]Field),
	}
}

// Build walks root and assigns clusters. A nil root yields an empty graph.
func Build(ctx context.Context, root any, d Dispatcher, opts Options) (*Graph, error) {
	ctx, span := tracer.Start(ctx, "nodegraph.Build")
	defer span.End()

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	g := newGraph(opts.Title)
	w := &walker{
		g:        g,
		dispatch: d,
		opts:     opts,
		logger:   logger,
		maxDepth: maxDepth,
	}
	if err := w.run(root); err != nil {
		renderTotal.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "walk failed")
		return nil, err
	}

	_, cspan := tracer.Start(ctx, "nodegraph.AssignClusters")
	g.heads = AssignClusters(g.Edges, g.marks)
	cspan.End()

	g.observe()
	st := g.Stats()
	span.SetAttributes(
		attribute.Int("nodes", st.Nodes),
		attribute.Int("edges", st.Edges),
		attribute.Int("clusters", st.Clusters),
		attribute.Int("collapsed", st.Collapsed),
		attribute.Int("unknown", st.Unknown),
	)
	return g, nil
}

// Render builds the graph for root and returns the complete DOT document.
// On error no text is returned.
func Render(ctx context.Context, root any, d Dispatcher, opts Options) (string, error) {
	ctx, span := tracer.Start(ctx, "nodegraph.Render")
	defer span.End()

	g, err := Build(ctx, root, d, opts)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := g.WriteDOT(ctx, &buf); err != nil {
		span.RecordError(err)
		return "", err
	}

	if opts.Logger != nil {
		st := g.Stats()
		opts.Logger.Debug("rendered node graph",
			"nodes", st.Nodes, "edges", st.Edges, "clusters", st.Clusters,
			"collapsed", st.Collapsed, "unknown", st.Unknown)
	}
	return buf.String(), nil
}

// Head returns the cluster head of id, or 0 when id is ungrouped.
func (g *Graph) Head(id NodeID) NodeID {
	return g.heads[id]
}

// Mark returns the marker registered for id.
func (g *Graph) Mark(id NodeID) Mark {
	return g.marks[id]
}

func (g *Graph) Collapsed(id NodeID) bool {
	return g.collapsed[id]
}

func (g *Graph) Unknown(id NodeID) bool {
	_, ok := g.unknown[id]
	return ok
}

// Kind returns the display kind of id as it will appear in its record.
func (g *Graph) Kind(id NodeID) string {
	switch {
	case g.collapsed[id]:
		return collapsedKind
	case g.Unknown(id):
		return unknownKind
	}
	return g.desc[id].Kind
}

// Clusters returns the distinct heads in order of first appearance.
func (g *Graph) Clusters() []NodeID {
	seen := make(map[NodeID]bool)
	var heads []NodeID
	for _, id := range g.Registry.IDs() {
		h := g.heads[id]
		if h == 0 || seen[h] {
			continue
		}
		seen[h] = true
		heads = append(heads, h)
	}
	return heads
}

func (g *Graph) Stats() Stats {
	return Stats{
		Nodes:     g.Registry.Len(),
		Edges:     g.Edges.Len(),
		Clusters:  len(g.Clusters()),
		Collapsed: len(g.collapsed),
		Unknown:   len(g.unknown),
	}
}

// mark records m for id unless id already carries a marker.
func (g *Graph) mark(id NodeID, m Mark) {
	if m == NoMark {
		return
	}
	if _, ok := g.marks[id]; ok {
		return
	}
	g.marks[id] = m
}
