package nodegraph

import (
	"context"
	"fmt"
	"io"
	"strings"
)

const (
	collapsedKind = "Pseudo Node"
	collapsedText = "(pass through target list)"
	unknownKind   = "Unknown"
)

type dotWriter struct {
	w   io.Writer
	err error
}

func (dw *dotWriter) printf(format string, args ...any) {
	if dw.err != nil {
		return
	}
	_, dw.err = fmt.Fprintf(dw.w, format, args...)
}

// WriteDOT writes the graph as a Graphviz document: one subgraph per
// cluster, then ungrouped records, then edges that cross cluster borders.
func (g *Graph) WriteDOT(ctx context.Context, w io.Writer) error {
	_, span := tracer.Start(ctx, "nodegraph.WriteDOT")
	defer span.End()

	dw := &dotWriter{w: w}

	dw.printf("digraph {\n")
	dw.printf("graph [rankdir = \"LR\", label = \"%s\"]\n", g.Title)
	dw.printf("node  [shape=record,style=filled,fillcolor=gray95]\n")
	dw.printf("edge  [arrowtail=empty]\n")

	members := make(map[NodeID][]NodeID)
	for _, id := range g.Registry.IDs() {
		h := g.heads[id]
		members[h] = append(members[h], id)
	}

	for i, head := range g.Clusters() {
		dw.printf("subgraph cluster_%d {\n", i)
		dw.printf("\tlabel = \"%s\";\n", g.clusterLabel(head))
		for _, id := range members[head] {
			dw.printf("\t%d[label = \"%s\"]\n", id, g.recordLabel(id))
		}
		dw.printf("\n")
		for _, e := range g.Edges.Edges() {
			if g.heads[e.From] != head || g.heads[e.To] != head {
				continue
			}
			dw.printf("\t%s\n", edgeLine(e))
		}
		dw.printf("}\n\n")
	}

	for _, id := range members[0] {
		dw.printf("%d[label = \"%s\"]\n", id, g.recordLabel(id))
	}
	dw.printf("\n")

	for _, e := range g.Edges.Edges() {
		from, to := g.heads[e.From], g.heads[e.To]
		if from == to && from != 0 {
			continue
		}
		dw.printf("%s\n", edgeLine(e))
	}

	dw.printf("}\n")
	return dw.err
}

func (g *Graph) clusterLabel(head NodeID) string {
	if g.marks[head] == TargetList {
		return TargetList.String()
	}
	return ExprRoot.String()
}

func (g *Graph) recordLabel(id NodeID) string {
	var b strings.Builder
	header := func(kind string) {
		fmt.Fprintf(&b, "<head> %s (%d)", escapeRecord(kind), id)
	}

	if g.collapsed[id] {
		header(collapsedKind)
		b.WriteString("|" + collapsedText)
		return b.String()
	}
	if typ, ok := g.unknown[id]; ok {
		header(unknownKind)
		b.WriteString("|type: " + escapeRecord(typ))
		return b.String()
	}

	d := g.desc[id]
	header(d.Kind)
	switch d.Shape {
	case ShapeLeaf:
		b.WriteString("|" + escapeRecord(d.Value))
	case ShapeSequence:
		for i := range d.Elements {
			fmt.Fprintf(&b, "|<%d> [%d]", i+1, i)
		}
	default:
		for _, f := range g.fields[id] {
			fmt.Fprintf(&b, "|%s: %s", escapeRecord(f.Name), escapeRecord(f.Value))
		}
		for _, c := range d.Children {
			if isNil(c.Node) {
				continue
			}
			name := escapeRecord(c.Label)
			fmt.Fprintf(&b, "|<%s> %s: ", name, name)
		}
	}
	return b.String()
}

func edgeLine(e Edge) string {
	return fmt.Sprintf("%d:%s -> %d:head [headlabel = \"%d\", taillabel = \"%d\"]",
		e.From, portID(e.Label), e.To, e.From, e.To)
}

var recordEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	`{`, `\{`,
	`}`, `\}`,
	`|`, `\|`,
	`<`, `\<`,
	`>`, `\>`,
	"\n", " ",
	"\r", " ",
	"\t", " ",
)

// escapeRecord protects characters that have meaning inside a record label.
func escapeRecord(s string) string {
	return recordEscaper.Replace(s)
}

// portID returns label as a DOT port, quoting it unless it is a plain
// identifier or numeral.
func portID(label string) string {
	if isPlainID(label) {
		return label
	}
	return `"` + strings.ReplaceAll(label, `"`, `\"`) + `"`
}

func isPlainID(s string) bool {
	if s == "" {
		return false
	}
	if strings.Trim(s, "0123456789") == "" {
		return true
	}
	for i, r := range s {
		letter := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		digit := r >= '0' && r <= '9'
		if !letter && (i == 0 || !digit) {
			return false
		}
	}
	return true
}

var titleReplacer = strings.NewReplacer("\t", " ", "\n", " ", "\r", " ", `"`, "'")

// SanitizeTitle replaces characters that would break the graph label.
func SanitizeTitle(s string) string {
	return titleReplacer.Replace(s)
}
