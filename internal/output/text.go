package output

import (
	"fmt"
	"io"

	"github.com/jacobarthurs/pgplandot/internal/nodegraph"
)

const (
	colorReset  = "\033[0m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

type textWriter struct {
	w   io.Writer
	err error
}

func (tw *textWriter) printf(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.w, format, args...)
}

// RenderSummaryText prints node, edge and cluster counts followed by one
// line per cluster and a warning per unrecognized node.
func RenderSummaryText(w io.Writer, s nodegraph.Summary) error {
	tw := &textWriter{w: w}

	tw.printf("%s%sPlan Graph%s", colorBold, colorCyan, colorReset)
	if s.Title != "" {
		tw.printf("  %s", s.Title)
	}
	tw.printf("\n\n")
	tw.printf("  Nodes:     %d\n", s.Stats.Nodes)
	tw.printf("  Edges:     %d\n", s.Stats.Edges)
	tw.printf("  Clusters:  %d\n", s.Stats.Clusters)
	if s.Stats.Collapsed > 0 {
		tw.printf("  Collapsed: %d %s(pass through target lists)%s\n", s.Stats.Collapsed, colorDim, colorReset)
	}

	if len(s.Clusters) > 0 {
		size := make(map[nodegraph.NodeID]int)
		label := make(map[nodegraph.NodeID]string)
		for _, n := range s.Nodes {
			if n.Cluster != 0 {
				size[n.Cluster]++
			}
			if n.Marker != "" {
				label[n.ID] = n.Marker
			}
		}

		tw.printf("\n%s%sClusters%s\n\n", colorBold, colorCyan, colorReset)
		for _, head := range s.Clusters {
			tw.printf("  %-16s head %-4d %d nodes\n", label[head], head, size[head])
		}
	}

	if s.Stats.Unknown > 0 {
		tw.printf("\n")
		for _, n := range s.Nodes {
			if n.Type == "" {
				continue
			}
			tw.printf("  %sWARNING%s  node %d has unrecognized type %s\n", colorYellow, colorReset, n.ID, n.Type)
		}
	}

	return tw.err
}
