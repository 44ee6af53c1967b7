package nodegraph

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("pgplandot/nodegraph")

var (
	// renderTotal counts graph builds by result (ok, error).
	renderTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pgplandot",
		Name:      "render_total",
		Help:      "Total node graph builds by result",
	}, []string{"result"})

	renderNodes = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "pgplandot",
		Name:      "render_nodes",
		Help:      "Number of distinct nodes per rendered graph",
		Buckets:   prometheus.ExponentialBuckets(4, 2, 10),
	})

	unknownKindsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pgplandot",
		Name:      "unknown_kinds_total",
		Help:      "Total nodes rendered as Unknown because no describer matched",
	})

	collapsedListsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pgplandot",
		Name:      "collapsed_lists_total",
		Help:      "Total pass-through target lists collapsed into a placeholder",
	})
)

// observe records a successfully built graph.
func (g *Graph) observe() {
	st := g.Stats()
	renderTotal.WithLabelValues("ok").Inc()
	renderNodes.Observe(float64(st.Nodes))
	unknownKindsTotal.Add(float64(st.Unknown))
	collapsedListsTotal.Add(float64(st.Collapsed))
}
