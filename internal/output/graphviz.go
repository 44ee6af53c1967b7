package output

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
)

func renderImage(ctx context.Context, dot []byte, f Format) ([]byte, error) {
	_, span := tracer.Start(ctx, "output.renderImage")
	defer span.End()

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes(dot)
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.Format(f), &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", f, err)
	}
	return buf.Bytes(), nil
}
