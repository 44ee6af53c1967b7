// Package output writes built plan graphs in the formats the CLI and the
// HTTP server offer.
package output

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jacobarthurs/pgplandot/internal/nodegraph"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("pgplandot/output")

type Format string

const (
	DOT  Format = "dot"
	SVG  Format = "svg"
	PNG  Format = "png"
	JSON Format = "json"
	Text Format = "text"
)

var formats = []Format{DOT, SVG, PNG, JSON, Text}

func ParseFormat(s string) (Format, error) {
	for _, f := range formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (want dot, svg, png, json or text)", s)
}

// Ext is the file extension used when writing f to disk.
func (f Format) Ext() string {
	if f == Text {
		return "txt"
	}
	return string(f)
}

func (f Format) ContentType() string {
	switch f {
	case SVG:
		return "image/svg+xml"
	case PNG:
		return "image/png"
	case JSON:
		return "application/json"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Binary reports whether f should not be written to a terminal.
func (f Format) Binary() bool {
	return f == PNG
}

// Write renders g in format f. Image formats go through Graphviz, so
// nothing is written to w unless layout succeeds.
func Write(ctx context.Context, w io.Writer, g *nodegraph.Graph, f Format) error {
	switch f {
	case DOT:
		return g.WriteDOT(ctx, w)
	case JSON:
		return RenderJSON(w, g.Summary())
	case Text:
		return RenderSummaryText(w, g.Summary())
	case SVG, PNG:
		var dot bytes.Buffer
		if err := g.WriteDOT(ctx, &dot); err != nil {
			return err
		}
		img, err := renderImage(ctx, dot.Bytes(), f)
		if err != nil {
			return err
		}
		_, err = w.Write(img)
		return err
	}
	return fmt.Errorf("unknown format %q", f)
}

func RenderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
