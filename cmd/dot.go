/*
Copyright © 2026 JACOB ARTHURS
*/
package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jacobarthurs/pgplandot/internal/nodegraph"
	"github.com/jacobarthurs/pgplandot/internal/output"
	"github.com/jacobarthurs/pgplandot/internal/plan"
	"github.com/jacobarthurs/pgplandot/internal/plantree"
	"github.com/jacobarthurs/pgplandot/internal/profile"
)

var dotCmd = &cobra.Command{
	Use:   "dot [files...]",
	Short: "Render query plans as Graphviz graphs",
	Long: `Render one or more PostgreSQL query plans as Graphviz graphs.

Input can be a SQL file, or JSON file (EXPLAIN (VERBOSE, FORMAT JSON) output).
Use "-" to read from stdin. If no file is provided, enters interactive mode.

For SQL input, a database connection is required to run EXPLAIN. The query is
executed inside a transaction that is always rolled back.

Several inputs are rendered concurrently. With --output, each one is written
to <base>-<n>.<ext> in argument order.`,
	Example: `  # Render from file
  pgplandot dot plan.json

  # Collapse pass-through target lists and render SVG
  pgplandot dot query.sql --profile local --simplify -f svg -o plan.svg

  # Several plans at once
  pgplandot dot q1.sql q2.sql -f png -o plans

  # Read from stdin
  cat plan.json | pgplandot dot - | dot -Tpdf > plan.pdf`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _ := cmd.Flags().GetString("db")
		profileName, _ := cmd.Flags().GetString("profile")
		outPath, _ := cmd.Flags().GetString("output")
		analyze, _ := cmd.Flags().GetBool("analyze")
		metricsFile, _ := cmd.Flags().GetString("metrics-file")

		settings, err := renderSettings(cmd)
		if err != nil {
			return err
		}

		connStr, err := profile.ResolveConnStr(db, profileName)
		if err != nil {
			return err
		}

		inputs := args
		if len(inputs) == 0 {
			inputs = []string{""}
		}
		if err := checkInputs(inputs); err != nil {
			return err
		}
		if outPath == "" && settings.format.Binary() && isTerminal(cmd.OutOrStdout()) {
			return fmt.Errorf("refusing to write %s to a terminal, use --output", settings.format)
		}

		logger := loggerFromContext(cmd.Context())
		renders, err := renderAll(cmd.Context(), inputs, renderJob{
			connStr:  connStr,
			explain:  plan.ExplainOptions{Analyze: analyze},
			settings: settings,
			logger:   logger,
		})
		if metricsFile != "" {
			if werr := prometheus.WriteToTextfile(metricsFile, prometheus.DefaultGatherer); werr != nil {
				logger.Warn("could not write metrics", "file", metricsFile, "err", werr)
			}
		}
		if err != nil {
			return err
		}

		if outPath == "" {
			for _, r := range renders {
				if _, err := cmd.OutOrStdout().Write(r); err != nil {
					return err
				}
			}
			return nil
		}

		for i, r := range renders {
			name := outputName(outPath, i, len(renders), settings.format)
			if err := os.WriteFile(name, r, 0644); err != nil {
				return fmt.Errorf("writing %s: %w", name, err)
			}
			logger.Info("wrote graph", "file", name, "bytes", len(r))
		}
		return nil
	},
}

type settings struct {
	format   output.Format
	simplify bool
	title    string
}

// renderSettings merges flags with the render section of the config file.
// Flags set on the command line win.
func renderSettings(cmd *cobra.Command) (settings, error) {
	format, _ := cmd.Flags().GetString("format")
	simplify, _ := cmd.Flags().GetBool("simplify")
	title, _ := cmd.Flags().GetString("title")

	defaults, err := profile.RenderDefaults()
	if err != nil {
		return settings{}, err
	}
	if !cmd.Flags().Changed("format") && defaults.Format != "" {
		format = defaults.Format
	}
	if !cmd.Flags().Changed("simplify") && defaults.Simplify != nil {
		simplify = *defaults.Simplify
	}
	if !cmd.Flags().Changed("title") && defaults.Title != "" {
		title = defaults.Title
	}

	f, err := output.ParseFormat(format)
	if err != nil {
		return settings{}, err
	}
	return settings{format: f, simplify: simplify, title: title}, nil
}

func checkInputs(inputs []string) error {
	stdin := 0
	for _, in := range inputs {
		if in == "-" {
			stdin++
		}
	}
	if stdin > 1 {
		return fmt.Errorf("stdin (-) can only be used once")
	}
	return nil
}

type renderJob struct {
	connStr  string
	explain  plan.ExplainOptions
	settings settings
	logger   *log.Logger
}

// renderAll renders every input concurrently and returns the results in
// input order. The first failure cancels the remaining renders.
func renderAll(ctx context.Context, inputs []string, job renderJob) ([][]byte, error) {
	out := make([][]byte, len(inputs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, input := range inputs {
		var label string
		if len(inputs) > 1 {
			label = input + " "
		}
		g.Go(func() error {
			r, err := job.render(ctx, input, label)
			if err != nil {
				return err
			}
			out[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (j renderJob) render(ctx context.Context, input, label string) ([]byte, error) {
	start := time.Now()

	explain, err := plan.Resolve(ctx, input, j.connStr, label, j.explain)
	if err != nil {
		return nil, err
	}

	graph, err := plantree.Graph(ctx, plantree.Build(explain), nodegraph.Options{
		Title:    plantree.Title(j.settings.title, titleSource(input, explain)),
		Simplify: j.settings.simplify,
		Logger:   j.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("rendering %splan: %w", label, err)
	}

	var buf bytes.Buffer
	if err := output.Write(ctx, &buf, graph, j.settings.format); err != nil {
		return nil, fmt.Errorf("rendering %splan: %w", label, err)
	}

	st := graph.Stats()
	j.logger.Debug("rendered plan", "input", inputName(input), "format", j.settings.format,
		"nodes", st.Nodes, "edges", st.Edges, "clusters", st.Clusters,
		"elapsed", time.Since(start).Round(time.Millisecond))
	return buf.Bytes(), nil
}

// titleSource names a plan in the graph title: the query text when known,
// otherwise the file it came from.
func titleSource(input string, explain plan.ExplainOutput) string {
	if explain.QueryText != "" {
		return explain.QueryText
	}
	if input == "" || input == "-" {
		return ""
	}
	return filepath.Base(input)
}

func inputName(input string) string {
	switch input {
	case "":
		return "(interactive)"
	case "-":
		return "(stdin)"
	}
	return input
}

// outputName returns path for a single render and <base>-<n><ext> otherwise,
// taking the extension from the format when path has none.
func outputName(path string, i, n int, f output.Format) string {
	if n == 1 {
		return path
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	if ext == "" {
		ext = "." + f.Ext()
	}
	return fmt.Sprintf("%s-%d%s", base, i+1, ext)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

func init() {
	rootCmd.AddCommand(dotCmd)
	dotCmd.Flags().StringP("db", "d", "", "PostgreSQL connection string")
	dotCmd.Flags().StringP("profile", "p", "", "Use named profile from config")
	dotCmd.Flags().StringP("format", "f", "dot", "Output format: dot, svg, png, json, text")
	dotCmd.Flags().StringP("output", "o", "", "Write to file instead of stdout")
	dotCmd.Flags().BoolP("simplify", "s", false, "Collapse pass-through target lists")
	dotCmd.Flags().String("title", "", "Graph title (default \"Plan Tree\")")
	dotCmd.Flags().Bool("analyze", false, "Run EXPLAIN ANALYZE for SQL input (executes the query)")
	dotCmd.Flags().String("metrics-file", "", "Write Prometheus metrics to this file after rendering")
	dotCmd.MarkFlagsMutuallyExclusive("db", "profile")
}
