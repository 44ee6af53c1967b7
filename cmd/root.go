/*
Copyright © 2026 JACOB ARTHURS
*/
package cmd

import (
	"os"
	"runtime/debug"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var Version = "dev"

func init() {
	if Version == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "(devel)" {
			Version = info.Main.Version
		}
	}
	rootCmd.Version = Version
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
}

var rootCmd = &cobra.Command{
	Use:          "pgplandot",
	SilenceUsage: true,
	Short:        "Render PostgreSQL query plans as Graphviz graphs",
	Long: `pgplandot turns PostgreSQL EXPLAIN plans into Graphviz DOT graphs.

Every plan node, target list and qualifier becomes a record. Target lists and
expression trees are grouped into clusters, and shared nodes such as range
table entries and CTE plans are drawn once.
Supports SQL, and JSON input formats.`,
	Example: `  # Render a plan to DOT
  pgplandot dot plan.json

  # Run EXPLAIN and render an SVG
  pgplandot dot query.sql --profile local -f svg -o plan.svg

  # Serve renders over HTTP
  pgplandot serve --addr :8080

  # Setup connection profiles
  pgplandot init`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		level := log.InfoLevel
		if verbose {
			level = log.DebugLevel
		}
		cmd.SetContext(withLogger(cmd.Context(), newLogger(os.Stderr, level)))
	},
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
