/*
Copyright © 2026 JACOB ARTHURS
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/jacobarthurs/pgplandot/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve plan renders over HTTP",
	Long: `Start an HTTP server that renders EXPLAIN (FORMAT JSON) documents.

  POST /v1/render   body: EXPLAIN JSON; query: format, simplify, title
  GET  /healthz
  GET  /metrics     Prometheus metrics

Defaults for format and simplify come from the render section of the config
file unless overridden by flags.`,
	Example: `  pgplandot serve --addr :8080
  curl --data-binary @plan.json 'localhost:8080/v1/render?format=svg&simplify=true'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")

		settings, err := renderSettings(cmd)
		if err != nil {
			return err
		}

		logger := loggerFromContext(cmd.Context())
		if logger.GetLevel() > log.DebugLevel {
			gin.SetMode(gin.ReleaseMode)
		}

		srv := &http.Server{
			Addr: addr,
			Handler: server.New(server.Config{
				Logger:   logger,
				Simplify: settings.simplify,
				Format:   settings.format,
			}),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errc := make(chan error, 1)
		go func() {
			logger.Info("listening", "addr", addr)
			errc <- srv.ListenAndServe()
		}()

		select {
		case err := <-errc:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("serving %s: %w", addr, err)
		case <-ctx.Done():
		}

		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Listen address")
	serveCmd.Flags().StringP("format", "f", "dot", "Default output format: dot, svg, png, json, text")
	serveCmd.Flags().BoolP("simplify", "s", false, "Collapse pass-through target lists by default")
}
