// Package server exposes plan rendering over HTTP.
package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/jacobarthurs/pgplandot/internal/nodegraph"
	"github.com/jacobarthurs/pgplandot/internal/output"
	"github.com/jacobarthurs/pgplandot/internal/plan"
	"github.com/jacobarthurs/pgplandot/internal/plantree"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"

	// DefaultMaxBody caps EXPLAIN documents accepted by /v1/render.
	DefaultMaxBody = 8 << 20
)

type Config struct {
	Logger *log.Logger

	// Simplify and Format are used when a request omits them.
	Simplify bool
	Format   output.Format

	MaxBody int64
}

type Server struct {
	cfg    Config
	logger *log.Logger
}

// New returns the HTTP handler serving /v1/render, /healthz and /metrics.
func New(cfg Config) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	if cfg.Format == "" {
		cfg.Format = output.DOT
	}
	if cfg.MaxBody <= 0 {
		cfg.MaxBody = DefaultMaxBody
	}
	s := &Server{cfg: cfg, logger: cfg.Logger}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("pgplandot"))
	router.Use(requestID())
	router.Use(s.accessLog())

	router.GET("/healthz", s.healthz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	v1.POST("/render", s.render)

	return router
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"id", c.GetString(requestIDKey),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).Round(time.Microsecond))
	}
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) render(c *gin.Context) {
	format := s.cfg.Format
	if f := c.Query("format"); f != "" {
		parsed, err := output.ParseFormat(f)
		if err != nil {
			s.fail(c, http.StatusBadRequest, err)
			return
		}
		format = parsed
	}

	simplify := s.cfg.Simplify
	if v := c.Query("simplify"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			s.fail(c, http.StatusBadRequest, fmt.Errorf("invalid simplify value %q", v))
			return
		}
		simplify = b
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(c, http.StatusRequestEntityTooLarge, fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		s.fail(c, http.StatusBadRequest, fmt.Errorf("reading request body: %w", err))
		return
	}

	plans, err := plan.ParseJSONPlan(body)
	if err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}

	ctx := c.Request.Context()
	explain := plans[0]
	g, err := plantree.Graph(ctx, plantree.Build(explain), nodegraph.Options{
		Title:    plantree.Title(c.Query("title"), explain.QueryText),
		Simplify: simplify,
		Logger:   s.logger.With("id", c.GetString(requestIDKey)),
	})
	if err != nil {
		s.fail(c, http.StatusUnprocessableEntity, err)
		return
	}

	var buf bytes.Buffer
	if err := output.Write(ctx, &buf, g, format); err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

func (s *Server) fail(c *gin.Context, status int, err error) {
	id := c.GetString(requestIDKey)
	if status >= http.StatusInternalServerError {
		s.logger.Error("render failed", "id", id, "err", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "request_id": id})
}
