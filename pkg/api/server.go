package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/NotCoffee418/conso_prod_reconciler/pkg/hub"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/logger"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/meterdb"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/metrics"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/pipeline"
	"github.com/labstack/echo/v4"
)

// Pipeline is the part of the loader the API serves from.
type Pipeline interface {
	Current() *pipeline.Result
	Load(ctx context.Context) (*pipeline.Result, error)
	Invalidate()
}

// RunHistory reports the most recent recorded pipeline run.
type RunHistory interface {
	LatestRun(ctx context.Context) (*meterdb.MeterDbLoadRun, error)
}

// ServerOption configures Server.
type ServerOption func(*ServerConfig)

type ServerConfig struct {
	Address         string
	AllowOrigins    []string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	History         RunHistory
}

func WithAddress(addr string) ServerOption {
	return func(c *ServerConfig) { c.Address = addr }
}

func WithAllowOrigins(origins []string) ServerOption {
	return func(c *ServerConfig) { c.AllowOrigins = origins }
}

// WithRunHistory adds the latest recorded run to /status.
func WithRunHistory(h RunHistory) ServerOption {
	return func(c *ServerConfig) { c.History = h }
}

func WithTimeouts(read, write, shutdown time.Duration) ServerOption {
	return func(c *ServerConfig) {
		c.ReadTimeout = read
		c.WriteTimeout = write
		c.ShutdownTimeout = shutdown
	}
}

// Server exposes the reconciled data over HTTP and websocket.
type Server struct {
	echo     *echo.Echo
	config   *ServerConfig
	pipeline Pipeline
	hub      *hub.Hub
	metrics  *metrics.Recorder
	log      *logger.Logger
}

func NewServer(p Pipeline, h *hub.Hub, rec *metrics.Recorder, log *logger.Logger, opts ...ServerOption) *Server {
	cfg := &ServerConfig{
		Address:         "0.0.0.0:9040",
		AllowOrigins:    []string{"*"},
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	s := &Server{
		config:   cfg,
		pipeline: p,
		hub:      h,
		metrics:  rec,
		log:      log.With(logger.String("component", "api")),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.errorHandler
	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout

	e.Use(recoverPanics(s.log))
	e.Use(requestLogging(s.log))
	e.Use(cors(cfg.AllowOrigins))

	s.echo = e
	s.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(rec.Handler()))
	return s
}

// Start serves in the background until Stop is called.
func (s *Server) Start() error {
	go func() {
		s.log.Info("Starting HTTP server", logger.String("address", s.config.Address))
		if err := s.echo.Start(s.config.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("HTTP server stopped", logger.Err(err))
		}
	}()
	return nil
}

// Stop closes websocket clients and gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.hub.Close()
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	s.log.Info("HTTP server stopped gracefully")
	return nil
}

// Notify broadcasts a load result to the websocket clients.
func (s *Server) Notify(res *pipeline.Result) {
	if err := s.hub.Broadcast(NewStatusPayload(res)); err != nil {
		s.log.Warn("Failed to broadcast load result", logger.Err(err))
	}
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
