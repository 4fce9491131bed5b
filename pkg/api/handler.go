package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/NotCoffee418/conso_prod_reconciler/pkg/aggregator"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/logger"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/meterdb"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/pipeline"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/presentation"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/rawsource"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/report"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/types"
	"github.com/labstack/echo/v4"
)

const (
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimePDF  = "application/pdf"
)

// StatusPayload is served by /status and pushed to websocket clients.
type StatusPayload struct {
	Type             string               `json:"type"`
	Kind             pipeline.StatusKind  `json:"kind"`
	Message          string               `json:"message"`
	Status           pipeline.Status      `json:"status"`
	LoadedAt         time.Time            `json:"loaded_at"`
	Cached           bool                 `json:"cached"`
	ConsumptionStats rawsource.ParseStats `json:"consumption_stats"`
	ProductionStats  rawsource.ParseStats `json:"production_stats"`
	// Only on /status, when a run history is configured
	LastRun *meterdb.MeterDbLoadRun `json:"last_run,omitempty"`
}

func NewStatusPayload(res *pipeline.Result) StatusPayload {
	return StatusPayload{
		Type:             "status",
		Kind:             res.Status.Kind,
		Message:          presentation.StatusMessage(res.Status),
		Status:           res.Status,
		LoadedAt:         res.LoadedAt,
		Cached:           res.Cached,
		ConsumptionStats: res.ConsumptionStats,
		ProductionStats:  res.ProductionStats,
	}
}

func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/", s.Index)
	e.GET("/status", s.Status)
	e.GET("/merged", s.Merged)
	e.GET("/view", s.View)
	e.GET("/periods", s.Periods)
	e.POST("/reload", s.Reload)
	e.GET("/export/xlsx", s.ExportXLSX)
	e.GET("/export/pdf", s.ExportPDF)
	e.GET("/ws", s.WebSocket)
}

func (s *Server) Index(c echo.Context) error {
	return successResponse(c, map[string]string{
		"message": "Consumption and production reconciler API",
		"status":  "running",
	})
}

func (s *Server) Status(c echo.Context) error {
	payload := NewStatusPayload(s.pipeline.Current())
	if s.config.History != nil {
		run, err := s.config.History.LatestRun(c.Request().Context())
		switch {
		case err == nil:
			payload.LastRun = run
		case !errors.Is(err, meterdb.ErrNoRuns):
			s.log.Warn("Failed to read latest run", logger.Err(err))
		}
	}
	return successResponse(c, payload)
}

// Merged serves the merged table, optionally limited to from/to.
// Bounds are YYYY-MM-DD or YYYY-MM-DDTHH:MM; a date-only "to" includes its whole day.
func (s *Server) Merged(c echo.Context) error {
	res, err := s.loaded()
	if err != nil {
		return err
	}
	rows := res.Merged
	from, to := c.QueryParam("from"), c.QueryParam("to")
	if from != "" || to != "" {
		first, last, ok := rows.Bounds()
		if !ok {
			return successResponse(c, types.MergedTable{})
		}
		if first, err = parseBound(from, first, false); err != nil {
			return err
		}
		if last, err = parseBound(to, last, true); err != nil {
			return err
		}
		rows = rows.Between(first, last)
	}
	return successResponse(c, rows)
}

func (s *Server) View(c echo.Context) error {
	view, err := s.buildView(c)
	if err != nil {
		return err
	}
	return successResponse(c, view)
}

func (s *Server) Periods(c echo.Context) error {
	res, err := s.loaded()
	if err != nil {
		return err
	}
	raw := c.QueryParam("granularity")
	if raw == "" {
		raw = "week"
	}
	g, err := aggregator.ParseGranularity(raw)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	options, err := presentation.Options(res.Merged, g)
	if errors.Is(err, aggregator.ErrUnsupportedGranularity) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		return err
	}
	return successResponse(c, options)
}

// Reload rebuilds the tables from the raw sources, ignoring the cache.
func (s *Server) Reload(c echo.Context) error {
	s.pipeline.Invalidate()
	res, err := s.pipeline.Load(c.Request().Context())
	if errors.Is(err, rawsource.ErrMissingSource) {
		return echo.NewHTTPError(http.StatusServiceUnavailable, presentation.StatusMessage(res.Status))
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, presentation.StatusMessage(res.Status))
	}
	return successResponse(c, NewStatusPayload(res))
}

func (s *Server) ExportXLSX(c echo.Context) error {
	view, err := s.buildView(c)
	if err != nil {
		return err
	}
	data, err := report.BuildXLSX(view)
	if err != nil {
		return err
	}
	return attachment(c, mimeXLSX, report.FileName(view, "xlsx"), data)
}

func (s *Server) ExportPDF(c echo.Context) error {
	view, err := s.buildView(c)
	if err != nil {
		return err
	}
	data, err := report.BuildPDF(view)
	if err != nil {
		return err
	}
	return attachment(c, mimePDF, report.FileName(view, "pdf"), data)
}

// WebSocket sends the current status on connect, then every load result.
func (s *Server) WebSocket(c echo.Context) error {
	greeting := NewStatusPayload(s.pipeline.Current())
	if err := s.hub.ServeWS(c.Response(), c.Request(), greeting); err != nil {
		// The upgrader already answered the client.
		s.log.Debug("Websocket session ended", logger.Err(err))
	}
	return nil
}

// loaded returns the current result when it holds data or a valid empty join.
func (s *Server) loaded() (*pipeline.Result, error) {
	res := s.pipeline.Current()
	switch res.Status.Kind {
	case pipeline.StatusReady, pipeline.StatusEmpty:
		return res, nil
	default:
		return nil, echo.NewHTTPError(http.StatusServiceUnavailable, presentation.StatusMessage(res.Status))
	}
}

func (s *Server) buildView(c echo.Context) (presentation.View, error) {
	res, err := s.loaded()
	if err != nil {
		return presentation.View{}, err
	}
	mode, err := presentation.ParseMode(c.QueryParam("mode"), c.QueryParam)
	if err != nil {
		return presentation.View{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	view, err := presentation.BuildView(res.Merged, mode, res.Step)
	if errors.Is(err, presentation.ErrInvalidRange) {
		return presentation.View{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return view, err
}

func parseBound(raw string, fallback time.Time, endOfDay bool) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	if t, err := time.Parse("2006-01-02T15:04", raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("bad date %q", raw))
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Second)
	}
	return t, nil
}

func attachment(c echo.Context, mime, name string, data []byte) error {
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, mime, data)
}
