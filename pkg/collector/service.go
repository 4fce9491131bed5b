package collector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/NotCoffee418/conso_prod_reconciler/pkg/archive"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/config"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/logger"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/metrics"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/rawsource"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/tablestore"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/timegrid"
)

var ErrNotConfigured = errors.New("collector url_template not configured")

type Options struct {
	Attempts int
	Timeout  time.Duration
	// Production step of the fetched data
	Step time.Duration
	// Resampled production files. Empty paths skip resampling.
	Resampled30Min string
	Resampled1H    string
}

// Collector archives one raw production day at a time.
type Collector struct {
	fetcher Fetcher
	archive *archive.Store
	log     *logger.Logger
	metrics *metrics.Recorder
	opts    Options
}

func New(fetcher Fetcher, a *archive.Store, log *logger.Logger, rec *metrics.Recorder, opts Options) *Collector {
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.Step <= 0 {
		opts.Step = 15 * time.Minute
	}
	return &Collector{
		fetcher: fetcher,
		archive: a,
		log:     log,
		metrics: rec,
		opts:    opts,
	}
}

// NewFromConfig builds an HTTP backed collector from the collector section.
func NewFromConfig(cfg *config.AppConfig, log *logger.Logger, rec *metrics.Recorder) (*Collector, error) {
	if cfg.Collector.URLTemplate == "" {
		return nil, ErrNotConfigured
	}
	fetcher := &HTTPFetcher{
		URLTemplate: cfg.Collector.URLTemplate,
		Token:       cfg.Collector.Token,
		Client:      &http.Client{},
	}
	opts := Options{
		Attempts: cfg.Collector.Attempts,
		Timeout:  cfg.CollectorTimeout(),
		Step:     cfg.ProductionStep(),
	}
	if cfg.Pipeline.Resampled30Min != "" && cfg.Pipeline.Resampled1H != "" {
		opts.Resampled30Min = cfg.Path(cfg.Pipeline.Resampled30Min)
		opts.Resampled1H = cfg.Path(cfg.Pipeline.Resampled1H)
	}
	a := archive.New(cfg.Path(cfg.Sources.ProductionArchive))
	return New(fetcher, a, log, rec, opts), nil
}

// UpdateDay archives the raw export of day unless it is already archived.
// Every attempt gets the same fixed timeout. There is no backoff between
// attempts, and an authentication failure stops immediately.
func (c *Collector) UpdateDay(ctx context.Context, day time.Time) (bool, error) {
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	dayLog := c.log.With(logger.String("day", day.Format("2006-01-02")))

	has, err := c.archive.Has(day)
	if err != nil {
		return false, err
	}
	if has {
		dayLog.Debug("Day already archived")
		return false, c.refreshResampled(day)
	}

	data, err := c.fetch(ctx, day)
	if err != nil {
		dayLog.Warn("Failed to fetch raw production", logger.Err(err))
		return false, err
	}

	added, err := c.archive.AppendIfNew(day, data)
	if err != nil {
		return false, fmt.Errorf("failed to archive day: %w", err)
	}
	if !added {
		return false, nil
	}
	dayLog.Info("Archived raw production", logger.Int("bytes", len(data)))

	if err := c.resample(data); err != nil {
		return true, fmt.Errorf("failed to update resampled production: %w", err)
	}
	return true, nil
}

// LastArchivedDay returns the most recent archived day. ok is false for an
// empty archive.
func (c *Collector) LastArchivedDay() (day time.Time, ok bool, err error) {
	days, err := c.archive.Days()
	if err != nil || len(days) == 0 {
		return time.Time{}, false, err
	}
	return days[len(days)-1], true, nil
}

// UpdateRange runs UpdateDay for every day from first to last inclusive.
// It returns the number of newly archived days and every error encountered.
func (c *Collector) UpdateRange(ctx context.Context, first, last time.Time) (int, error) {
	var (
		added int
		errs  []error
	)
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		ok, err := c.UpdateDay(ctx, day)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", day.Format("2006-01-02"), err))
		}
		if ok {
			added++
		}
	}
	return added, errors.Join(errs...)
}

func (c *Collector) fetch(ctx context.Context, day time.Time) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.opts.Attempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
		data, err := c.fetcher.FetchDay(attemptCtx, day)
		cancel()

		if err == nil {
			c.metrics.RecordFetch("success")
			return data, nil
		}
		if errors.Is(err, ErrAuth) {
			c.metrics.RecordFetch("auth")
			return nil, errors.Join(ErrFetchFailed, err)
		}
		c.metrics.RecordFetch("error")
		lastErr = fmt.Errorf("attempt %d: %w", attempt, err)
		if ctx.Err() != nil {
			break
		}
	}
	return nil, errors.Join(ErrFetchFailed, lastErr)
}

// refreshResampled rebuilds the resampled rows of an archived day when the
// resampled files do not cover it fully.
func (c *Collector) refreshResampled(day time.Time) error {
	if c.opts.Resampled30Min == "" || c.opts.Resampled1H == "" {
		return nil
	}
	full, err := tablestore.HasFullDay(c.opts.Resampled30Min, c.opts.Resampled1H, tablestore.ProductionColumn, day)
	if err != nil || full {
		return err
	}
	data, err := c.archive.Read(day)
	if err != nil {
		return err
	}
	if err := c.resample(data); err != nil {
		return fmt.Errorf("failed to update resampled production: %w", err)
	}
	return nil
}

func (c *Collector) resample(data []byte) error {
	if c.opts.Resampled30Min == "" || c.opts.Resampled1H == "" {
		return nil
	}
	series, _, err := rawsource.ParseProduction(bytes.NewReader(data))
	if err != nil {
		return err
	}
	grid, err := timegrid.Normalize(series.SortAndDedup(), c.opts.Step)
	if errors.Is(err, timegrid.ErrEmptySeries) {
		return nil
	}
	if err != nil {
		return err
	}
	return tablestore.AppendResampled(grid, c.opts.Resampled30Min, c.opts.Resampled1H, tablestore.ProductionColumn)
}
