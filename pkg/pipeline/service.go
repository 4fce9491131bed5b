package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/NotCoffee418/conso_prod_reconciler/pkg/archive"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/config"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/logger"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/merger"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/meterdb"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/metrics"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/rawsource"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/tablestore"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/timegrid"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/types"
	"github.com/google/uuid"
)

type Option func(*Loader)

// WithStore mirrors every successful load into the SQLite store.
func WithStore(store *meterdb.Store) Option {
	return func(l *Loader) { l.store = store }
}

// WithArchive extracts the daily production archive before each load.
func WithArchive(a *archive.Store) Option {
	return func(l *Loader) { l.archive = a }
}

// Loader runs the pipeline and caches its result until the sources change.
type Loader struct {
	cfg     *config.AppConfig
	log     *logger.Logger
	metrics *metrics.Recorder
	store   *meterdb.Store
	archive *archive.Store
	now     func() time.Time

	mu        sync.Mutex
	stateMu   sync.RWMutex
	current   *Result
	listeners []func(*Result)
}

func NewLoader(cfg *config.AppConfig, log *logger.Logger, rec *metrics.Recorder, opts ...Option) *Loader {
	l := &Loader{
		cfg:     cfg,
		log:     log,
		metrics: rec,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// OnLoad registers fn to be called after every uncached load.
func (l *Loader) OnLoad(fn func(*Result)) {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	l.listeners = append(l.listeners, fn)
}

// Current returns the latest result, or a loading status before the first load.
func (l *Loader) Current() *Result {
	l.stateMu.RLock()
	defer l.stateMu.RUnlock()
	if l.current == nil {
		return &Result{Status: Status{Kind: StatusLoading}}
	}
	return l.current
}

// Invalidate drops the cached result so the next load rebuilds everything.
func (l *Loader) Invalidate() {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	if l.current != nil {
		stale := *l.current
		stale.Fingerprint = ""
		l.current = &stale
	}
}

// Load runs the pipeline unless the sources are unchanged since the last
// successful load. A failed load is returned together with its error and
// becomes the current result. A cancelled load changes nothing: the previous
// result stays current and listeners are not called.
func (l *Loader) Load(ctx context.Context) (*Result, error) {
	l.mu.Lock()
	res, publish, err := l.load(ctx)
	l.mu.Unlock()

	if publish {
		l.stateMu.Lock()
		l.current = res
		listeners := append([]func(*Result){}, l.listeners...)
		l.stateMu.Unlock()
		for _, fn := range listeners {
			fn(res)
		}
	}
	return res, err
}

func (l *Loader) load(ctx context.Context) (*Result, bool, error) {
	if err := l.extract(); err != nil {
		l.log.Warn("Failed to extract production archives", logger.Err(err))
	}

	fingerprint, err := l.fingerprint()
	if err != nil {
		l.log.Warn("Failed to fingerprint sources", logger.Err(err))
	}
	prev := l.Current()
	if fingerprint != "" && prev.Fingerprint == fingerprint && prev.Status.Kind != StatusFailed {
		l.metrics.RecordCacheHit()
		hit := *prev
		hit.Cached = true
		l.log.Debug("Sources unchanged, serving cached result", logger.String("fingerprint", fingerprint))
		return &hit, false, nil
	}

	started := l.now()
	res, err := l.build(ctx)
	if isCancellation(err) {
		l.log.Warn("Pipeline load cancelled, keeping previous result", logger.Err(err))
		return prev, false, err
	}
	res.Status.RunID = uuid.New()
	res.LoadedAt = l.now()
	res.Step = l.cfg.TargetStep()
	if err != nil {
		res.Status.Kind = StatusFailed
		res.Status.Error = err.Error()
	} else {
		res.Fingerprint = fingerprint
	}

	took := l.now().Sub(started)
	l.record(ctx, res, started)
	l.metrics.RecordLoad(string(res.Status.Kind), took)

	if err != nil {
		l.log.Error("Pipeline load failed",
			logger.String("run_id", res.Status.RunID.String()),
			logger.Err(err),
		)
		return res, true, err
	}
	l.log.Info("Pipeline loaded",
		logger.String("run_id", res.Status.RunID.String()),
		logger.String("status", string(res.Status.Kind)),
		logger.Int("rows", res.Status.Rows),
		logger.Int("consumption_skipped", res.ConsumptionStats.Skipped),
		logger.Int("production_skipped", res.ProductionStats.Skipped),
		logger.Duration("took", took),
	)
	return res, true, nil
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// build parses, aligns and merges both sources. Nothing is written to disk
// once ctx is done.
func (l *Loader) build(ctx context.Context) (*Result, error) {
	res := &Result{Merged: types.MergedTable{}}
	target := l.cfg.TargetStep()

	cons, cstats, err := rawsource.ParseConsumptionFile(l.cfg.Path(l.cfg.Sources.ConsumptionExport))
	res.ConsumptionStats = cstats
	if err != nil {
		return res, fmt.Errorf("failed to parse consumption: %w", err)
	}
	prod, pstats, err := rawsource.ParseProductionDir(l.cfg.Path(l.cfg.Sources.ProductionDir), l.cfg.Sources.ProductionPatterns...)
	res.ProductionStats = pstats
	if err != nil {
		return res, fmt.Errorf("failed to parse production: %w", err)
	}
	l.metrics.RecordSkipped("consumption", cstats.Skipped)
	l.metrics.RecordSkipped("production", pstats.Skipped)

	if err := ctx.Err(); err != nil {
		return res, err
	}

	res.Consumption, err = toGrid(cons, l.cfg.ConsumptionStep(), target)
	if err != nil {
		return res, fmt.Errorf("failed to align consumption: %w", err)
	}
	res.Production, err = toGrid(prod, l.cfg.ProductionStep(), target)
	if err != nil {
		return res, fmt.Errorf("failed to align production: %w", err)
	}

	res.Merged = merger.Merge(res.Consumption, res.Production)
	res.Status.Rows = len(res.Merged)
	if len(res.Merged) == 0 {
		res.Status.Kind = StatusEmpty
	} else {
		res.Status.Kind = StatusReady
		res.Status.From, res.Status.To, _ = res.Merged.Bounds()
	}

	if err := ctx.Err(); err != nil {
		return res, err
	}
	if err := l.persist(cons, prod, res); err != nil {
		return res, err
	}
	l.metrics.RecordRows("consumption", len(res.Consumption))
	l.metrics.RecordRows("production", len(res.Production))
	l.metrics.RecordRows("merged", len(res.Merged))
	return res, nil
}

// toGrid converts a source series to the target frequency on a complete grid.
// An empty source yields an empty grid.
func toGrid(s types.Series, from, to time.Duration) (types.Series, error) {
	grid, err := timegrid.Normalize(s, from)
	if errors.Is(err, timegrid.ErrEmptySeries) {
		return types.Series{}, nil
	}
	if err != nil {
		return nil, err
	}
	converted, err := timegrid.Convert(grid, from, to)
	if err != nil {
		return nil, err
	}
	return timegrid.Normalize(converted, to)
}

// persist writes the parsed sources as read, the aligned grids and the merged table.
func (l *Loader) persist(cons, prod types.Series, res *Result) error {
	p := l.cfg.Pipeline
	series := []struct {
		path   string
		column string
		data   types.Series
	}{
		{p.CleanConsumption, tablestore.ConsumptionColumn, cons},
		{p.CleanProduction, tablestore.ProductionColumn, prod},
		{p.GridConsumption, tablestore.ConsumptionColumn, res.Consumption},
		{p.GridProduction, tablestore.ProductionColumn, res.Production},
	}
	for _, s := range series {
		if s.path == "" {
			continue
		}
		if err := tablestore.WriteSeries(l.cfg.Path(s.path), s.column, s.data); err != nil {
			return err
		}
	}
	return tablestore.WriteMerged(l.cfg.Path(p.Merged), res.Merged)
}

func (l *Loader) record(ctx context.Context, res *Result, started time.Time) {
	if l.store == nil {
		return
	}
	if res.Status.Kind != StatusFailed {
		if err := l.store.ReplaceMerged(ctx, res.Merged); err != nil {
			l.log.Warn("Failed to mirror merged table", logger.Err(err))
		}
	}
	run := &meterdb.MeterDbLoadRun{
		RunID:       res.Status.RunID.String(),
		StartedAt:   started.Unix(),
		FinishedAt:  res.LoadedAt.Unix(),
		Status:      string(res.Status.Kind),
		Rows:        res.Status.Rows,
		Message:     res.Status.Error,
		Fingerprint: res.Fingerprint,
	}
	if err := l.store.RecordRun(ctx, run); err != nil {
		l.log.Warn("Failed to record load run", logger.Err(err))
	}
}

func (l *Loader) extract() error {
	prodDir := l.cfg.Path(l.cfg.Sources.ProductionDir)
	var errs []error
	if l.cfg.Sources.IncomingArchiveDir != "" {
		n, err := rawsource.ExtractArchives(l.cfg.Path(l.cfg.Sources.IncomingArchiveDir), prodDir)
		if err != nil {
			errs = append(errs, err)
		} else if n > 0 {
			l.log.Debug("Extracted incoming archives", logger.Int("files", n))
		}
	}
	if l.archive != nil {
		n, err := l.archive.ExtractAll(prodDir)
		if err != nil {
			errs = append(errs, err)
		} else if n > 0 {
			l.log.Debug("Extracted daily archive", logger.Int("files", n))
		}
	}
	return errors.Join(errs...)
}

func (l *Loader) fingerprint() (string, error) {
	paths := []string{l.cfg.Path(l.cfg.Sources.ConsumptionExport)}
	prodDir := l.cfg.Path(l.cfg.Sources.ProductionDir)
	files, err := rawsource.MatchProductionFiles(prodDir, l.cfg.Sources.ProductionPatterns...)
	if err != nil {
		return "", err
	}
	paths = append(paths, files...)
	fp, err := Fingerprint(paths...)
	if err != nil {
		return "", err
	}
	// Settings that change the output are part of the key.
	return fmt.Sprintf("%s@%s/%s/%s", fp, l.cfg.ConsumptionStep(), l.cfg.ProductionStep(), l.cfg.TargetStep()), nil
}
