// Daily collector archives raw production days and refreshes the resampled
// production files. Meant to run once a day, for instance from cron.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NotCoffee418/conso_prod_reconciler/pkg/archive"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/collector"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/config"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/logger"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/metrics"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/pathing"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/pipeline"
)

var (
	configPath = flag.String("config", pathing.GetConfigPath(), "path to the TOML config")
	from       = flag.String("from", "", "first day to collect, YYYY-MM-DD (default the day after the last archived day, or yesterday)")
	to         = flag.String("to", "", "last day to collect, YYYY-MM-DD (default yesterday, or from when from is set)")
	reload     = flag.Bool("reload", true, "rebuild the reconciled tables when new days were archived")
)

func main() {
	flag.Parse()
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		return 1
	}
	appLog, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		log.Printf("Failed to create logger: %v", err)
		return 1
	}

	rec := metrics.New()
	c, err := collector.NewFromConfig(cfg, appLog, rec)
	if err != nil {
		appLog.Error("Failed to create collector", logger.Err(err))
		return 1
	}

	lastArchived, _, err := c.LastArchivedDay()
	if err != nil {
		appLog.Error("Failed to read production archive", logger.Err(err))
		return 1
	}
	first, last, err := dayRange(*from, *to, time.Now(), lastArchived)
	if err != nil {
		appLog.Error("Invalid day range", logger.Err(err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	added, err := c.UpdateRange(ctx, first, last)
	appLog.Info("Collection finished",
		logger.Time("from", first),
		logger.Time("to", last),
		logger.Int("added", added),
	)

	if added > 0 && *reload {
		a := archive.New(cfg.Path(cfg.Sources.ProductionArchive))
		loader := pipeline.NewLoader(cfg, appLog, rec, pipeline.WithArchive(a))
		if _, loadErr := loader.Load(ctx); loadErr != nil {
			appLog.Error("Reload after collection failed", logger.Err(loadErr))
		}
	}

	if err != nil {
		appLog.Error("Some days could not be collected", logger.Err(err))
		return 1
	}
	return 0
}

// dayRange resolves the days to collect. Without from, collection resumes
// the day after lastArchived and never starts later than yesterday.
func dayRange(from, to string, now, lastArchived time.Time) (time.Time, time.Time, error) {
	yesterday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)

	first, last := yesterday, yesterday
	if from != "" {
		t, err := time.Parse(time.DateOnly, from)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		first, last = t, t
	} else if !lastArchived.IsZero() {
		next := lastArchived.AddDate(0, 0, 1)
		if next.Before(yesterday) {
			first = next
		}
	}
	if to != "" {
		t, err := time.Parse(time.DateOnly, to)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		last = t
	}
	return first, last, nil
}
