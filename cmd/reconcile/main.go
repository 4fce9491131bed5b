// Reconcile runs the pipeline once and prints the resulting summary.
// With -stored it skips the pipeline and reads the last persisted merged table.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/NotCoffee418/conso_prod_reconciler/pkg/archive"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/config"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/logger"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/meterdb"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/metrics"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/pathing"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/pipeline"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/presentation"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/tablestore"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/types"
)

var (
	configPath = flag.String("config", pathing.GetConfigPath(), "path to the TOML config")
	mode       = flag.String("mode", "classic", "display mode: classic, day, week or month")
	from       = flag.String("from", "", "classic mode start, YYYY-MM-DD")
	to         = flag.String("to", "", "classic mode end, YYYY-MM-DD")
	day        = flag.String("day", "", "day mode date, YYYY-MM-DD")
	period     = flag.String("period", "all", "week or month start, YYYY-MM-DD, or all")
	stored     = flag.Bool("stored", false, "read the persisted merged table instead of reloading the sources")
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

	var store *meterdb.Store
	if cfg.Database.Enabled {
		store, err = meterdb.Open(cfg.Path(cfg.Database.Path))
		if err != nil {
			appLog.Error("Failed to open database", logger.Err(err))
			return 1
		}
		defer store.Close()
	}

	ctx := context.Background()
	var table types.MergedTable
	if *stored {
		table, err = readStored(ctx, cfg, store)
		if err != nil {
			appLog.Error("Failed to read stored merged table", logger.Err(err))
			return 1
		}
		appLog.Info("Read stored merged table", logger.Int("rows", len(table)))
	} else {
		opts := []pipeline.Option{
			pipeline.WithArchive(archive.New(cfg.Path(cfg.Sources.ProductionArchive))),
		}
		if store != nil {
			opts = append(opts, pipeline.WithStore(store))
		}
		loader := pipeline.NewLoader(cfg, appLog, metrics.New(), opts...)
		res, err := loader.Load(ctx)
		fmt.Println(presentation.StatusMessage(res.Status))
		if err != nil {
			return 1
		}
		table = res.Merged
	}

	params := map[string]string{"from": *from, "to": *to, "day": *day, "period": *period}
	displayMode, err := presentation.ParseMode(*mode, func(k string) string { return params[k] })
	if err != nil {
		appLog.Error("Invalid display mode", logger.Err(err))
		return 1
	}
	view, err := presentation.BuildView(table, displayMode, cfg.TargetStep())
	if err != nil {
		appLog.Error("Failed to build view", logger.Err(err))
		return 1
	}
	if view.Empty {
		fmt.Println(view.Message)
		return 0
	}

	fmt.Printf("\n%s - %s\n", presentation.FormatDate(view.From, presentation.LayoutDateTime), presentation.FormatDate(view.To, presentation.LayoutDateTime))
	for _, ind := range view.Info {
		fmt.Printf("  %-30s %s\n", ind.Label, ind.Value)
	}
	for _, b := range view.Buckets {
		fmt.Printf("  %-45s %10.0f W %10.0f W\n", b.Label, b.Consumption, b.Production)
	}
	return 0
}

// readStored prefers the SQLite mirror and falls back to the merged CSV.
func readStored(ctx context.Context, cfg *config.AppConfig, store *meterdb.Store) (types.MergedTable, error) {
	if store != nil {
		return store.ReadMerged(ctx, time.Time{}, time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC))
	}
	return tablestore.ReadMerged(cfg.Path(cfg.Pipeline.Merged))
}
