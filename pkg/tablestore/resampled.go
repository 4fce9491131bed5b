package tablestore

import (
	"errors"
	"sync"
	"time"

	"github.com/NotCoffee418/conso_prod_reconciler/pkg/rawsource"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/timegrid"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/types"
)

// Serializes writers of the resampled files.
var appendMu sync.Mutex

// AppendResampled averages fresh readings into 30 minute and hourly buckets
// and merges them into the two files. On overlapping timestamps the fresh
// values replace what was stored.
func AppendResampled(fresh types.Series, path30, path60, column string) error {
	appendMu.Lock()
	defer appendMu.Unlock()

	half, err := timegrid.Downsample(fresh, 30*time.Minute)
	if err != nil {
		return err
	}
	hourly, err := timegrid.Downsample(fresh, time.Hour)
	if err != nil {
		return err
	}
	onTheHour := make(types.Series, 0, len(hourly))
	for _, r := range hourly {
		if r.Timestamp.Minute() == 0 {
			onTheHour = append(onTheHour, r)
		}
	}

	if err := appendTo(path30, column, half); err != nil {
		return err
	}
	return appendTo(path60, column, onTheHour)
}

func appendTo(path, column string, fresh types.Series) error {
	existing, err := ReadSeries(path, column)
	if err != nil && !errors.Is(err, rawsource.ErrMissingSource) {
		return err
	}
	combined := make(types.Series, 0, len(existing)+len(fresh))
	combined = append(combined, existing...)
	combined = append(combined, fresh...)
	return WriteSeries(path, column, combined.SortAndDedup())
}

// HasFullDay reports whether day is already covered: all 24 hourly stamps in
// the hourly file and at least one row per hour in the 30 minute file.
func HasFullDay(path30, path60, column string, day time.Time) (bool, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	hourly, err := ReadSeries(path60, column)
	if errors.Is(err, rawsource.ErrMissingSource) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	stamps := make(map[int64]bool)
	for _, r := range hourly {
		stamps[r.Timestamp.Unix()] = true
	}
	for h := 0; h < 24; h++ {
		if !stamps[start.Add(time.Duration(h)*time.Hour).Unix()] {
			return false, nil
		}
	}

	half, err := ReadSeries(path30, column)
	if errors.Is(err, rawsource.ErrMissingSource) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	hours := make(map[int]bool)
	for _, r := range half {
		if !r.Timestamp.Before(start) && r.Timestamp.Before(end) {
			hours[r.Timestamp.Hour()] = true
		}
	}
	return len(hours) == 24, nil
}
