package aggregator

import (
	"sort"
	"time"

	"github.com/NotCoffee418/conso_prod_reconciler/pkg/types"
)

// roundToHourStart returns the start of the hour for the given time
func roundToHourStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC)
}

// roundToDayStart returns the start of the day for the given time
func roundToDayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// roundToWeekStart returns Monday 00:00 of the ISO week holding t
func roundToWeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return roundToDayStart(t).AddDate(0, 0, -offset)
}

// roundToMonthStart returns the first day of the month for the given time
func roundToMonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// PeriodStart floors t to the start of its period.
func PeriodStart(t time.Time, g Granularity) (time.Time, error) {
	switch g {
	case Hour:
		return roundToHourStart(t), nil
	case Day:
		return roundToDayStart(t), nil
	case Week:
		return roundToWeekStart(t), nil
	case Month:
		return roundToMonthStart(t), nil
	}
	return time.Time{}, ErrUnsupportedGranularity
}

// PeriodEnd returns the last second of the period starting at start.
func PeriodEnd(start time.Time, g Granularity) time.Time {
	var next time.Time
	switch g {
	case Hour:
		next = start.Add(time.Hour)
	case Day:
		next = start.AddDate(0, 0, 1)
	case Week:
		next = start.AddDate(0, 0, 7)
	default:
		next = time.Date(start.Year(), start.Month()+1, 1, 0, 0, 0, 0, time.UTC)
	}
	return next.Add(-time.Second)
}

// ExtractPeriods lists the distinct weeks or months present in the table,
// sorted ascending.
func ExtractPeriods(table types.MergedTable, g Granularity) ([]Period, error) {
	if g != Week && g != Month {
		return nil, ErrUnsupportedGranularity
	}
	totals, err := Aggregate(table, g)
	if err != nil {
		return nil, err
	}
	periods := make([]Period, 0, len(totals))
	for _, pt := range totals {
		periods = append(periods, pt.Period)
	}
	return periods, nil
}

// Aggregate sums consumption, production and total per period.
// Periods without records are absent.
func Aggregate(table types.MergedTable, g Granularity) ([]PeriodTotal, error) {
	byStart := make(map[int64]*PeriodTotal)
	for _, r := range table {
		start, err := PeriodStart(r.Timestamp, g)
		if err != nil {
			return nil, err
		}
		pt, ok := byStart[start.Unix()]
		if !ok {
			pt = &PeriodTotal{Period: Period{Start: start, End: PeriodEnd(start, g)}}
			byStart[start.Unix()] = pt
		}
		pt.Consumption += r.Consumption
		pt.Production += r.Production
		pt.Total += r.Total
		pt.SampleCount++
	}

	out := make([]PeriodTotal, 0, len(byStart))
	for _, pt := range byStart {
		out = append(out, *pt)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out, nil
}
