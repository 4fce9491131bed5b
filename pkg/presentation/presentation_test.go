package presentation

import (
	"errors"
	"testing"
	"time"

	"github.com/NotCoffee418/conso_prod_reconciler/pkg/aggregator"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/pipeline"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(y int, m time.Month, day, h, min int) time.Time {
	return time.Date(y, m, day, h, min, 0, 0, time.UTC)
}

// Half-hourly records over 2025-01-30 .. 2025-02-04, 1000 W consumption, 500 W production.
func sampleTable() types.MergedTable {
	table := types.MergedTable{}
	for t := d(2025, 1, 30, 0, 0); t.Before(d(2025, 2, 5, 0, 0)); t = t.Add(30 * time.Minute) {
		table = append(table, types.MergedRecord{Timestamp: t, Consumption: 1000, Production: 500, Total: 1500})
	}
	return table
}

func TestFormatDate(t *testing.T) {
	ts := d(2025, 8, 3, 9, 5)
	assert.Equal(t, "3 août", FormatDate(ts, LayoutDayMonth))
	assert.Equal(t, "3 août 2025", FormatDate(ts, LayoutDate))
	assert.Equal(t, "août 2025", FormatDate(ts, LayoutMonth))
	assert.Equal(t, "dimanche 3 août 2025", FormatDate(ts, LayoutLongDate))
	assert.Equal(t, "3 août 2025 09:05", FormatDate(ts, LayoutDateTime))
}

func TestPeriodLabels(t *testing.T) {
	assert.Equal(t, "Semaine du 6 janvier au 12 janvier 2025", WeekLabel(d(2025, 1, 6, 0, 0)))
	assert.Equal(t, "Semaine du 29 décembre au 4 janvier 2026", WeekLabel(d(2025, 12, 29, 0, 0)))
	assert.Equal(t, "Mois de février 2025", MonthLabel(d(2025, 2, 1, 0, 0)))
	assert.Equal(t, "Mois de mars 2025", PeriodLabel(d(2025, 3, 1, 0, 0), aggregator.Month))
}

func TestParseMode(t *testing.T) {
	params := func(kv map[string]string) func(string) string {
		return func(k string) string { return kv[k] }
	}

	m, err := ParseMode("classic", params(map[string]string{"from": "2025-01-01", "to": "2025-01-31"}))
	require.NoError(t, err)
	assert.Equal(t, ClassicRange{From: d(2025, 1, 1, 0, 0), To: d(2025, 1, 31, 0, 0)}, m)

	m, err = ParseMode("day", params(map[string]string{"day": "2025-02-01", "start": "08:00", "end": "18:30"}))
	require.NoError(t, err)
	assert.Equal(t, SingleDay{Day: d(2025, 2, 1, 0, 0), StartClock: 8 * time.Hour, EndClock: 18*time.Hour + 30*time.Minute}, m)

	m, err = ParseMode("week", params(map[string]string{"period": "toutes"}))
	require.NoError(t, err)
	assert.Equal(t, Weekly{All: true}, m)

	m, err = ParseMode("mensuel", params(map[string]string{"period": "2025-02-01"}))
	require.NoError(t, err)
	assert.Equal(t, Monthly{Start: d(2025, 2, 1, 0, 0)}, m)

	_, err = ParseMode("yearly", params(nil))
	assert.ErrorIs(t, err, ErrUnknownMode)

	_, err = ParseMode("day", params(map[string]string{"start": "25:00"}))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestBuildView_ClassicRangeCoversWholeDays(t *testing.T) {
	table := sampleTable()
	view, err := BuildView(table, ClassicRange{From: d(2025, 1, 31, 0, 0), To: d(2025, 2, 1, 0, 0)}, 30*time.Minute)
	require.NoError(t, err)

	assert.Equal(t, d(2025, 1, 31, 0, 0), view.From)
	assert.Equal(t, time.Date(2025, 2, 1, 23, 59, 59, 0, time.UTC), view.To)
	assert.Len(t, view.Rows, 96)
	assert.Equal(t, 48.0, view.Summary.ConsumptionKWh)
	assert.Equal(t, 2, view.Summary.AnalysedDays)
	assert.Equal(t, "day", view.AverageBy)
	assert.Equal(t, 24.0, view.Averages.ConsumptionKWh)
	assert.False(t, view.Empty)
	assert.Len(t, table, 288, "input table must not change")
}

func TestBuildView_ClassicRangeRejectsReversedDates(t *testing.T) {
	_, err := BuildView(sampleTable(), ClassicRange{From: d(2025, 2, 3, 0, 0), To: d(2025, 2, 1, 0, 0)}, 30*time.Minute)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestBuildView_SingleDayHours(t *testing.T) {
	mode := NewSingleDay(d(2025, 2, 2, 0, 0))
	mode.StartClock = 8 * time.Hour
	mode.EndClock = 10 * time.Hour
	view, err := BuildView(sampleTable(), mode, 30*time.Minute)
	require.NoError(t, err)
	assert.Len(t, view.Rows, 5)
	assert.Equal(t, "hour", view.AverageBy)
}

func TestBuildView_WeeklyAllHasBucketsAndOptions(t *testing.T) {
	view, err := BuildView(sampleTable(), Weekly{All: true}, 30*time.Minute)
	require.NoError(t, err)
	require.Len(t, view.Buckets, 2)
	assert.Equal(t, "Semaine du 27 janvier au 2 février 2025", view.Buckets[0].Label)
	assert.Equal(t, 4*48, view.Buckets[0].SampleCount)
	require.Len(t, view.Options, 2)
	assert.Equal(t, d(2025, 2, 3, 0, 0), view.Options[1].Start)
}

func TestBuildView_SingleWeekOutsideDataIsEmpty(t *testing.T) {
	view, err := BuildView(sampleTable(), Weekly{Start: d(2025, 6, 4, 0, 0)}, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, d(2025, 6, 2, 0, 0), view.From)
	assert.True(t, view.Empty)
	assert.Equal(t, NoDataMessage, view.Message)
}

func TestBuildView_MonthlySingleMonth(t *testing.T) {
	view, err := BuildView(sampleTable(), Monthly{Start: d(2025, 1, 15, 0, 0)}, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, d(2025, 1, 1, 0, 0), view.From)
	assert.Len(t, view.Rows, 2*48)
	assert.Equal(t, "week", view.AverageBy)
	assert.Empty(t, view.Buckets)
	assert.Len(t, view.Options, 2)
}

func TestBuildView_EmptyTable(t *testing.T) {
	view, err := BuildView(nil, Monthly{All: true}, 30*time.Minute)
	require.NoError(t, err)
	assert.True(t, view.Empty)
	assert.NotNil(t, view.Rows)
	assert.Equal(t, []Indicator{{Label: NoDataMessage, Value: "-"}}, view.Info)
}

func TestStatusMessage(t *testing.T) {
	assert.Equal(t, "Chargement et fusion des données...", StatusMessage(pipeline.Status{Kind: pipeline.StatusLoading}))
	assert.Equal(t,
		"Données du mercredi 1 janvier 2025 au vendredi 31 janvier 2025 chargées et fusionnées avec succès !",
		StatusMessage(pipeline.Status{Kind: pipeline.StatusReady, From: d(2025, 1, 1, 0, 0), To: d(2025, 1, 31, 23, 30)}))
	assert.Contains(t, StatusMessage(pipeline.Status{Kind: pipeline.StatusFailed, Error: errors.New("source not found").Error()}), "source not found")
	assert.Contains(t, StatusMessage(pipeline.Status{Kind: pipeline.StatusEmpty}), NoDataMessage)
}
