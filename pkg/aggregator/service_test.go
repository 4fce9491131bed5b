package aggregator

import (
	"testing"
	"time"

	"github.com/NotCoffee418/conso_prod_reconciler/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

func rec(t time.Time, c, p float64) types.MergedRecord {
	total := 0.0
	if c != 0 {
		total = c + p
	}
	return types.MergedRecord{Timestamp: t, Consumption: c, Production: p, Total: total}
}

func TestPeriodStart(t *testing.T) {
	// 2025-01-01 is a Wednesday
	wed := date(2025, 1, 1, 13, 45)
	week, err := PeriodStart(wed, Week)
	require.NoError(t, err)
	assert.Equal(t, date(2024, 12, 30, 0, 0), week)

	sunday := date(2025, 1, 5, 23, 30)
	week, err = PeriodStart(sunday, Week)
	require.NoError(t, err)
	assert.Equal(t, date(2024, 12, 30, 0, 0), week)

	month, err := PeriodStart(wed, Month)
	require.NoError(t, err)
	assert.Equal(t, date(2025, 1, 1, 0, 0), month)

	_, err = PeriodStart(wed, Granularity(42))
	assert.ErrorIs(t, err, ErrUnsupportedGranularity)
}

func TestPeriodEnd(t *testing.T) {
	assert.Equal(t, time.Date(2025, 1, 5, 23, 59, 59, 0, time.UTC), PeriodEnd(date(2024, 12, 30, 0, 0), Week))
	assert.Equal(t, time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC), PeriodEnd(date(2024, 2, 1, 0, 0), Month))
	assert.Equal(t, time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC), PeriodEnd(date(2025, 12, 1, 0, 0), Month))
}

func TestExtractPeriods(t *testing.T) {
	table := types.MergedTable{
		rec(date(2025, 1, 30, 10, 0), 1, 1),
		rec(date(2025, 1, 31, 10, 0), 1, 1),
		rec(date(2025, 2, 3, 10, 0), 1, 1),
		rec(date(2025, 3, 1, 0, 0), 1, 1),
	}

	weeks, err := ExtractPeriods(table, Week)
	require.NoError(t, err)
	require.Len(t, weeks, 3)
	assert.Equal(t, date(2025, 1, 27, 0, 0), weeks[0].Start)
	assert.Equal(t, date(2025, 2, 3, 0, 0), weeks[1].Start)
	assert.Equal(t, date(2025, 2, 24, 0, 0), weeks[2].Start)

	months, err := ExtractPeriods(table, Month)
	require.NoError(t, err)
	require.Len(t, months, 3)
	assert.Equal(t, date(2025, 2, 1, 0, 0), months[1].Start)

	_, err = ExtractPeriods(table, Day)
	assert.ErrorIs(t, err, ErrUnsupportedGranularity)

	empty, err := ExtractPeriods(nil, Month)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestAggregate_SumsPerPeriod(t *testing.T) {
	table := types.MergedTable{
		rec(date(2025, 1, 1, 0, 0), 100, 30),
		rec(date(2025, 1, 1, 0, 30), 0, 40),
		rec(date(2025, 1, 2, 0, 0), 10, 0),
	}
	days, err := Aggregate(table, Day)
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, 100.0, days[0].Consumption)
	assert.Equal(t, 70.0, days[0].Production)
	assert.Equal(t, 130.0, days[0].Total)
	assert.Equal(t, 2, days[0].SampleCount)
	assert.Equal(t, 10.0, days[1].Total)
}

func TestSummarize(t *testing.T) {
	table := types.MergedTable{
		rec(date(2025, 1, 1, 0, 0), 1000, 500),
		rec(date(2025, 1, 1, 0, 30), 1000, 1500),
		rec(date(2025, 1, 3, 12, 0), 0, 0),
	}
	s := Summarize(table, 30*time.Minute)
	assert.False(t, s.Empty)
	assert.Equal(t, 1.0, s.ConsumptionKWh)
	assert.Equal(t, 1.0, s.ProductionKWh)
	assert.Equal(t, 2.0, s.TotalKWh)
	assert.Equal(t, 100.0, s.SelfConsumptionPct)
	assert.Equal(t, 0.0, s.SurplusPct)
	assert.Equal(t, 3, s.AnalysedDays)
	assert.Equal(t, 1500.0, s.PeakProductionW)

	assert.True(t, Summarize(nil, 30*time.Minute).Empty)
}

func TestSummarize_NoConsumptionAvoidsDivisionByZero(t *testing.T) {
	s := Summarize(types.MergedTable{rec(date(2025, 1, 1, 0, 0), 0, 200)}, time.Hour)
	assert.Equal(t, 0.0, s.SelfConsumptionPct)
	assert.Equal(t, 100.0, s.SurplusPct)
}

func TestComputeAverages(t *testing.T) {
	table := types.MergedTable{
		rec(date(2025, 1, 1, 0, 0), 2000, 0),
		rec(date(2025, 1, 2, 0, 0), 4000, 0),
	}
	avg, err := ComputeAverages(table, Day, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, avg.Buckets)
	assert.Equal(t, 3.0, avg.ConsumptionKWh)
}
