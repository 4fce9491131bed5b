package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/NotCoffee418/conso_prod_reconciler/pkg/presentation"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func weekTable() types.MergedTable {
	table := types.MergedTable{}
	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	for ts := start; ts.Before(start.AddDate(0, 0, 14)); ts = ts.Add(time.Hour) {
		table = append(table, types.MergedRecord{Timestamp: ts, Consumption: 800, Production: 200, Total: 1000})
	}
	return table
}

func buildView(t *testing.T, mode presentation.DisplayMode) presentation.View {
	t.Helper()
	view, err := presentation.BuildView(weekTable(), mode, time.Hour)
	require.NoError(t, err)
	return view
}

func TestBuildXLSX(t *testing.T) {
	view := buildView(t, presentation.Weekly{All: true})
	data, err := BuildXLSX(view)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SummarySheet, DataSheet, PeriodSheet}, f.GetSheetList())

	title, err := f.GetCellValue(SummarySheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, Title, title)

	rows, err := f.GetRows(DataSheet)
	require.NoError(t, err)
	require.Len(t, rows, len(view.Rows)+1)
	assert.Equal(t, []string{"datetime", "consommation", "production", "total"}, rows[0])
	assert.Equal(t, []string{"2025-01-06 00:00", "800", "200", "1000"}, rows[1])

	periods, err := f.GetRows(PeriodSheet)
	require.NoError(t, err)
	require.Len(t, periods, 3)
	assert.Equal(t, "Semaine du 6 janvier au 12 janvier 2025", periods[1][0])
}

func TestBuildXLSX_EmptyView(t *testing.T) {
	view, err := presentation.BuildView(types.MergedTable{}, presentation.Monthly{All: true}, time.Hour)
	require.NoError(t, err)

	data, err := BuildXLSX(view)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	label, err := f.GetCellValue(SummarySheet, "A3")
	require.NoError(t, err)
	assert.Equal(t, presentation.NoDataMessage, label)
}

func TestBuildPDF(t *testing.T) {
	for _, mode := range []presentation.DisplayMode{
		presentation.Weekly{All: true},
		presentation.ClassicRange{},
	} {
		data, err := BuildPDF(buildView(t, mode))
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")), mode.Name())
	}

	empty, err := presentation.BuildView(types.MergedTable{}, presentation.Weekly{All: true}, time.Hour)
	require.NoError(t, err)
	data, err := BuildPDF(empty)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestFileName(t *testing.T) {
	view := buildView(t, presentation.Monthly{All: true})
	assert.Equal(t, "rapport_month_2025-01-06_2025-01-19.xlsx", FileName(view, "xlsx"))
	assert.Equal(t, "rapport_week.pdf", FileName(presentation.View{Mode: "week", Empty: true}, "pdf"))
}
