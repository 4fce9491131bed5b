// Package tablestore reads and writes the semicolon delimited tables
// persisted between pipeline stages.
package tablestore

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/NotCoffee418/conso_prod_reconciler/pkg/pathing"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/rawsource"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/types"
)

const (
	DateTimeColumn = "datetime"
	DateTimeLayout = "2006-01-02 15:04:05"

	ConsumptionColumn = "consommation"
	ProductionColumn  = "production"
	TotalColumn       = "total"
)

var ErrMissingColumn = errors.New("missing column")

// WriteSeries overwrites path with a datetime column and one value column.
func WriteSeries(path, column string, s types.Series) error {
	rows := make([][]string, 0, len(s)+1)
	rows = append(rows, []string{DateTimeColumn, column})
	for _, r := range s {
		rows = append(rows, []string{formatTime(r.Timestamp), formatValue(r.Value)})
	}
	return writeAtomic(path, rows)
}

// ReadSeries loads a table written by WriteSeries. Rows that do not parse are dropped.
func ReadSeries(path, column string) (types.Series, error) {
	header, records, err := readTable(path)
	if err != nil {
		return nil, err
	}
	tsIdx, valIdx := indexOf(header, DateTimeColumn), indexOf(header, column)
	if tsIdx < 0 || valIdx < 0 {
		return nil, fmt.Errorf("%w: %s in %s", ErrMissingColumn, column, filepath.Base(path))
	}

	out := make(types.Series, 0, len(records))
	for _, rec := range records {
		ts, ok := parseTime(field(rec, tsIdx))
		if !ok {
			continue
		}
		v, ok := parseValue(field(rec, valIdx))
		if !ok {
			continue
		}
		out = append(out, types.Reading{Timestamp: ts, Value: v})
	}
	return out.SortAndDedup(), nil
}

func WriteMerged(path string, t types.MergedTable) error {
	rows := make([][]string, 0, len(t)+1)
	rows = append(rows, []string{DateTimeColumn, ConsumptionColumn, ProductionColumn, TotalColumn})
	for _, r := range t {
		rows = append(rows, []string{
			formatTime(r.Timestamp),
			formatValue(r.Consumption),
			formatValue(r.Production),
			formatValue(r.Total),
		})
	}
	return writeAtomic(path, rows)
}

// ReadMerged loads the merged table. Missing numbers become 0.
func ReadMerged(path string) (types.MergedTable, error) {
	header, records, err := readTable(path)
	if err != nil {
		return nil, err
	}
	idx := map[string]int{}
	for _, col := range []string{DateTimeColumn, ConsumptionColumn, ProductionColumn, TotalColumn} {
		i := indexOf(header, col)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s in %s", ErrMissingColumn, col, filepath.Base(path))
		}
		idx[col] = i
	}

	out := make(types.MergedTable, 0, len(records))
	for _, rec := range records {
		ts, ok := parseTime(field(rec, idx[DateTimeColumn]))
		if !ok {
			continue
		}
		c, _ := parseValue(field(rec, idx[ConsumptionColumn]))
		p, _ := parseValue(field(rec, idx[ProductionColumn]))
		total, _ := parseValue(field(rec, idx[TotalColumn]))
		out = append(out, types.MergedRecord{Timestamp: ts, Consumption: c, Production: p, Total: total})
	}
	return out, nil
}

func readTable(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("%w: %s", rawsource.ErrMissingSource, path)
		}
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("%w: %s is empty", ErrMissingColumn, filepath.Base(path))
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	records := make([][]string, 0)
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		records = append(records, rec)
	}
	return header, records, nil
}

// writeAtomic writes rows to a temporary file then renames it over path.
func writeAtomic(path string, rows [][]string) error {
	if err := pathing.EnsureParentDirs(path); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	w.Comma = ';'
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

func field(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func formatTime(t time.Time) string {
	return t.Format(DateTimeLayout)
}

func parseTime(raw string) (time.Time, bool) {
	for _, layout := range []string{DateTimeLayout, "2006-01-02 15:04", "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseValue(raw string) (float64, bool) {
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
