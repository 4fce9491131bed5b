package rawsource

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/NotCoffee418/conso_prod_reconciler/pkg/types"
)

const (
	ProductionTimeColumn  = "Time"
	ProductionValueColumn = "Production (W)"
)

// DefaultProductionPatterns match station exports and files extracted from archives.
var DefaultProductionPatterns = []string{"station_power_data_*.csv", "prod_*.csv"}

var productionLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
}

var errMissingColumns = errors.New("missing production columns")

// ParseProductionDir parses every file in dir matching one of patterns.
// Files are read in lexical order and on identical timestamps the last
// file wins. No matching file yields an empty series.
func ParseProductionDir(dir string, patterns ...string) (types.Series, ParseStats, error) {
	var stats ParseStats
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, stats, fmt.Errorf("%w: %s", ErrMissingSource, dir)
		}
		return nil, stats, fmt.Errorf("failed to stat production directory: %w", err)
	}
	if !info.IsDir() {
		return nil, stats, fmt.Errorf("%w: %s is not a directory", ErrMissingSource, dir)
	}

	files, err := MatchProductionFiles(dir, patterns...)
	if err != nil {
		return nil, stats, err
	}

	all := make(types.Series, 0)
	for _, path := range files {
		readings, fileStats, err := parseProductionFile(path)
		stats.add(fileStats)
		if errors.Is(err, errMissingColumns) {
			stats.Skipped++
			continue
		}
		if err != nil {
			return nil, stats, err
		}
		all = append(all, readings...)
	}

	series := all.SortAndDedup()
	stats.Accepted = len(series)
	return series, stats, nil
}

// MatchProductionFiles lists the files of dir matching any pattern, sorted.
func MatchProductionFiles(dir string, patterns ...string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = DefaultProductionPatterns
	}
	seen := make(map[string]bool)
	files := make([]string, 0)
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("invalid production file pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

func parseProductionFile(path string) (types.Series, ParseStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ParseStats{}, fmt.Errorf("failed to open production file: %w", err)
	}
	defer f.Close()

	series, stats, err := ParseProduction(f)
	stats.Files = 1
	if err != nil {
		return nil, stats, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return series, stats, nil
}

// ParseProduction reads one comma separated station export.
// Rows keep their file order; the caller sorts.
func ParseProduction(r io.Reader) (types.Series, ParseStats, error) {
	var stats ParseStats
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return types.Series{}, stats, nil
	}
	if err != nil {
		return nil, stats, fmt.Errorf("failed to read production header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	timeIdx, okTime := columns[ProductionTimeColumn]
	valueIdx, okValue := columns[ProductionValueColumn]
	if !okTime || !okValue {
		return nil, stats, errMissingColumns
	}

	readings := make(types.Series, 0)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		stats.Lines++
		if err != nil {
			stats.Skipped++
			continue
		}
		if timeIdx >= len(record) || valueIdx >= len(record) {
			stats.Skipped++
			continue
		}
		ts, ok := parseProductionTime(record[timeIdx])
		if !ok {
			stats.Skipped++
			continue
		}
		value, ok := parseValue(record[valueIdx])
		if !ok {
			stats.Skipped++
			continue
		}
		readings = append(readings, types.Reading{Timestamp: ts, Value: value})
		stats.Accepted++
	}
	return readings, stats, nil
}

func parseProductionTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range productionLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return types.Naive(t), true
	}
	return time.Time{}, false
}
