package rawsource

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/NotCoffee418/conso_prod_reconciler/pkg/types"
)

// MinReadingsPerDay is the number of readings below which a whole
// consumption day is considered unreliable and dropped.
const MinReadingsPerDay = 2

// Marks a measured reading, as opposed to an estimated one.
// Exports come either as UTF-8 or Latin-1.
var actualMarkers = []string{"Réelle", "R\xe9elle"}

var clockLayouts = []string{"15:04:05", "15:04"}

func ParseConsumptionFile(path string) (types.Series, ParseStats, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ParseStats{}, fmt.Errorf("%w: %s", ErrMissingSource, path)
		}
		return nil, ParseStats{}, fmt.Errorf("failed to open consumption export: %w", err)
	}
	defer f.Close()

	series, stats, err := ParseConsumption(f)
	stats.Files = 1
	return series, stats, err
}

// ParseConsumption reads the consumption export. Date lines set the day for
// the data lines following them. Lines that do not parse are skipped.
func ParseConsumption(r io.Reader) (types.Series, ParseStats, error) {
	var stats ParseStats
	var currentDate time.Time
	haveDate := false
	readings := make(types.Series, 0)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		stats.Lines++

		switch {
		case isDateLine(line):
			d, err := time.Parse("02/01/2006", strings.TrimSpace(strings.Split(line, ";")[0]))
			if err != nil {
				haveDate = false
				stats.Skipped++
				continue
			}
			currentDate, haveDate = d, true

		case isActualLine(line):
			if !haveDate {
				stats.Skipped++
				continue
			}
			reading, ok := parseDataLine(currentDate, line)
			if !ok {
				stats.Skipped++
				continue
			}
			readings = append(readings, reading)

		default:
			stats.Skipped++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, stats, fmt.Errorf("failed to read consumption export: %w", err)
	}

	series, dropped := dropUnreliableDays(readings.SortAndDedup())
	stats.DroppedDays = dropped
	stats.Accepted = len(series)
	return series, stats, nil
}

func isDateLine(line string) bool {
	return strings.Contains(line, "/") && !strings.Contains(line, ":")
}

func isActualLine(line string) bool {
	for _, marker := range actualMarkers {
		if strings.Contains(line, marker) {
			return true
		}
	}
	return false
}

func parseDataLine(date time.Time, line string) (types.Reading, bool) {
	parts := strings.Split(line, ";")
	if len(parts) < 2 {
		return types.Reading{}, false
	}

	var clock time.Time
	parsed := false
	for _, layout := range clockLayouts {
		c, err := time.Parse(layout, strings.TrimSpace(parts[0]))
		if err == nil {
			clock, parsed = c, true
			break
		}
	}
	if !parsed {
		return types.Reading{}, false
	}

	value, ok := parseValue(parts[1])
	if !ok {
		return types.Reading{}, false
	}

	ts := time.Date(date.Year(), date.Month(), date.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), 0, time.UTC)
	return types.Reading{Timestamp: ts, Value: value}, true
}

func parseValue(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}

// dropUnreliableDays removes every calendar day holding fewer than
// MinReadingsPerDay readings.
func dropUnreliableDays(s types.Series) (types.Series, int) {
	perDay := make(map[time.Time]int)
	for _, r := range s {
		perDay[dayOf(r.Timestamp)]++
	}

	dropped := 0
	for _, n := range perDay {
		if n < MinReadingsPerDay {
			dropped++
		}
	}

	out := make(types.Series, 0, len(s))
	for _, r := range s {
		if perDay[dayOf(r.Timestamp)] >= MinReadingsPerDay {
			out = append(out, r)
		}
	}
	return out, dropped
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
