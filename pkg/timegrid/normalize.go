package timegrid

import (
	"errors"
	"time"

	"github.com/NotCoffee418/conso_prod_reconciler/pkg/types"
)

var (
	ErrEmptySeries           = errors.New("series is empty")
	ErrInvalidFrequency      = errors.New("invalid frequency")
	ErrIncompatibleFrequency = errors.New("incompatible frequencies")
)

// Normalize returns a grid with exactly one reading per tick from the first
// to the last timestamp. Missing ticks get 0, so a filled gap cannot be told
// apart from a reading that really was 0. Readings off the tick lattice are dropped.
func Normalize(s types.Series, freq time.Duration) (types.Series, error) {
	if freq <= 0 {
		return nil, ErrInvalidFrequency
	}
	sorted := s.SortAndDedup()
	first, last, ok := sorted.Bounds()
	if !ok {
		return nil, ErrEmptySeries
	}

	values := make(map[int64]float64, len(sorted))
	for _, r := range sorted {
		values[r.Timestamp.Unix()] = r.Value
	}

	n := int(last.Sub(first)/freq) + 1
	grid := make(types.Series, 0, n)
	for i := 0; i < n; i++ {
		tick := first.Add(time.Duration(i) * freq)
		grid = append(grid, types.Reading{
			Timestamp: tick,
			Value:     values[tick.Unix()],
		})
	}
	return grid, nil
}

// IsComplete reports whether s has one reading on every tick between its bounds.
func IsComplete(s types.Series, freq time.Duration) bool {
	first, last, ok := s.Bounds()
	if !ok || freq <= 0 {
		return false
	}
	if len(s) != int(last.Sub(first)/freq)+1 {
		return false
	}
	for i, r := range s {
		if !r.Timestamp.Equal(first.Add(time.Duration(i) * freq)) {
			return false
		}
	}
	return true
}
