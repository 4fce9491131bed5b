package types

import (
	"sort"
	"time"
)

// Reading is a single timestamped measurement in W.
// Timestamps are naive wall-clock instants kept in time.UTC.
type Reading struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Series is a chronologically sorted, deduplicated sequence of readings.
type Series []Reading

func (s Series) Clone() Series {
	if s == nil {
		return nil
	}
	out := make(Series, len(s))
	copy(out, s)
	return out
}

// Bounds returns the first and last timestamp. ok is false for an empty series.
func (s Series) Bounds() (first, last time.Time, ok bool) {
	if len(s) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return s[0].Timestamp, s[len(s)-1].Timestamp, true
}

func (s Series) Sum() float64 {
	var sum float64
	for _, r := range s {
		sum += r.Value
	}
	return sum
}

// SortAndDedup returns a new ascending series. On duplicate timestamps
// the reading appearing last in the input wins.
func (s Series) SortAndDedup() Series {
	out := s.Clone()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})

	deduped := out[:0]
	for _, r := range out {
		n := len(deduped)
		if n > 0 && deduped[n-1].Timestamp.Equal(r.Timestamp) {
			deduped[n-1] = r
			continue
		}
		deduped = append(deduped, r)
	}
	return deduped
}

// IsSorted reports whether timestamps are strictly ascending.
func (s Series) IsSorted() bool {
	for i := 1; i < len(s); i++ {
		if !s[i-1].Timestamp.Before(s[i].Timestamp) {
			return false
		}
	}
	return true
}

// Naive drops any location information while keeping the wall clock.
func Naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}
