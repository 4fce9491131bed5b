package timegrid

import (
	"fmt"
	"time"

	"github.com/NotCoffee418/conso_prod_reconciler/pkg/types"
)

// Upsample splits every reading evenly into from/to readings at the finer
// frequency. Only valid for quantities that add up over time.
func Upsample(s types.Series, from, to time.Duration) (types.Series, error) {
	if from <= 0 || to <= 0 {
		return nil, ErrInvalidFrequency
	}
	if from < to || from%to != 0 {
		return nil, fmt.Errorf("%w: %s is not a multiple of %s", ErrIncompatibleFrequency, from, to)
	}
	parts := int(from / to)

	out := make(types.Series, 0, len(s)*parts)
	for _, r := range s {
		share := r.Value / float64(parts)
		for k := 0; k < parts; k++ {
			out = append(out, types.Reading{
				Timestamp: r.Timestamp.Add(time.Duration(k) * to),
				Value:     share,
			})
		}
	}
	return out.SortAndDedup(), nil
}

// Downsample averages the readings of each destination bucket.
// Buckets without readings are absent from the result.
func Downsample(s types.Series, to time.Duration) (types.Series, error) {
	if to <= 0 {
		return nil, ErrInvalidFrequency
	}

	type bucket struct {
		sum   float64
		count int
	}
	buckets := make(map[int64]*bucket)
	order := make([]time.Time, 0)
	for _, r := range s {
		start := BucketStart(r.Timestamp, to)
		b, ok := buckets[start.Unix()]
		if !ok {
			b = &bucket{}
			buckets[start.Unix()] = b
			order = append(order, start)
		}
		b.sum += r.Value
		b.count++
	}

	out := make(types.Series, 0, len(order))
	for _, start := range order {
		b := buckets[start.Unix()]
		out = append(out, types.Reading{Timestamp: start, Value: b.sum / float64(b.count)})
	}
	return out.SortAndDedup(), nil
}

// Convert re-expresses s, sampled at from, at frequency to.
func Convert(s types.Series, from, to time.Duration) (types.Series, error) {
	switch {
	case from <= 0 || to <= 0:
		return nil, ErrInvalidFrequency
	case from == to:
		return s.SortAndDedup(), nil
	case to > from:
		return Downsample(s, to)
	default:
		return Upsample(s, from, to)
	}
}

// BucketStart floors t to a multiple of freq counted from midnight.
// Frequencies of a day or more floor on the absolute clock.
func BucketStart(t time.Time, freq time.Duration) time.Time {
	if freq >= 24*time.Hour {
		return t.Truncate(freq)
	}
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := t.Sub(midnight)
	return midnight.Add(offset / freq * freq)
}
