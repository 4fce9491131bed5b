package timegrid

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var frequencyPattern = regexp.MustCompile(`^(\d+)?\s*([a-z]+)$`)

var frequencyUnits = map[string]time.Duration{
	"s":       time.Second,
	"sec":     time.Second,
	"second":  time.Second,
	"seconds": time.Second,
	"t":       time.Minute,
	"min":     time.Minute,
	"mins":    time.Minute,
	"minute":  time.Minute,
	"minutes": time.Minute,
	"h":       time.Hour,
	"hour":    time.Hour,
	"hours":   time.Hour,
	"d":       24 * time.Hour,
	"day":     24 * time.Hour,
	"days":    24 * time.Hour,
}

// ParseFrequency accepts "15 minutes", "30min", "30T", "1h", "1 hour", "D"
// and plain Go durations such as "15m".
func ParseFrequency(s string) (time.Duration, error) {
	raw := strings.ToLower(strings.TrimSpace(s))
	if raw == "" {
		return 0, fmt.Errorf("%w: empty frequency", ErrInvalidFrequency)
	}

	if d, err := time.ParseDuration(raw); err == nil {
		if d <= 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidFrequency, s)
		}
		return d, nil
	}

	m := frequencyPattern.FindStringSubmatch(raw)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFrequency, s)
	}
	unit, ok := frequencyUnits[m[2]]
	if !ok {
		return 0, fmt.Errorf("%w: unknown unit in %q", ErrInvalidFrequency, s)
	}
	n := 1
	if m[1] != "" {
		var err error
		n, err = strconv.Atoi(m[1])
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidFrequency, s)
		}
	}
	return time.Duration(n) * unit, nil
}

// MustParseFrequency is for constants known to be valid.
func MustParseFrequency(s string) time.Duration {
	d, err := ParseFrequency(s)
	if err != nil {
		panic(err)
	}
	return d
}
