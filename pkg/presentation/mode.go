package presentation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/NotCoffee418/conso_prod_reconciler/pkg/aggregator"
)

var (
	ErrUnknownMode  = errors.New("unknown display mode")
	ErrInvalidRange = errors.New("invalid period")
)

// DisplayMode is one of ClassicRange, SingleDay, Weekly or Monthly.
// The unexported method closes the set: adding a variant means
// implementing window, otherwise it does not compile.
type DisplayMode interface {
	Name() string
	window(first, last time.Time) (Window, error)
}

// Window is what a display mode resolves to against a table.
type Window struct {
	From time.Time
	To   time.Time
	// Granularity of the averages shown for the window
	AverageBy aggregator.Granularity
	// Bucketed modes also show per-period totals
	Bucketed bool
	BucketBy aggregator.Granularity
}

// ClassicRange covers whole days from From to To. Zero values fall back
// to the table bounds.
type ClassicRange struct {
	From time.Time
	To   time.Time
}

func (ClassicRange) Name() string { return "classic" }

func (m ClassicRange) window(first, last time.Time) (Window, error) {
	from, to := m.From, m.To
	if from.IsZero() {
		from = first
	}
	if to.IsZero() {
		to = last
	}
	from = dayStart(from)
	to = dayStart(to).Add(24*time.Hour - time.Second)
	if to.Before(from) {
		return Window{}, fmt.Errorf("%w: %s is after %s", ErrInvalidRange, from.Format(time.DateOnly), to.Format(time.DateOnly))
	}
	return Window{From: from, To: to, AverageBy: aggregator.Day}, nil
}

// SingleDay shows one day between two clock offsets from midnight.
type SingleDay struct {
	Day        time.Time
	StartClock time.Duration
	EndClock   time.Duration
}

// NewSingleDay covers the whole day, 00:00 to 23:59.
func NewSingleDay(day time.Time) SingleDay {
	return SingleDay{Day: day, StartClock: 0, EndClock: 23*time.Hour + 59*time.Minute}
}

func (SingleDay) Name() string { return "day" }

func (m SingleDay) window(first, _ time.Time) (Window, error) {
	day := m.Day
	if day.IsZero() {
		day = first
	}
	if m.StartClock < 0 || m.EndClock >= 24*time.Hour || m.EndClock < m.StartClock {
		return Window{}, fmt.Errorf("%w: hours %s to %s", ErrInvalidRange, m.StartClock, m.EndClock)
	}
	start := dayStart(day)
	return Window{From: start.Add(m.StartClock), To: start.Add(m.EndClock), AverageBy: aggregator.Hour}, nil
}

// Weekly shows one ISO week, or every week when All is set.
type Weekly struct {
	Start time.Time
	All   bool
}

func (Weekly) Name() string { return "week" }

func (m Weekly) window(first, last time.Time) (Window, error) {
	if m.All || m.Start.IsZero() {
		return Window{From: first, To: last, AverageBy: aggregator.Week, Bucketed: true, BucketBy: aggregator.Week}, nil
	}
	start, _ := aggregator.PeriodStart(m.Start, aggregator.Week)
	return Window{From: start, To: aggregator.PeriodEnd(start, aggregator.Week), AverageBy: aggregator.Day}, nil
}

// Monthly shows one calendar month, or every month when All is set.
type Monthly struct {
	Start time.Time
	All   bool
}

func (Monthly) Name() string { return "month" }

func (m Monthly) window(first, last time.Time) (Window, error) {
	if m.All || m.Start.IsZero() {
		return Window{From: first, To: last, AverageBy: aggregator.Month, Bucketed: true, BucketBy: aggregator.Month}, nil
	}
	start, _ := aggregator.PeriodStart(m.Start, aggregator.Month)
	return Window{From: start, To: aggregator.PeriodEnd(start, aggregator.Month), AverageBy: aggregator.Week}, nil
}

// ParseMode builds a display mode from request parameters. get returns ""
// for absent parameters. Dates are YYYY-MM-DD and clocks HH:MM.
func ParseMode(kind string, get func(string) string) (DisplayMode, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "classic", "classique":
		from, err := optionalDate(get("from"))
		if err != nil {
			return nil, err
		}
		to, err := optionalDate(get("to"))
		if err != nil {
			return nil, err
		}
		return ClassicRange{From: from, To: to}, nil

	case "day", "journee":
		day, err := optionalDate(get("day"))
		if err != nil {
			return nil, err
		}
		mode := NewSingleDay(day)
		if raw := get("start"); raw != "" {
			if mode.StartClock, err = parseClock(raw); err != nil {
				return nil, err
			}
		}
		if raw := get("end"); raw != "" {
			if mode.EndClock, err = parseClock(raw); err != nil {
				return nil, err
			}
		}
		return mode, nil

	case "week", "hebdomadaire":
		start, all, err := periodParam(get("period"))
		if err != nil {
			return nil, err
		}
		return Weekly{Start: start, All: all}, nil

	case "month", "mensuel":
		start, all, err := periodParam(get("period"))
		if err != nil {
			return nil, err
		}
		return Monthly{Start: start, All: all}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMode, kind)
}

func periodParam(raw string) (time.Time, bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "all", "toutes", "tous":
		return time.Time{}, true, nil
	}
	t, err := optionalDate(raw)
	return t, false, err
}

func optionalDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad date %q", ErrInvalidRange, raw)
	}
	return t, nil
}

func parseClock(raw string) (time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: bad time %q", ErrInvalidRange, raw)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
