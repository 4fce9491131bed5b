package aggregator

import (
	"errors"
	"time"
)

type Granularity uint8

const (
	Hour Granularity = iota
	Day
	Week
	Month
)

var ErrUnsupportedGranularity = errors.New("unsupported granularity")

func (g Granularity) String() string {
	switch g {
	case Hour:
		return "hour"
	case Day:
		return "day"
	case Week:
		return "week"
	case Month:
		return "month"
	}
	return "unknown"
}

func ParseGranularity(s string) (Granularity, error) {
	switch s {
	case "hour", "H", "h":
		return Hour, nil
	case "day", "D", "d":
		return Day, nil
	case "week", "W", "w":
		return Week, nil
	case "month", "M", "m":
		return Month, nil
	}
	return 0, ErrUnsupportedGranularity
}

// Period is a closed interval [Start, End] where End is the next start minus one second.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// PeriodTotal sums the merged records falling into one period, in W samples.
type PeriodTotal struct {
	Period
	Consumption float64 `json:"consommation"`
	Production  float64 `json:"production"`
	Total       float64 `json:"total"`
	SampleCount int     `json:"sample_count"`
}

// Summary is expressed in kWh and percent, rounded to two decimals.
type Summary struct {
	Empty              bool      `json:"empty"`
	Start              time.Time `json:"start"`
	End                time.Time `json:"end"`
	ConsumptionKWh     float64   `json:"consumption_kwh"`
	ProductionKWh      float64   `json:"production_kwh"`
	TotalKWh           float64   `json:"total_kwh"`
	SelfConsumptionPct float64   `json:"self_consumption_pct"`
	SurplusPct         float64   `json:"surplus_pct"`
	AnalysedDays       int       `json:"analysed_days"`
	PeakConsumptionW   float64   `json:"peak_consumption_w"`
	PeakProductionW    float64   `json:"peak_production_w"`
}

// Averages is the mean energy per period bucket, in kWh.
type Averages struct {
	Granularity    Granularity `json:"-"`
	Buckets        int         `json:"buckets"`
	ConsumptionKWh float64     `json:"consumption_kwh"`
	ProductionKWh  float64     `json:"production_kwh"`
	TotalKWh       float64     `json:"total_kwh"`
}
