package types

import "time"

type MergedRecord struct {
	Timestamp   time.Time `json:"datetime"`
	Consumption float64   `json:"consommation"`
	Production  float64   `json:"production"`
	Total       float64   `json:"total"`
}

// MergedTable is rebuilt in full on every load and never mutated afterwards.
type MergedTable []MergedRecord

func (t MergedTable) Bounds() (first, last time.Time, ok bool) {
	if len(t) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return t[0].Timestamp, t[len(t)-1].Timestamp, true
}

// Between returns a copy of the records with from <= timestamp <= to.
func (t MergedTable) Between(from, to time.Time) MergedTable {
	out := make(MergedTable, 0)
	for _, r := range t {
		if r.Timestamp.Before(from) || r.Timestamp.After(to) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (t MergedTable) Totals() (consumption, production, total float64) {
	for _, r := range t {
		consumption += r.Consumption
		production += r.Production
		total += r.Total
	}
	return consumption, production, total
}
