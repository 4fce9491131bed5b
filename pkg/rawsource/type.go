package rawsource

import "errors"

var ErrMissingSource = errors.New("source not found")

// ParseStats counts what happened to the input of a parse.
// Skipped lines are never errors.
type ParseStats struct {
	Files       int `json:"files"`
	Lines       int `json:"lines"`
	Accepted    int `json:"accepted"`
	Skipped     int `json:"skipped"`
	DroppedDays int `json:"dropped_days"`
}

func (s *ParseStats) add(o ParseStats) {
	s.Files += o.Files
	s.Lines += o.Lines
	s.Accepted += o.Accepted
	s.Skipped += o.Skipped
	s.DroppedDays += o.DroppedDays
}
