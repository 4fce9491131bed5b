package pipeline

import (
	"time"

	"github.com/NotCoffee418/conso_prod_reconciler/pkg/rawsource"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/types"
	"github.com/google/uuid"
)

type StatusKind string

const (
	StatusLoading StatusKind = "loading"
	StatusReady   StatusKind = "ready"
	// The sources loaded but do not overlap. Not a failure.
	StatusEmpty  StatusKind = "empty"
	StatusFailed StatusKind = "failed"
)

type Status struct {
	Kind  StatusKind `json:"kind"`
	RunID uuid.UUID  `json:"run_id"`
	From  time.Time  `json:"from,omitempty"`
	To    time.Time  `json:"to,omitempty"`
	Rows  int        `json:"rows"`
	Error string     `json:"error,omitempty"`
}

// Result is one load of the pipeline. Its tables are shared and must not be modified.
type Result struct {
	Status           Status
	Consumption      types.Series
	Production       types.Series
	Merged           types.MergedTable
	ConsumptionStats rawsource.ParseStats
	ProductionStats  rawsource.ParseStats
	Fingerprint      string
	Step             time.Duration
	LoadedAt         time.Time
	Cached           bool
}
