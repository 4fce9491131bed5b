package presentation

import (
	"time"

	"github.com/NotCoffee418/conso_prod_reconciler/pkg/aggregator"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/esmutils"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/types"
)

const NoDataMessage = "Aucune donnée disponible"

type PeriodOption struct {
	aggregator.Period
	Label string `json:"label"`
}

type LabeledTotal struct {
	aggregator.PeriodTotal
	Label string `json:"label"`
}

// View is a read-only slice of the merged table prepared for display.
type View struct {
	Mode      string              `json:"mode"`
	From      time.Time           `json:"from"`
	To        time.Time           `json:"to"`
	Rows      types.MergedTable   `json:"rows"`
	Summary   aggregator.Summary  `json:"summary"`
	AverageBy string              `json:"average_by"`
	Averages  aggregator.Averages `json:"averages"`
	Buckets   []LabeledTotal      `json:"buckets,omitempty"`
	Options   []PeriodOption      `json:"options,omitempty"`
	Info      []Indicator         `json:"info"`
	Empty     bool                `json:"empty"`
	Message   string              `json:"message,omitempty"`
}

// Indicator is one labelled line of the summary panel.
type Indicator struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// BuildView filters table for mode. step is the table's sampling frequency.
// The table itself is never modified.
func BuildView(table types.MergedTable, mode DisplayMode, step time.Duration) (View, error) {
	view := View{Mode: mode.Name()}

	first, last, ok := table.Bounds()
	if !ok {
		view.Empty = true
		view.Message = NoDataMessage
		view.Rows = types.MergedTable{}
		view.Info = Indicators(aggregator.Summary{Empty: true})
		return view, nil
	}

	w, err := mode.window(first, last)
	if err != nil {
		return View{}, err
	}
	view.From, view.To = w.From, w.To
	view.Rows = table.Between(w.From, w.To)
	view.Summary = aggregator.Summarize(view.Rows, step)
	view.Info = Indicators(view.Summary)
	view.AverageBy = w.AverageBy.String()
	if view.Averages, err = aggregator.ComputeAverages(view.Rows, w.AverageBy, step); err != nil {
		return View{}, err
	}

	switch mode.(type) {
	case Weekly:
		view.Options, err = Options(table, aggregator.Week)
	case Monthly:
		view.Options, err = Options(table, aggregator.Month)
	}
	if err != nil {
		return View{}, err
	}

	if w.Bucketed {
		totals, err := aggregator.Aggregate(view.Rows, w.BucketBy)
		if err != nil {
			return View{}, err
		}
		for _, pt := range totals {
			view.Buckets = append(view.Buckets, LabeledTotal{PeriodTotal: pt, Label: PeriodLabel(pt.Start, w.BucketBy)})
		}
	}

	if len(view.Rows) == 0 {
		view.Empty = true
		view.Message = NoDataMessage
	}
	return view, nil
}

// Options lists the selectable weeks or months of the table with their labels.
func Options(table types.MergedTable, g aggregator.Granularity) ([]PeriodOption, error) {
	periods, err := aggregator.ExtractPeriods(table, g)
	if err != nil {
		return nil, err
	}
	out := make([]PeriodOption, 0, len(periods))
	for _, p := range periods {
		out = append(out, PeriodOption{Period: p, Label: PeriodLabel(p.Start, g)})
	}
	return out, nil
}

// Indicators renders the summary as the labelled rows shown next to the charts.
func Indicators(s aggregator.Summary) []Indicator {
	if s.Empty {
		return []Indicator{{Label: NoDataMessage, Value: "-"}}
	}
	return []Indicator{
		{Label: "Consommation totale (kWh)", Value: formatNumber(s.ConsumptionKWh)},
		{Label: "Production totale (kWh)", Value: formatNumber(s.ProductionKWh)},
		{Label: "Énergie totale (kWh)", Value: formatNumber(s.TotalKWh)},
		{Label: "Autoconsommation (%)", Value: formatNumber(s.SelfConsumptionPct)},
		{Label: "Surplus de production (%)", Value: formatNumber(s.SurplusPct)},
		{Label: "Pic de consommation", Value: esmutils.FormatPower(s.PeakConsumptionW)},
		{Label: "Pic de production", Value: esmutils.FormatPower(s.PeakProductionW)},
		{Label: "Durée analysée (jours)", Value: formatInt(s.AnalysedDays)},
	}
}
