package aggregator

import (
	"time"

	"github.com/NotCoffee418/conso_prod_reconciler/pkg/esmutils"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/types"
)

// Summarize computes energy totals and ratios for a table sampled every step.
func Summarize(table types.MergedTable, step time.Duration) Summary {
	first, last, ok := table.Bounds()
	if !ok {
		return Summary{Empty: true}
	}

	var peakConso, peakProd float64
	for _, r := range table {
		peakConso = max(peakConso, r.Consumption)
		peakProd = max(peakProd, r.Production)
	}

	conso, prod, total := table.Totals()
	consoKWh := esmutils.WToKwh(conso, step)
	prodKWh := esmutils.WToKwh(prod, step)

	var selfConsumption, surplus float64
	if consoKWh != 0 {
		selfConsumption = prodKWh / consoKWh * 100
	}
	if prodKWh != 0 {
		surplus = (prodKWh - consoKWh) / prodKWh * 100
	}

	return Summary{
		Start:              first,
		End:                last,
		ConsumptionKWh:     esmutils.Round(consoKWh, 2),
		ProductionKWh:      esmutils.Round(prodKWh, 2),
		TotalKWh:           esmutils.Round(esmutils.WToKwh(total, step), 2),
		SelfConsumptionPct: esmutils.Round(selfConsumption, 2),
		SurplusPct:         esmutils.Round(surplus, 2),
		AnalysedDays:       int(roundToDayStart(last).Sub(roundToDayStart(first)).Hours()/24) + 1,
		PeakConsumptionW:   peakConso,
		PeakProductionW:    peakProd,
	}
}

// ComputeAverages divides the table energy by the number of periods present.
func ComputeAverages(table types.MergedTable, g Granularity, step time.Duration) (Averages, error) {
	totals, err := Aggregate(table, g)
	if err != nil {
		return Averages{}, err
	}
	avg := Averages{Granularity: g, Buckets: len(totals)}
	if len(totals) == 0 {
		return avg, nil
	}

	conso, prod, total := table.Totals()
	n := float64(len(totals))
	avg.ConsumptionKWh = esmutils.Round(esmutils.WToKwh(conso, step)/n, 2)
	avg.ProductionKWh = esmutils.Round(esmutils.WToKwh(prod, step)/n, 2)
	avg.TotalKWh = esmutils.Round(esmutils.WToKwh(total, step)/n, 2)
	return avg, nil
}
