package merger

import (
	"math"

	"github.com/NotCoffee418/conso_prod_reconciler/pkg/types"
)

// Total is consumption + production, except that it is 0 whenever
// consumption is 0. A production-only instant does not count towards the total.
func Total(consumption, production float64) float64 {
	if consumption == 0 {
		return 0
	}
	return consumption + production
}

// Merge inner-joins both series on timestamp. Instants present on only one
// side are dropped. Neither input is modified.
func Merge(consumption, production types.Series) types.MergedTable {
	cons := consumption.SortAndDedup()
	prod := production.SortAndDedup()

	out := make(types.MergedTable, 0, min(len(cons), len(prod)))
	i, j := 0, 0
	for i < len(cons) && j < len(prod) {
		c, p := cons[i], prod[j]
		switch {
		case c.Timestamp.Before(p.Timestamp):
			i++
		case p.Timestamp.Before(c.Timestamp):
			j++
		default:
			cv, pv := orZero(c.Value), orZero(p.Value)
			out = append(out, types.MergedRecord{
				Timestamp:   c.Timestamp,
				Consumption: cv,
				Production:  pv,
				Total:       Total(cv, pv),
			})
			i++
			j++
		}
	}
	return out
}

func orZero(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
