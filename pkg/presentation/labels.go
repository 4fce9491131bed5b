package presentation

import (
	"fmt"
	"time"

	"github.com/NotCoffee418/conso_prod_reconciler/pkg/aggregator"
	"github.com/goodsign/monday"
)

// Go reference layouts rendered in French by FormatDate.
const (
	LayoutDayMonth = "2 January"
	LayoutDate     = "2 January 2006"
	LayoutMonth    = "January 2006"
	LayoutLongDate = "Monday 2 January 2006"
	LayoutDateTime = "2 January 2006 15:04"
)

// FormatDate renders t with a Go reference layout, in French.
func FormatDate(t time.Time, layout string) string {
	return monday.Format(t, layout, monday.LocaleFrFR)
}

func WeekLabel(start time.Time) string {
	return fmt.Sprintf("Semaine du %s au %s",
		FormatDate(start, LayoutDayMonth),
		FormatDate(start.AddDate(0, 0, 6), LayoutDate))
}

func MonthLabel(start time.Time) string {
	return "Mois de " + FormatDate(start, LayoutMonth)
}

func PeriodLabel(start time.Time, g aggregator.Granularity) string {
	switch g {
	case aggregator.Week:
		return WeekLabel(start)
	case aggregator.Month:
		return MonthLabel(start)
	case aggregator.Day:
		return FormatDate(start, LayoutLongDate)
	default:
		return FormatDate(start, LayoutDateTime)
	}
}
