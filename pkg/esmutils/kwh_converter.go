package esmutils

import (
	"fmt"
	"math"
	"time"
)

func WToKw(w float64) float64 {
	return w / 1000
}

// Energy in kWh for an average power held during step. No negative values.
func WToKwh(w float64, step time.Duration) float64 {
	if w < 0 {
		return 0
	}
	return w * step.Hours() / 1000
}

// Round to the given number of decimals
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// FormatPower renders W below 1000 and kW with two decimals above.
func FormatPower(w float64) string {
	if w >= 1000 {
		return fmt.Sprintf("%.2f kW", WToKw(w))
	}
	return fmt.Sprintf("%.0f W", w)
}
