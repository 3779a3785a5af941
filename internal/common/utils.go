package common

import (
	"math"
	"strconv"
)

// NotAvailable is shown in place of a missing metric.
const NotAvailable = "N/A"

// FormatValue renders a metric as reported by the feed, or N/A when missing.
func FormatValue(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// FormatOneDecimal renders v with one decimal place, or N/A when missing.
func FormatOneDecimal(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}

// Percent converts a 0..1 fraction to a whole percentage clamped to 0..100.
func Percent(fraction float64) int {
	p := int(math.Round(fraction * 100))
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}
