package formats

import (
	"math"
	"strconv"
)

var sizeUnits = []string{"B", "KB", "MB", "GB"}

// FormatSize renders a byte count with the largest unit that keeps the value
// at or above 1, rounded to two decimals: 1536 -> "1.5 KB". Zero, negative
// and non-finite counts render as N/A.
func FormatSize(bytes float64) string {
	if bytes <= 0 || math.IsNaN(bytes) || math.IsInf(bytes, 0) {
		return NotAvailable
	}
	unit := 0
	value := bytes
	for value >= 1024 && unit < len(sizeUnits)-1 {
		value /= 1024
		unit++
	}
	value = math.Round(value*100) / 100
	return strconv.FormatFloat(value, 'f', -1, 64) + " " + sizeUnits[unit]
}
