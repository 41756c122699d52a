package render

import (
	"fmt"
	"math"
)

// formatTimestamp renders seconds as HH:MM:SS<sep>mmm with zero-padded
// two-digit hours, minutes and seconds and three-digit milliseconds.
// Milliseconds are rounded to the nearest value. Hours are not capped,
// anything past 99 hours widens the field.
func formatTimestamp(seconds float64, msSep byte) string {
	if seconds < 0 {
		seconds = 0
	}
	ms := int64(math.Round(seconds * 1000))
	h := ms / 3600000
	ms %= 3600000
	m := ms / 60000
	ms %= 60000
	s := ms / 1000
	ms %= 1000
	return fmt.Sprintf("%02d:%02d:%02d%c%03d", h, m, s, msSep, ms)
}
