package metrics

import (
	"fmt"
	"math"
	"strconv"
)

var byteUnits = []string{"B", "KB", "MB", "GB"}

// FormatBytes renders a byte count with binary units, e.g. "1.5 KB".
func FormatBytes(n int64) string {
	if n <= 0 {
		return "0 B"
	}
	i := int(math.Floor(math.Log(float64(n)) / math.Log(1024)))
	if i >= len(byteUnits) {
		i = len(byteUnits) - 1
	}
	v := math.Round(float64(n)/math.Pow(1024, float64(i))*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + byteUnits[i]
}

// FormatMillis renders a duration in milliseconds, switching to seconds at 1s.
func FormatMillis(ms float64) string {
	if ms < 1000 {
		return fmt.Sprintf("%d ms", int64(math.Round(ms)))
	}
	s := math.Round(ms/10) / 100
	return strconv.FormatFloat(s, 'f', -1, 64) + " s"
}
