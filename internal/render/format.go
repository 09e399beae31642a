package render

import (
	"strconv"
	"time"
)

// UpdatedLayout is the layout of the timestamp label.
const UpdatedLayout = "1/2/2006, 3:04:05 PM"

// FormatNumber renders a float with the fewest digits that round-trip,
// never in exponent form.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// FormatPercent renders a utilization value with a trailing "%".
func FormatPercent(f float64) string {
	return FormatNumber(f) + "%"
}

// UpdatedLabel returns the text of the #update-time element for t.
func UpdatedLabel(t time.Time) string {
	return "Last updated: " + t.Local().Format(UpdatedLayout)
}
