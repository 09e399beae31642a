package model

import (
	"cmp"
	"slices"
	"strings"
)

// SaturationThreshold is the worst-case utilization, in percent, above which
// an interface is flagged as near saturation. Exactly 70 is not flagged.
const SaturationThreshold = 70.0

// NearSaturation reports whether e's worst-case utilization exceeds SaturationThreshold.
func (e InterfaceEntry) NearSaturation() bool {
	return e.WorstCaseUtil > SaturationThreshold
}

// SortTraffic returns a copy of rows ordered by SourceRouter (byte-wise).
// Rows sharing a source router keep their input order.
func SortTraffic(rows []TrafficRow) []TrafficRow {
	sorted := slices.Clone(rows)
	slices.SortStableFunc(sorted, func(a, b TrafficRow) int {
		return strings.Compare(a.SourceRouter, b.SourceRouter)
	})
	return sorted
}

// SortByWorstCase returns a copy of entries with the highest worst-case
// utilization first. Ties keep their input order.
func SortByWorstCase(entries []InterfaceEntry) []InterfaceEntry {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b InterfaceEntry) int {
		return cmp.Compare(b.WorstCaseUtil, a.WorstCaseUtil)
	})
	return sorted
}
