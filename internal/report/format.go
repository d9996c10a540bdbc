package report

import (
	"fmt"
	"sort"
)

// NoDataIndicator is what an undefined metric renders as. It is a
// visible placeholder, deliberately distinct from "0".
const NoDataIndicator = "—"

// FormatPercent renders a percentage with two decimal places.
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

// FormatDays renders a day count with two decimal places.
func FormatDays(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// topN returns the first n of rows sorted descending by value. The sort
// is stable so equal values keep their query-output order, and the input
// slice is never reordered: the table view must stay untruncated and in
// query order.
func topN[T any](rows []T, n int, value func(T) float64) []T {
	sorted := make([]T, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return value(sorted[i]) > value(sorted[j])
	})
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}
