package indexer

import "strconv"

// parseFloat parses a numeric or date-numeric string value, returning false
// silently on malformed input (dropped rather than fatal, matching the
// original's permissive numeric duplication).
func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return dateToFloat(s)
	}
	return f, true
}
