package indexer

import "time"

// dateLayouts mirrors mapping.DateFormat's accepted partial-date formats,
// most to least specific.
var dateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	"2006-01",
	"2006",
}

// dateToFloat converts a partial date string into a sortable epoch-seconds
// value for the numeric duplicate used by range aggregations (spec §4.2's
// "numeric duplication"). Missing month/day default to January 1st.
func dateToFloat(s string) (float64, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return float64(t.Unix()), true
		}
	}
	return 0, false
}
