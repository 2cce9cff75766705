package coerce

import (
	"math"
	"time"
)

// Output layouts always carry an explicit numeric offset; UTC renders as
// +00:00, never Z.
const (
	epochLayout      = "2006-01-02T15:04:05-07:00"
	epochMicroLayout = "2006-01-02T15:04:05.000000-07:00"
)

// Accepted ISO-8601 input shapes, most specific first.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04",
	"2006-01-02",
}

// IsISO8601 reports whether s parses as an ISO-8601 date or datetime, with
// or without an offset.
func IsISO8601(s string) bool {
	for _, layout := range isoLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// FromEpochInt renders a Unix epoch second offset as an ISO-8601 string in
// UTC with an explicit offset.
func FromEpochInt(seconds int64) string {
	return epochText(time.Unix(seconds, 0).UTC())
}

// FromEpochFloat renders a fractional Unix epoch offset as an ISO-8601
// string in UTC. Microseconds appear only when the fraction is non-zero.
func FromEpochFloat(seconds float64) string {
	whole := math.Floor(seconds)
	nanos := int64(math.Round((seconds - whole) * 1e9))
	return epochText(time.Unix(int64(whole), nanos).UTC())
}

func epochText(t time.Time) string {
	if t.Nanosecond() == 0 {
		return t.Format(epochLayout)
	}
	return t.Format(epochMicroLayout)
}
