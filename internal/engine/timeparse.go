package engine

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// YouTube publish times come as relative expressions, sometimes with a stream
// prefix: "2 hours ago", "3 weeks ago", "Streamed 1 day ago".

var relTimeRE = regexp.MustCompile(`(?i)^(\d+)\s+(second|minute|hour|day|week|month|year)s?\s+ago$`)

// streamPrefixes are noise prefixes stripped before parsing.
var streamPrefixes = []string{"Streamed ", "Premiered ", "Premieres "}

// ParseRelativeTime converts a relative time expression into an absolute time
// anchored at now. Returns false when the expression is not recognized.
// Months and years are approximated at 30 and 365 days; upstream only uses
// these units for content old enough that the error does not affect ordering.
func ParseRelativeTime(s string, now time.Time) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, p := range streamPrefixes {
		s = strings.TrimPrefix(s, p)
	}

	m := relTimeRE.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, false
	}

	var unit time.Duration
	switch strings.ToLower(m[2]) {
	case "second":
		unit = time.Second
	case "minute":
		unit = time.Minute
	case "hour":
		unit = time.Hour
	case "day":
		unit = 24 * time.Hour
	case "week":
		unit = 7 * 24 * time.Hour
	case "month":
		unit = 30 * 24 * time.Hour
	case "year":
		unit = 365 * 24 * time.Hour
	default:
		return time.Time{}, false
	}
	return now.Add(-time.Duration(n) * unit), true
}

// SinceDate returns the start of the search window: periodDays before endDate,
// or before now when endDate is empty. endDate must be YYYY-MM-DD.
func SinceDate(periodDays int, endDate string, now time.Time) (time.Time, error) {
	end := now
	if endDate != "" {
		parsed, err := time.Parse("2006-01-02", endDate)
		if err != nil {
			return time.Time{}, InvalidRequestf("end_date must be in YYYY-MM-DD format")
		}
		end = parsed
	}
	return end.AddDate(0, 0, -periodDays), nil
}
