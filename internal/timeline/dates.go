package timeline

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// day is the length of one calendar day. Calendar dates are UTC days, so
// every day is exactly 24 hours long.
const day = 24 * time.Hour

// dateFormats are the layouts accepted by ParseDate, most specific first
var dateFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006",
	"Jan 2, 2006",
}

// Day truncates t to the start of its UTC calendar day
func Day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Date builds a UTC calendar day
func Date(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

// Days converts a duration into fractional days
func Days(d time.Duration) float64 {
	return float64(d) / float64(day)
}

// maxDays is the longest span a time.Duration can hold, in whole days
const maxDays = float64(math.MaxInt64 / int64(day))

// DaysToDuration converts fractional days back into a duration. Spans
// beyond what a time.Duration can hold saturate instead of wrapping.
func DaysToDuration(days float64) time.Duration {
	switch {
	case math.IsNaN(days):
		return 0
	case days > maxDays:
		days = maxDays
	case days < -maxDays:
		days = -maxDays
	}
	return time.Duration(days * float64(day))
}

// FormatDate renders a date the way tooltips and details show it
func FormatDate(t time.Time) string {
	return t.UTC().Format("Jan 2, 2006")
}

// ParseDate parses a calendar date in any of the supported layouts and
// returns its UTC day
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range dateFormats {
		t, err := time.Parse(layout, s)
		if err == nil {
			return Day(t), nil
		}
		lastErr = err
	}
	return time.Time{}, fmt.Errorf("unable to parse date %q: %w", s, lastErr)
}

// Clamp limits t to [lo, hi]. When hi is before lo the range collapses to lo.
func Clamp(t, lo, hi time.Time) time.Time {
	if hi.Before(lo) {
		hi = lo
	}
	if t.Before(lo) {
		return lo
	}
	if t.After(hi) {
		return hi
	}
	return t
}
