package timeline

import (
	"time"

	"github.com/existflow/grantline/internal/model"
)

// emptyYearDays is the fixed span reported for a board without grants.
// It is not adjusted for leap years.
const emptyYearDays = 365

// Scale is the padded date window shown by one render pass
type Scale struct {
	MinDate   time.Time
	MaxDate   time.Time
	TotalDays float64
}

// Span returns the window length
func (s Scale) Span() time.Duration {
	return s.MaxDate.Sub(s.MinDate)
}

// CalculateScale computes the padded window covering every grant date. Without
// grants the window is the calendar year containing now.
func CalculateScale(items []model.Grant, mode ZoomMode, now time.Time) Scale {
	if len(items) == 0 {
		year := now.UTC().Year()
		return Scale{
			MinDate:   Date(year, time.January, 1),
			MaxDate:   Date(year, time.December, 31),
			TotalDays: emptyYearDays,
		}
	}

	// both endpoints count so a grant whose end precedes its start still
	// yields a forward window
	minDate := items[0].StartDate
	maxDate := items[0].StartDate
	for _, it := range items {
		for _, d := range [2]time.Time{it.StartDate, it.EndDate} {
			if d.Before(minDate) {
				minDate = d
			}
			if d.After(maxDate) {
				maxDate = d
			}
		}
	}

	pad := scalePadding(mode, maxDate.Sub(minDate))
	minDate = minDate.Add(-pad)
	maxDate = maxDate.Add(pad)

	return Scale{
		MinDate:   minDate,
		MaxDate:   maxDate,
		TotalDays: Days(maxDate.Sub(minDate)),
	}
}

// scalePadding is the margin added on both sides of the raw span
func scalePadding(mode ZoomMode, span time.Duration) time.Duration {
	switch mode {
	case ZoomWeekly:
		return 7 * day
	case ZoomSixMonths:
		return 30 * day
	case ZoomYearly:
		return 60 * day
	}

	// monthly: a tenth of the span, or a day when the span has collapsed
	// so the window never has zero width
	if span <= 0 {
		return day
	}
	return span / 10
}
