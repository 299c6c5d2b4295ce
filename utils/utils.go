package utils

import "time"

// NullToZero handles null values in provider responses (sometimes returned
// as NaN or omitted)
func NullToZero(val float64) float64 {
	if val != val { // NaN check
		return 0
	}
	return val
}

// IsMarketHours reports whether t falls inside regular US trading hours,
// weekdays 9:30-16:00 Eastern. Exchange holidays are not accounted for.
func IsMarketHours(t time.Time) bool {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.UTC
	}
	t = t.In(loc)
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	open := time.Date(t.Year(), t.Month(), t.Day(), 9, 30, 0, 0, loc)
	close := time.Date(t.Year(), t.Month(), t.Day(), 16, 0, 0, 0, loc)
	return !t.Before(open) && !t.After(close)
}
