package utils

import "time"

func calendarDate(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysToExpiration counts calendar days from now to expiration, both taken as
// dates in loc. Expirations carrying only a date (UTC midnight) keep their day.
func DaysToExpiration(now, expiration time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}

	exp := time.Date(expiration.Year(), expiration.Month(), expiration.Day(), 0, 0, 0, 0, time.UTC)
	if expiration.Location() != time.UTC {
		exp = calendarDate(expiration, loc)
	}

	return int(exp.Sub(calendarDate(now, loc)).Hours() / 24)
}

// TradingDay formats now as the YYYY-MM-DD date in loc.
func TradingDay(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}

	return now.In(loc).Format("2006-01-02")
}
