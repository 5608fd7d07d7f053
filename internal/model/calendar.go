package model

import (
	"fmt"
	"time"
)

// Calendar fixes the first day of every fiscal year.
type Calendar struct {
	Month time.Month
	Day   int
}

// CalendarYear starts fiscal years on January 1.
var CalendarYear = Calendar{Month: time.January, Day: 1}

// ParseCalendar parses a "MM-DD" year start such as "07-01".
func ParseCalendar(s string) (Calendar, error) {
	t, err := time.Parse("01-02", s)
	if err != nil {
		return Calendar{}, fmt.Errorf("parsing fiscal year start %q: %w", s, err)
	}
	return Calendar{Month: t.Month(), Day: t.Day()}, nil
}

// Start returns the first day of fiscal year.
func (c Calendar) Start(year int) time.Time {
	return time.Date(year, c.Month, c.Day, 0, 0, 0, 0, time.UTC)
}

// End returns the last day of fiscal year.
func (c Calendar) End(year int) time.Time {
	return c.Start(year+1).AddDate(0, 0, -1)
}
