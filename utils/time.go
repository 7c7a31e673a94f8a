// Package utils provides utility functions for the application.
package utils

import (
	"fmt"
	"time"
)

// DateLayout is the layout used for calendar dates stored as text (slot dates, campaign ranges)
const DateLayout = "2006-01-02"

// ClockLayout is the layout used for time-of-day values
const ClockLayout = "15:04"

// UTCNow returns the current time in UTC
func UTCNow() time.Time {
	return time.Now().UTC()
}

// TimeToUTCPtr converts a time pointer to UTC if it's not already
func TimeToUTCPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}

// LoadStationLocation resolves the station timezone, UTC when empty
func LoadStationLocation(name string) (*time.Location, error) {
	if name == "" || name == "UTC" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid station timezone %q: %w", name, err)
	}
	return loc, nil
}

// FormatDate formats t as YYYY-MM-DD in its own location
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD date in the given location
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(DateLayout, s, loc)
}

// ParseClock parses an HH:MM time-of-day into minutes after midnight
func ParseClock(s string) (int, error) {
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// MinuteOfDay returns minutes after midnight for t in its own location
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
