// Package utils provides small shared helpers.
package utils

import (
	"fmt"
	"time"
)

// IsWeekend reports whether t falls on a Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// TradingDaysBetween counts weekdays after start up to and including end.
// Exchange holidays are not modeled; weekends are the only exclusion.
func TradingDaysBetween(start, end time.Time) int {
	start = truncateDay(start)
	end = truncateDay(end)
	if !end.After(start) {
		return 0
	}

	days := 0
	for d := start.AddDate(0, 0, 1); !d.After(end); d = d.AddDate(0, 0, 1) {
		if !IsWeekend(d) {
			days++
		}
	}
	return days
}

// SameDay reports whether two timestamps fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return truncateDay(a).Equal(truncateDay(b))
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatPct renders a fractional value as a signed percentage string.
func FormatPct(v float64) string {
	return fmt.Sprintf("%+.2f%%", v*100)
}

// FormatPrice renders a price with two decimals.
func FormatPrice(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
