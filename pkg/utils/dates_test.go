package utils

import (
	"testing"
	"time"
)

func TestTradingDaysBetween(t *testing.T) {
	monday := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		end  time.Time
		want int
	}{
		{"same day", monday, 0},
		{"next day", monday.AddDate(0, 0, 1), 1},
		{"friday", monday.AddDate(0, 0, 4), 4},
		{"over the weekend", monday.AddDate(0, 0, 7), 5},
		{"two weeks", monday.AddDate(0, 0, 14), 10},
		{"end before start", monday.AddDate(0, 0, -3), 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := TradingDaysBetween(monday, tc.end); got != tc.want {
				t.Errorf("TradingDaysBetween = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestTradingDaysBetween_WeekendEndpoints(t *testing.T) {
	friday := time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC)
	sunday := friday.AddDate(0, 0, 2)
	if got := TradingDaysBetween(friday, sunday); got != 0 {
		t.Errorf("friday to sunday = %d trading days, want 0", got)
	}
}

func TestIsWeekend(t *testing.T) {
	saturday := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	if !IsWeekend(saturday) || !IsWeekend(saturday.AddDate(0, 0, 1)) {
		t.Error("saturday and sunday are weekend days")
	}
	if IsWeekend(saturday.AddDate(0, 0, 2)) {
		t.Error("monday is not a weekend day")
	}
}

func TestSameDay(t *testing.T) {
	a := time.Date(2026, 1, 5, 9, 15, 0, 0, time.UTC)
	b := time.Date(2026, 1, 5, 15, 30, 0, 0, time.UTC)
	if !SameDay(a, b) {
		t.Error("timestamps on the same date must match")
	}
	if SameDay(a, b.AddDate(0, 0, 1)) {
		t.Error("different dates must not match")
	}
}
