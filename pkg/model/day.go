package model

import "time"

// DayLayout is the on-disk and display format for calendar days.
const DayLayout = "2006-01-02"

// Day truncates t to midnight in the host's local calendar.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func FormatDay(t time.Time) string {
	return t.Format(DayLayout)
}

func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(DayLayout, s, time.Local)
}

// NextDay returns the calendar day after d.
func NextDay(d time.Time) time.Time {
	return Day(d).AddDate(0, 0, 1)
}

// DaysBetween counts calendar days from a up to (not including) b.
// It is negative when b is before a.
func DaysBetween(a, b time.Time) int {
	a, b = Day(a), Day(b)
	// Noon avoids DST hours skewing the division.
	an := time.Date(a.Year(), a.Month(), a.Day(), 12, 0, 0, 0, time.UTC)
	bn := time.Date(b.Year(), b.Month(), b.Day(), 12, 0, 0, 0, time.UTC)
	return int(bn.Sub(an).Hours() / 24)
}
