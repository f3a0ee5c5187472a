// Package recurrence decides whether a calendar day falls inside a group's
// day, week and month recurrence codes.
//
// A code of 0 imposes no restriction. A positive code is a bitmask where bit
// (Max - unit) selects a unit, so bit 0 is the last unit of the range (Sunday,
// ISO week 52, December). A negative code -n repeats every n units counted
// from the group's anchor.
package recurrence

import (
	"fmt"
	"time"
)

type Granularity int

const (
	Day Granularity = iota
	Week
	Month
)

func (g Granularity) String() string {
	switch g {
	case Day:
		return "day"
	case Week:
		return "week"
	case Month:
		return "month"
	}
	return fmt.Sprintf("Granularity(%d)", int(g))
}

// Min and Max bound the unit values a granularity projects to.
func (g Granularity) Min() int {
	if g == Day {
		return 0
	}
	return 1
}

func (g Granularity) Max() int {
	switch g {
	case Day:
		return 6
	case Week:
		return 52
	default:
		return 12
	}
}

// span is the number of selectable units, and so the width of the bitmask.
func (g Granularity) span() int {
	return g.Max() - g.Min() + 1
}

// Unit projects t onto g: weekday with Monday as 0, ISO week number, or month.
func Unit(g Granularity, t time.Time) int {
	switch g {
	case Day:
		return (int(t.Weekday()) + 6) % 7
	case Week:
		_, w := t.ISOWeek()
		return w
	default:
		return int(t.Month())
	}
}

// ConfigurationError reports a recurrence code outside the legal range for
// its granularity.
type ConfigurationError struct {
	Granularity Granularity
	Code        int
	Reason      string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s recurrence code %d: %s", e.Granularity, e.Code, e.Reason)
}

// Validate rejects codes that cannot be evaluated for g.
func Validate(g Granularity, code int) error {
	switch {
	case code == 0:
		return nil
	case code > 0:
		if code >= 1<<g.span() {
			return &ConfigurationError{
				Granularity: g,
				Code:        code,
				Reason:      fmt.Sprintf("bitmask must fit in %d bits", g.span()),
			}
		}
	default:
		if code < -g.span() {
			return &ConfigurationError{
				Granularity: g,
				Code:        code,
				Reason:      fmt.Sprintf("period must be between 1 and %d", g.span()),
			}
		}
	}
	return nil
}

// Included is the calendar predicate for one granularity. unit and anchor
// are projections (see Unit) of the day being checked and of the group's
// inclusion anchor.
func Included(g Granularity, code, unit, anchor int) bool {
	switch {
	case code == 0:
		return true
	case code > 0:
		bit := g.Max() - unit
		// ISO week 53 has no bit.
		if bit < 0 || bit >= g.span() {
			return false
		}
		return (code>>bit)&1 == 1
	default:
		period := -code
		diff := unit - anchor
		if g == Day {
			// Day mode uses the plain weekday distance, so periods never
			// wrap across weeks.
			if diff < 0 {
				diff = -diff
			}
		}
		return diff%period == 0
	}
}

// Rule is a group's (day, week, month) recurrence triple.
type Rule struct {
	Day, Week, Month int
}

func (r Rule) Validate() error {
	if err := Validate(Month, r.Month); err != nil {
		return err
	}
	if err := Validate(Week, r.Week); err != nil {
		return err
	}
	return Validate(Day, r.Day)
}

// Matches evaluates month, then week, then day, stopping at the first level
// that excludes date.
func (r Rule) Matches(date, anchor time.Time) bool {
	for _, lvl := range []struct {
		g    Granularity
		code int
	}{{Month, r.Month}, {Week, r.Week}, {Day, r.Day}} {
		if !Included(lvl.g, lvl.code, Unit(lvl.g, date), Unit(lvl.g, anchor)) {
			return false
		}
	}
	return true
}
