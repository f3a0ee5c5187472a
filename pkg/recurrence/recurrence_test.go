package recurrence

import (
	"errors"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func TestUnit(t *testing.T) {
	monday := date(2024, time.January, 1)
	sunday := date(2024, time.January, 7)

	if got := Unit(Day, monday); got != 0 {
		t.Errorf("Expected Monday to project to 0, got %d", got)
	}
	if got := Unit(Day, sunday); got != 6 {
		t.Errorf("Expected Sunday to project to 6, got %d", got)
	}
	if got := Unit(Week, monday); got != 1 {
		t.Errorf("Expected ISO week 1, got %d", got)
	}
	if got := Unit(Month, date(2024, time.March, 31)); got != 3 {
		t.Errorf("Expected month 3, got %d", got)
	}
}

func TestIncludedZeroCodeAlwaysTrue(t *testing.T) {
	for _, g := range []Granularity{Day, Week, Month} {
		for unit := g.Min(); unit <= g.Max(); unit++ {
			for anchor := g.Min(); anchor <= g.Max(); anchor++ {
				if !Included(g, 0, unit, anchor) {
					t.Fatalf("%s: code 0 excluded unit %d (anchor %d)", g, unit, anchor)
				}
			}
		}
	}
}

func TestIncludedPositiveIgnoresAnchor(t *testing.T) {
	codes := map[Granularity]int{
		Day:   0b1010101,
		Week:  0b1011 << 20,
		Month: 0b100100100100,
	}
	for g, code := range codes {
		for unit := g.Min(); unit <= g.Max(); unit++ {
			want := Included(g, code, unit, g.Min())
			for anchor := g.Min(); anchor <= g.Max(); anchor++ {
				if got := Included(g, code, unit, anchor); got != want {
					t.Fatalf("%s: unit %d changed with anchor %d", g, unit, anchor)
				}
			}
		}
	}
}

func TestIncludedBitPositions(t *testing.T) {
	tests := []struct {
		name string
		g    Granularity
		code int
		unit int
		want bool
	}{
		{"bit 0 is Sunday", Day, 1, 6, true},
		{"bit 0 is not Monday", Day, 1, 0, false},
		{"bit 6 is Monday", Day, 1 << 6, 0, true},
		{"bit 0 is week 52", Week, 1, 52, true},
		{"bit 51 is week 1", Week, 1 << 51, 1, true},
		{"week 53 has no bit", Week, 1<<52 - 1, 53, false},
		{"March", Month, 1 << (12 - 3), 3, true},
		{"not April", Month, 1 << (12 - 3), 4, false},
		{"bit 0 is December", Month, 1, 12, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Included(tt.g, tt.code, tt.unit, 0); got != tt.want {
				t.Errorf("Included(%s, %b, %d) = %v, want %v", tt.g, tt.code, tt.unit, got, tt.want)
			}
		})
	}
}

func TestIncludedPeriodic(t *testing.T) {
	// Every 4 weeks from week 10.
	for w := 10; w <= 30; w++ {
		want := (w-10)%4 == 0
		if got := Included(Week, -4, w, 10); got != want {
			t.Errorf("week %d: got %v, want %v", w, got, want)
		}
	}
	// Every 3 months anchored in January.
	if Included(Month, -3, 3, 1) {
		t.Error("March should be excluded for every-3-months anchored in January")
	}
	if !Included(Month, -3, 4, 1) {
		t.Error("April should be included for every-3-months anchored in January")
	}
}

func TestIncludedDayPeriodUsesWeekdayDistance(t *testing.T) {
	// Pins the weekday-difference formula: the period restarts every week
	// instead of counting days since the anchor.
	anchor := date(2024, time.January, 1) // Monday
	rule := Rule{Day: -3}

	if !rule.Matches(date(2024, time.January, 4), anchor) {
		t.Error("Thursday is 3 weekdays after Monday and should match")
	}
	if !rule.Matches(date(2024, time.January, 8), anchor) {
		t.Error("the following Monday has weekday distance 0 and should match")
	}
	if rule.Matches(date(2024, time.January, 9), anchor) {
		t.Error("Tuesday has weekday distance 1 and should not match")
	}
	// Anchor later in the week than the day checked.
	if !Included(Day, -2, 1, 5) {
		t.Error("absolute distance |1-5| = 4 should match period 2")
	}
}

func TestRuleMatchesEveryThreeMonths(t *testing.T) {
	rule := Rule{Month: -3}
	anchor := date(2024, time.January, 15)

	if rule.Matches(date(2024, time.March, 15), anchor) {
		t.Error("Expected March to be inactive")
	}
	if !rule.Matches(date(2024, time.April, 15), anchor) {
		t.Error("Expected April to be active")
	}
}

func TestRuleMatchesShortCircuits(t *testing.T) {
	// Month excludes; day would include.
	rule := Rule{Day: 0, Week: 0, Month: 1 << (12 - 6)}
	if rule.Matches(date(2024, time.January, 1), date(2024, time.January, 1)) {
		t.Error("Expected January to be excluded by a June-only month code")
	}
	if !rule.Matches(date(2024, time.June, 3), date(2024, time.January, 1)) {
		t.Error("Expected June to be included")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		g       Granularity
		code    int
		wantErr bool
	}{
		{Day, 0, false},
		{Day, 127, false},
		{Day, 128, true},
		{Day, -7, false},
		{Day, -8, true},
		{Week, 1<<52 - 1, false},
		{Week, 1 << 52, true},
		{Week, -52, false},
		{Month, 4095, false},
		{Month, 4096, true},
		{Month, -13, true},
	}
	for _, tt := range tests {
		err := Validate(tt.g, tt.code)
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(%s, %d) error = %v, wantErr %v", tt.g, tt.code, err, tt.wantErr)
			continue
		}
		if err != nil {
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Errorf("Expected ConfigurationError, got %T", err)
			} else if cfgErr.Granularity != tt.g || cfgErr.Code != tt.code {
				t.Errorf("Unexpected error fields: %+v", cfgErr)
			}
		}
	}

	if err := (Rule{Day: 1, Week: 1, Month: 1 << 12}).Validate(); err == nil {
		t.Error("Expected Rule.Validate to reject an out-of-range month code")
	}
}
