// Package ledger holds the run-length encoded daily history of a task.
package ledger

import (
	"fmt"
	"math"
	"time"

	"github.com/harrisonrobin/schedule/pkg/model"
)

type Kind int

const (
	// KindStreak counts consecutive due days that ended with the same value.
	KindStreak Kind = iota
	// KindExcluded counts consecutive days the task was not due.
	KindExcluded
)

func (k Kind) String() string {
	if k == KindExcluded {
		return "excluded"
	}
	return "streak"
}

type Record struct {
	Kind  Kind
	Value float64
	Count int
}

func Streak(value float64, count int) Record {
	return Record{Kind: KindStreak, Value: value, Count: count}
}

func ExcludedRun(count int) Record {
	return Record{Kind: KindExcluded, Count: count}
}

// Ledger is the append-only history of one task, starting on Since. The last
// record is the open one: later days either extend it or append a new record.
type Ledger struct {
	Since   time.Time
	Records []Record
}

func New(since time.Time) *Ledger {
	return &Ledger{Since: model.Day(since)}
}

// Open returns the record the next day would extend.
func (l *Ledger) Open() (Record, bool) {
	if len(l.Records) == 0 {
		return Record{}, false
	}
	return l.Records[len(l.Records)-1], true
}

// RecordDue folds one due day that ended with value.
func (l *Ledger) RecordDue(value float64) {
	if n := len(l.Records); n > 0 {
		last := &l.Records[n-1]
		if last.Kind == KindStreak && last.Value == value {
			last.Count++
			return
		}
	}
	l.Records = append(l.Records, Streak(value, 1))
}

// RecordExcluded folds one day on which the task was not due.
func (l *Ledger) RecordExcluded() {
	l.RecordExcludedRun(1)
}

// RecordExcludedRun folds n consecutive days on which the task was not due.
func (l *Ledger) RecordExcludedRun(n int) {
	if n <= 0 {
		return
	}
	if k := len(l.Records); k > 0 && l.Records[k-1].Kind == KindExcluded {
		l.Records[k-1].Count += n
		return
	}
	l.Records = append(l.Records, ExcludedRun(n))
}

// Days is the number of days folded so far.
func (l *Ledger) Days() int {
	total := 0
	for _, r := range l.Records {
		total += r.Count
	}
	return total
}

// Next is the first day that has not been folded yet.
func (l *Ledger) Next() time.Time {
	return model.Day(l.Since).AddDate(0, 0, l.Days())
}

// At returns the record covering day.
func (l *Ledger) At(day time.Time) (Record, bool) {
	offset := model.DaysBetween(l.Since, day)
	if offset < 0 {
		return Record{}, false
	}
	for _, r := range l.Records {
		if offset < r.Count {
			return r, true
		}
		offset -= r.Count
	}
	return Record{}, false
}

// Validate checks the records against the owning task's type. A ledger that
// fails validation must not be extended.
func (l *Ledger) Validate(t model.TaskType, maxCount int) error {
	if l.Since.IsZero() {
		return fmt.Errorf("missing start day")
	}
	for i, r := range l.Records {
		if r.Count <= 0 {
			return fmt.Errorf("record %d has count %d", i, r.Count)
		}
		if i > 0 {
			prev := l.Records[i-1]
			if prev.Kind == r.Kind && (r.Kind == KindExcluded || prev.Value == r.Value) {
				return fmt.Errorf("records %d and %d should have been merged", i-1, i)
			}
		}
		switch r.Kind {
		case KindExcluded:
			if r.Value != 0 {
				return fmt.Errorf("excluded run %d carries value %v", i, r.Value)
			}
		case KindStreak:
			if err := CheckValue(t, maxCount, r.Value); err != nil {
				return fmt.Errorf("record %d: %w", i, err)
			}
		default:
			return fmt.Errorf("record %d has unknown kind %d", i, int(r.Kind))
		}
	}
	return nil
}

// CheckValue reports whether value is a legal daily value for a task type.
func CheckValue(t model.TaskType, maxCount int, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("value %v is not a finite number", value)
	}
	switch t {
	case model.Binary:
		if value != 0 && value != 1 {
			return fmt.Errorf("binary value must be 0 or 1, got %v", value)
		}
	case model.Continuous:
		if value < 0 || value > float64(maxCount) || value != math.Trunc(value) {
			return fmt.Errorf("continuous value must be a whole number between 0 and %d, got %v", maxCount, value)
		}
	}
	return nil
}
