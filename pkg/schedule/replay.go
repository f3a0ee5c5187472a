package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/harrisonrobin/schedule/pkg/ledger"
	"github.com/harrisonrobin/schedule/pkg/log"
	"github.com/harrisonrobin/schedule/pkg/model"
)

// Saver persists the full state. Advance calls it once per folded day.
type Saver interface {
	Save(ctx context.Context, s *State) error
}

type AdvanceReport struct {
	// Days is the number of days folded.
	Days int
	// Corrupted holds the tasks skipped because their ledger was corrupt.
	Corrupted map[string]error
}

// Advance folds every day from LastDate up to (not including) today, then
// selects today's tasks. The state is saved after each folded day, so an
// interrupted replay resumes at the first day that was not saved.
func (s *State) Advance(ctx context.Context, today time.Time, saver Saver) (AdvanceReport, error) {
	today = model.Day(today)
	report := AdvanceReport{Corrupted: make(map[string]error)}

	if s.LastDate.IsZero() {
		s.LastDate = today
	}
	if s.LastDate.After(today) {
		log.Warn().
			Str("last_date", model.FormatDay(s.LastDate)).
			Str("today", model.FormatDay(today)).
			Msg("last date is in the future, not replaying")
		s.SelectToday(s.LastDate)
		return report, nil
	}

	for s.LastDate.Before(today) {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		day := s.LastDate
		for name, err := range s.CloseDay(day) {
			report.Corrupted[name] = err
		}
		report.Days++

		if saver == nil {
			continue
		}
		if err := saver.Save(ctx, s); err != nil {
			log.Error().Err(err).Str("date", model.FormatDay(day)).Msg("failed to persist replayed day")
			return report, fmt.Errorf("persist %s: %w", model.FormatDay(day), err)
		}
	}

	s.SelectToday(today)
	return report, nil
}

// CloseDay folds day into the ledger of every catalog task, archives the
// day's one-time tasks and moves LastDate to the next day.
//
// Each task gets exactly one transition. Recorded values are folded first,
// then tasks of groups active on day are folded as due with value 0, and
// only the remaining tasks are folded as excluded. A task in both an active
// and an inactive group is therefore due.
func (s *State) CloseDay(day time.Time) map[string]error {
	day = model.Day(day)
	corrupted := make(map[string]error)
	resolved := make(map[string]bool)

	fold := func(name string, due bool, value float64) {
		if resolved[name] {
			return
		}
		resolved[name] = true
		l, err := s.ledgerFor(name, day)
		if err != nil {
			corrupted[name] = err
			log.Warn().Err(err).Str("task", name).Str("date", model.FormatDay(day)).Msg("skipping task")
			return
		}
		if due {
			l.RecordDue(value)
		} else {
			l.RecordExcluded()
		}
	}

	for _, name := range s.DueToday() {
		if _, ok := s.Tasks[name]; ok {
			fold(name, true, s.TasksToday[name])
		}
	}

	active := s.activeGroups(day)
	for _, g := range active {
		for _, name := range g.Tasks {
			if _, ok := s.Tasks[name]; ok {
				fold(name, true, 0)
			}
		}
	}

	for _, name := range s.TaskNames() {
		fold(name, false, 0)
	}

	key := model.FormatDay(day)
	if len(s.OneTimes) > 0 {
		s.Archive[key] = append(s.Archive[key], s.OneTimes...)
	}

	log.Debug().
		Str("date", key).
		Int("active_groups", len(active)).
		Int("tasks", len(resolved)).
		Int("one_times", len(s.OneTimes)).
		Msg("closed day")

	s.OneTimes = nil
	s.TasksToday = make(map[string]float64)
	s.LastDate = model.NextDay(day)
	return corrupted
}

// ledgerFor returns the ledger of a task if it is sound and positioned
// exactly at day.
func (s *State) ledgerFor(name string, day time.Time) (*ledger.Ledger, error) {
	t := s.Tasks[name]
	l, ok := s.Ledgers[name]
	if !ok || l == nil {
		return nil, &CorruptionError{Task: name, Err: fmt.Errorf("missing ledger")}
	}
	if err := l.Validate(t.Type, t.MaxCount); err != nil {
		return nil, &CorruptionError{Task: name, Err: err}
	}
	if next := l.Next(); !next.Equal(day) {
		return nil, &CorruptionError{
			Task: name,
			Err:  fmt.Errorf("ledger is at %s, expected %s", model.FormatDay(next), model.FormatDay(day)),
		}
	}
	return l, nil
}
