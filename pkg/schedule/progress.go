package schedule

import (
	"fmt"

	"github.com/harrisonrobin/schedule/pkg/ledger"
)

// SetProgress records value as today's value of a due task.
func (s *State) SetProgress(name string, value float64) error {
	t, err := s.task(name)
	if err != nil {
		return err
	}
	if _, ok := s.TasksToday[name]; !ok {
		return fmt.Errorf("task %q: %w", name, ErrNotDue)
	}
	if err := ledger.CheckValue(t.Type, t.MaxCount, value); err != nil {
		return fmt.Errorf("task %q: %v: %w", name, err, ErrInvalidValue)
	}
	s.TasksToday[name] = value
	return nil
}

// AddProgress adds delta to today's value of a due task.
func (s *State) AddProgress(name string, delta float64) error {
	current, ok := s.TasksToday[name]
	if !ok {
		if _, err := s.task(name); err != nil {
			return err
		}
		return fmt.Errorf("task %q: %w", name, ErrNotDue)
	}
	return s.SetProgress(name, current+delta)
}

func (s *State) SetOneTimeProgress(name string, value float64) error {
	ot := s.oneTime(name)
	if ot == nil {
		return fmt.Errorf("one-time task %q: %w", name, ErrNotFound)
	}
	if err := ledger.CheckValue(ot.Type, ot.MaxCount, value); err != nil {
		return fmt.Errorf("one-time task %q: %v: %w", name, err, ErrInvalidValue)
	}
	ot.Value = value
	return nil
}

func (s *State) AddOneTimeProgress(name string, delta float64) error {
	ot := s.oneTime(name)
	if ot == nil {
		return fmt.Errorf("one-time task %q: %w", name, ErrNotFound)
	}
	return s.SetOneTimeProgress(name, ot.Value+delta)
}
