// Package schedule evaluates group recurrence, selects the tasks due on a day
// and folds each day's outcome into the task ledgers.
package schedule

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/harrisonrobin/schedule/pkg/ledger"
	"github.com/harrisonrobin/schedule/pkg/model"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrExists       = errors.New("already exists")
	ErrGroupFull    = errors.New("group is full")
	ErrInvalidValue = errors.New("invalid value")
	ErrNotDue       = errors.New("task is not due today")
)

// CorruptionError marks a task whose ledger cannot be extended. Only that
// task is skipped; the rest of the replay continues.
type CorruptionError struct {
	Task string
	Err  error
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("ledger for task %q is corrupt: %v", e.Task, e.Err)
}

func (e *CorruptionError) Unwrap() error {
	return e.Err
}

// State is the whole schedule: catalog, ledgers, archive and the cursor of
// the day currently being tracked.
type State struct {
	// LastDate is the live day. Every day before it has been folded into the
	// ledgers.
	LastDate time.Time
	// TasksToday holds the value recorded so far for each task due on LastDate.
	TasksToday map[string]float64
	OneTimes   []model.OneTimeTask
	// Archive maps a day (model.DayLayout) to the one-time tasks of that day.
	Archive map[string][]model.OneTimeTask

	Groups  map[string]*model.Group
	Tasks   map[string]*model.Task
	Ledgers map[string]*ledger.Ledger

	// MaxGroupTasks caps the number of tasks per group; 0 disables the cap.
	MaxGroupTasks int
}

func New(today time.Time) *State {
	return &State{
		LastDate:   model.Day(today),
		TasksToday: make(map[string]float64),
		Archive:    make(map[string][]model.OneTimeTask),
		Groups:     make(map[string]*model.Group),
		Tasks:      make(map[string]*model.Task),
		Ledgers:    make(map[string]*ledger.Ledger),
	}
}

// GroupNames returns the group keys in evaluation order.
func (s *State) GroupNames() []string {
	return slices.Sorted(maps.Keys(s.Groups))
}

func (s *State) TaskNames() []string {
	return slices.Sorted(maps.Keys(s.Tasks))
}

// DueToday returns the keys of TasksToday in display order.
func (s *State) DueToday() []string {
	return slices.Sorted(maps.Keys(s.TasksToday))
}

func (s *State) task(name string) (*model.Task, error) {
	t, ok := s.Tasks[name]
	if !ok {
		return nil, fmt.Errorf("task %q: %w", name, ErrNotFound)
	}
	return t, nil
}

func (s *State) group(name string) (*model.Group, error) {
	g, ok := s.Groups[name]
	if !ok {
		return nil, fmt.Errorf("group %q: %w", name, ErrNotFound)
	}
	return g, nil
}
