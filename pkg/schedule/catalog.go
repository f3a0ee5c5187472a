package schedule

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harrisonrobin/schedule/pkg/ledger"
	"github.com/harrisonrobin/schedule/pkg/model"
	"github.com/harrisonrobin/schedule/pkg/recurrence"
)

func checkName(kind, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%s name must not be empty: %w", kind, ErrInvalidValue)
	}
	return nil
}

// AddGroup creates an empty group anchored at today.
func (s *State) AddGroup(name string, rule recurrence.Rule, today time.Time) (*model.Group, error) {
	if err := checkName("group", name); err != nil {
		return nil, err
	}
	if _, ok := s.Groups[name]; ok {
		return nil, fmt.Errorf("group %q: %w", name, ErrExists)
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	g := &model.Group{
		Name:   name,
		Day:    rule.Day,
		Week:   rule.Week,
		Month:  rule.Month,
		Anchor: model.Day(today),
	}
	s.Groups[name] = g
	return g, nil
}

func (s *State) SetRecurrence(name string, rule recurrence.Rule) error {
	g, err := s.group(name)
	if err != nil {
		return err
	}
	if err := rule.Validate(); err != nil {
		return err
	}
	g.Day, g.Week, g.Month = rule.Day, rule.Week, rule.Month
	return nil
}

// DeleteGroup removes a group. Its tasks stay in the catalog.
func (s *State) DeleteGroup(name string) error {
	g, err := s.group(name)
	if err != nil {
		return err
	}
	for _, tn := range g.Tasks {
		if t, ok := s.Tasks[tn]; ok {
			t.Groups = slices.DeleteFunc(t.Groups, func(n string) bool { return n == name })
		}
	}
	delete(s.Groups, name)
	return nil
}

// AddTask adds a task to the catalog and to each of its groups. A task that
// was deleted earlier resumes its retained ledger; the days it was absent are
// folded as excluded.
func (s *State) AddTask(t model.Task, today time.Time) (*model.Task, error) {
	today = model.Day(today)
	if err := checkName("task", t.Name); err != nil {
		return nil, err
	}
	if _, ok := s.Tasks[t.Name]; ok {
		return nil, fmt.Errorf("task %q: %w", t.Name, ErrExists)
	}
	if t.Type == model.Continuous && t.MaxCount <= 0 {
		return nil, fmt.Errorf("continuous task %q needs a positive max count: %w", t.Name, ErrInvalidValue)
	}
	if t.Type != model.Continuous {
		t.MaxCount = 0
	}
	if len(t.Groups) == 0 {
		return nil, fmt.Errorf("task %q needs at least one group: %w", t.Name, ErrInvalidValue)
	}
	groups := slices.Compact(slices.Sorted(slices.Values(t.Groups)))
	for _, gn := range groups {
		g, err := s.group(gn)
		if err != nil {
			return nil, err
		}
		if s.full(g) {
			return nil, fmt.Errorf("group %q: %w", gn, ErrGroupFull)
		}
	}

	l, retained := s.Ledgers[t.Name]
	if retained && l != nil {
		if next := l.Next(); next.Before(today) {
			l.RecordExcludedRun(model.DaysBetween(next, today))
		} else if next.After(today) {
			return nil, &CorruptionError{
				Task: t.Name,
				Err:  fmt.Errorf("retained ledger runs to %s, past today", model.FormatDay(next)),
			}
		}
	} else {
		l = ledger.New(today)
	}

	task := &model.Task{
		Name:        t.Name,
		Type:        t.Type,
		MaxCount:    t.MaxCount,
		Groups:      groups,
		Description: t.Description,
		CreatedOn:   today,
	}
	if retained {
		task.CreatedOn = l.Since
	}
	for _, gn := range groups {
		s.Groups[gn].Tasks = append(s.Groups[gn].Tasks, t.Name)
	}
	s.Tasks[t.Name] = task
	s.Ledgers[t.Name] = l
	return task, nil
}

func (s *State) full(g *model.Group) bool {
	return s.MaxGroupTasks > 0 && len(g.Tasks) >= s.MaxGroupTasks
}

// AddTaskToGroup puts an existing task under another group.
func (s *State) AddTaskToGroup(taskName, groupName string) error {
	t, err := s.task(taskName)
	if err != nil {
		return err
	}
	g, err := s.group(groupName)
	if err != nil {
		return err
	}
	if g.HasTask(taskName) {
		return fmt.Errorf("task %q in group %q: %w", taskName, groupName, ErrExists)
	}
	if s.full(g) {
		return fmt.Errorf("group %q: %w", groupName, ErrGroupFull)
	}
	g.Tasks = append(g.Tasks, taskName)
	t.Groups = append(t.Groups, groupName)
	slices.Sort(t.Groups)
	return nil
}

// RemoveTaskFromGroup detaches a task from one group and reports whether the
// group is now empty. Deleting an empty group is left to the caller.
func (s *State) RemoveTaskFromGroup(taskName, groupName string) (bool, error) {
	t, err := s.task(taskName)
	if err != nil {
		return false, err
	}
	g, err := s.group(groupName)
	if err != nil {
		return false, err
	}
	if !g.RemoveTask(taskName) {
		return false, fmt.Errorf("task %q in group %q: %w", taskName, groupName, ErrNotFound)
	}
	t.Groups = slices.DeleteFunc(t.Groups, func(n string) bool { return n == groupName })
	return len(g.Tasks) == 0, nil
}

// DeleteTask removes a task from the catalog and from every group. Its
// ledger is kept. The groups left empty are returned.
func (s *State) DeleteTask(name string) ([]string, error) {
	t, err := s.task(name)
	if err != nil {
		return nil, err
	}
	var emptied []string
	for _, gn := range t.Groups {
		g, ok := s.Groups[gn]
		if !ok {
			continue
		}
		g.RemoveTask(name)
		if len(g.Tasks) == 0 {
			emptied = append(emptied, gn)
		}
	}
	delete(s.Tasks, name)
	delete(s.TasksToday, name)
	return emptied, nil
}

// AddOneTime adds a task that only exists for the live day.
func (s *State) AddOneTime(name string, typ model.TaskType, maxCount int) (*model.OneTimeTask, error) {
	if err := checkName("one-time task", name); err != nil {
		return nil, err
	}
	if s.oneTime(name) != nil {
		return nil, fmt.Errorf("one-time task %q: %w", name, ErrExists)
	}
	if typ == model.Continuous && maxCount <= 0 {
		return nil, fmt.Errorf("continuous task %q needs a positive max count: %w", name, ErrInvalidValue)
	}
	if typ != model.Continuous {
		maxCount = 0
	}
	s.OneTimes = append(s.OneTimes, model.OneTimeTask{
		ID:       uuid.NewString(),
		Name:     name,
		Type:     typ,
		MaxCount: maxCount,
	})
	return &s.OneTimes[len(s.OneTimes)-1], nil
}

func (s *State) oneTime(name string) *model.OneTimeTask {
	for i := range s.OneTimes {
		if s.OneTimes[i].Name == name {
			return &s.OneTimes[i]
		}
	}
	return nil
}
