package schedule

import (
	"time"

	"github.com/harrisonrobin/schedule/pkg/log"
	"github.com/harrisonrobin/schedule/pkg/model"
	"github.com/harrisonrobin/schedule/pkg/recurrence"
)

// IsActive reports whether g applies on date. When it does, the group's
// anchor moves to date, so groups must be evaluated in chronological order.
func IsActive(g *model.Group, date time.Time) (bool, error) {
	rule := recurrence.Rule{Day: g.Day, Week: g.Week, Month: g.Month}
	if err := rule.Validate(); err != nil {
		return false, err
	}
	if !rule.Matches(date, g.Anchor) {
		return false, nil
	}
	g.Anchor = model.Day(date)
	return true, nil
}

// activeGroups evaluates every group for day and returns the active ones in
// evaluation order. Groups with an invalid rule are reported and skipped.
func (s *State) activeGroups(day time.Time) []*model.Group {
	var active []*model.Group
	for _, name := range s.GroupNames() {
		g := s.Groups[name]
		ok, err := IsActive(g, day)
		if err != nil {
			log.Warn().Err(err).Str("group", name).Msg("skipping group with invalid recurrence")
			continue
		}
		if ok {
			active = append(active, g)
		}
	}
	return active
}

// SelectToday adds every task owned by a group active on date to TasksToday
// with a value of 0. Tasks already present keep their value.
func (s *State) SelectToday(date time.Time) []string {
	for _, g := range s.activeGroups(model.Day(date)) {
		for _, name := range g.Tasks {
			if _, ok := s.Tasks[name]; !ok {
				continue
			}
			if _, ok := s.TasksToday[name]; !ok {
				s.TasksToday[name] = 0
			}
		}
	}
	return s.DueToday()
}
