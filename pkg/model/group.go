package model

import (
	"slices"
	"time"
)

// Group bundles tasks that share a recurrence rule.
type Group struct {
	Name  string
	Tasks []string
	// Day, Week and Month hold the raw recurrence codes; see package recurrence.
	Day, Week, Month int
	// Anchor is the last day the group was confirmed active.
	Anchor time.Time
}

func (g *Group) HasTask(name string) bool {
	return slices.Contains(g.Tasks, name)
}

// RemoveTask drops name from the group and reports whether it was present.
func (g *Group) RemoveTask(name string) bool {
	i := slices.Index(g.Tasks, name)
	if i < 0 {
		return false
	}
	g.Tasks = slices.Delete(g.Tasks, i, i+1)
	return true
}
