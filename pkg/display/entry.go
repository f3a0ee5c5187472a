// Package display formats the schedule for the terminal. It only reads state.
package display

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/harrisonrobin/schedule/pkg/ledger"
	"github.com/harrisonrobin/schedule/pkg/model"
	"github.com/harrisonrobin/schedule/pkg/schedule"
)

const (
	Completed    = "COMPLETED"
	NotCompleted = "NOT COMPLETED"
	indent       = "    "
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C678DD"))
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#98C379"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#636B78"))
)

type Line struct {
	Name   string
	Type   model.TaskType
	Status string
}

func (l Line) Done() bool {
	return l.Status == Completed
}

// Entry is the read model of one day.
type Entry struct {
	Date      time.Time
	Recurring []Line
	OneTime   []Line
}

func (e Entry) Empty() bool {
	return len(e.Recurring) == 0 && len(e.OneTime) == 0
}

// Status formats a task value the way it is shown to the user.
func Status(t model.TaskType, value float64, maxCount int) string {
	switch t {
	case model.Binary:
		if value != 0 {
			return Completed
		}
		return NotCompleted
	case model.Continuous:
		if int(value) == maxCount {
			return Completed
		}
		return fmt.Sprintf("%s/%d", FormatValue(value), maxCount)
	default:
		return FormatValue(value)
	}
}

func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Today builds the entry for the live day.
func Today(s *schedule.State) Entry {
	e := Entry{Date: s.LastDate}
	for _, name := range s.DueToday() {
		t, ok := s.Tasks[name]
		if !ok {
			continue
		}
		e.Recurring = append(e.Recurring, Line{
			Name:   name,
			Type:   t.Type,
			Status: Status(t.Type, s.TasksToday[name], t.MaxCount),
		})
	}
	for _, ot := range s.OneTimes {
		e.OneTime = append(e.OneTime, Line{
			Name:   ot.Name,
			Type:   ot.Type,
			Status: Status(ot.Type, ot.Value, ot.MaxCount),
		})
	}
	return e
}

// Render draws an entry for the terminal.
func Render(e Entry) string {
	if e.Empty() {
		return "You have no tasks for today.\n"
	}

	var b strings.Builder
	b.WriteString(mutedStyle.Render(e.Date.Format("Monday, January 2 2006")))
	b.WriteString("\n")
	writeSection(&b, "RECURRING TASKS:", e.Recurring)
	b.WriteString("\n")
	writeSection(&b, "ONE-TIME TASKS:", e.OneTime)
	return b.String()
}

func writeSection(b *strings.Builder, title string, lines []Line) {
	b.WriteString(headerStyle.Render(title))
	b.WriteString("\n")
	for _, l := range lines {
		status := l.Status
		if l.Done() {
			status = doneStyle.Render(status)
		}
		fmt.Fprintf(b, "%s%s: %s\n", indent, l.Name, status)
	}
}

// History lists the records of a task ledger with the days they cover.
func History(name string, t model.TaskType, maxCount int, l *ledger.Ledger) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("HISTORY OF %s (since %s):", name, model.FormatDay(l.Since))))
	b.WriteString("\n")
	if len(l.Records) == 0 {
		b.WriteString(indent + "no days recorded yet\n")
		return b.String()
	}

	day := l.Since
	for _, r := range l.Records {
		last := day.AddDate(0, 0, r.Count-1)
		span := model.FormatDay(day)
		if r.Count > 1 {
			span += " .. " + model.FormatDay(last)
		}
		outcome := "excluded"
		if r.Kind == ledger.KindStreak {
			outcome = Status(t, r.Value, maxCount)
		}
		fmt.Fprintf(&b, "%s%s: %s (%d %s)\n", indent, span, outcome, r.Count, plural(r.Count, "day"))
		day = last.AddDate(0, 0, 1)
	}
	return b.String()
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
