package util

import (
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/harrisonrobin/schedule/pkg/model"
)

const (
	// KeyProperty is the private extended property holding an item's key.
	KeyProperty = "schedule_key"

	DonePrefix    = "✓"
	OverduePrefix = "!"
)

// AgendaItem is one line of a day's entry as exported to a calendar.
type AgendaItem struct {
	Date   time.Time
	Name   string
	Type   model.TaskType
	Value  float64
	Max    int
	Groups []string
	Notes  string
	// OneTimeID is set for one-time tasks.
	OneTimeID string
}

// Key identifies the calendar event of an item. Recurring tasks are keyed by
// day and name, one-time tasks by their ID.
func (it AgendaItem) Key() string {
	if it.OneTimeID != "" {
		return it.OneTimeID
	}
	return EventKey(it.Date, it.Name)
}

func (it AgendaItem) Done() bool {
	return it.Type.Complete(it.Value, it.Max)
}

func EventKey(day time.Time, name string) string {
	return model.FormatDay(day) + "/" + name
}

// ParseEventKey splits a recurring item key into its day and task name.
func ParseEventKey(key string) (time.Time, string, error) {
	date, name, ok := strings.Cut(key, "/")
	if !ok || name == "" {
		return time.Time{}, "", fmt.Errorf("invalid event key %q", key)
	}
	day, err := model.ParseDay(date)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid event key %q: %w", key, err)
	}
	return day, name, nil
}

// Summary is the event title of an item.
func Summary(it AgendaItem) string {
	title := it.Name
	if it.Type == model.Continuous {
		title = fmt.Sprintf("%s (%d/%d)", it.Name, int(it.Value), it.Max)
	} else if it.Type == model.Measured && it.Value != 0 {
		title = fmt.Sprintf("%s (%v)", it.Name, it.Value)
	}
	if it.Done() {
		return DonePrefix + " " + title
	}
	return title
}

// MarkOverdue prefixes an event title with the overdue marker once.
func MarkOverdue(summary string) string {
	summary = strings.TrimPrefix(summary, DonePrefix+" ")
	if strings.HasPrefix(summary, OverduePrefix+" ") {
		return summary
	}
	return OverduePrefix + " " + summary
}

// ConvertItemToCalendarEvent builds the all-day event for an item.
func ConvertItemToCalendarEvent(it AgendaItem, colorID string) (*calendar.Event, error) {
	if it.Name == "" {
		return nil, fmt.Errorf("could not convert an item without a name")
	}
	if it.Date.IsZero() {
		return nil, fmt.Errorf("item %q has no date", it.Name)
	}

	var desc strings.Builder
	if len(it.Groups) > 0 {
		for _, g := range it.Groups {
			fmt.Fprintf(&desc, "#%s ", g)
		}
		desc.WriteString("\n\n")
	}
	fmt.Fprintf(&desc, "Type: %s\n", it.Type)
	if it.OneTimeID != "" {
		desc.WriteString("One-time task\n")
	}
	if it.Notes != "" {
		fmt.Fprintf(&desc, "\nNotes:\n‣ %s\n", it.Notes)
	}

	day := model.Day(it.Date)
	return &calendar.Event{
		Summary:      Summary(it),
		ColorId:      colorID,
		Description:  desc.String(),
		Start:        &calendar.EventDateTime{Date: model.FormatDay(day)},
		End:          &calendar.EventDateTime{Date: model.FormatDay(model.NextDay(day))},
		Transparency: "transparent",
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{KeyProperty: it.Key()},
		},
	}, nil
}

// EventNeedsUpdate returns a patch holding the fields of target that differ
// from existing, or nil when the event is current.
func EventNeedsUpdate(existing, target *calendar.Event) *calendar.Event {
	patch := &calendar.Event{}
	needsUpdate := false

	if existing.Summary != target.Summary {
		patch.Summary = target.Summary
		needsUpdate = true
	}
	if existing.Description != target.Description {
		patch.Description = target.Description
		needsUpdate = true
	}
	if existing.ColorId != target.ColorId {
		patch.ColorId = target.ColorId
		needsUpdate = true
	}
	if eventDate(existing.Start) != eventDate(target.Start) || eventDate(existing.End) != eventDate(target.End) {
		patch.Start = target.Start
		patch.End = target.End
		needsUpdate = true
	}

	if needsUpdate {
		return patch
	}
	return nil
}

func eventDate(dt *calendar.EventDateTime) string {
	if dt == nil {
		return ""
	}
	if dt.Date != "" {
		return dt.Date
	}
	return dt.DateTime
}
