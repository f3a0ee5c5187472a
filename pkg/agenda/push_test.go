package agenda

import (
	"context"
	"fmt"
	"testing"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/harrisonrobin/schedule/pkg/colors"
	"github.com/harrisonrobin/schedule/pkg/index"
	"github.com/harrisonrobin/schedule/pkg/model"
	"github.com/harrisonrobin/schedule/pkg/overdue"
	"github.com/harrisonrobin/schedule/pkg/recurrence"
	"github.com/harrisonrobin/schedule/pkg/schedule"
	"github.com/harrisonrobin/schedule/pkg/util"
)

type fakeCalendar struct {
	events  map[string]*calendar.Event // by event ID
	byKey   map[string]string
	patches map[string]string // event ID to patched summary
	deleted []string
	next    int
	// unlisted hides every event from ListEvents.
	unlisted bool
}

func newFakeCalendar() *fakeCalendar {
	return &fakeCalendar{
		events:  make(map[string]*calendar.Event),
		byKey:   make(map[string]string),
		patches: make(map[string]string),
	}
}

func (f *fakeCalendar) SyncEvent(_ context.Context, key string, ev *calendar.Event) (*calendar.Event, error) {
	if id, ok := f.byKey[key]; ok {
		existing := f.events[id]
		if patch := util.EventNeedsUpdate(existing, ev); patch != nil && patch.Summary != "" {
			existing.Summary = patch.Summary
		}
		return existing, nil
	}
	f.next++
	id := fmt.Sprintf("evt%d", f.next)
	copied := *ev
	copied.Id = id
	f.events[id] = &copied
	f.byKey[key] = id
	return &copied, nil
}

func (f *fakeCalendar) PatchEvent(_ context.Context, id string, patch *calendar.Event) (*calendar.Event, error) {
	ev, ok := f.events[id]
	if !ok {
		return nil, fmt.Errorf("event %s not found", id)
	}
	f.patches[id] = patch.Summary
	ev.Summary = patch.Summary
	return ev, nil
}

func (f *fakeCalendar) DeleteEvent(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	delete(f.events, id)
	return nil
}

func (f *fakeCalendar) ListEvents(_ context.Context, _ time.Time) ([]*calendar.Event, error) {
	var out []*calendar.Event
	if f.unlisted {
		return nil, nil
	}
	for _, ev := range f.events {
		out = append(out, ev)
	}
	return out, nil
}

func day(n int) time.Time {
	return time.Date(2024, time.January, n, 0, 0, 0, 0, time.Local)
}

func newPusher(t *testing.T, cal Calendar) *Pusher {
	t.Helper()
	dir := t.TempDir()
	idx, err := index.NewEventIndex(dir)
	if err != nil {
		t.Fatal(err)
	}
	cc, err := colors.NewColorCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	tbl, err := overdue.NewTable(dir)
	if err != nil {
		t.Fatal(err)
	}
	return NewPusher(cal, idx, cc, tbl)
}

func seed(t *testing.T) *schedule.State {
	t.Helper()
	s := schedule.New(day(1))
	if _, err := s.AddGroup("daily", recurrence.Rule{}, day(1)); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"floss", "read"} {
		if _, err := s.AddTask(model.Task{Name: name, Type: model.Binary, Groups: []string{"daily"}}, day(1)); err != nil {
			t.Fatal(err)
		}
	}
	s.SelectToday(day(1))
	return s
}

func TestPushCreatesEvents(t *testing.T) {
	ctx := context.Background()
	cal := newFakeCalendar()
	p := newPusher(t, cal)
	s := seed(t)
	if err := s.SetProgress("read", 1); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddOneTime("dentist", model.Binary, 0); err != nil {
		t.Fatal(err)
	}

	report, err := p.Push(ctx, s)
	if err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	if report.Synced != 3 || len(report.Failed) != 0 {
		t.Fatalf("Unexpected report %+v", report)
	}
	if ev := cal.events[cal.byKey["2024-01-01/read"]]; ev.Summary != "✓ read" {
		t.Errorf("Expected read marked done, got %q", ev.Summary)
	}
	// Only the incomplete events are waiting for their day to close.
	if len(p.pending.Entries) != 2 {
		t.Errorf("Expected 2 pending events, got %+v", p.pending.Entries)
	}
}

func TestPushMarksMissedDays(t *testing.T) {
	ctx := context.Background()
	cal := newFakeCalendar()
	p := newPusher(t, cal)
	s := seed(t)
	if _, err := p.Push(ctx, s); err != nil {
		t.Fatalf("Push failed: %v", err)
	}

	// read gets done after the push; floss is never done.
	if err := s.SetProgress("read", 1); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Advance(ctx, day(2), nil); err != nil {
		t.Fatal(err)
	}

	report, err := p.Push(ctx, s)
	if err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	if report.Overdue != 1 {
		t.Errorf("Expected 1 overdue event, got %+v", report)
	}
	flossID := cal.byKey["2024-01-01/floss"]
	if got := cal.patches[flossID]; got != "! floss" {
		t.Errorf("Expected floss marked overdue, got %q", got)
	}
	readID := cal.byKey["2024-01-01/read"]
	if got := cal.patches[readID]; got != "✓ read" {
		t.Errorf("Expected read marked done, got %q", got)
	}
	if cal.byKey["2024-01-02/floss"] == "" {
		t.Error("Expected an event for the new day")
	}
}

func TestPushPrunesRemovedTasks(t *testing.T) {
	ctx := context.Background()
	cal := newFakeCalendar()
	p := newPusher(t, cal)
	s := seed(t)
	if _, err := p.Push(ctx, s); err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	readID := cal.byKey["2024-01-01/read"]

	if _, err := s.DeleteTask("read"); err != nil {
		t.Fatal(err)
	}
	report, err := p.Push(ctx, s)
	if err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	if report.Pruned != 1 || len(cal.deleted) != 1 || cal.deleted[0] != readID {
		t.Errorf("Expected read's event pruned, got %+v deleted=%v", report, cal.deleted)
	}
	if p.index.Get("2024-01-01/read") != "" {
		t.Error("Expected pruned key removed from the index")
	}
}

func TestPushPrunesIndexedEventsMissingFromListing(t *testing.T) {
	ctx := context.Background()
	cal := newFakeCalendar()
	p := newPusher(t, cal)
	s := seed(t)
	if _, err := p.Push(ctx, s); err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	flossID := cal.byKey["2024-01-01/floss"]
	if got := p.index.Keys("2024-01-01"); len(got) != 2 {
		t.Fatalf("Expected both events indexed, got %v", got)
	}

	cal.unlisted = true
	if _, err := s.DeleteTask("floss"); err != nil {
		t.Fatal(err)
	}
	report, err := p.Push(ctx, s)
	if err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	if report.Pruned != 1 || len(cal.deleted) != 1 || cal.deleted[0] != flossID {
		t.Errorf("Expected floss's event pruned from the index, got %+v deleted=%v", report, cal.deleted)
	}
	if got := p.index.Keys("2024-01-01"); len(got) != 1 || got[0] != "2024-01-01/read" {
		t.Errorf("Expected only read left in the index, got %v", got)
	}
}
