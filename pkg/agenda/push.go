// Package agenda exports the live day's entry to a calendar and reconciles
// the events of days that have since closed.
package agenda

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/harrisonrobin/schedule/pkg/colors"
	"github.com/harrisonrobin/schedule/pkg/index"
	"github.com/harrisonrobin/schedule/pkg/ledger"
	"github.com/harrisonrobin/schedule/pkg/log"
	"github.com/harrisonrobin/schedule/pkg/model"
	"github.com/harrisonrobin/schedule/pkg/overdue"
	"github.com/harrisonrobin/schedule/pkg/schedule"
	"github.com/harrisonrobin/schedule/pkg/util"
)

// Calendar is the subset of the calendar client used by a push.
type Calendar interface {
	SyncEvent(ctx context.Context, key string, event *calendar.Event) (*calendar.Event, error)
	PatchEvent(ctx context.Context, eventID string, patch *calendar.Event) (*calendar.Event, error)
	DeleteEvent(ctx context.Context, eventID string) error
	ListEvents(ctx context.Context, day time.Time) ([]*calendar.Event, error)
}

type Pusher struct {
	cal     Calendar
	index   *index.EventIndex
	colors  *colors.ColorCache
	pending *overdue.Table
}

func NewPusher(cal Calendar, idx *index.EventIndex, cc *colors.ColorCache, pending *overdue.Table) *Pusher {
	return &Pusher{cal: cal, index: idx, colors: cc, pending: pending}
}

type Report struct {
	Synced  int
	Overdue int
	Pruned  int
	Failed  map[string]error
}

// Push reconciles closed days, then writes one event per item of the live
// day and removes the live day's events that no longer match an item.
func (p *Pusher) Push(ctx context.Context, s *schedule.State) (Report, error) {
	report := Report{Failed: make(map[string]error)}

	p.sweep(ctx, s, &report)

	keep := make(map[string]bool)
	for _, item := range Items(s) {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		key := item.Key()
		keep[key] = true

		event, err := util.ConvertItemToCalendarEvent(item, p.colorFor(item))
		if err != nil {
			report.Failed[key] = err
			continue
		}
		synced, err := p.cal.SyncEvent(ctx, key, event)
		if err != nil {
			report.Failed[key] = err
			log.Warn().Err(err).Str("key", key).Msg("could not sync event")
			continue
		}
		report.Synced++
		if p.index != nil {
			p.index.Set(key, model.FormatDay(item.Date), synced.Id)
		}
		p.pending.Update(key, overdue.Entry{
			EventID:   synced.Id,
			Task:      item.Name,
			Summary:   event.Summary,
			Day:       model.Day(item.Date),
			OneTimeID: item.OneTimeID,
		}, item.Done())
	}

	if err := p.prune(ctx, s.LastDate, keep, &report); err != nil {
		log.Warn().Err(err).Msg("could not prune stale events")
	}

	if err := p.save(); err != nil {
		return report, err
	}
	return report, nil
}

// Items lists the live day's entry as agenda items.
func Items(s *schedule.State) []util.AgendaItem {
	var items []util.AgendaItem
	for _, name := range s.DueToday() {
		t, ok := s.Tasks[name]
		if !ok {
			continue
		}
		items = append(items, util.AgendaItem{
			Date:   s.LastDate,
			Name:   name,
			Type:   t.Type,
			Value:  s.TasksToday[name],
			Max:    t.MaxCount,
			Groups: t.Groups,
			Notes:  t.Description,
		})
	}
	for _, ot := range s.OneTimes {
		items = append(items, util.AgendaItem{
			Date:      s.LastDate,
			Name:      ot.Name,
			Type:      ot.Type,
			Value:     ot.Value,
			Max:       ot.MaxCount,
			OneTimeID: ot.ID,
		})
	}
	return items
}

func (p *Pusher) colorFor(item util.AgendaItem) string {
	if p.colors == nil || len(item.Groups) == 0 {
		return colors.NoGroupColor
	}
	return p.colors.ColorID(item.Groups[0])
}

// sweep patches the events of closed days whose final outcome was not
// complete with the overdue marker, and completed ones with the done marker.
func (p *Pusher) sweep(ctx context.Context, s *schedule.State, report *Report) {
	for key, e := range p.pending.Sweep(s.LastDate) {
		done, known := outcome(s, e)
		if !known {
			log.Debug().Str("key", key).Msg("no outcome for swept event")
			continue
		}
		summary := util.MarkOverdue(e.Summary)
		if done {
			summary = util.DonePrefix + " " + stripMarkers(e.Summary)
		} else {
			report.Overdue++
		}
		if summary == e.Summary {
			continue
		}
		if _, err := p.cal.PatchEvent(ctx, e.EventID, &calendar.Event{Summary: summary}); err != nil {
			report.Failed[key] = err
			log.Warn().Err(err).Str("key", key).Msg("could not mark swept event")
		}
	}
}

// outcome reads how the day of e ended from the ledger or the archive.
func outcome(s *schedule.State, e overdue.Entry) (done, known bool) {
	if e.OneTimeID != "" {
		for _, ot := range s.Archive[model.FormatDay(e.Day)] {
			if ot.ID == e.OneTimeID {
				return ot.Type.Complete(ot.Value, ot.MaxCount), true
			}
		}
		return false, false
	}

	l, ok := s.Ledgers[e.Task]
	if !ok {
		return false, false
	}
	r, ok := l.At(e.Day)
	if !ok || r.Kind != ledger.KindStreak {
		return false, false
	}
	t, ok := s.Tasks[e.Task]
	if !ok {
		return r.Value != 0, true
	}
	return t.Type.Complete(r.Value, t.MaxCount), true
}

func stripMarkers(summary string) string {
	summary = strings.TrimPrefix(summary, util.DonePrefix+" ")
	return strings.TrimPrefix(summary, util.OverduePrefix+" ")
}

// prune deletes the events of day whose key is not in keep. Indexed events
// are found through the index; the calendar listing catches the rest.
func (p *Pusher) prune(ctx context.Context, day time.Time, keep map[string]bool, report *Report) error {
	today := model.FormatDay(day)
	seen := make(map[string]bool)
	remove := func(key, eventID string) {
		if keep[key] || seen[eventID] {
			return
		}
		seen[eventID] = true
		if err := p.cal.DeleteEvent(ctx, eventID); err != nil {
			report.Failed[key] = err
			return
		}
		report.Pruned++
		if p.index != nil {
			p.index.Remove(key)
		}
		p.pending.Remove(key)
	}

	if p.index != nil {
		for _, key := range p.index.Keys(today) {
			remove(key, p.index.Get(key))
		}
	}

	events, err := p.cal.ListEvents(ctx, day)
	if err != nil {
		return err
	}
	for _, ev := range events {
		if ev.Start == nil || ev.Start.Date != today || ev.ExtendedProperties == nil {
			continue
		}
		if key := ev.ExtendedProperties.Private[util.KeyProperty]; key != "" {
			remove(key, ev.Id)
		}
	}
	return nil
}

func (p *Pusher) save() error {
	if p.index != nil {
		if err := p.index.Save(); err != nil {
			return fmt.Errorf("save event index: %w", err)
		}
	}
	if p.colors != nil {
		if err := p.colors.Save(); err != nil {
			return fmt.Errorf("save color cache: %w", err)
		}
	}
	if err := p.pending.Save(); err != nil {
		return fmt.Errorf("save pending events: %w", err)
	}
	return nil
}
