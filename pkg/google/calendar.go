package google

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/harrisonrobin/schedule/pkg/index"
	"github.com/harrisonrobin/schedule/pkg/log"
	"github.com/harrisonrobin/schedule/pkg/model"
	"github.com/harrisonrobin/schedule/pkg/util"
)

// CalendarClient writes agenda events into one Google calendar.
type CalendarClient struct {
	srv        *calendar.Service
	calendarID string
	index      *index.EventIndex
}

func NewCalendarClient(srv *calendar.Service, calendarID string, idx *index.EventIndex) *CalendarClient {
	return &CalendarClient{srv: srv, calendarID: calendarID, index: idx}
}

// SyncEvent creates the event for key or patches the existing one when it
// differs from event.
func (c *CalendarClient) SyncEvent(ctx context.Context, key string, event *calendar.Event) (*calendar.Event, error) {
	var existing *calendar.Event
	if c.index != nil {
		if eventID := c.index.Get(key); eventID != "" {
			ev, err := c.srv.Events.Get(c.calendarID, eventID).Context(ctx).Do()
			if err != nil {
				log.Debug().Err(err).Str("key", key).Msg("indexed event not found, searching")
			} else if ev.Status != "cancelled" {
				existing = ev
			}
		}
	}

	if existing == nil {
		ev, err := c.GetEventByKey(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("error searching for event: %w", err)
		}
		existing = ev
	}

	if existing != nil {
		if c.index != nil {
			c.index.Set(key, eventDay(event), existing.Id)
		}
		patch := util.EventNeedsUpdate(existing, event)
		if patch == nil {
			return existing, nil
		}
		return c.PatchEvent(ctx, existing.Id, patch)
	}

	created, err := c.srv.Events.Insert(c.calendarID, event).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	if c.index != nil {
		c.index.Set(key, eventDay(event), created.Id)
	}
	return created, nil
}

func (c *CalendarClient) PatchEvent(ctx context.Context, eventID string, patch *calendar.Event) (*calendar.Event, error) {
	return c.srv.Events.Patch(c.calendarID, eventID, patch).Context(ctx).Do()
}

func (c *CalendarClient) DeleteEvent(ctx context.Context, eventID string) error {
	return c.srv.Events.Delete(c.calendarID, eventID).Context(ctx).Do()
}

// ListEvents returns every event on day, following all result pages.
func (c *CalendarClient) ListEvents(ctx context.Context, day time.Time) ([]*calendar.Event, error) {
	start := model.Day(day)
	var events []*calendar.Event
	err := c.srv.Events.List(c.calendarID).
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(model.NextDay(start).Format(time.RFC3339)).
		SingleEvents(true).
		Pages(ctx, func(page *calendar.Events) error {
			events = append(events, page.Items...)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve events from calendar: %w", err)
	}
	return events, nil
}

// GetEventByKey finds the event carrying key in its private properties.
func (c *CalendarClient) GetEventByKey(ctx context.Context, key string) (*calendar.Event, error) {
	events, err := c.srv.Events.List(c.calendarID).
		PrivateExtendedProperty(fmt.Sprintf("%s=%s", util.KeyProperty, key)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	if len(events.Items) > 0 {
		return events.Items[0], nil
	}
	return nil, nil
}

func eventDay(ev *calendar.Event) string {
	if ev.Start == nil {
		return ""
	}
	return ev.Start.Date
}
