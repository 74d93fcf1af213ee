package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"

	"github.com/harrisonrobin/tasklist/pkg/index"
	"github.com/harrisonrobin/tasklist/pkg/model"
	"github.com/harrisonrobin/tasklist/pkg/ordering"
)

// CalendarClient mirrors tasks onto one Google calendar.
type CalendarClient struct {
	srv        *calendar.Service
	calendarID string
	index      *index.EventIndex
}

// NewCalendarClient creates a client for the calendar with calendarID.
func NewCalendarClient(srv *calendar.Service, calendarID string, idx *index.EventIndex) *CalendarClient {
	return &CalendarClient{srv: srv, calendarID: calendarID, index: idx}
}

// MirrorResult counts what a Mirror pass did.
type MirrorResult struct {
	Synced  int
	Removed int
	Failed  int
}

// Mirror brings the calendar in line with tasks at now: dated tasks get an
// event, and events of tasks that lost their due date or vanished from the
// list are deleted. Per-task failures are logged and counted.
func (c *CalendarClient) Mirror(ctx context.Context, tasks []model.Task, now time.Time, logger *log.Logger) MirrorResult {
	var res MirrorResult
	seen := make(map[string]bool, len(tasks))

	for _, task := range ordering.Sort(tasks, now) {
		seen[task.ID] = true
		if !task.HasDueDate() {
			if c.index == nil || c.index.Get(task.ID) == "" {
				continue
			}
			if err := c.RemoveTask(ctx, task.ID); err != nil {
				logger.Error("Error removing event", "task_id", task.ID, "err", err)
				res.Failed++
				continue
			}
			res.Removed++
			continue
		}

		if _, err := c.SyncTask(ctx, task); err != nil {
			logger.Error("Error syncing event", "task_id", task.ID, "err", err)
			res.Failed++
			continue
		}
		res.Synced++
	}

	if c.index != nil {
		for _, id := range c.index.TaskIDs() {
			if seen[id] {
				continue
			}
			if err := c.RemoveTask(ctx, id); err != nil {
				logger.Error("Error removing event", "task_id", id, "err", err)
				res.Failed++
				continue
			}
			res.Removed++
		}
	}
	return res
}

// SyncTask creates the task's event or patches the fields that changed.
func (c *CalendarClient) SyncTask(ctx context.Context, task model.Task) (*calendar.Event, error) {
	event, err := ConvertTaskToCalendarEvent(task)
	if err != nil {
		return nil, err
	}

	existing, err := c.findEvent(ctx, task.ID)
	if err != nil {
		return nil, fmt.Errorf("error searching for event: %w", err)
	}

	if existing != nil {
		patch, err := EventNeedsUpdate(existing, event)
		if err != nil {
			return nil, fmt.Errorf("could not compare task with its calendar event: %w", err)
		}
		if patch == nil {
			c.remember(task.ID, existing.Id)
			return existing, nil
		}
		updated, err := c.PatchEvent(ctx, existing.Id, patch)
		if err != nil {
			return nil, err
		}
		c.remember(task.ID, updated.Id)
		return updated, nil
	}

	created, err := c.srv.Events.Insert(c.calendarID, event).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	c.remember(task.ID, created.Id)
	return created, nil
}

// RemoveTask deletes the event mirroring taskID, if any.
func (c *CalendarClient) RemoveTask(ctx context.Context, taskID string) error {
	existing, err := c.findEvent(ctx, taskID)
	if err != nil {
		return err
	}
	if existing != nil {
		if err := c.DeleteEvent(ctx, existing.Id); err != nil && !isGone(err) {
			return err
		}
	}
	if c.index != nil {
		c.index.Remove(taskID)
	}
	return nil
}

// findEvent tries the local index first, then falls back to an API search.
func (c *CalendarClient) findEvent(ctx context.Context, taskID string) (*calendar.Event, error) {
	if c.index != nil {
		if eventID := c.index.Get(taskID); eventID != "" {
			event, err := c.srv.Events.Get(c.calendarID, eventID).Context(ctx).Do()
			if err == nil && event.Status != "cancelled" {
				return event, nil
			}
		}
	}
	return c.GetEventByTaskID(ctx, taskID)
}

func (c *CalendarClient) remember(taskID, eventID string) {
	if c.index != nil {
		c.index.Set(taskID, eventID)
	}
}

// PatchEvent performs a partial update on an event.
func (c *CalendarClient) PatchEvent(ctx context.Context, eventID string, patch *calendar.Event) (*calendar.Event, error) {
	return c.srv.Events.Patch(c.calendarID, eventID, patch).Context(ctx).Do()
}

// DeleteEvent deletes an event from the calendar.
func (c *CalendarClient) DeleteEvent(ctx context.Context, eventID string) error {
	return c.srv.Events.Delete(c.calendarID, eventID).Context(ctx).Do()
}

// GetEventByTaskID searches for the event carrying the task id property.
func (c *CalendarClient) GetEventByTaskID(ctx context.Context, taskID string) (*calendar.Event, error) {
	events, err := c.srv.Events.List(c.calendarID).
		PrivateExtendedProperty(fmt.Sprintf("%s=%s", TaskIDProperty, taskID)).
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

func isGone(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone
	}
	return false
}
