package google

import (
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/harrisonrobin/tasklist/pkg/model"
	"github.com/harrisonrobin/tasklist/pkg/ordering"
)

const (
	// TaskIDProperty is the private extended property linking an event to its task.
	TaskIDProperty = "tasklist_id"

	dateLayout      = "2006-01-02"
	defaultDuration = 30 * time.Minute
)

// Event colors per bucket (Google calendar color ids).
var bucketColors = map[ordering.Bucket]string{
	ordering.BucketPastDue:    "11", // Tomato
	ordering.BucketIncomplete: "1",  // Lavender
	ordering.BucketComplete:   "10", // Basil
}

// EventSummary prefixes the description with the task state.
func EventSummary(task model.Task) string {
	switch {
	case task.IsComplete:
		return "✓ " + task.Description
	case task.IsPastDue:
		return "! " + task.Description
	}
	return task.Description
}

func bucketOf(task model.Task) ordering.Bucket {
	switch {
	case task.IsComplete:
		return ordering.BucketComplete
	case task.IsPastDue:
		return ordering.BucketPastDue
	}
	return ordering.BucketIncomplete
}

// ConvertTaskToCalendarEvent builds the event mirroring task. The task must
// come out of ordering.Sort so IsPastDue is current. Due dates at UTC
// midnight become all-day events.
func ConvertTaskToCalendarEvent(task model.Task) (*calendar.Event, error) {
	if !task.HasDueDate() {
		return nil, fmt.Errorf("task has no due date: %s", task.ID)
	}

	due := task.Due()
	var start, end *calendar.EventDateTime
	if isDateOnly(due) {
		start = &calendar.EventDateTime{Date: due.UTC().Format(dateLayout)}
		end = &calendar.EventDateTime{Date: due.UTC().AddDate(0, 0, 1).Format(dateLayout)}
	} else {
		start = &calendar.EventDateTime{DateTime: due.UTC().Format(time.RFC3339)}
		end = &calendar.EventDateTime{DateTime: due.Add(defaultDuration).UTC().Format(time.RFC3339)}
	}

	status := "Incomplete"
	if task.IsComplete {
		status = "Complete"
	}
	var desc strings.Builder
	desc.WriteString(fmt.Sprintf("Status: %s\n", status))
	if task.IsPastDue {
		desc.WriteString("Past due\n")
	}
	desc.WriteString(fmt.Sprintf("ID: %s\n", task.ID))

	return &calendar.Event{
		Summary:     EventSummary(task),
		Description: desc.String(),
		ColorId:     bucketColors[bucketOf(task)],
		Start:       start,
		End:         end,
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{
				TaskIDProperty: task.ID,
			},
		},
	}, nil
}

func isDateOnly(t time.Time) bool {
	u := t.UTC()
	return u.Hour() == 0 && u.Minute() == 0 && u.Second() == 0 && u.Nanosecond() == 0
}

// EventNeedsUpdate returns a patch holding the fields of target that differ
// from existing, or nil when the event is already current.
func EventNeedsUpdate(existing, target *calendar.Event) (*calendar.Event, error) {
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

	sameStart, err := sameEventTime(existing.Start, target.Start)
	if err != nil {
		return nil, err
	}
	sameEnd, err := sameEventTime(existing.End, target.End)
	if err != nil {
		return nil, err
	}
	if !sameStart || !sameEnd {
		patch.Start = target.Start
		patch.End = target.End
		needsUpdate = true
	}

	if needsUpdate {
		return patch, nil
	}
	return nil, nil
}

func sameEventTime(a, b *calendar.EventDateTime) (bool, error) {
	if a == nil || b == nil {
		return a == b, nil
	}
	if a.Date != "" || b.Date != "" {
		return a.Date == b.Date, nil
	}
	at, err := time.Parse(time.RFC3339, a.DateTime)
	if err != nil {
		return false, err
	}
	bt, err := time.Parse(time.RFC3339, b.DateTime)
	if err != nil {
		return false, err
	}
	return at.Equal(bt), nil
}
