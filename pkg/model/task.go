package model

import "time"

// Task is a single entry of the remote task list.
type Task struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	IsComplete  bool       `json:"isComplete"`
	DueDate     *Timestamp `json:"dueDate,omitempty"`
	// IsPastDue is derived by the ordering pass and never sent back to the API.
	IsPastDue bool `json:"isPastDue"`
}

// HasDueDate reports whether the task carries a due date.
func (t Task) HasDueDate() bool {
	return t.DueDate != nil && !t.DueDate.IsZero()
}

// Due returns the due date, or the zero time when there is none.
func (t Task) Due() time.Time {
	if !t.HasDueDate() {
		return time.Time{}
	}
	return t.DueDate.Time
}

// NewTimestamp wraps t for use as a due date.
func NewTimestamp(t time.Time) *Timestamp {
	return &Timestamp{Time: t}
}
