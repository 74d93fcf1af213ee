// Package ordering arranges tasks by urgency for display.
package ordering

import (
	"slices"
	"time"

	"github.com/harrisonrobin/tasklist/pkg/model"
)

// Bucket is one of the three display partitions, in output order.
type Bucket int

const (
	BucketPastDue Bucket = iota
	BucketIncomplete
	BucketComplete
)

func (b Bucket) String() string {
	switch b {
	case BucketPastDue:
		return "past-due"
	case BucketIncomplete:
		return "incomplete"
	case BucketComplete:
		return "complete"
	}
	return "unknown"
}

// IsPastDue reports whether an incomplete task's due date is strictly before now.
func IsPastDue(task model.Task, now time.Time) bool {
	return !task.IsComplete && task.HasDueDate() && task.DueDate.Before(now)
}

// BucketOf returns the partition task falls into at now.
func BucketOf(task model.Task, now time.Time) Bucket {
	if task.IsComplete {
		return BucketComplete
	}
	if IsPastDue(task, now) {
		return BucketPastDue
	}
	return BucketIncomplete
}

// Sort returns a copy of tasks with IsPastDue recomputed against now, ordered
// past-due first (most overdue first), then other incomplete tasks (dated
// before undated, soonest first), then complete tasks (dated before undated).
// Ties keep their input order. The input slice is not modified.
func Sort(tasks []model.Task, now time.Time) []model.Task {
	sorted := make([]model.Task, len(tasks))
	copy(sorted, tasks)

	for i := range sorted {
		sorted[i].IsPastDue = IsPastDue(sorted[i], now)
	}

	slices.SortStableFunc(sorted, func(a, b model.Task) int {
		return compare(a, b, now)
	})
	return sorted
}

func compare(a, b model.Task, now time.Time) int {
	ba, bb := BucketOf(a, now), BucketOf(b, now)
	if ba != bb {
		return int(ba) - int(bb)
	}

	aDated, bDated := a.HasDueDate(), b.HasDueDate()
	switch {
	case aDated && !bDated:
		return -1
	case !aDated && bDated:
		return 1
	case !aDated && !bDated:
		return 0
	}

	// Complete tasks are only split by date presence.
	if ba == BucketComplete {
		return 0
	}
	return a.DueDate.Compare(b.DueDate.Time)
}
