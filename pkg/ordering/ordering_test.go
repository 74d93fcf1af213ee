package ordering

import (
	"fmt"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/harrisonrobin/tasklist/pkg/model"
)

var now = time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

func day(month time.Month, d int) *model.Timestamp {
	return model.NewTimestamp(time.Date(2025, month, d, 0, 0, 0, 0, time.UTC))
}

func ids(tasks []model.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, task.ID)
	}
	return out
}

func TestSortScenarios(t *testing.T) {
	tests := []struct {
		name        string
		input       []model.Task
		wantOrder   []string
		wantPastDue []bool
	}{
		{
			name: "past due, future, complete",
			input: []model.Task{
				{ID: "1", DueDate: day(time.June, 10)},
				{ID: "2", DueDate: day(time.June, 20)},
				{ID: "3", IsComplete: true, DueDate: day(time.June, 1)},
			},
			wantOrder:   []string{"1", "2", "3"},
			wantPastDue: []bool{true, false, false},
		},
		{
			name: "undated incomplete after past due",
			input: []model.Task{
				{ID: "undated"},
				{ID: "overdue", DueDate: day(time.June, 1)},
			},
			wantOrder:   []string{"overdue", "undated"},
			wantPastDue: []bool{true, false},
		},
		{
			name:        "empty",
			input:       []model.Task{},
			wantOrder:   []string{},
			wantPastDue: []bool{},
		},
		{
			name: "complete overrides overdue",
			input: []model.Task{
				{ID: "done", IsComplete: true, DueDate: day(time.June, 1)},
			},
			wantOrder:   []string{"done"},
			wantPastDue: []bool{false},
		},
		{
			name: "due exactly now is not past due",
			input: []model.Task{
				{ID: "later", DueDate: day(time.June, 16)},
				{ID: "now", DueDate: model.NewTimestamp(now)},
			},
			wantOrder:   []string{"now", "later"},
			wantPastDue: []bool{false, false},
		},
		{
			name: "most overdue first",
			input: []model.Task{
				{ID: "b", DueDate: day(time.June, 12)},
				{ID: "a", DueDate: day(time.May, 30)},
				{ID: "c", DueDate: day(time.June, 14)},
			},
			wantOrder:   []string{"a", "b", "c"},
			wantPastDue: []bool{true, true, true},
		},
		{
			name: "complete keeps input order between dated tasks",
			input: []model.Task{
				{ID: "1", IsComplete: true, DueDate: day(time.June, 16)},
				{ID: "2", DueDate: day(time.June, 14)},
				{ID: "3", DueDate: day(time.June, 16)},
				{ID: "4", IsComplete: true, DueDate: day(time.June, 14)},
				{ID: "5", IsComplete: true},
			},
			wantOrder:   []string{"2", "3", "1", "4", "5"},
			wantPastDue: []bool{true, false, false, false, false},
		},
		{
			name: "undated only keeps input order",
			input: []model.Task{
				{ID: "1", IsComplete: true},
				{ID: "2"},
				{ID: "3"},
			},
			wantOrder:   []string{"2", "3", "1"},
			wantPastDue: []bool{false, false, false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sort(tt.input, now)
			if !reflect.DeepEqual(ids(got), tt.wantOrder) {
				t.Fatalf("Expected order %v, got %v", tt.wantOrder, ids(got))
			}
			for i, task := range got {
				if task.IsPastDue != tt.wantPastDue[i] {
					t.Errorf("Task %s: expected IsPastDue=%v, got %v", task.ID, tt.wantPastDue[i], task.IsPastDue)
				}
			}
		})
	}
}

func TestSortDoesNotMutateInput(t *testing.T) {
	input := []model.Task{
		{ID: "future", DueDate: day(time.June, 20), IsPastDue: true},
		{ID: "overdue", DueDate: day(time.June, 1)},
	}
	snapshot := make([]model.Task, len(input))
	copy(snapshot, input)

	got := Sort(input, now)
	if !reflect.DeepEqual(input, snapshot) {
		t.Errorf("Input was modified: %+v", input)
	}

	got[0].Description = "changed"
	if input[1].Description != "" {
		t.Error("Output aliases input records")
	}
}

func TestSortSingleTask(t *testing.T) {
	input := []model.Task{{ID: "1", Description: "only", DueDate: day(time.June, 1)}}
	got := Sort(input, now)
	if len(got) != 1 {
		t.Fatalf("Expected 1 task, got %d", len(got))
	}
	want := input[0]
	want.IsPastDue = true
	if !reflect.DeepEqual(got[0], want) {
		t.Errorf("Expected %+v, got %+v", want, got[0])
	}
}

func randomTasks(r *rand.Rand, n int) []model.Task {
	tasks := make([]model.Task, n)
	for i := range tasks {
		tasks[i] = model.Task{
			ID:          fmt.Sprintf("t%d", i),
			Description: fmt.Sprintf("Task %d", i),
			IsComplete:  r.Intn(3) == 0,
			IsPastDue:   r.Intn(2) == 0,
		}
		if r.Intn(3) != 0 {
			offset := time.Duration(r.Intn(20)-10) * 24 * time.Hour
			tasks[i].DueDate = model.NewTimestamp(now.Add(offset))
		}
	}
	return tasks
}

func TestSortProperties(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for round := 0; round < 200; round++ {
		input := randomTasks(r, r.Intn(12))
		got := Sort(input, now)

		if len(got) != len(input) {
			t.Fatalf("round %d: expected %d tasks, got %d", round, len(input), len(got))
		}

		for i, task := range got {
			want := task.HasDueDate() && task.DueDate.Before(now) && !task.IsComplete
			if task.IsPastDue != want {
				t.Fatalf("round %d: task %s IsPastDue=%v, want %v", round, task.ID, task.IsPastDue, want)
			}
			if i == 0 {
				continue
			}
			prev := got[i-1]
			pb, cb := BucketOf(prev, now), BucketOf(task, now)
			if pb > cb {
				t.Fatalf("round %d: bucket %s after %s", round, pb, cb)
			}
			if pb == cb && cb != BucketPastDue && !prev.HasDueDate() && task.HasDueDate() {
				t.Fatalf("round %d: undated %s before dated %s", round, prev.ID, task.ID)
			}
			if pb == cb && cb != BucketComplete && prev.HasDueDate() && task.HasDueDate() && prev.DueDate.After(task.DueDate.Time) {
				t.Fatalf("round %d: %s due after %s", round, prev.ID, task.ID)
			}
		}

		again := Sort(got, now)
		if !reflect.DeepEqual(again, got) {
			t.Fatalf("round %d: re-sort changed order: %v -> %v", round, ids(got), ids(again))
		}
		if !reflect.DeepEqual(Sort(input, now), got) {
			t.Fatalf("round %d: sort is not deterministic", round)
		}
	}
}

func TestBucketOf(t *testing.T) {
	tests := []struct {
		task model.Task
		want Bucket
	}{
		{model.Task{DueDate: day(time.June, 1)}, BucketPastDue},
		{model.Task{DueDate: day(time.June, 30)}, BucketIncomplete},
		{model.Task{}, BucketIncomplete},
		{model.Task{IsComplete: true, DueDate: day(time.June, 1)}, BucketComplete},
		{model.Task{DueDate: &model.Timestamp{}}, BucketIncomplete},
	}
	for _, tt := range tests {
		if got := BucketOf(tt.task, now); got != tt.want {
			t.Errorf("BucketOf(%+v) = %s, want %s", tt.task, got, tt.want)
		}
	}
}
