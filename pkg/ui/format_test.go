package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/harrisonrobin/tasklist/pkg/model"
)

func TestFormatTask(t *testing.T) {
	due := time.Date(2025, 6, 10, 12, 0, 0, 0, time.Local)
	tests := []struct {
		task model.Task
		want string
	}{
		{model.Task{Description: "Read"}, "Read - Incomplete - No due date"},
		{model.Task{Description: "Rent", IsComplete: true, DueDate: model.NewTimestamp(due)}, "Rent - Complete - 6/10/2025"},
	}
	for _, tt := range tests {
		if got := FormatTask(tt.task); got != tt.want {
			t.Errorf("FormatTask() = %q, want %q", got, tt.want)
		}
	}
}

func TestWriteList(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteList(&buf, nil); err != nil {
		t.Fatalf("WriteList failed: %v", err)
	}
	if buf.String() != "No tasks.\n" {
		t.Errorf("Unexpected empty output %q", buf.String())
	}

	buf.Reset()
	tasks := []model.Task{
		{ID: "1", Description: "Late", IsPastDue: true},
		{ID: "2", Description: "Done", IsComplete: true},
	}
	if err := WriteList(&buf, tasks); err != nil {
		t.Fatalf("WriteList failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "! Late") || !strings.HasPrefix(lines[1], "x Done") {
		t.Errorf("Unexpected list output:\n%s", buf.String())
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, []model.Task{{ID: "1", IsPastDue: true}}); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"isPastDue": true`) {
		t.Errorf("Expected derived flag in output, got %s", buf.String())
	}
}
