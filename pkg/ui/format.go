package ui

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/harrisonrobin/tasklist/pkg/model"
)

const displayDateLayout = "1/2/2006"

// FormatTask renders "<description> - <state> - <due date>".
func FormatTask(task model.Task) string {
	state := "Incomplete"
	if task.IsComplete {
		state = "Complete"
	}
	due := "No due date"
	if task.HasDueDate() {
		due = task.Due().Local().Format(displayDateLayout)
	}
	return fmt.Sprintf("%s - %s - %s", task.Description, state, due)
}

// WriteList prints already sorted tasks, one per line, marking past-due ones.
func WriteList(w io.Writer, tasks []model.Task) error {
	if len(tasks) == 0 {
		_, err := fmt.Fprintln(w, "No tasks.")
		return err
	}
	for _, task := range tasks {
		marker := " "
		if task.IsPastDue {
			marker = "!"
		} else if task.IsComplete {
			marker = "x"
		}
		if _, err := fmt.Fprintf(w, "%s %s  [%s]\n", marker, FormatTask(task), task.ID); err != nil {
			return err
		}
	}
	return nil
}

// WriteJSON prints tasks as an indented JSON array.
func WriteJSON(w io.Writer, tasks []model.Task) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(tasks)
}
