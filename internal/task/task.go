package task

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-date form used for due dates. Dates are
// plain strings with no timezone attached.
const DateLayout = "2006-01-02"

var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("not found")
	ErrPersistence = errors.New("persistence failed")
)

// SubTask is a child item of exactly one Task. It cannot nest further.
type SubTask struct {
	ID        int    `json:"id"`
	Text      string `json:"text"`
	DueDate   string `json:"dueDate"`
	Completed bool   `json:"completed"`
}

// Task is a top-level to-do item. Expanded is a display hint only: it
// records whether the sub-task rows are shown, and is persisted like
// the rest of the record.
type Task struct {
	ID        int       `json:"id"`
	Text      string    `json:"text"`
	DueDate   string    `json:"dueDate"`
	Completed bool      `json:"completed"`
	Expanded  bool      `json:"expanded"`
	Subtasks  []SubTask `json:"subtasks"`
}

// Entity is a resolved reference to either a task or one of its
// sub-tasks. When IsSub is set, Sub and ParentID are valid and Task is
// the owning parent; otherwise Task is the resolved entity itself.
type Entity struct {
	IsSub    bool
	Task     Task
	Sub      SubTask
	ParentID int
}

func (e Entity) Text() string {
	if e.IsSub {
		return e.Sub.Text
	}
	return e.Task.Text
}

func (e Entity) DueDate() string {
	if e.IsSub {
		return e.Sub.DueDate
	}
	return e.Task.DueDate
}

func validateFields(text, dueDate string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: text is empty", ErrValidation)
	}
	if dueDate == "" {
		return fmt.Errorf("%w: due date is empty", ErrValidation)
	}
	if _, err := time.Parse(DateLayout, dueDate); err != nil {
		return fmt.Errorf("%w: due date %q is not YYYY-MM-DD", ErrValidation, dueDate)
	}
	return nil
}

func cloneTask(t Task) Task {
	if t.Subtasks != nil {
		subs := make([]SubTask, len(t.Subtasks))
		copy(subs, t.Subtasks)
		t.Subtasks = subs
	}
	return t
}

func cloneTasks(tasks []Task) []Task {
	if tasks == nil {
		return nil
	}
	out := make([]Task, len(tasks))
	copy(out, tasks)
	for i := range out {
		if out[i].Subtasks != nil {
			subs := make([]SubTask, len(out[i].Subtasks))
			copy(subs, out[i].Subtasks)
			out[i].Subtasks = subs
		}
	}
	return out
}
