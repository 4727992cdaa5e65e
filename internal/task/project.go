package task

import (
	"math"
	"strings"
)

// Filter selects which completion states are visible.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterPending   Filter = "pending"
	FilterCompleted Filter = "completed"
)

// ParseFilter maps a config/user string to a Filter, defaulting to all.
func ParseFilter(v string) Filter {
	switch Filter(strings.ToLower(strings.TrimSpace(v))) {
	case FilterPending:
		return FilterPending
	case FilterCompleted:
		return FilterCompleted
	default:
		return FilterAll
	}
}

// Next cycles all -> pending -> completed -> all.
func (f Filter) Next() Filter {
	switch f {
	case FilterAll:
		return FilterPending
	case FilterPending:
		return FilterCompleted
	default:
		return FilterAll
	}
}

// Row is one visible line of the projected view. ParentID is 0 for
// task rows; for sub-task rows it names the owning task. SubDone and
// SubTotal are filled on task rows only.
type Row struct {
	ID        int
	ParentID  int
	Text      string
	DueDate   string
	Completed bool
	Expanded  bool
	SubDone   int
	SubTotal  int
}

// IsSub reports whether the row is a sub-task line.
func (r Row) IsSub() bool { return r.ParentID != 0 }

// Summary aggregates over top-level tasks only; sub-tasks never count.
type Summary struct {
	Total           int
	Completed       int
	Pending         int
	ProgressPercent int
}

// Project derives the visible rows and summary counters from the full
// collection. It never mutates tasks.
//
// A task row is shown when the task itself passes both the text match
// (case-insensitive substring) and the status filter, or when at least
// one of its sub-tasks does; in the latter case the parent row is the
// anchor for the matching sub-task even though the parent itself
// failed. Sub-task rows are shown only for shown parents and only when
// the sub-task passes on its own. Rows keep insertion order, and a
// parent's sub-task rows directly follow it.
//
// The summary always covers the whole collection, not the filtered
// view.
func Project(tasks []Task, filter Filter, query string) ([]Row, Summary) {
	needle := strings.ToLower(strings.TrimSpace(query))
	rows := make([]Row, 0, len(tasks))

	var sum Summary
	for _, t := range tasks {
		sum.Total++
		if t.Completed {
			sum.Completed++
		}

		subRows := make([]Row, 0, len(t.Subtasks))
		done := 0
		for _, st := range t.Subtasks {
			if st.Completed {
				done++
			}
			if matchText(st.Text, needle) && matchStatus(filter, st.Completed) {
				subRows = append(subRows, Row{
					ID:        st.ID,
					ParentID:  t.ID,
					Text:      st.Text,
					DueDate:   st.DueDate,
					Completed: st.Completed,
				})
			}
		}

		show := matchText(t.Text, needle) && matchStatus(filter, t.Completed)
		if len(subRows) > 0 {
			show = true
		}
		if !show {
			continue
		}
		rows = append(rows, Row{
			ID:        t.ID,
			Text:      t.Text,
			DueDate:   t.DueDate,
			Completed: t.Completed,
			Expanded:  t.Expanded,
			SubDone:   done,
			SubTotal:  len(t.Subtasks),
		})
		rows = append(rows, subRows...)
	}

	sum.Pending = sum.Total - sum.Completed
	if sum.Total > 0 {
		sum.ProgressPercent = int(math.Round(100 * float64(sum.Completed) / float64(sum.Total)))
	}
	return rows, sum
}

func matchText(text, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(text), needle)
}

func matchStatus(f Filter, completed bool) bool {
	switch f {
	case FilterCompleted:
		return completed
	case FilterPending:
		return !completed
	default:
		return true
	}
}
