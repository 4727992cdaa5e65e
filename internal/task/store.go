package task

import (
	"encoding/json"
	"fmt"
)

// NoteKind classifies the advisory message emitted after a mutation.
type NoteKind int

const (
	NoteInfo NoteKind = iota
	NoteSuccess
	NoteDanger
)

// Persister stores and retrieves the serialized collection. Load
// reports found=false on first run; that is not an error.
type Persister interface {
	Load() (data []byte, found bool, err error)
	Save(data []byte) error
}

// Notifier receives advisory status messages. Fire-and-forget: the
// store never depends on anything coming back.
type Notifier interface {
	Notify(message string, kind NoteKind)
}

type note struct {
	message string
	kind    NoteKind
}

// Store owns the task collection. All mutations go through it; it
// keeps ids unique, keeps a parent's completed flag in sync with its
// sub-tasks, and writes the whole collection through the Persister
// after every successful mutation. If the write fails the in-memory
// change is rolled back, so memory and storage never diverge.
//
// Store is single-owner and not safe for concurrent use. A second
// process writing the same backing store wins last-save; the store
// does not re-read before mutating.
type Store struct {
	persist Persister
	notify  Notifier
	tasks   []Task
	nextID  int
	pending []note
}

// NewStore loads the persisted collection, treating an absent record
// as an empty one. The id counter resumes past the highest id seen.
func NewStore(p Persister, n Notifier) (*Store, error) {
	s := &Store{persist: p, notify: n, nextID: 1}
	data, found, err := p.Load()
	if err != nil {
		return nil, fmt.Errorf("%w: load: %v", ErrPersistence, err)
	}
	if found && len(data) > 0 {
		if err := json.Unmarshal(data, &s.tasks); err != nil {
			return nil, fmt.Errorf("%w: decode: %v", ErrPersistence, err)
		}
	}
	for _, t := range s.tasks {
		if t.ID >= s.nextID {
			s.nextID = t.ID + 1
		}
		for _, st := range t.Subtasks {
			if st.ID >= s.nextID {
				s.nextID = st.ID + 1
			}
		}
	}
	return s, nil
}

// Tasks returns a deep copy of the collection in insertion order.
// Callers can hand it to the projector or render it, but mutating the
// copy never touches the store.
func (s *Store) Tasks() []Task {
	return cloneTasks(s.tasks)
}

// Len reports the number of top-level tasks.
func (s *Store) Len() int {
	return len(s.tasks)
}

// Find resolves (id, parentID) to a task or sub-task. parentID 0 means
// a top-level task.
func (s *Store) Find(id, parentID int) (Entity, error) {
	if parentID != 0 {
		parent, sub := s.findSubtask(parentID, id)
		if sub == nil {
			return Entity{}, fmt.Errorf("%w: sub-task %d of task %d", ErrNotFound, id, parentID)
		}
		return Entity{IsSub: true, Task: cloneTask(*parent), Sub: *sub, ParentID: parentID}, nil
	}
	t := s.findTask(id)
	if t == nil {
		return Entity{}, fmt.Errorf("%w: task %d", ErrNotFound, id)
	}
	return Entity{Task: cloneTask(*t)}, nil
}

// AddTask appends a new pending task with no sub-tasks.
func (s *Store) AddTask(text, dueDate string) (Task, error) {
	if err := validateFields(text, dueDate); err != nil {
		return Task{}, err
	}
	snap := cloneTasks(s.tasks)
	t := Task{ID: s.takeID(), Text: text, DueDate: dueDate, Subtasks: []SubTask{}}
	s.tasks = append(s.tasks, t)
	s.queue("Task added", NoteSuccess)
	if err := s.commit(snap); err != nil {
		s.nextID = t.ID
		return Task{}, err
	}
	return t, nil
}

// AddSubtask appends a new pending sub-task to an existing task. A
// completed parent is forced back to pending: it just gained
// unfinished work.
func (s *Store) AddSubtask(parentID int, text, dueDate string) (SubTask, error) {
	parent := s.findTask(parentID)
	if parent == nil {
		return SubTask{}, fmt.Errorf("%w: task %d", ErrNotFound, parentID)
	}
	if err := validateFields(text, dueDate); err != nil {
		return SubTask{}, err
	}
	snap := cloneTasks(s.tasks)
	st := SubTask{ID: s.takeID(), Text: text, DueDate: dueDate}
	parent.Subtasks = append(parent.Subtasks, st)
	parent.Completed = false
	s.queue("Sub-task added", NoteSuccess)
	if err := s.commit(snap); err != nil {
		s.nextID = st.ID
		return SubTask{}, err
	}
	return st, nil
}

// EditTask overwrites the text and due date of a task (parentID 0) or
// sub-task. Completion flags are untouched, but the parent of an
// edited sub-task is re-synced for consistency.
func (s *Store) EditTask(id, parentID int, text, dueDate string) error {
	if err := validateFields(text, dueDate); err != nil {
		return err
	}
	snap := cloneTasks(s.tasks)
	if parentID != 0 {
		parent, sub := s.findSubtask(parentID, id)
		if sub == nil {
			return fmt.Errorf("%w: sub-task %d of task %d", ErrNotFound, id, parentID)
		}
		sub.Text = text
		sub.DueDate = dueDate
		s.syncParent(parent)
	} else {
		t := s.findTask(id)
		if t == nil {
			return fmt.Errorf("%w: task %d", ErrNotFound, id)
		}
		t.Text = text
		t.DueDate = dueDate
	}
	s.queue("Task updated", NoteSuccess)
	return s.commit(snap)
}

// ToggleComplete flips the completed flag. Toggling a task that has
// sub-tasks drags every sub-task to the same state; toggling a
// sub-task leaves its siblings alone and re-syncs the parent instead.
func (s *Store) ToggleComplete(id, parentID int) error {
	snap := cloneTasks(s.tasks)
	if parentID != 0 {
		parent, sub := s.findSubtask(parentID, id)
		if sub == nil {
			return fmt.Errorf("%w: sub-task %d of task %d", ErrNotFound, id, parentID)
		}
		sub.Completed = !sub.Completed
		s.queueToggled(sub.Completed)
		s.syncParent(parent)
	} else {
		t := s.findTask(id)
		if t == nil {
			return fmt.Errorf("%w: task %d", ErrNotFound, id)
		}
		t.Completed = !t.Completed
		s.queueToggled(t.Completed)
		if len(t.Subtasks) > 0 {
			changed := false
			for i := range t.Subtasks {
				if t.Subtasks[i].Completed != t.Completed {
					t.Subtasks[i].Completed = t.Completed
					changed = true
				}
			}
			if changed {
				if t.Completed {
					s.queue("All sub-tasks marked as completed", NoteInfo)
				} else {
					s.queue("All sub-tasks marked as pending", NoteInfo)
				}
			}
		}
	}
	return s.commit(snap)
}

// DeleteTask removes a task and all of its sub-tasks.
func (s *Store) DeleteTask(id int) error {
	idx := -1
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: task %d", ErrNotFound, id)
	}
	snap := cloneTasks(s.tasks)
	s.queue(fmt.Sprintf("Task %q deleted", s.tasks[idx].Text), NoteDanger)
	s.tasks = append(s.tasks[:idx], s.tasks[idx+1:]...)
	return s.commit(snap)
}

// DeleteSubtask removes one sub-task from its parent. Siblings are
// untouched; the parent is re-synced, so removing the last pending
// sub-task can auto-complete it.
func (s *Store) DeleteSubtask(parentID, id int) error {
	parent, sub := s.findSubtask(parentID, id)
	if sub == nil {
		return fmt.Errorf("%w: sub-task %d of task %d", ErrNotFound, id, parentID)
	}
	snap := cloneTasks(s.tasks)
	s.queue(fmt.Sprintf("Sub-task %q deleted", sub.Text), NoteDanger)
	for i := range parent.Subtasks {
		if parent.Subtasks[i].ID == id {
			parent.Subtasks = append(parent.Subtasks[:i], parent.Subtasks[i+1:]...)
			break
		}
	}
	s.syncParent(parent)
	return s.commit(snap)
}

// DeleteAll clears the whole collection unconditionally. Confirmation
// is the caller's job.
func (s *Store) DeleteAll() error {
	snap := cloneTasks(s.tasks)
	s.tasks = []Task{}
	s.queue("All tasks deleted", NoteDanger)
	return s.commit(snap)
}

// ToggleExpanded flips the display hint on a task.
func (s *Store) ToggleExpanded(id int) error {
	t := s.findTask(id)
	if t == nil {
		return fmt.Errorf("%w: task %d", ErrNotFound, id)
	}
	snap := cloneTasks(s.tasks)
	t.Expanded = !t.Expanded
	return s.commit(snap)
}

func (s *Store) findTask(id int) *Task {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return &s.tasks[i]
		}
	}
	return nil
}

func (s *Store) findSubtask(parentID, id int) (*Task, *SubTask) {
	parent := s.findTask(parentID)
	if parent == nil {
		return nil, nil
	}
	for i := range parent.Subtasks {
		if parent.Subtasks[i].ID == id {
			return parent, &parent.Subtasks[i]
		}
	}
	return parent, nil
}

// syncParent applies the auto-completion rule: a task with at least
// one sub-task is completed exactly when every sub-task is. A task
// with none is left alone; its flag is independent. Idempotent.
func (s *Store) syncParent(parent *Task) {
	if parent == nil || len(parent.Subtasks) == 0 {
		return
	}
	pending := false
	for _, st := range parent.Subtasks {
		if !st.Completed {
			pending = true
			break
		}
	}
	switch {
	case !pending && !parent.Completed:
		parent.Completed = true
		s.queue(fmt.Sprintf("Task %q auto-completed", parent.Text), NoteSuccess)
	case pending && parent.Completed:
		parent.Completed = false
		s.queue(fmt.Sprintf("Task %q back to pending: a sub-task is not complete", parent.Text), NoteInfo)
	}
}

func (s *Store) takeID() int {
	id := s.nextID
	s.nextID++
	return id
}

func (s *Store) queue(message string, kind NoteKind) {
	s.pending = append(s.pending, note{message, kind})
}

func (s *Store) queueToggled(completed bool) {
	if completed {
		s.queue("Task marked as completed", NoteSuccess)
	} else {
		s.queue("Task marked as pending", NoteInfo)
	}
}

// commit persists the collection. On failure the snapshot taken before
// the mutation is restored and queued notifications are dropped, so a
// failed operation leaves no trace in memory or on screen.
func (s *Store) commit(snap []Task) error {
	data, err := json.Marshal(s.tasks)
	if err == nil {
		err = s.persist.Save(data)
	}
	if err != nil {
		s.tasks = snap
		s.pending = nil
		return fmt.Errorf("%w: save: %v", ErrPersistence, err)
	}
	if s.notify != nil {
		for _, n := range s.pending {
			s.notify.Notify(n.message, n.kind)
		}
	}
	s.pending = nil
	return nil
}
