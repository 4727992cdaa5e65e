package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"tasktree/internal/config"
	"tasktree/internal/storage"
	"tasktree/internal/task"
)

type mode int

const (
	modeList mode = iota
	modeInput
	modeSearch
)

type formKind int

const (
	formAdd formKind = iota
	formSubtask
	formEdit
)

// formState walks the two input fields (description, due date) the way
// the config-driven metadata editor does: enter advances, the last
// field submits.
type formState struct {
	kind     formKind
	id       int // formEdit: entity id; formSubtask: parent id
	parentID int // formEdit of a sub-task
	target   string
	text     string
	date     string
	index    int
}

type confirmState struct {
	all bool
	row task.Row
}

// statusLine collects store notifications so they can be shown on the
// status line after the triggering update.
type statusLine struct {
	message string
	kind    task.NoteKind
	has     bool
}

func (s *statusLine) Notify(message string, kind task.NoteKind) {
	s.message = message
	s.kind = kind
	s.has = true
}

type Model struct {
	store   *task.Store
	db      *storage.Store
	cfg     config.Config
	notes   *statusLine
	styles  styles
	theme   string
	rows    []task.Row
	summary task.Summary
	cursor  int
	mode    mode
	form    *formState
	confirm *confirmState
	input   textinput.Model
	filter  task.Filter
	query   string
	status  string
	kind    task.NoteKind
}

func Run(db *storage.Store, cfg config.Config) error {
	notes := &statusLine{}
	store, err := task.NewStore(db.Keyed(storage.KeyTasks), notes)
	if err != nil {
		return err
	}

	theme := "light"
	if raw, found, err := db.Load(storage.KeyTheme); err == nil && found {
		if v := string(raw); v == "dark" {
			theme = v
		}
	}

	ti := textinput.New()
	ti.Placeholder = "Task description"
	ti.CharLimit = 256
	ti.Width = 40

	m := Model{
		store:  store,
		db:     db,
		cfg:    cfg,
		notes:  notes,
		styles: newStyles(theme),
		theme:  theme,
		input:  ti,
		mode:   modeList,
		filter: task.ParseFilter(cfg.DefaultFilter),
		status: "Press 'a' to add, space to toggle, '/' to search.",
	}
	m.refresh()

	program := tea.NewProgram(m)
	_, err = program.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.confirm != nil {
			return m.updateConfirm(msg.String())
		}
		switch m.mode {
		case modeInput:
			return m.updateInputMode(msg.String(), msg)
		case modeSearch:
			return m.updateSearchMode(msg.String(), msg)
		}
		return m.updateListMode(msg.String())
	case tea.WindowSizeMsg:
		m.input.Width = msg.Width - 10
	}
	return m, nil
}

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c", m.cfg.Keys.Quit:
		return m, tea.Quit
	case m.cfg.Keys.Down, "down":
		m.cursor = clampCursor(m.cursor+1, len(m.rows))
	case m.cfg.Keys.Up, "up":
		if m.cursor > 0 {
			m.cursor = clampCursor(m.cursor-1, len(m.rows))
		}
	case m.cfg.Keys.Add:
		return m.startForm(&formState{kind: formAdd}), nil
	case m.cfg.Keys.AddSubtask:
		row, ok := m.selected()
		if !ok {
			m.say("No task selected")
			return m, nil
		}
		parentID := row.ID
		target := row.Text
		if row.IsSub() {
			parentID = row.ParentID
			if parent, err := m.store.Find(parentID, 0); err == nil {
				target = parent.Task.Text
			}
		}
		return m.startForm(&formState{kind: formSubtask, id: parentID, target: target}), nil
	case m.cfg.Keys.Edit:
		row, ok := m.selected()
		if !ok {
			m.say("No task to edit")
			return m, nil
		}
		ent, err := m.store.Find(row.ID, row.ParentID)
		if err != nil {
			return m.fail(err), nil
		}
		f := &formState{
			kind:     formEdit,
			id:       row.ID,
			parentID: row.ParentID,
			target:   ent.Text(),
			text:     ent.Text(),
			date:     ent.DueDate(),
		}
		return m.startForm(f), nil
	case m.cfg.Keys.Toggle:
		row, ok := m.selected()
		if !ok {
			return m, nil
		}
		if err := m.store.ToggleComplete(row.ID, row.ParentID); err != nil {
			return m.fail(err), nil
		}
		return m.reload(), nil
	case m.cfg.Keys.Expand:
		row, ok := m.selected()
		if !ok || row.IsSub() {
			return m, nil
		}
		if err := m.store.ToggleExpanded(row.ID); err != nil {
			return m.fail(err), nil
		}
		return m.reload(), nil
	case m.cfg.Keys.Delete:
		row, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.confirm = &confirmState{row: row}
		m.say(fmt.Sprintf("Delete %q? y/n", row.Text))
	case m.cfg.Keys.DeleteAll:
		if m.store.Len() == 0 {
			m.say("Nothing to delete")
			return m, nil
		}
		m.confirm = &confirmState{all: true}
		m.say(fmt.Sprintf("Delete all %d tasks and their sub-tasks? y/n", m.store.Len()))
	case m.cfg.Keys.Search:
		m.mode = modeSearch
		m.input.SetValue(m.query)
		m.input.Placeholder = "Search tasks"
		m.input.Focus()
		m.say("Search: type to filter, enter to keep, esc to clear")
	case m.cfg.Keys.Filter:
		m.filter = m.filter.Next()
		m.say("Filter: " + string(m.filter))
		m.refresh()
	case m.cfg.Keys.Theme:
		return m.toggleTheme(), nil
	}
	return m, nil
}

func (m Model) updateInputMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel, "esc":
		m.form = nil
		m.mode = modeList
		m.input.Blur()
		m.say("Cancelled")
		return m, nil
	case m.cfg.Keys.Confirm, "enter":
		if m.form == nil {
			return m, nil
		}
		if m.form.index == 0 {
			m.form.text = m.input.Value()
			m.form.index = 1
			m.input.SetValue(m.form.date)
			m.input.Placeholder = "Due date (YYYY-MM-DD)"
			return m, nil
		}
		m.form.date = strings.TrimSpace(m.input.Value())
		return m.submitForm(), nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) submitForm() Model {
	f := m.form
	var err error
	switch f.kind {
	case formAdd:
		_, err = m.store.AddTask(f.text, f.date)
	case formSubtask:
		_, err = m.store.AddSubtask(f.id, f.text, f.date)
	case formEdit:
		err = m.store.EditTask(f.id, f.parentID, f.text, f.date)
	}
	if err != nil {
		// Stay in the form so the input can be fixed in place.
		m.status = friendlyError(err)
		m.kind = task.NoteDanger
		m.form.index = 0
		m.input.SetValue(m.form.text)
		m.input.Placeholder = "Task description"
		return m
	}
	m.form = nil
	m.mode = modeList
	m.input.SetValue("")
	m.input.Blur()
	return m.reload()
}

func (m Model) updateSearchMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel, "esc":
		m.mode = modeList
		m.query = ""
		m.input.SetValue("")
		m.input.Blur()
		m.say("Search cleared")
		m.refresh()
		return m, nil
	case m.cfg.Keys.Confirm, "enter":
		m.mode = modeList
		m.input.Blur()
		if m.query == "" {
			m.say("Search cleared")
		} else {
			m.say(fmt.Sprintf("Searching for %q", m.query))
		}
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.query = m.input.Value()
		m.refresh()
		return m, cmd
	}
}

func (m Model) updateConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N", "esc":
		m.say("Delete cancelled")
		m.confirm = nil
		return m, nil
	case "y", "Y":
		c := m.confirm
		m.confirm = nil
		var err error
		switch {
		case c.all:
			err = m.store.DeleteAll()
		case c.row.IsSub():
			err = m.store.DeleteSubtask(c.row.ParentID, c.row.ID)
		default:
			err = m.store.DeleteTask(c.row.ID)
		}
		if err != nil {
			return m.fail(err), nil
		}
		return m.reload(), nil
	default:
		return m, nil
	}
}

func (m Model) startForm(f *formState) Model {
	m.form = f
	m.mode = modeInput
	m.input.SetValue(f.text)
	m.input.Placeholder = "Task description"
	m.input.Focus()
	switch f.kind {
	case formAdd:
		m.say("Add task: description, then due date. Esc to cancel.")
	case formSubtask:
		m.say(fmt.Sprintf("Add sub-task of %q: description, then due date. Esc to cancel.", f.target))
	case formEdit:
		m.say(fmt.Sprintf("Edit %q: description, then due date. Esc to cancel.", f.target))
	}
	return m
}

func (m Model) toggleTheme() Model {
	next := "dark"
	if m.theme == "dark" {
		next = "light"
	}
	if err := m.db.Save(storage.KeyTheme, []byte(next)); err != nil {
		m.status = fmt.Sprintf("theme save failed: %v", err)
		m.kind = task.NoteDanger
		return m
	}
	m.theme = next
	m.styles = newStyles(next)
	m.status = "Theme: " + next
	m.kind = task.NoteInfo
	return m
}

// reload recomputes the visible rows and pulls the store's last
// notification onto the status line.
func (m Model) reload() Model {
	m.refresh()
	if m.notes.has {
		m.status = m.notes.message
		m.kind = m.notes.kind
		m.notes.has = false
	}
	return m
}

func (m *Model) say(message string) {
	m.status = message
	m.kind = task.NoteInfo
}

func (m Model) fail(err error) Model {
	m.status = friendlyError(err)
	m.kind = task.NoteDanger
	return m
}

// refresh projects the collection and applies the collapse hint:
// sub-task rows of a collapsed parent are hidden unless a search is
// active, which reveals matches under their anchor.
func (m *Model) refresh() {
	rows, sum := task.Project(m.store.Tasks(), m.filter, m.query)
	visible := rows[:0]
	expanded := false
	for _, r := range rows {
		if !r.IsSub() {
			expanded = r.Expanded
			visible = append(visible, r)
			continue
		}
		if expanded || m.query != "" {
			visible = append(visible, r)
		}
	}
	m.rows = visible
	m.summary = sum
	m.cursor = clampCursor(m.cursor, len(m.rows))
}

func (m Model) selected() (task.Row, bool) {
	if len(m.rows) == 0 {
		return task.Row{}, false
	}
	return m.rows[clampCursor(m.cursor, len(m.rows))], true
}

func friendlyError(err error) string {
	switch {
	case errors.Is(err, task.ErrValidation):
		return "Description and due date (YYYY-MM-DD) cannot be empty"
	case errors.Is(err, task.ErrNotFound):
		return "Task not found"
	case errors.Is(err, task.ErrPersistence):
		return "Save failed; change was not applied"
	default:
		return err.Error()
	}
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}
