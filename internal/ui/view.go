package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"tasktree/internal/config"
	"tasktree/internal/task"
)

type styles struct {
	title     lipgloss.Style
	completed lipgloss.Style
	subtle    lipgloss.Style
	success   lipgloss.Style
	info      lipgloss.Style
	danger    lipgloss.Style
	badge     lipgloss.Style
}

func newStyles(theme string) styles {
	text := lipgloss.Color("236")
	subtle := lipgloss.Color("245")
	if theme == "dark" {
		text = lipgloss.Color("252")
		subtle = lipgloss.Color("243")
	}
	return styles{
		title:     lipgloss.NewStyle().Bold(true).Foreground(text),
		completed: lipgloss.NewStyle().Strikethrough(true).Foreground(subtle),
		subtle:    lipgloss.NewStyle().Foreground(subtle),
		success:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		info:      lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		danger:    lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		badge:     lipgloss.NewStyle().Foreground(subtle),
	}
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.title.Render("tasktree"))
	b.WriteString(m.styles.subtle.Render(fmt.Sprintf("  filter:%s", m.filter)))
	if m.query != "" {
		b.WriteString(m.styles.subtle.Render(fmt.Sprintf("  search:%q", m.query)))
	}
	b.WriteString("\n\n")

	if len(m.rows) == 0 {
		if m.store.Len() == 0 {
			b.WriteString(m.styles.subtle.Render("No tasks yet. Press 'a' to add one."))
		} else {
			b.WriteString(m.styles.subtle.Render("No tasks match the current filter."))
		}
		b.WriteString("\n")
	} else {
		b.WriteString(m.renderRows())
	}

	b.WriteString("\n")
	b.WriteString(m.renderSummary())
	b.WriteString("\n")

	switch m.mode {
	case modeInput:
		b.WriteString(m.renderForm())
	case modeSearch:
		b.WriteString("Search: ")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.styles.subtle.Render(renderHelp(m.cfg.Keys)))

	return b.String()
}

func (m Model) renderRows() string {
	var b strings.Builder
	for i, r := range m.rows {
		cursor := " "
		if m.cursor == i && m.mode == modeList {
			cursor = ">"
		}

		checkbox := "[ ]"
		if r.Completed {
			checkbox = "[x]"
		}

		var body string
		if r.IsSub() {
			body = fmt.Sprintf("%s     ↳ %s %s", cursor, checkbox, r.Text)
		} else {
			chevron := "·"
			if r.SubTotal > 0 {
				chevron = "▸"
				if r.Expanded {
					chevron = "▾"
				}
			}
			body = fmt.Sprintf("%s %s %s %s", cursor, chevron, checkbox, r.Text)
			if r.SubTotal > 0 {
				body += m.styles.badge.Render(fmt.Sprintf(" (%d/%d)", r.SubDone, r.SubTotal))
			}
		}
		body += m.styles.subtle.Render("  due " + r.DueDate)

		if r.Completed {
			b.WriteString(m.styles.completed.Render(body))
		} else {
			b.WriteString(body)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderSummary() string {
	s := m.summary
	line := fmt.Sprintf("%d tasks • %d completed • %d pending • %s %d%%",
		s.Total, s.Completed, s.Pending, progressBar(s.ProgressPercent, 10), s.ProgressPercent)
	return m.styles.subtle.Render(line)
}

func (m Model) renderForm() string {
	if m.form == nil {
		return ""
	}
	label := "Description"
	if m.form.index == 1 {
		label = "Due date (YYYY-MM-DD)"
	}
	return fmt.Sprintf("%s: %s\n", label, m.input.View())
}

func (m Model) renderStatus() string {
	switch m.kind {
	case task.NoteSuccess:
		return m.styles.success.Render(m.status)
	case task.NoteDanger:
		return m.styles.danger.Render(m.status)
	default:
		return m.styles.info.Render(m.status)
	}
}

func progressBar(percent, width int) string {
	filled := percent * width / 100
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

func renderHelp(k config.Keymap) string {
	return fmt.Sprintf("%s/%s move • %s add • %s sub-task • %s edit • space toggle • %s expand • %s delete • %s delete all • %s search • %s filter • %s theme • %s quit",
		k.Up, k.Down, k.Add, k.AddSubtask, k.Edit, k.Expand, k.Delete, k.DeleteAll, k.Search, k.Filter, k.Theme, k.Quit)
}
