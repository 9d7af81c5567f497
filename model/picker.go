package model

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/controlVector/controlvector-frontend/style"
)

// PickerItem is a single entry in the picker.
type PickerItem struct {
	Name   string
	Detail string
	Active bool
}

// PickerChoice is emitted when the user selects an item.
type PickerChoice struct {
	Name string
}

// PickerCancel is emitted when the user presses Esc.
type PickerCancel struct{}

// PickerModel renders a vertical list with arrow-key navigation. It is used
// for the /theme selector.
type PickerModel struct {
	title    string
	items    []PickerItem
	cursor   int
	active   bool
	width    int
	offset   int
	pageSize int
}

func NewPicker() PickerModel {
	return PickerModel{pageSize: 8}
}

// Open populates the picker and places the cursor on the active item.
func (m *PickerModel) Open(title string, items []PickerItem) {
	m.title = title
	m.items = items
	m.cursor = 0
	m.offset = 0
	m.active = true
	for i, item := range items {
		if item.Active {
			m.cursor = i
			break
		}
	}
	if m.cursor >= m.pageSize {
		m.offset = m.cursor - m.pageSize + 1
	}
}

// Clear deactivates the picker.
func (m *PickerModel) Clear() {
	m.active = false
	m.items = nil
	m.cursor = 0
	m.offset = 0
}

func (m PickerModel) IsActive() bool {
	return m.active
}

func (m *PickerModel) SetWidth(w int) {
	m.width = w
}

func (m PickerModel) Init() tea.Cmd {
	return nil
}

// Update handles keyboard input when the picker is active.
func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if !m.active || len(m.items) == 0 {
		return m, nil
	}
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.Type {
	case tea.KeyUp:
		if m.cursor > 0 {
			m.cursor--
		} else {
			m.cursor = len(m.items) - 1
		}
	case tea.KeyDown:
		if m.cursor < len(m.items)-1 {
			m.cursor++
		} else {
			m.cursor = 0
		}
	case tea.KeyEnter:
		name := m.items[m.cursor].Name
		m.Clear()
		return m, func() tea.Msg { return PickerChoice{Name: name} }
	case tea.KeyEsc:
		m.Clear()
		return m, func() tea.Msg { return PickerCancel{} }
	}

	switch {
	case m.cursor < m.offset:
		m.offset = m.cursor
	case m.cursor >= m.offset+m.pageSize:
		m.offset = m.cursor - m.pageSize + 1
	}
	return m, nil
}

func (m PickerModel) View() string {
	if !m.active || len(m.items) == 0 {
		return ""
	}

	var sb strings.Builder
	header := lipgloss.NewStyle().Foreground(style.Primary).Bold(true).Render("◈ " + m.title)
	hint := style.Faint.Render("  ↑↓ navigate · Enter select · Esc cancel")
	sb.WriteString(header + hint + "\n\n")

	end := m.offset + m.pageSize
	if end > len(m.items) {
		end = len(m.items)
	}
	if m.offset > 0 {
		sb.WriteString(style.Faint.Render("  ↑ more above") + "\n")
	}
	for i := m.offset; i < end; i++ {
		sb.WriteString(m.renderItem(m.items[i], i == m.cursor))
		sb.WriteString("\n")
	}
	if end < len(m.items) {
		sb.WriteString(style.Faint.Render("  ↓ more below") + "\n")
	}
	sb.WriteString(style.Faint.Render(fmt.Sprintf("\n  %d available", len(m.items))))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(style.Border).
		Padding(0, 1)
	if m.width > 0 {
		boxStyle = boxStyle.Width(m.width - 2)
	}
	return boxStyle.Render(sb.String())
}

func (m PickerModel) renderItem(item PickerItem, isCursor bool) string {
	cursor := "    "
	if isCursor {
		cursor = lipgloss.NewStyle().Foreground(style.Primary).Bold(true).Render("  > ")
	}
	marker := style.Faint.Render("○")
	if item.Active {
		marker = lipgloss.NewStyle().Foreground(style.Success).Render("●")
	}
	name := item.Name
	if isCursor {
		name = style.Bold.Render(name)
	}
	line := cursor + marker + " " + name
	if item.Detail != "" {
		line += style.Faint.Render("  " + item.Detail)
	}
	return line
}
