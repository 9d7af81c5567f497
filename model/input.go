package model

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/controlVector/controlvector-frontend/style"
)

const maxHistory = 100

// inputHistory holds submitted lines, oldest first. While browsing, the
// line being typed is kept as draft and restored past the newest entry.
type inputHistory struct {
	entries []string
	pos     int // len(entries) when not browsing
	draft   string
}

func (h *inputHistory) push(line string) {
	if n := len(h.entries); n == 0 || h.entries[n-1] != line {
		h.entries = append(h.entries, line)
	}
	if len(h.entries) > maxHistory {
		h.entries = h.entries[len(h.entries)-maxHistory:]
	}
	h.pos = len(h.entries)
	h.draft = ""
}

// step moves by delta (-1 older, +1 newer) and returns the line to show.
func (h *inputHistory) step(delta int, current string) (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	if h.pos == len(h.entries) {
		h.draft = current
	}
	next := min(max(h.pos+delta, 0), len(h.entries))
	if next == h.pos {
		return "", false
	}
	h.pos = next
	if next == len(h.entries) {
		return h.draft, true
	}
	return h.entries[next], true
}

// completer cycles candidates for the slash command being typed, or for its
// argument when the command has a fixed set of them.
type completer struct {
	commands []string
	args     map[string][]string

	prefix  string // text ahead of the completed token
	matches []string
	idx     int
}

func (c *completer) reset() {
	c.matches = nil
	c.idx = 0
}

func (c *completer) complete(line string) (string, bool) {
	if c.matches != nil {
		c.idx = (c.idx + 1) % len(c.matches)
		return c.prefix + c.matches[c.idx], true
	}
	if !strings.HasPrefix(line, "/") {
		return "", false
	}
	var candidates []string
	cmd, arg, hasArg := strings.Cut(line, " ")
	if hasArg {
		c.prefix = cmd + " "
		candidates = c.args[cmd]
	} else {
		c.prefix = ""
		arg = cmd
		candidates = c.commands
	}
	for _, cand := range candidates {
		if strings.HasPrefix(cand, arg) {
			c.matches = append(c.matches, cand)
		}
	}
	if len(c.matches) == 0 {
		c.matches = nil
		return "", false
	}
	return c.prefix + c.matches[0], true
}

// InputModel is the prompt bar. Up/Down browse earlier messages and Tab
// completes slash commands and their arguments.
type InputModel struct {
	ti      textinput.Model
	history inputHistory
	comp    completer
}

func NewInput() InputModel {
	ti := textinput.New()
	ti.Placeholder = "Describe what to deploy, or type / for commands"
	ti.CharLimit = 4096
	return InputModel{ti: ti, comp: completer{args: map[string][]string{}}}
}

func (m *InputModel) SetCommands(cmds []string) { m.comp.commands = cmds }

// SetArgs registers the values Tab offers after cmd, e.g. theme names.
func (m *InputModel) SetArgs(cmd string, values []string) { m.comp.args[cmd] = values }

func (m *InputModel) Focus() tea.Cmd { return m.ti.Focus() }

func (m *InputModel) Blur() { m.ti.Blur() }

func (m *InputModel) SetWidth(w int) {
	if w > 4 {
		m.ti.Width = w - 4
	}
}

func (m InputModel) Value() string { return m.ti.Value() }

// Reset empties the field and leaves history browsing.
func (m *InputModel) Reset() {
	m.ti.SetValue("")
	m.history.pos = len(m.history.entries)
	m.history.draft = ""
	m.comp.reset()
}

// Submit records text in history and empties the field.
func (m *InputModel) Submit(text string) {
	if text != "" {
		m.history.push(text)
	}
	m.Reset()
}

func (m *InputModel) show(line string) {
	m.ti.SetValue(line)
	m.ti.CursorEnd()
}

func (m InputModel) Init() tea.Cmd {
	return nil
}

func (m InputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.Type {
		case tea.KeyUp, tea.KeyDown:
			delta := -1
			if k.Type == tea.KeyDown {
				delta = 1
			}
			if line, ok := m.history.step(delta, m.ti.Value()); ok {
				m.show(line)
			}
			return m, nil
		case tea.KeyTab:
			if line, ok := m.comp.complete(m.ti.Value()); ok {
				m.show(line)
			}
			return m, nil
		}
		m.comp.reset()
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	return m, cmd
}

func (m InputModel) View() string {
	return style.PromptChar.Render("❯ ") + m.ti.View()
}
