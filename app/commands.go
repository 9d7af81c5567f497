package app

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/controlVector/controlvector-frontend/config"
	"github.com/controlVector/controlvector-frontend/model"
	"github.com/controlVector/controlvector-frontend/session"
	"github.com/controlVector/controlvector-frontend/style"
)

type command struct {
	name string
	help string
}

var commands = []command{
	{"/help", "Show commands and keybindings"},
	{"/new", "Start a new conversation"},
	{"/plan", "Reopen the active execution plan"},
	{"/theme", "Switch color theme (/theme <name> or pick from a list)"},
	{"/quit", "Exit"},
}

func commandNames() []string {
	names := make([]string, len(commands))
	for i, c := range commands {
		names[i] = c.name
	}
	return names
}

func (m Model) runCommand(text string) (Model, tea.Cmd) {
	name, arg, _ := strings.Cut(text, " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case "/quit", "/exit":
		return m.quit()
	case "/help":
		m.sess.AddSystemMessage(helpText())
		cmd := m.sync()
		return m, cmd
	case "/new":
		return m.newConversation()
	case "/plan":
		return m.reopenPlan()
	case "/theme":
		if arg != "" {
			return m.applyTheme(arg)
		}
		items := make([]model.PickerItem, 0, len(style.ThemeNames))
		for _, n := range style.ThemeNames {
			items = append(items, model.PickerItem{Name: n, Active: n == style.CurrentThemeName})
		}
		m.picker.Open("Theme", items)
		m.chat.SetSize(m.width, m.chatHeight())
		return m, nil
	}
	m.toasts.Add(session.Notice{Level: session.NoticeWarning, Text: "Unknown command " + name + ", try /help"})
	return m, nil
}

// newConversation forgets the stored id and asks the backend for a fresh
// one. The session is replaced once the new id arrives.
func (m Model) newConversation() (Model, tea.Cmd) {
	if m.opts.Store != nil {
		if err := m.opts.Store.ClearConversation(); err != nil {
			m.log.Warn("conversation_clear_failed", "error", err)
		}
	}
	m.status.SetConnection(model.ConnConnecting)
	return m, m.ensureConversation()
}

func (m Model) applyTheme(name string) (Model, tea.Cmd) {
	if !style.SetTheme(name) {
		m.toasts.Add(session.Notice{
			Level: session.NoticeWarning,
			Text:  fmt.Sprintf("Unknown theme %q (available: %s)", name, strings.Join(style.ThemeNames, ", ")),
		})
		return m, nil
	}
	m.opts.Config.Theme = name
	m.chat.SetSize(m.width, m.chatHeight())
	m.toasts.Add(session.Notice{Level: session.NoticeInfo, Text: "Theme set to " + name})

	dir, cfg, log := m.opts.ProfileDir, m.opts.Config, m.log
	if dir == "" {
		return m, nil
	}
	return m, func() tea.Msg {
		if err := config.Save(dir, cfg); err != nil {
			log.Warn("config_save_failed", "error", err)
		}
		return nil
	}
}

func helpText() string {
	var sb strings.Builder
	sb.WriteString("Commands:\n")
	for _, c := range commands {
		sb.WriteString(fmt.Sprintf("  %-8s %s\n", c.name, c.help))
	}
	sb.WriteString(`
Keybindings:
  Enter        Send message
  Ctrl+P       Reopen execution plan
  Esc          Close plan panel / clear input
  Home/End     Oldest / latest messages
  PgUp/PgDn    Scroll chat history
  Tab          Autocomplete commands
  Up/Down      Input history
  Ctrl+C       Quit`)
	return sb.String()
}
