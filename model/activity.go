package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/controlVector/controlvector-frontend/session"
	"github.com/controlVector/controlvector-frontend/style"
)

// ActivityModel renders the "backend is working" line: spinner, the
// current thinking message, the agent and elapsed time.
type ActivityModel struct {
	sp        spinner.Model
	active    bool
	startTime time.Time
	phrase    string
	agent     string
	operation string
}

// NewActivity constructs an ActivityModel with a Dot spinner.
func NewActivity() ActivityModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = style.SpinnerStyle
	return ActivityModel{sp: sp}
}

// Sync mirrors the session's typing state. The elapsed timer restarts on
// every transition into typing.
func (m *ActivityModel) Sync(t session.TypingIndicator, phrase string) {
	if t.IsTyping && !m.active {
		m.startTime = time.Now()
	}
	m.active = t.IsTyping
	m.agent = t.Agent
	m.operation = t.Operation
	m.phrase = phrase
}

func (m ActivityModel) IsActive() bool { return m.active }

// Init satisfies tea.Model.
func (m ActivityModel) Init() tea.Cmd {
	return m.sp.Tick
}

// Update handles spinner ticks.
func (m ActivityModel) Update(teaMsg tea.Msg) (ActivityModel, tea.Cmd) {
	if v, ok := teaMsg.(spinner.TickMsg); ok {
		var cmd tea.Cmd
		m.sp, cmd = m.sp.Update(v)
		return m, cmd
	}
	return m, nil
}

// View renders the activity line. Returns "" when idle.
//
//	⠋ Planning deployment... (4s · phoenix · provisioning)
func (m ActivityModel) View() string {
	if !m.active {
		return ""
	}
	phrase := m.phrase
	if phrase == "" {
		phrase = "Thinking..."
	}

	var hdr strings.Builder
	hdr.WriteString(m.sp.View())
	hdr.WriteString(" ")
	hdr.WriteString(style.PrefixThinking.Render(phrase))
	meta := []string{formatElapsed(time.Since(m.startTime))}
	if m.agent != "" {
		meta = append(meta, style.AgentName.Render(m.agent))
	}
	if m.operation != "" {
		meta = append(meta, m.operation)
	}
	hdr.WriteString(style.Faint.Render(" (" + strings.Join(meta, " · ") + ")"))
	return hdr.String()
}

// formatElapsed renders a duration as a concise string.
// Examples: 3s, 1m 23s
func formatElapsed(d time.Duration) string {
	total := int(d.Seconds())
	if total < 60 {
		return fmt.Sprintf("%ds", total)
	}
	return fmt.Sprintf("%dm %ds", total/60, total%60)
}
