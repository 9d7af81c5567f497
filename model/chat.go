package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/controlVector/controlvector-frontend/markdown"
	"github.com/controlVector/controlvector-frontend/session"
	"github.com/controlVector/controlvector-frontend/style"
)

// ChatModel is a scrollable viewport over the session's message history.
type ChatModel struct {
	vp         viewport.Model
	messages   []session.Message
	processing string // thinking line rendered below the last message
	width      int
	height     int
	now        func() time.Time
}

// NewChat constructs a ChatModel sized to width x height.
func NewChat(width, height int) ChatModel {
	vp := viewport.New(width, height)
	vp.SetContent("")
	return ChatModel{
		vp:     vp,
		width:  width,
		height: height,
		now:    time.Now,
	}
}

// SetMessages replaces the rendered history. The follow flag keeps the
// view pinned to the bottom unless the user scrolled up.
func (m *ChatModel) SetMessages(msgs []session.Message) {
	follow := m.vp.AtBottom() || len(m.messages) == 0
	m.messages = msgs
	m.refresh(follow)
}

// SetProcessingView shows s under the last message.
func (m *ChatModel) SetProcessingView(s string) {
	if s == m.processing {
		return
	}
	m.processing = s
	m.refresh(m.vp.AtBottom())
}

// SetSize resizes the underlying viewport.
func (m *ChatModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.vp.Width = width
	m.vp.Height = height
	m.refresh(true)
}

func (m *ChatModel) ScrollToTop()    { m.vp.GotoTop() }
func (m *ChatModel) ScrollToBottom() { m.vp.GotoBottom() }

// Init satisfies tea.Model.
func (m ChatModel) Init() tea.Cmd {
	return nil
}

// Update forwards keyboard and mouse events to the viewport.
func (m ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return m, cmd
}

func (m ChatModel) View() string {
	return m.vp.View()
}

func (m *ChatModel) refresh(follow bool) {
	m.vp.SetContent(m.renderAll())
	if follow {
		m.vp.GotoBottom()
	}
}

func (m *ChatModel) renderAll() string {
	if len(m.messages) == 0 && m.processing == "" {
		return style.Faint.Render("  Describe what you want to deploy, e.g. \"deploy my app\".")
	}

	var sb strings.Builder
	for i, msg := range m.messages {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(m.renderMessage(msg))
	}
	if m.processing != "" {
		if len(m.messages) > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(m.processing)
	}
	return sb.String()
}

func (m *ChatModel) renderMessage(msg session.Message) string {
	when := style.MsgMeta.Render(" · " + humanize.RelTime(msg.Timestamp, m.now(), "ago", "from now"))

	switch msg.Type {
	case session.MessageUser:
		return style.UserLabel.Render("❯ You") + when + "\n" + msg.Content

	case session.MessageAI:
		return m.agentLabel(msg) + when + "\n" + markdown.Render(msg.Content, style.CurrentThemeName, m.width-2)

	case session.MessageExecutionPlan:
		var sb strings.Builder
		sb.WriteString(m.agentLabel(msg) + when + "\n")
		sb.WriteString(markdown.Render(msg.Content, style.CurrentThemeName, m.width-2))
		if msg.ExecutionPlan != nil {
			sb.WriteString("\n\n")
			sb.WriteString(RenderPlanSummary(*msg.ExecutionPlan))
		}
		return sb.String()

	case session.MessageSystem:
		if msg.Recovery != nil {
			return renderRecovery(msg)
		}
		return style.Faint.Render(msg.Content)

	default:
		return msg.Content
	}
}

func (m *ChatModel) agentLabel(msg session.Message) string {
	name := "Watson"
	if msg.Agent != "" {
		name = strings.ToUpper(msg.Agent[:1]) + msg.Agent[1:]
	}
	label := style.AgentLabel.Render("◈ " + name)
	if msg.Intent != "" {
		badge := msg.Intent
		if msg.Confidence != nil {
			badge += fmt.Sprintf(" %.0f%%", *msg.Confidence*100)
		}
		label += style.IntentBadge.Render(" [" + badge + "]")
	}
	return label
}

func renderRecovery(msg session.Message) string {
	r := msg.Recovery
	var sb strings.Builder
	sb.WriteString(style.Recovery.Render("↻ " + msg.Content))
	switch {
	case r.Step > 0 && r.TotalSteps > 0:
		sb.WriteString(style.MsgMeta.Render(fmt.Sprintf(" (step %d/%d)", r.Step, r.TotalSteps)))
	case r.Attempt > 0 && r.Attempts > 0:
		sb.WriteString(style.MsgMeta.Render(fmt.Sprintf(" (attempt %d/%d)", r.Attempt, r.Attempts)))
	}
	for _, s := range r.Suggestions {
		sb.WriteString("\n  " + style.Suggestion.Render("• "+s))
	}
	return sb.String()
}
