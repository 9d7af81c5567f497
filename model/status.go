package model

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/controlVector/controlvector-frontend/style"
)

// ConnState is the connection indicator shown in the status bar.
type ConnState int

const (
	ConnConnecting ConnState = iota
	ConnConnected
	ConnDisconnected
)

// StatusModel renders the bottom status line:
//
//	● connected · conv 3f2a9c1e · onboarding incomplete (cv credentials)
type StatusModel struct {
	conn           ConnState
	conversationID string
	onboardingHint string
	hint           string
}

func NewStatus() StatusModel {
	return StatusModel{}
}

func (m *StatusModel) SetConnection(s ConnState) { m.conn = s }

func (m StatusModel) Connection() ConnState { return m.conn }

func (m *StatusModel) SetConversation(id string) { m.conversationID = id }

// SetOnboarding shows a reminder while credentials are missing.
func (m *StatusModel) SetOnboarding(complete bool) {
	if complete {
		m.onboardingHint = ""
		return
	}
	m.onboardingHint = "onboarding incomplete (cv credentials)"
}

// SetHint replaces the right-hand key hint.
func (m *StatusModel) SetHint(h string) { m.hint = h }

func (m StatusModel) Init() tea.Cmd {
	return nil
}

// Update satisfies tea.Model. StatusModel is driven by setters.
func (m StatusModel) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	return m, nil
}

func (m StatusModel) View() string {
	var parts []string
	switch m.conn {
	case ConnConnected:
		parts = append(parts, style.StatusConnected.Render("●")+" connected")
	case ConnDisconnected:
		parts = append(parts, style.StatusDisconnected.Render("●")+" disconnected")
	default:
		parts = append(parts, style.Faint.Render("○")+" connecting")
	}
	if m.conversationID != "" {
		parts = append(parts, "conv "+shortID(m.conversationID))
	}
	if m.onboardingHint != "" {
		parts = append(parts, style.Recovery.Render(m.onboardingHint))
	}
	line := style.StatusBar.Render(strings.Join(parts, " · "))
	if m.hint != "" {
		line += style.Hint.Render("  " + m.hint)
	}
	return line
}

// shortID truncates an ID to 8 characters for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
