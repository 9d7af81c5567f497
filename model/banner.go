package model

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/controlVector/controlvector-frontend/style"
)

// HeaderModel renders the one-line header:
//
//	ControlVector · ada@example.com · workspace 7c1f04aa
type HeaderModel struct {
	email       string
	workspaceID string
	version     string
}

func NewHeader(version string) HeaderModel {
	return HeaderModel{version: version}
}

// SetIdentity sets who is signed in.
func (m *HeaderModel) SetIdentity(email, workspaceID string) {
	m.email = email
	m.workspaceID = workspaceID
}

// Init satisfies tea.Model. The header requires no I/O on start.
func (m HeaderModel) Init() tea.Cmd {
	return nil
}

// Update satisfies tea.Model. The header is static.
func (m HeaderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m, nil
}

func (m HeaderModel) View() string {
	sep := style.Faint.Render(" · ")
	out := style.HeaderTitle.Render("ControlVector")
	if m.version != "" {
		out += style.HeaderDetail.Render(" " + m.version)
	}
	if m.email != "" {
		out += sep + style.HeaderDetail.Render(m.email)
	}
	if m.workspaceID != "" {
		out += sep + style.HeaderDetail.Render("workspace "+shortID(m.workspaceID))
	}
	return out
}
