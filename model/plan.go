package model

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/controlVector/controlvector-frontend/session"
	"github.com/controlVector/controlvector-frontend/style"
)

// PlanDecision is emitted when the user approves or cancels a plan.
type PlanDecision struct {
	PlanID   string
	Decision string // "approve" or "cancel"
}

// StepExecuteRequest is emitted when the user runs a step.
type StepExecuteRequest struct {
	StepID string
}

// PlanDismissed is emitted when the user leaves the panel with Esc.
type PlanDismissed struct{}

var planOptions = []string{"Approve", "Cancel"}

// PlanModel is the review panel for the active execution plan. While the
// plan awaits approval it offers Approve/Cancel; afterwards it is a step
// list where Enter runs the step under the cursor.
type PlanModel struct {
	plan     session.ExecutionPlan
	active   bool
	selected int // option index while awaiting approval
	cursor   int // step index otherwise
	width    int
}

func NewPlan() PlanModel {
	return PlanModel{}
}

// SetPlan shows p. The step cursor survives updates of the same plan.
func (m *PlanModel) SetPlan(p session.ExecutionPlan) {
	if p.ID != m.plan.ID {
		m.selected = 0
		m.cursor = firstRunnable(p)
	}
	m.plan = p
	if m.cursor >= len(p.Steps) {
		m.cursor = 0
	}
	m.active = true
}

// Clear hides the panel.
func (m *PlanModel) Clear() {
	m.active = false
	m.plan = session.ExecutionPlan{}
	m.selected = 0
	m.cursor = 0
}

func (m PlanModel) IsActive() bool { return m.active }

// PlanID returns the id of the plan on display.
func (m PlanModel) PlanID() string { return m.plan.ID }

func (m *PlanModel) SetWidth(w int) {
	m.width = w
}

func (m PlanModel) Init() tea.Cmd {
	return nil
}

// Update handles keyboard input when the panel is active.
func (m PlanModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if !m.active {
		return m, nil
	}
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if keyMsg.Type == tea.KeyEsc {
		return m, func() tea.Msg { return PlanDismissed{} }
	}

	if m.plan.Status == session.PlanAwaitingApproval {
		switch keyMsg.Type {
		case tea.KeyLeft, tea.KeyShiftTab:
			m.selected = (m.selected + len(planOptions) - 1) % len(planOptions)
		case tea.KeyRight, tea.KeyTab:
			m.selected = (m.selected + 1) % len(planOptions)
		case tea.KeyEnter:
			d := PlanDecision{PlanID: m.plan.ID, Decision: strings.ToLower(planOptions[m.selected])}
			return m, func() tea.Msg { return d }
		}
		return m, nil
	}

	switch keyMsg.Type {
	case tea.KeyUp:
		if m.cursor > 0 {
			m.cursor--
		}
	case tea.KeyDown:
		if m.cursor < len(m.plan.Steps)-1 {
			m.cursor++
		}
	case tea.KeyEnter:
		if m.cursor < len(m.plan.Steps) {
			id := m.plan.Steps[m.cursor].ID
			return m, func() tea.Msg { return StepExecuteRequest{StepID: id} }
		}
	}
	return m, nil
}

// View renders the panel. Returns "" when inactive.
func (m PlanModel) View() string {
	if !m.active {
		return ""
	}

	var b strings.Builder
	b.WriteString(style.PlanTitle.Render(m.plan.Objective))
	b.WriteString(style.PlanStatusTag.Render("  " + planStatusLabel(m.plan.Status)))
	b.WriteByte('\n')
	awaiting := m.plan.Status == session.PlanAwaitingApproval
	for i, st := range m.plan.Steps {
		b.WriteByte('\n')
		b.WriteString(renderStep(i, st, !awaiting && i == m.cursor))
	}
	b.WriteString("\n\n")
	if awaiting {
		b.WriteString(buildPlanSelector(m.selected))
	} else {
		b.WriteString(style.Hint.Render("↑/↓ select step · enter run · esc close"))
	}

	boxStyle := style.PlanBorder
	if m.width > 0 {
		boxStyle = boxStyle.Width(m.width - 2)
	}
	return boxStyle.Render(b.String())
}

//	> Approve  ○ Cancel
func buildPlanSelector(selected int) string {
	var parts []string
	for i, opt := range planOptions {
		if i == selected {
			parts = append(parts, style.PlanSelected.Render("> "+opt))
		} else {
			parts = append(parts, style.PlanUnselect.Render("○ "+opt))
		}
	}
	return strings.Join(parts, "  ")
}

func firstRunnable(p session.ExecutionPlan) int {
	for i, st := range p.Steps {
		if st.Status == session.StepPending || st.Status == session.StepFailed {
			return i
		}
	}
	return 0
}
