package model

import (
	"fmt"
	"strings"

	"github.com/controlVector/controlvector-frontend/session"
	"github.com/controlVector/controlvector-frontend/style"
)

// RenderPlanSummary renders a plan's checklist for the chat history.
func RenderPlanSummary(p session.ExecutionPlan) string {
	var b strings.Builder
	b.WriteString(style.PlanTitle.Render("Execution plan"))
	b.WriteString(style.PlanStatusTag.Render(" · " + planStatusLabel(p.Status)))
	if p.TotalEstimatedTime != "" {
		b.WriteString(style.StepEstimate.Render(" · ~" + p.TotalEstimatedTime))
	}
	for i, st := range p.Steps {
		b.WriteByte('\n')
		b.WriteString(renderStep(i, st, false))
	}
	return b.String()
}

// renderStep formats one checklist line. The cursor marker is shown when
// selected is set.
func renderStep(i int, st session.ExecutionStep, selected bool) string {
	prefix := "   "
	if selected {
		prefix = style.StepCursor.Render(" ❯ ")
	}
	line := fmt.Sprintf("%d. %s %s", i+1, st.Description, style.StepService.Render("("+st.Name()+")"))
	if st.EstimatedTime != "" && !st.Status.Terminal() {
		line += style.StepEstimate.Render(" ~" + st.EstimatedTime)
	}
	return prefix + stepIcon(st.Status) + " " + line
}

func stepIcon(s session.StepStatus) string {
	switch s {
	case session.StepCompleted:
		return style.StepDone.Render("✔")
	case session.StepExecuting:
		return style.StepActive.Render("◼")
	case session.StepFailed:
		return style.StepFailed.Render("✘")
	case session.StepSkipped:
		return style.StepPending.Render("⤼")
	case session.StepApproved:
		return style.StepActive.Render("◻")
	default:
		return style.StepPending.Render("◻")
	}
}

func planStatusLabel(s session.PlanStatus) string {
	switch s {
	case session.PlanAwaitingApproval:
		return "awaiting approval"
	default:
		return string(s)
	}
}
