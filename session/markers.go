package session

import "strings"

// The backend does not tag plans or step results with their own frame
// type; it reuses ai_response and marks them in the text. These markers
// must match the backend's wording exactly.
var (
	stepResultMarkers = []string{
		"✅",
		"❌",
		"Step Completed",
		"Step Failed",
		"Executing step",
	}
	stepFailureMarkers = []string{
		"❌",
		"Step Failed",
		"failed",
	}
	// "deploy" also triggers on replies that merely mention deployment.
	// Kept as is to stay compatible with the backend's current wording.
	executionPlanMarkers = []string{
		"🤖 **Deployment Request Analyzed**",
		"Execution Plan",
		"deploy",
	}
)

// DeploymentAnalyzedMarker opens the backend's deployment-plan replies.
const DeploymentAnalyzedMarker = "🤖 **Deployment Request Analyzed**"

// IsStepResult reports whether an ai_response reports the outcome of a
// step execution.
func IsStepResult(content string) bool {
	return containsAny(content, stepResultMarkers)
}

// IsStepFailure reports whether a step-result reply describes a failure.
func IsStepFailure(content string) bool {
	return containsAny(content, stepFailureMarkers)
}

// IsExecutionPlan reports whether an ai_response proposes an execution plan.
func IsExecutionPlan(content string) bool {
	return containsAny(strings.ToLower(content), lowerAll(executionPlanMarkers))
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
