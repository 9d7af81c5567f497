package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkers(t *testing.T) {
	tests := []struct {
		content             string
		stepResult, failure bool
		plan                bool
	}{
		{content: "✅ DNS record created", stepResult: true},
		{content: "❌ Provisioning error", stepResult: true, failure: true},
		{content: "Step Failed: atlas/provision_infrastructure", stepResult: true, failure: true},
		{content: "Executing step 2 of 5", stepResult: true},
		{content: DeploymentAnalyzedMarker + "\nPlan below", plan: true},
		{content: "## Execution Plan", plan: true},
		// the bare word triggers a plan; kept for wire compatibility
		{content: "You can DEPLOY later if you like", plan: true},
		{content: "Hello! How can I help?"},
	}
	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			assert.Equal(t, tt.stepResult, IsStepResult(tt.content))
			if tt.stepResult {
				assert.Equal(t, tt.failure, IsStepFailure(tt.content))
			}
			assert.Equal(t, tt.plan, IsExecutionPlan(tt.content))
		})
	}
}

func TestThinkingMessages(t *testing.T) {
	t.Run("operation wins over intent", func(t *testing.T) {
		got := ThinkingMessages("dns", "deploy_application", "")
		assert.Equal(t, "Looking up your DNS zone...", got[0])
		assert.NotContains(t, got, "Planning deployment...")
	})
	t.Run("intent then agent", func(t *testing.T) {
		got := ThinkingMessages("", "deploy_application", "phoenix")
		assert.Equal(t, []string{
			"Planning deployment...",
			"Checking your cloud credentials...",
			"Estimating resources...",
			"Phoenix is preparing the release...",
		}, got)
	})
	t.Run("short lists are padded", func(t *testing.T) {
		got := ThinkingMessages("", "manage_dns", "neptune")
		assert.Len(t, got, 2+len(genericThinking))
		assert.Equal(t, genericThinking[0], got[2])
	})
	t.Run("never empty", func(t *testing.T) {
		assert.Equal(t, genericThinking, ThinkingMessages("", "", ""))
	})
}

func TestPredictIntent(t *testing.T) {
	assert.Equal(t, Intent{Name: "deploy_application", Agent: "phoenix", Confidence: 0.9}, PredictIntent("deploy my app"))
	assert.Equal(t, "manage_dns", PredictIntent("point my domain at example.com").Name)
	assert.Equal(t, "general_query", PredictIntent("hi there").Name)
}

func TestWithStepStatus_CopiesSteps(t *testing.T) {
	p := DeploymentPlan("")
	assert.Equal(t, "Deploy application", p.Objective)

	next, ok := p.WithStepStatus("step-2", StepExecuting)
	assert.True(t, ok)
	assert.Equal(t, PlanExecuting, next.Status)
	assert.Equal(t, StepPending, p.Steps[1].Status)
	assert.Equal(t, PlanAwaitingApproval, p.Status)

	_, ok = p.WithStepStatus("step-42", StepCompleted)
	assert.False(t, ok)

	cancelled := p.WithStatus(PlanCancelled)
	done, _ := cancelled.WithStepStatus("step-1", StepCompleted)
	assert.Equal(t, PlanCancelled, done.Status)
}
