package session

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/controlVector/controlvector-frontend/client"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	s := New("conv-1", nil)
	s.now = func() time.Time { return fixedNow }
	n := 0
	s.newID = func() string {
		n++
		return fmt.Sprintf("msg-%d", n)
	}
	return s
}

const analyzed = "🤖 **Deployment Request Analyzed**\n\nHere is what I will do."

// withPlan drives the session through the deploy scenario and returns the
// proposed plan.
func withPlan(t *testing.T, s *Session) ExecutionPlan {
	t.Helper()
	_, ok := s.SendUserMessage("deploy my app")
	require.True(t, ok)
	s.Apply(client.AIResponseEvent{Content: analyzed})
	plan, ok := s.ActivePlan()
	require.True(t, ok)
	return plan
}

func stepStatuses(p ExecutionPlan) map[string]StepStatus {
	out := make(map[string]StepStatus, len(p.Steps))
	for _, st := range p.Steps {
		out[st.ID] = st.Status
	}
	return out
}

// ---------------------------------------------------------------------------
// Sending
// ---------------------------------------------------------------------------

func TestSendUserMessage_DeployScenario(t *testing.T) {
	s := newTestSession(t)

	frame, ok := s.SendUserMessage("deploy my app")
	require.True(t, ok)
	assert.Equal(t, client.FrameUserMessage, frame.Type)
	assert.Equal(t, "deploy my app", frame.Content)
	assert.Equal(t, "conv-1", frame.ConversationID)
	assert.Equal(t, "2026-03-01T12:00:00.000Z", frame.Timestamp)
	assert.Nil(t, frame.StepExecution)

	intent, ok := s.PendingIntent()
	require.True(t, ok)
	assert.Equal(t, "deploy_application", intent.Name)

	typing := s.Typing()
	assert.True(t, typing.IsTyping)
	assert.Equal(t, "phoenix", typing.Agent)
	assert.NotEmpty(t, s.ThinkingMessage())

	s.Apply(client.AIResponseEvent{Content: analyzed})

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, MessageUser, msgs[0].Type)
	last := msgs[1]
	require.Equal(t, MessageExecutionPlan, last.Type)
	require.NotNil(t, last.ExecutionPlan)
	assert.Equal(t, PlanAwaitingApproval, last.ExecutionPlan.Status)
	assert.Equal(t, "deploy my app", last.ExecutionPlan.Objective)

	var names []string
	for _, st := range last.ExecutionPlan.Steps {
		names = append(names, st.Name())
		assert.Equal(t, StepPending, st.Status)
	}
	assert.Equal(t, []string{
		"mercury/analyze_repository",
		"atlas/provision_infrastructure",
		"neptune/create_dns_record",
		"hermes/generate_ssh_key",
		"phoenix/deploy_application",
	}, names)

	assert.False(t, s.Typing().IsTyping)
	_, pending := s.PendingIntent()
	assert.False(t, pending)
}

func TestSendUserMessage_BlankIgnored(t *testing.T) {
	s := newTestSession(t)
	_, ok := s.SendUserMessage("   ")
	assert.False(t, ok)
	assert.Zero(t, s.Len())
}

// ---------------------------------------------------------------------------
// Dispatcher
// ---------------------------------------------------------------------------

func TestApply_MessageCountMatchesAppendingFrames(t *testing.T) {
	s := newTestSession(t)
	events := []any{
		client.PongEvent{},
		client.TypingIndicatorEvent{IsTyping: true, Agent: "watson"},
		client.AIResponseEvent{Content: "hello"},
		client.StepCompletedEvent{StepID: "step-1"},
		client.StepFailedEvent{StepID: "step-9"},
		client.ErrorEvent{Message: "nope"},
		client.RecoveryEvent{Kind: client.FrameRecoveryStarted, Message: "retrying", RecoveryID: "r1"},
		client.RecoveryEvent{Kind: client.FrameRecoveryEscalated, Message: "need help", RecoveryID: "r1", Suggestions: []string{"check key"}},
		client.AIResponseEvent{Content: "second"},
		client.UnknownFrame{Type: "mystery"},
		client.ConversationCreatedEvent{ConversationID: "conv-2"},
	}
	for _, ev := range events {
		s.Apply(ev)
	}
	// two ai_response + two recovery frames
	assert.Equal(t, 4, s.Len())
}

func TestApply_StepCompletedIsIdempotent(t *testing.T) {
	s := newTestSession(t)
	withPlan(t, s)

	s.Apply(client.StepCompletedEvent{StepID: "step-1"})
	once := s.Messages()
	s.Apply(client.StepCompletedEvent{StepID: "step-1"})
	twice := s.Messages()

	require.Len(t, twice, len(once))
	for i := range once {
		if once[i].ExecutionPlan == nil {
			continue
		}
		assert.Equal(t, *once[i].ExecutionPlan, *twice[i].ExecutionPlan)
	}
}

func TestApply_StepCompletedLeavesSiblingsUnchanged(t *testing.T) {
	s := newTestSession(t)
	before := withPlan(t, s)

	s.Apply(client.StepCompletedEvent{StepID: "step-1"})

	after, ok := s.ActivePlan()
	require.True(t, ok)
	want := stepStatuses(before)
	want["step-1"] = StepCompleted
	assert.Equal(t, want, stepStatuses(after))
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, before.Objective, after.Objective)

	// the earlier plan value is not mutated
	assert.Equal(t, StepPending, before.Steps[0].Status)
}

func TestApply_UnknownStepIsNoop(t *testing.T) {
	s := newTestSession(t)
	before := withPlan(t, s)

	out := s.Apply(client.StepFailedEvent{StepID: "nope"})

	after, _ := s.ActivePlan()
	assert.Equal(t, before, after)
	assert.Empty(t, out.Notices)
}

func TestApply_StepFailedRaisesNotice(t *testing.T) {
	s := newTestSession(t)
	withPlan(t, s)

	out := s.Apply(client.StepFailedEvent{StepID: "step-2", StepName: "atlas/provision_infrastructure"})

	require.Len(t, out.Notices, 1)
	assert.Equal(t, NoticeError, out.Notices[0].Level)
	assert.Equal(t, "Step failed: atlas/provision_infrastructure", out.Notices[0].Text)
	plan, _ := s.ActivePlan()
	assert.Equal(t, StepFailed, stepStatuses(plan)["step-2"])
}

func TestApply_NoSecondPlanWhileOutstanding(t *testing.T) {
	s := newTestSession(t)
	withPlan(t, s)

	s.Apply(client.AIResponseEvent{Content: analyzed})

	plans := 0
	for _, m := range s.Messages() {
		if m.Type == MessageExecutionPlan {
			plans++
		}
	}
	assert.Equal(t, 1, plans)
	last := s.Messages()[s.Len()-1]
	assert.Equal(t, MessageAI, last.Type)
	assert.Nil(t, last.ExecutionPlan)
}

func TestApply_NewPlanAfterCancel(t *testing.T) {
	s := newTestSession(t)
	plan := withPlan(t, s)
	_, ok := s.CancelPlan(plan.ID)
	require.True(t, ok)

	s.Apply(client.AIResponseEvent{Content: analyzed})

	next, ok := s.ActivePlan()
	require.True(t, ok)
	assert.NotEqual(t, plan.ID, next.ID)
}

func TestApply_StepResultFailureMarker(t *testing.T) {
	s := newTestSession(t)
	withPlan(t, s)
	_, ok := s.ExecuteStep("step-1")
	require.True(t, ok)

	s.Apply(client.AIResponseEvent{Content: "❌ Repository analysis failed: clone timed out"})

	plan, _ := s.ActivePlan()
	assert.Equal(t, StepFailed, stepStatuses(plan)["step-1"])
	assert.Equal(t, MessageAI, s.Messages()[s.Len()-1].Type)
}

func TestApply_StepResultSuccessMarker(t *testing.T) {
	s := newTestSession(t)
	withPlan(t, s)
	_, ok := s.ExecuteStep("step-1")
	require.True(t, ok)

	s.Apply(client.AIResponseEvent{Content: "✅ Repository analyzed: Next.js"})

	plan, _ := s.ActivePlan()
	st := stepStatuses(plan)
	assert.Equal(t, StepCompleted, st["step-1"])
	assert.Equal(t, StepPending, st["step-2"])
}

func TestApply_ErrorFrame(t *testing.T) {
	s := newTestSession(t)
	s.SendUserMessage("hello")
	n := s.Len()

	out := s.Apply(client.ErrorEvent{Message: "boom"})

	require.Len(t, out.Notices, 1)
	assert.Equal(t, "boom", out.Notices[0].Text)
	assert.Equal(t, NoticeError, out.Notices[0].Level)
	assert.False(t, s.Typing().IsTyping)
	assert.Equal(t, n, s.Len())
}

func TestApply_ErrorFrameFallbackText(t *testing.T) {
	s := newTestSession(t)
	out := s.Apply(client.ErrorEvent{})
	require.Len(t, out.Notices, 1)
	assert.Equal(t, "An unexpected error occurred", out.Notices[0].Text)
}

func TestApply_TypingIndicatorResetsRotation(t *testing.T) {
	s := newTestSession(t)

	out := s.Apply(client.TypingIndicatorEvent{IsTyping: true, Agent: "atlas", Operation: "provisioning"})
	require.True(t, out.TypingStarted)
	first := s.ThinkingMessage()
	assert.Equal(t, "Requesting compute capacity...", first)

	require.True(t, s.AdvanceThinking())
	assert.NotEqual(t, first, s.ThinkingMessage())

	// still typing: no restart
	out = s.Apply(client.TypingIndicatorEvent{IsTyping: true, Agent: "atlas", Operation: "provisioning"})
	assert.False(t, out.TypingStarted)

	s.Apply(client.TypingIndicatorEvent{IsTyping: false})
	assert.Equal(t, "", s.ThinkingMessage())
	assert.False(t, s.AdvanceThinking())
}

func TestApply_RecoveryAppendsSystemMessage(t *testing.T) {
	s := newTestSession(t)
	before := withPlan(t, s)

	s.Apply(client.RecoveryEvent{
		Kind:        client.FrameRecoveryEscalated,
		Message:     "Automatic recovery failed",
		RecoveryID:  "rec-7",
		Attempt:     3,
		Attempts:    3,
		Suggestions: []string{"Check your DigitalOcean token"},
	})

	last := s.Messages()[s.Len()-1]
	assert.Equal(t, MessageSystem, last.Type)
	require.NotNil(t, last.Recovery)
	assert.Equal(t, "rec-7", last.Recovery.ID)
	assert.Equal(t, []string{"Check your DigitalOcean token"}, last.Recovery.Suggestions)

	after, _ := s.ActivePlan()
	assert.Equal(t, before, after)
}

func TestApply_ConversationCreated(t *testing.T) {
	s := newTestSession(t)

	out := s.Apply(client.ConversationCreatedEvent{ConversationID: "conv-9"})
	assert.True(t, out.ConversationChanged)
	assert.Equal(t, "conv-9", s.ConversationID())
	require.Len(t, out.Notices, 1)
	assert.Equal(t, NoticeInfo, out.Notices[0].Level)

	out = s.Apply(client.ConversationCreatedEvent{ConversationID: "conv-9"})
	assert.False(t, out.ConversationChanged)
}

// ---------------------------------------------------------------------------
// Plan operations
// ---------------------------------------------------------------------------

func TestExecuteStep_Optimistic(t *testing.T) {
	s := newTestSession(t)
	withPlan(t, s)

	frame, ok := s.ExecuteStep("step-3")
	require.True(t, ok)
	require.NotNil(t, frame.StepExecution)
	assert.Equal(t, "step-3", frame.StepExecution.StepID)
	assert.Equal(t, "neptune/create_dns_record", frame.StepExecution.StepName)
	assert.Contains(t, frame.Content, "Execute step: ")

	plan, _ := s.ActivePlan()
	assert.Equal(t, PlanExecuting, plan.Status)
	assert.Equal(t, StepExecuting, stepStatuses(plan)["step-3"])

	_, ok = s.ExecuteStep("step-3")
	assert.False(t, ok, "an executing step cannot be executed again")
}

func TestCompleteStepFallback_AuthoritativeEventWins(t *testing.T) {
	s := newTestSession(t)
	withPlan(t, s)
	_, ok := s.ExecuteStep("step-1")
	require.True(t, ok)

	s.Apply(client.StepFailedEvent{StepID: "step-1"})
	assert.False(t, s.CompleteStepFallback("step-1"))

	plan, _ := s.ActivePlan()
	assert.Equal(t, StepFailed, stepStatuses(plan)["step-1"])
}

func TestCompleteStepFallback_CompletesExecutingStep(t *testing.T) {
	s := newTestSession(t)
	withPlan(t, s)
	_, ok := s.ExecuteStep("step-4")
	require.True(t, ok)

	assert.True(t, s.CompleteStepFallback("step-4"))
	plan, _ := s.ActivePlan()
	assert.Equal(t, StepCompleted, stepStatuses(plan)["step-4"])
}

func TestApproveAndCancelPlan(t *testing.T) {
	s := newTestSession(t)
	plan := withPlan(t, s)

	frame, ok := s.ApprovePlan(plan.ID)
	require.True(t, ok)
	assert.Equal(t, "Approve execution plan: deploy my app", frame.Content)

	got, ok := s.ActivePlan()
	require.True(t, ok)
	assert.Equal(t, PlanApproved, got.Status)

	_, ok = s.CancelPlan(plan.ID)
	assert.False(t, ok, "only awaiting plans can be resolved")

	_, ok = s.ApprovePlan("unknown")
	assert.False(t, ok)
}

func TestPlanCompletesWhenAllStepsTerminal(t *testing.T) {
	s := newTestSession(t)
	plan := withPlan(t, s)
	for _, st := range plan.Steps {
		s.Apply(client.StepCompletedEvent{StepID: st.ID})
	}
	_, outstanding := s.ActivePlan()
	assert.False(t, outstanding)

	var final *ExecutionPlan
	for _, m := range s.Messages() {
		if m.ExecutionPlan != nil {
			final = m.ExecutionPlan
		}
	}
	require.NotNil(t, final)
	assert.Equal(t, PlanCompleted, final.Status)
}

func TestAbortTyping_ClearsPendingIntent(t *testing.T) {
	s := newTestSession(t)
	_, ok := s.SendUserMessage("deploy my app")
	require.True(t, ok)
	require.True(t, s.Typing().IsTyping)

	s.AbortTyping()

	assert.False(t, s.Typing().IsTyping)
	assert.Empty(t, s.ThinkingMessage())
	_, pending := s.PendingIntent()
	assert.False(t, pending)
	assert.Equal(t, 1, s.Len(), "the user message stays in history")
}

func TestAddSystemMessage(t *testing.T) {
	s := newTestSession(t)
	s.AddSystemMessage("Commands: /help")

	msgs := s.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, MessageSystem, msgs[0].Type)
	assert.Equal(t, "msg-1", msgs[0].ID)
	assert.Equal(t, fixedNow, msgs[0].Timestamp)
}
