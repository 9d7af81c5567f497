package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/controlVector/controlvector-frontend/client"
	"github.com/controlVector/controlvector-frontend/config"
	"github.com/controlVector/controlvector-frontend/model"
	"github.com/controlVector/controlvector-frontend/msg"
	"github.com/controlVector/controlvector-frontend/session"
	"github.com/controlVector/controlvector-frontend/store"
	"github.com/controlVector/controlvector-frontend/style"
)

// ---------------------------------------------------------------------------
// Fakes and helpers
// ---------------------------------------------------------------------------

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeAPI struct {
	convID   string
	convErr  error
	creds    []client.CredentialInfo
	credsErr error
	created  []client.ConversationRequest
}

func (f *fakeAPI) CreateConversation(_ context.Context, req client.ConversationRequest) (*client.Conversation, error) {
	f.created = append(f.created, req)
	if f.convErr != nil {
		return nil, f.convErr
	}
	return &client.Conversation{ID: f.convID}, nil
}

func (f *fakeAPI) ListCredentials(context.Context) ([]client.CredentialInfo, error) {
	return f.creds, f.credsErr
}

type memStore struct {
	id      string
	ttl     time.Duration
	cleared bool
}

func (s *memStore) ConversationID(time.Time) (string, error) { return s.id, nil }

func (s *memStore) SaveConversationID(id string, ttl time.Duration, _ time.Time) error {
	s.id, s.ttl = id, ttl
	return nil
}

func (s *memStore) ClearConversation() error {
	s.id = ""
	return nil
}

func (s *memStore) ClearSession() error {
	s.id = ""
	s.cleared = true
	return nil
}

func newTestModel(t *testing.T, opts Options) Model {
	t.Helper()
	if opts.Config.APIURL == "" {
		opts.Config = config.Config{APIURL: "http://localhost:3000", ConversationTTL: time.Hour}
	}
	opts.Token = "tok"
	m := New(opts)
	m.now = func() time.Time { return fixedNow }
	return m
}

func update(t *testing.T, m Model, message tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(message)
	out, ok := updated.(Model)
	require.True(t, ok)
	return out, cmd
}

// ready puts the model into a conversation without a program, so no
// socket is dialled.
func ready(t *testing.T, m Model) Model {
	t.Helper()
	m, _ = update(t, m, msg.ConversationReady{ID: "conv-1"})
	require.Equal(t, StateIdle, m.state)
	return m
}

func unstartedSocket(t *testing.T) *client.Socket {
	t.Helper()
	sock, err := client.NewSocket(client.SocketOptions{
		URL:            "ws://127.0.0.1:1/ws",
		Token:          "tok",
		ConversationID: "conv-1",
	})
	require.NoError(t, err)
	t.Cleanup(sock.Close)
	return sock
}

const analyzed = "🤖 **Deployment Request Analyzed**\n\nHere is the plan."

// ---------------------------------------------------------------------------
// Conversation bootstrap
// ---------------------------------------------------------------------------

func TestEnsureConversation_UsesCachedID(t *testing.T) {
	api := &fakeAPI{convID: "fresh"}
	st := &memStore{id: "cached"}
	m := newTestModel(t, Options{API: api, Store: st})

	got := m.ensureConversation()()

	assert.Equal(t, msg.ConversationReady{ID: "cached"}, got)
	assert.Empty(t, api.created)
}

func TestEnsureConversation_CreatesAndPersists(t *testing.T) {
	api := &fakeAPI{convID: "fresh"}
	st := &memStore{}
	m := newTestModel(t, Options{API: api, Store: st})
	m.opts.Identity.UserID = "u-1"
	m.opts.Identity.WorkspaceID = "w-1"

	got := m.ensureConversation()()

	assert.Equal(t, msg.ConversationReady{ID: "fresh"}, got)
	require.Len(t, api.created, 1)
	assert.Equal(t, client.ConversationRequest{UserID: "u-1", WorkspaceID: "w-1"}, api.created[0])
	assert.Equal(t, "fresh", st.id)
	assert.Equal(t, time.Hour, st.ttl)
}

func TestConversationUnauthorized_RequiresLogin(t *testing.T) {
	st := &memStore{}
	m := newTestModel(t, Options{API: &fakeAPI{convErr: client.ErrUnauthorized}, Store: st})

	m, cmd := update(t, m, m.ensureConversation()())

	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.ErrorIs(t, m.Err(), ErrLoginRequired)
	assert.True(t, st.cleared)
}

func TestConversationError_SchedulesRetry(t *testing.T) {
	m := newTestModel(t, Options{API: &fakeAPI{convErr: assert.AnError}, Store: &memStore{}})

	m, cmd := update(t, m, m.ensureConversation()())

	assert.NotNil(t, cmd)
	assert.NoError(t, m.Err())
	assert.Equal(t, StateConnecting, m.state)
	assert.True(t, m.toasts.HasToasts())
}

func TestNewConversationReplacesSession(t *testing.T) {
	st := &memStore{id: "conv-1"}
	m := ready(t, newTestModel(t, Options{API: &fakeAPI{convID: "conv-2"}, Store: st}))
	m, _ = m.submitInput("hello")
	require.Equal(t, 1, m.sess.Len())

	m, cmd := m.submitInput("/new")
	require.NotNil(t, cmd)
	assert.Empty(t, st.id)

	m, _ = update(t, m, m.ensureConversation()())
	assert.Equal(t, "conv-2", m.sess.ConversationID())
	assert.Equal(t, 0, m.sess.Len())
	assert.Equal(t, "conv-2", st.id)
}

func TestOnboardingIncomplete_Warns(t *testing.T) {
	m := newTestModel(t, Options{API: &fakeAPI{}})

	m, _ = update(t, m, m.fetchOnboarding()())

	assert.True(t, m.toasts.HasToasts())
	assert.Contains(t, m.status.View(), "onboarding incomplete")
}

func TestOnboardingComplete_NoWarning(t *testing.T) {
	api := &fakeAPI{creds: []client.CredentialInfo{
		{Key: "digitalocean_token", Type: "api_key", Provider: "digitalocean"},
		{Key: "deploy", Type: client.CredentialTypeSSHKey},
	}}
	m := newTestModel(t, Options{API: api})

	m, _ = update(t, m, m.fetchOnboarding()())

	assert.False(t, m.toasts.HasToasts())
	assert.NotContains(t, m.status.View(), "onboarding")
}

// ---------------------------------------------------------------------------
// Socket lifecycle
// ---------------------------------------------------------------------------

func TestSocketClosed_SchedulesSingleReconnect(t *testing.T) {
	m := ready(t, newTestModel(t, Options{}))
	sock := unstartedSocket(t)
	m.socket = sock

	m, cmd := update(t, m, client.SocketClosedEvent{Socket: sock, Code: websocket.StatusAbnormalClosure})
	require.NotNil(t, cmd)
	assert.True(t, m.reconnectPending)
	assert.Equal(t, model.ConnDisconnected, m.status.Connection())

	m, cmd = update(t, m, client.SocketClosedEvent{Socket: sock, Code: websocket.StatusGoingAway})
	assert.Nil(t, cmd, "a reconnect is already pending")

	m, _ = update(t, m, msg.ReconnectDue{})
	assert.False(t, m.reconnectPending)
}

func TestSocketClosed_NormalClosureStops(t *testing.T) {
	m := ready(t, newTestModel(t, Options{}))
	sock := unstartedSocket(t)
	m.socket = sock

	m, cmd := update(t, m, client.SocketClosedEvent{Socket: sock, Code: websocket.StatusNormalClosure})

	assert.Nil(t, cmd)
	assert.False(t, m.reconnectPending)
}

func TestSocketClosed_StaleSocketIgnored(t *testing.T) {
	m := ready(t, newTestModel(t, Options{}))
	m.socket = unstartedSocket(t)

	m, cmd := update(t, m, client.SocketClosedEvent{Socket: unstartedSocket(t), Code: websocket.StatusAbnormalClosure})

	assert.Nil(t, cmd)
	assert.False(t, m.reconnectPending)
}

func TestSocketClosed_AuthClearsSessionAndQuits(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.SaveTokens(store.Tokens{Access: "a", Refresh: "r"}))
	require.NoError(t, st.SaveConversationID("conv-1", time.Hour, fixedNow))

	m := ready(t, newTestModel(t, Options{Store: st}))
	sock := unstartedSocket(t)
	m.socket = sock

	m, cmd := update(t, m, client.SocketClosedEvent{Socket: sock, Code: client.StatusUnauthorized})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.ErrorIs(t, m.Err(), ErrLoginRequired)
	assert.Nil(t, m.socket)
	assert.True(t, sock.IsClosed())

	tokens, err := st.Tokens()
	require.NoError(t, err)
	assert.Empty(t, tokens.Access)
	assert.Empty(t, tokens.Refresh)
	id, err := st.ConversationID(fixedNow)
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestSocketConnected_UpdatesStatus(t *testing.T) {
	m := ready(t, newTestModel(t, Options{}))
	sock := unstartedSocket(t)
	m.socket = sock

	m, _ = update(t, m, client.SocketConnectedEvent{Socket: unstartedSocket(t)})
	assert.NotEqual(t, model.ConnConnected, m.status.Connection())

	m, _ = update(t, m, client.SocketConnectedEvent{Socket: sock})
	assert.Equal(t, model.ConnConnected, m.status.Connection())
}

// ---------------------------------------------------------------------------
// Chat and plan flow
// ---------------------------------------------------------------------------

func TestDeployFlow(t *testing.T) {
	m := ready(t, newTestModel(t, Options{}))

	m, cmd := m.submitInput("deploy my app")
	require.NotNil(t, cmd)
	assert.Equal(t, StateProcessing, m.state)
	assert.Equal(t, 1, m.thinkingGen)
	assert.True(t, m.activity.IsActive())

	m, _ = update(t, m, client.AIResponseEvent{Content: analyzed, Agent: "watson"})
	require.Equal(t, StatePlanReview, m.state)
	require.True(t, m.plan.IsActive())
	planID := m.plan.PlanID()
	assert.False(t, m.activity.IsActive())

	// Approve is the default option.
	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	decision := cmd()
	require.Equal(t, model.PlanDecision{PlanID: planID, Decision: "approve"}, decision)

	m, _ = update(t, m, decision)
	plan, ok := m.sess.ActivePlan()
	require.True(t, ok)
	assert.Equal(t, session.PlanApproved, plan.Status)

	// Enter on the step list runs the first step.
	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	run := cmd()
	require.Equal(t, model.StepExecuteRequest{StepID: "step-1"}, run)

	m, _ = update(t, m, run)
	plan, _ = m.sess.ActivePlan()
	step, _ := plan.Step("step-1")
	assert.Equal(t, session.StepExecuting, step.Status)

	m, _ = update(t, m, msg.StepFallbackDue{StepID: "step-1", Run: m.stepRun})
	plan, _ = m.sess.ActivePlan()
	step, _ = plan.Step("step-1")
	assert.Equal(t, session.StepCompleted, step.Status)
}

func TestStepFallback_OnlyCoversTheRunThatArmedIt(t *testing.T) {
	m := ready(t, newTestModel(t, Options{}))
	m, _ = m.submitInput("deploy my app")
	m, _ = update(t, m, client.AIResponseEvent{Content: analyzed})
	m, _ = update(t, m, model.PlanDecision{PlanID: m.plan.PlanID(), Decision: "approve"})

	m, _ = update(t, m, model.StepExecuteRequest{StepID: "step-1"})
	first := msg.StepFallbackDue{StepID: "step-1", Run: m.stepRun}
	m, _ = update(t, m, client.StepFailedEvent{StepID: "step-1"})

	// retry, then the first run's timer fires
	m, _ = update(t, m, model.StepExecuteRequest{StepID: "step-1"})
	second := msg.StepFallbackDue{StepID: "step-1", Run: m.stepRun}
	require.NotEqual(t, first.Run, second.Run)
	m, _ = update(t, m, first)

	plan, _ := m.sess.ActivePlan()
	step, _ := plan.Step("step-1")
	assert.Equal(t, session.StepExecuting, step.Status)

	m, _ = update(t, m, second)
	plan, _ = m.sess.ActivePlan()
	step, _ = plan.Step("step-1")
	assert.Equal(t, session.StepCompleted, step.Status)
}

func TestPlanDismissAndReopen(t *testing.T) {
	m := ready(t, newTestModel(t, Options{}))
	m, _ = m.submitInput("deploy my app")
	m, _ = update(t, m, client.AIResponseEvent{Content: analyzed})
	require.Equal(t, StatePlanReview, m.state)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	assert.Equal(t, StateIdle, m.state)
	assert.False(t, m.plan.IsActive())

	m, _ = m.submitInput("/plan")
	assert.Equal(t, StatePlanReview, m.state)
}

func TestCancelPlan(t *testing.T) {
	m := ready(t, newTestModel(t, Options{}))
	m, _ = m.submitInput("deploy my app")
	m, _ = update(t, m, client.AIResponseEvent{Content: analyzed})

	m, _ = update(t, m, model.PlanDecision{PlanID: m.plan.PlanID(), Decision: "cancel"})

	_, ok := m.sess.ActivePlan()
	assert.False(t, ok)
	assert.Equal(t, StateIdle, m.state)
}

func TestThinkingTick_StaleGenerationIgnored(t *testing.T) {
	m := ready(t, newTestModel(t, Options{}))
	m, _ = m.submitInput("deploy my app")
	first := m.sess.ThinkingMessage()

	m, cmd := update(t, m, msg.ThinkingTick{Gen: 0})
	assert.Nil(t, cmd)
	assert.Equal(t, first, m.sess.ThinkingMessage())

	m, cmd = update(t, m, msg.ThinkingTick{Gen: 1})
	assert.NotNil(t, cmd)
	assert.NotEqual(t, first, m.sess.ThinkingMessage())
}

func TestTypingIndicatorStartsNewGeneration(t *testing.T) {
	m := ready(t, newTestModel(t, Options{}))

	m, _ = update(t, m, client.TypingIndicatorEvent{IsTyping: true, Agent: "atlas", Operation: "provisioning"})

	assert.Equal(t, 1, m.thinkingGen)
	assert.Equal(t, StateProcessing, m.state)
	assert.Equal(t, "Requesting compute capacity...", m.sess.ThinkingMessage())
}

func TestSendFailure_DropsTyping(t *testing.T) {
	m := ready(t, newTestModel(t, Options{}))
	m, _ = m.submitInput("hello")
	require.Equal(t, StateProcessing, m.state)

	m, _ = update(t, m, msg.SendResult{Kind: "message", Err: client.ErrNotConnected})

	assert.Equal(t, StateIdle, m.state)
	assert.True(t, m.toasts.HasToasts())
}

func TestConversationCreatedFrame_Persists(t *testing.T) {
	st := &memStore{id: "conv-1"}
	m := ready(t, newTestModel(t, Options{Store: st}))

	m, cmd := update(t, m, client.ConversationCreatedEvent{ConversationID: "conv-9"})

	require.NotNil(t, cmd)
	assert.Equal(t, "conv-9", m.sess.ConversationID())
	assert.Equal(t, msg.ConversationSaved{}, m.saveConversation("conv-9")())
	assert.Equal(t, "conv-9", st.id)
}

// ---------------------------------------------------------------------------
// Commands
// ---------------------------------------------------------------------------

func TestHelpCommand(t *testing.T) {
	m := ready(t, newTestModel(t, Options{}))

	m, _ = m.submitInput("/help")

	msgs := m.sess.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, session.MessageSystem, msgs[0].Type)
	assert.Contains(t, msgs[0].Content, "/theme")
}

func TestThemeCommand(t *testing.T) {
	t.Cleanup(func() { style.SetTheme("dark") })
	m := ready(t, newTestModel(t, Options{}))

	m, _ = m.submitInput("/theme light")
	assert.Equal(t, "light", style.CurrentThemeName)
	assert.Equal(t, "light", m.opts.Config.Theme)

	m, _ = m.submitInput("/theme")
	require.True(t, m.picker.IsActive())
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Nil(t, cmd)
	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	assert.Equal(t, "mono", style.CurrentThemeName)
}

func TestUnknownCommand(t *testing.T) {
	m := ready(t, newTestModel(t, Options{}))

	m, cmd := m.submitInput("/nope")

	assert.Nil(t, cmd)
	assert.True(t, m.toasts.HasToasts())
	assert.Equal(t, 0, m.sess.Len())
}

func TestQuitCommand(t *testing.T) {
	m := ready(t, newTestModel(t, Options{}))
	sock := unstartedSocket(t)
	m.socket = sock

	m, cmd := m.submitInput("/quit")

	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.True(t, sock.IsClosed())
	assert.NoError(t, m.Err())
}

func TestView_Connecting(t *testing.T) {
	m := newTestModel(t, Options{})
	assert.Contains(t, m.View(), "Connecting to ControlVector")
}
