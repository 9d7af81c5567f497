package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/controlVector/controlvector-frontend/client"
	"github.com/controlVector/controlvector-frontend/config"
	"github.com/controlVector/controlvector-frontend/identity"
	"github.com/controlVector/controlvector-frontend/logging"
	"github.com/controlVector/controlvector-frontend/model"
	"github.com/controlVector/controlvector-frontend/msg"
	"github.com/controlVector/controlvector-frontend/session"
	"github.com/controlVector/controlvector-frontend/style"
)

const (
	thinkingInterval = 2 * time.Second
	stepFallback     = 3 * time.Second
	retryInterval    = 5 * time.Second
	requestTimeout   = 15 * time.Second
)

// ErrLoginRequired is returned by Err when the backend rejected the token.
// The caller is expected to run the login flow and start a new program.
var ErrLoginRequired = errors.New("login required")

// API is the part of the REST client the chat program uses.
type API interface {
	CreateConversation(ctx context.Context, req client.ConversationRequest) (*client.Conversation, error)
	ListCredentials(ctx context.Context) ([]client.CredentialInfo, error)
}

// Store persists the session between runs.
type Store interface {
	ConversationID(now time.Time) (string, error)
	SaveConversationID(id string, ttl time.Duration, now time.Time) error
	ClearConversation() error
	ClearSession() error
}

// Options wires the chat program. New performs no I/O.
type Options struct {
	API        API
	Store      Store
	Config     config.Config
	ProfileDir string
	Logger     *slog.Logger
	Identity   identity.Identity
	Email      string
	Token      string
	Version    string
}

// ProgramReady hands the running program to the model so sockets can
// deliver events to it.
type ProgramReady struct{ Program *tea.Program }

type Model struct {
	opts Options
	log  *slog.Logger
	sess *session.Session

	header   model.HeaderModel
	chat     model.ChatModel
	input    model.InputModel
	activity model.ActivityModel
	status   model.StatusModel
	plan     model.PlanModel
	picker   model.PickerModel
	toasts   model.ToastsModel

	state State
	keys  KeyMap

	sender           client.Sender
	socket           *client.Socket
	reconnectPending bool
	thinkingGen      int
	stepRun          int
	stepRuns         map[string]int // step id -> run that armed the pending fallback
	dismissedPlan    string

	quitting    bool
	confirmQuit bool
	err         error
	width       int
	height      int
	now         func() time.Time
}

func New(opts Options) Model {
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	header := model.NewHeader(opts.Version)
	header.SetIdentity(opts.Email, opts.Identity.WorkspaceID)
	input := model.NewInput()
	input.SetCommands(commandNames())
	input.SetArgs("/theme", style.ThemeNames)
	input.Focus()
	return Model{
		opts:     opts,
		log:      log,
		sess:     session.New("", log),
		header:   header,
		chat:     model.NewChat(80, 20),
		input:    input,
		activity: model.NewActivity(),
		status:   model.NewStatus(),
		plan:     model.NewPlan(),
		picker:   model.NewPicker(),
		toasts:   model.NewToasts(),
		state:    StateConnecting,
		keys:     DefaultKeyMap(),
		width:    80,
		height:   24,
		now:      time.Now,
	}
}

// Err reports why the program stopped, if it was not a plain quit.
func (m Model) Err() error { return m.err }

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.ensureConversation(),
		m.fetchOnboarding(),
		m.activity.Init(),
		textinput.Blink,
		m.tickCmd(),
		tea.WindowSize(),
	)
}

func (m Model) Update(rawMsg tea.Msg) (tea.Model, tea.Cmd) {
	switch v := rawMsg.(type) {
	case tea.WindowSizeMsg:
		m.width = v.Width
		m.height = v.Height
		m.plan.SetWidth(v.Width - 4)
		m.picker.SetWidth(v.Width)
		m.input.SetWidth(v.Width)
		m.chat.SetSize(v.Width, m.chatHeight())
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(v)
	case ProgramReady:
		m.sender = v.Program
		m.connect()
		return m, nil

	case msg.ConversationReady:
		return m.handleConversation(v)
	case msg.RetryConversation:
		return m, m.ensureConversation()
	case msg.ConversationSaved:
		if v.Err != nil {
			m.log.Warn("conversation_save_failed", "error", v.Err)
		}
		return m, nil
	case msg.OnboardingResult:
		return m.handleOnboarding(v)

	case client.SocketConnectedEvent:
		if v.Socket != m.socket {
			return m, nil
		}
		m.status.SetConnection(model.ConnConnected)
		return m, nil
	case client.SocketClosedEvent:
		return m.handleSocketClosed(v)
	case msg.ReconnectDue:
		m.reconnectPending = false
		if m.quitting || m.sess.ConversationID() == "" || (m.socket != nil && m.socket.Live()) {
			return m, nil
		}
		m.log.Info("ws_reconnect", "conversation_id", m.sess.ConversationID())
		m.connect()
		return m, nil
	case client.FrameWarning:
		m.log.Warn("frame_undecodable", "detail", v.Message)
		return m, nil
	case client.AIResponseEvent, client.TypingIndicatorEvent, client.StepCompletedEvent,
		client.StepFailedEvent, client.ErrorEvent, client.RecoveryEvent,
		client.ConversationCreatedEvent, client.PongEvent, client.UnknownFrame:
		return m.applyEvent(v)

	case msg.SendResult:
		if v.Err != nil {
			m.log.Warn("send_failed", "kind", v.Kind, "error", v.Err)
			m.toasts.Add(session.Notice{Level: session.NoticeError, Text: sendFailureText(v.Err)})
			if v.Kind == "message" {
				m.sess.AbortTyping()
			}
			cmd := m.sync()
			return m, cmd
		}
		return m, nil

	case msg.ThinkingTick:
		if v.Gen != m.thinkingGen || !m.sess.Typing().IsTyping {
			return m, nil
		}
		m.sess.AdvanceThinking()
		m.syncActivity()
		return m, thinkingTick(v.Gen)
	case msg.StepFallbackDue:
		if m.stepRuns[v.StepID] != v.Run {
			return m, nil
		}
		delete(m.stepRuns, v.StepID)
		if m.sess.CompleteStepFallback(v.StepID) {
			cmd := m.sync()
			return m, cmd
		}
		return m, nil
	case msg.TickMsg:
		m.toasts.Tick()
		m.syncActivity()
		return m, m.tickCmd()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.activity, cmd = m.activity.Update(v)
		if m.activity.IsActive() {
			m.chat.SetProcessingView(m.activity.View())
		}
		return m, cmd

	case model.PlanDecision:
		return m.handlePlanDecision(v)
	case model.StepExecuteRequest:
		return m.handleStepExecute(v)
	case model.PlanDismissed:
		m.dismissedPlan = m.plan.PlanID()
		cmd := m.sync()
		return m, cmd
	case model.PickerChoice:
		return m.applyTheme(v.Name)
	case model.PickerCancel:
		m.chat.SetSize(m.width, m.chatHeight())
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	var sections []string
	sections = append(sections, m.header.View())
	if m.state == StateConnecting {
		sections = append(sections, style.Faint.Render("  Connecting to ControlVector..."))
	} else {
		sections = append(sections, m.chat.View())
	}
	if m.toasts.HasToasts() {
		sections = append(sections, m.toasts.View(m.width))
	}
	if m.picker.IsActive() {
		sections = append(sections, m.picker.View())
	}
	if m.state == StatePlanReview {
		sections = append(sections, m.plan.View())
	}
	sections = append(sections, m.status.View())
	if m.state != StatePlanReview && m.state != StateConnecting {
		sections = append(sections, m.input.View())
	}
	if m.confirmQuit {
		sections = append(sections, "\n  Press Ctrl+C again to quit, or any key to cancel.")
	}
	return strings.Join(sections, "\n")
}

// -- Keys --

func (m Model) handleKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirmQuit {
		if key.Matches(k, m.keys.Quit) {
			return m.quit()
		}
		m.confirmQuit = false
		return m, nil
	}
	if m.picker.IsActive() {
		updated, cmd := m.picker.Update(k)
		if p, ok := updated.(model.PickerModel); ok {
			m.picker = p
		}
		return m, cmd
	}
	switch m.state {
	case StateConnecting:
		if key.Matches(k, m.keys.Quit) || key.Matches(k, m.keys.QuitEOF) {
			return m.quit()
		}
		return m, nil
	case StatePlanReview:
		return m.handlePlanKey(k)
	}
	return m.handleInputKey(k)
}

func (m Model) handleInputKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(k, m.keys.Escape):
		m.input.Reset()
		return m, nil
	case key.Matches(k, m.keys.Quit):
		if m.input.Value() == "" {
			m.confirmQuit = true
			return m, nil
		}
		m.input.Reset()
		return m, nil
	case key.Matches(k, m.keys.QuitEOF):
		if m.input.Value() == "" {
			return m.quit()
		}
	case key.Matches(k, m.keys.Submit):
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}
		m.input.Submit(text)
		return m.submitInput(text)
	case key.Matches(k, m.keys.TogglePlan):
		return m.reopenPlan()
	case key.Matches(k, m.keys.Top):
		m.chat.ScrollToTop()
		return m, nil
	case key.Matches(k, m.keys.Bottom):
		m.chat.ScrollToBottom()
		return m, nil
	case key.Matches(k, m.keys.PageUp), key.Matches(k, m.keys.PageDown):
		return m.scrollChat(k)
	}
	updated, cmd := m.input.Update(k)
	if inp, ok := updated.(model.InputModel); ok {
		m.input = inp
	}
	return m, cmd
}

func (m Model) handlePlanKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(k, m.keys.Quit):
		m.confirmQuit = true
		return m, nil
	case key.Matches(k, m.keys.PageUp), key.Matches(k, m.keys.PageDown):
		return m.scrollChat(k)
	}
	updated, cmd := m.plan.Update(k)
	if p, ok := updated.(model.PlanModel); ok {
		m.plan = p
	}
	return m, cmd
}

func (m Model) scrollChat(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	updated, cmd := m.chat.Update(k)
	if c, ok := updated.(model.ChatModel); ok {
		m.chat = c
	}
	return m, cmd
}

func (m Model) submitInput(text string) (Model, tea.Cmd) {
	if strings.HasPrefix(text, "/") {
		return m.runCommand(text)
	}
	frame, ok := m.sess.SendUserMessage(text)
	if !ok {
		return m, nil
	}
	cmd := tea.Batch(m.send("message", frame), m.startThinking(), m.sync())
	return m, cmd
}

func (m Model) quit() (Model, tea.Cmd) {
	m.quitting = true
	m.closeSocket()
	return m, tea.Quit
}

// -- Conversation and onboarding --

func (m Model) ensureConversation() tea.Cmd {
	api, st, id := m.opts.API, m.opts.Store, m.opts.Identity
	ttl, now := m.opts.Config.ConversationTTL, m.now
	return func() tea.Msg {
		if st != nil {
			cached, err := st.ConversationID(now())
			if err == nil && cached != "" {
				return msg.ConversationReady{ID: cached}
			}
		}
		if api == nil {
			return msg.ConversationReady{Err: errors.New("no api client configured")}
		}
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		conv, err := api.CreateConversation(ctx, client.ConversationRequest{
			UserID:      id.UserID,
			WorkspaceID: id.WorkspaceID,
		})
		if err != nil {
			return msg.ConversationReady{Err: err}
		}
		if st != nil {
			if err := st.SaveConversationID(conv.ID, ttl, now()); err != nil {
				return msg.ConversationReady{ID: conv.ID, Err: err}
			}
		}
		return msg.ConversationReady{ID: conv.ID}
	}
}

func (m Model) handleConversation(v msg.ConversationReady) (Model, tea.Cmd) {
	if v.Err != nil && v.ID == "" {
		if errors.Is(v.Err, client.ErrUnauthorized) {
			return m.authFailed()
		}
		m.log.Error("conversation_failed", "error", v.Err)
		m.toasts.Add(session.Notice{
			Level: session.NoticeError,
			Text:  "Could not start a conversation, retrying in 5s",
		})
		return m, tea.Tick(retryInterval, func(time.Time) tea.Msg { return msg.RetryConversation{} })
	}
	if v.Err != nil {
		m.log.Warn("conversation_save_failed", "error", v.Err)
	}
	if cur := m.sess.ConversationID(); cur != "" && cur != v.ID {
		m.closeSocket()
		m.sess = session.New(v.ID, m.log)
		m.stepRuns = nil
		m.dismissedPlan = ""
	}
	m.sess.SetConversationID(v.ID)
	m.status.SetConversation(v.ID)
	m.log.Info("conversation_ready", "conversation_id", v.ID)
	m.connect()
	cmd := m.sync()
	return m, cmd
}

func (m Model) saveConversation(id string) tea.Cmd {
	st, ttl, now := m.opts.Store, m.opts.Config.ConversationTTL, m.now
	return func() tea.Msg {
		if st == nil {
			return msg.ConversationSaved{}
		}
		return msg.ConversationSaved{Err: st.SaveConversationID(id, ttl, now())}
	}
}

func (m Model) fetchOnboarding() tea.Cmd {
	api := m.opts.API
	if api == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		creds, err := api.ListCredentials(ctx)
		if err != nil {
			return msg.OnboardingResult{Err: err}
		}
		o := client.OnboardingStatus(creds)
		return msg.OnboardingResult{Complete: o.Complete(), Configured: o.Configured, HasSSHKey: o.HasSSHKey}
	}
}

func (m Model) handleOnboarding(v msg.OnboardingResult) (Model, tea.Cmd) {
	if v.Err != nil {
		m.log.Warn("onboarding_check_failed", "error", v.Err)
		return m, nil
	}
	m.status.SetOnboarding(v.Complete)
	if !v.Complete {
		text := "Onboarding incomplete: add a cloud provider with `cv credentials set`"
		if !v.HasSSHKey {
			text = "Onboarding incomplete: add an SSH key with `cv credentials ssh-key`"
		}
		m.toasts.Add(session.Notice{Level: session.NoticeWarning, Text: text})
	}
	return m, nil
}

// -- Socket lifecycle --

// connect replaces the current socket. It is a no-op until both the
// program and the conversation id are known.
func (m *Model) connect() {
	if m.sender == nil || m.sess.ConversationID() == "" || m.quitting {
		return
	}
	m.closeSocket()
	sock, err := client.NewSocket(client.SocketOptions{
		URL:            m.opts.Config.WebSocketURL(),
		Token:          m.opts.Token,
		ConversationID: m.sess.ConversationID(),
		Logger:         m.log,
	})
	if err != nil {
		m.log.Error("ws_config_invalid", "error", err)
		m.status.SetConnection(model.ConnDisconnected)
		return
	}
	m.socket = sock
	m.status.SetConnection(model.ConnConnecting)
	sock.Start(m.sender)
}

func (m *Model) closeSocket() {
	if m.socket != nil {
		m.socket.Close()
		m.socket = nil
	}
}

func (m Model) handleSocketClosed(v client.SocketClosedEvent) (Model, tea.Cmd) {
	if v.Socket != m.socket {
		return m, nil
	}
	m.status.SetConnection(model.ConnDisconnected)
	switch client.ClassifyClose(v.Code) {
	case client.CloseAuthFailed:
		m.log.Warn("ws_auth_rejected", "code", int(v.Code))
		return m.authFailed()
	case client.CloseStop:
		return m, nil
	}
	if m.reconnectPending || m.quitting {
		return m, nil
	}
	m.reconnectPending = true
	return m, tea.Tick(client.ReconnectDelay, func(time.Time) tea.Msg { return msg.ReconnectDue{} })
}

// authFailed drops the stored session and stops the program so the caller
// can log in again.
func (m Model) authFailed() (Model, tea.Cmd) {
	m.closeSocket()
	if m.opts.Store != nil {
		if err := m.opts.Store.ClearSession(); err != nil {
			m.log.Error("session_clear_failed", "error", err)
		}
	}
	m.err = ErrLoginRequired
	m.quitting = true
	return m, tea.Quit
}

func (m Model) send(kind string, frame any) tea.Cmd {
	sock := m.socket
	return func() tea.Msg {
		if sock == nil {
			return msg.SendResult{Kind: kind, Err: client.ErrNotConnected}
		}
		return msg.SendResult{Kind: kind, Err: sock.Send(frame)}
	}
}

func sendFailureText(err error) string {
	if errors.Is(err, client.ErrNotConnected) {
		return "Not connected, message not sent"
	}
	return "Send failed: " + err.Error()
}

// -- Session events --

func (m Model) applyEvent(ev any) (Model, tea.Cmd) {
	out := m.sess.Apply(ev)
	var cmds []tea.Cmd
	for _, n := range out.Notices {
		m.toasts.Add(n)
	}
	if out.ConversationChanged {
		id := m.sess.ConversationID()
		m.status.SetConversation(id)
		cmds = append(cmds, m.saveConversation(id))
	}
	if out.TypingStarted {
		cmds = append(cmds, m.startThinking())
	}
	cmds = append(cmds, m.sync())
	return m, tea.Batch(cmds...)
}

func (m Model) handlePlanDecision(d model.PlanDecision) (Model, tea.Cmd) {
	var (
		frame client.UserMessageFrame
		ok    bool
	)
	switch d.Decision {
	case "approve":
		frame, ok = m.sess.ApprovePlan(d.PlanID)
	case "cancel":
		frame, ok = m.sess.CancelPlan(d.PlanID)
	}
	if !ok {
		return m, nil
	}
	cmd := tea.Batch(m.send("plan", frame), m.sync())
	return m, cmd
}

func (m Model) handleStepExecute(r model.StepExecuteRequest) (Model, tea.Cmd) {
	frame, ok := m.sess.ExecuteStep(r.StepID)
	if !ok {
		return m, nil
	}
	m.stepRun++
	if m.stepRuns == nil {
		m.stepRuns = make(map[string]int)
	}
	m.stepRuns[r.StepID] = m.stepRun
	due := msg.StepFallbackDue{StepID: r.StepID, Run: m.stepRun}
	fallback := tea.Tick(stepFallback, func(time.Time) tea.Msg { return due })
	cmd := tea.Batch(m.send("step", frame), fallback, m.sync())
	return m, cmd
}

func (m Model) reopenPlan() (Model, tea.Cmd) {
	if _, ok := m.sess.ActivePlan(); !ok {
		m.toasts.Add(session.Notice{Level: session.NoticeInfo, Text: "No execution plan in progress"})
		return m, nil
	}
	m.dismissedPlan = ""
	cmd := m.sync()
	return m, cmd
}

func (m *Model) startThinking() tea.Cmd {
	m.thinkingGen++
	return thinkingTick(m.thinkingGen)
}

func thinkingTick(gen int) tea.Cmd {
	return tea.Tick(thinkingInterval, func(time.Time) tea.Msg { return msg.ThinkingTick{Gen: gen} })
}

// sync pushes session state into the widgets and derives the app state.
func (m *Model) sync() tea.Cmd {
	m.chat.SetMessages(m.sess.Messages())
	m.syncActivity()
	if p, ok := m.sess.ActivePlan(); ok && p.ID != m.dismissedPlan {
		m.plan.SetPlan(p)
	} else {
		m.plan.Clear()
	}

	prev := m.state
	switch {
	case m.sess.ConversationID() == "":
		m.state = StateConnecting
	case m.plan.IsActive():
		m.state = StatePlanReview
	case m.sess.Typing().IsTyping:
		m.state = StateProcessing
	default:
		m.state = StateIdle
	}
	m.chat.SetSize(m.width, m.chatHeight())

	if prev == m.state {
		return nil
	}
	m.log.Debug("state_changed", "from", prev.String(), "to", m.state.String())
	if m.state == StatePlanReview {
		m.input.Blur()
		return nil
	}
	return m.input.Focus()
}

func (m *Model) syncActivity() {
	m.activity.Sync(m.sess.Typing(), m.sess.ThinkingMessage())
	m.chat.SetProcessingView(m.activity.View())
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return msg.TickMsg{} })
}

// chatHeight calculates available lines for the chat viewport.
func (m Model) chatHeight() int {
	reserved := 1 + countLines(m.status.View()) // header + status
	if m.state != StatePlanReview {
		reserved++ // prompt line
	}
	if m.toasts.HasToasts() {
		reserved += countLines(m.toasts.View(m.width))
	}
	if m.state == StatePlanReview {
		reserved += countLines(m.plan.View())
	}
	if m.picker.IsActive() {
		reserved += countLines(m.picker.View())
	}
	h := m.height - reserved
	if h < 5 {
		h = 5
	}
	return h
}

// countLines returns the number of lines in a rendered string.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}
