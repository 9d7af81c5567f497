package style

import "github.com/charmbracelet/lipgloss"

// Colors. SetTheme replaces them and rebuilds the styles below.
var (
	Primary   lipgloss.TerminalColor
	Secondary lipgloss.TerminalColor
	Success   lipgloss.TerminalColor
	Warning   lipgloss.TerminalColor
	Error     lipgloss.TerminalColor
	Muted     lipgloss.TerminalColor
	Dim       lipgloss.TerminalColor
	Border    lipgloss.TerminalColor

	MsgBorderUser   lipgloss.TerminalColor
	MsgBorderAgent  lipgloss.TerminalColor
	MsgBorderSystem lipgloss.TerminalColor
)

// Base styles.
var (
	Bold      lipgloss.Style
	Faint     lipgloss.Style
	ErrorText lipgloss.Style

	// Header
	HeaderTitle  lipgloss.Style
	HeaderDetail lipgloss.Style

	PromptChar lipgloss.Style

	// Chat
	UserLabel   lipgloss.Style
	AgentLabel  lipgloss.Style
	IntentBadge lipgloss.Style
	MsgMeta     lipgloss.Style
	Recovery    lipgloss.Style
	Suggestion  lipgloss.Style

	// Activity
	SpinnerStyle   lipgloss.Style
	PrefixThinking lipgloss.Style
	AgentName      lipgloss.Style

	// Plan steps
	StepDone      lipgloss.Style
	StepActive    lipgloss.Style
	StepPending   lipgloss.Style
	StepFailed    lipgloss.Style
	StepCursor    lipgloss.Style
	StepService   lipgloss.Style
	StepEstimate  lipgloss.Style
	PlanBorder    lipgloss.Style
	PlanTitle     lipgloss.Style
	PlanSelected  lipgloss.Style
	PlanUnselect  lipgloss.Style
	PlanStatusTag lipgloss.Style

	// Status bar
	StatusBar          lipgloss.Style
	StatusConnected    lipgloss.Style
	StatusDisconnected lipgloss.Style

	Hint lipgloss.Style
)

func init() {
	SetTheme("dark")
}

func rebuild() {
	Bold = lipgloss.NewStyle().Bold(true)
	Faint = lipgloss.NewStyle().Foreground(Muted)
	ErrorText = lipgloss.NewStyle().Foreground(Error).Bold(true)

	HeaderTitle = lipgloss.NewStyle().
		Foreground(Primary).
		Bold(true)
	HeaderDetail = lipgloss.NewStyle().
		Foreground(Muted)

	PromptChar = lipgloss.NewStyle().
		Foreground(Primary).
		Bold(true)

	UserLabel = lipgloss.NewStyle().
		Foreground(MsgBorderUser).
		Bold(true)
	AgentLabel = lipgloss.NewStyle().
		Foreground(MsgBorderAgent).
		Bold(true)
	IntentBadge = lipgloss.NewStyle().
		Foreground(Secondary)
	MsgMeta = lipgloss.NewStyle().
		Foreground(Muted).
		Italic(true)
	Recovery = lipgloss.NewStyle().
		Foreground(Warning)
	Suggestion = lipgloss.NewStyle().
		Foreground(Secondary)

	SpinnerStyle = lipgloss.NewStyle().Foreground(Primary)
	PrefixThinking = lipgloss.NewStyle().
		Foreground(Warning).
		Bold(true)
	AgentName = lipgloss.NewStyle().
		Foreground(Secondary).
		Bold(true)

	StepDone = lipgloss.NewStyle().Foreground(Success)
	StepActive = lipgloss.NewStyle().Foreground(Primary).Bold(true)
	StepPending = lipgloss.NewStyle().Foreground(Muted)
	StepFailed = lipgloss.NewStyle().Foreground(Error)
	StepCursor = lipgloss.NewStyle().Foreground(Primary).Bold(true)
	StepService = lipgloss.NewStyle().Foreground(Secondary)
	StepEstimate = lipgloss.NewStyle().Foreground(Dim)
	PlanBorder = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(1, 2)
	PlanTitle = lipgloss.NewStyle().
		Foreground(Primary).
		Bold(true)
	PlanSelected = lipgloss.NewStyle().
		Foreground(Primary).
		Bold(true)
	PlanUnselect = lipgloss.NewStyle().
		Foreground(Muted)
	PlanStatusTag = lipgloss.NewStyle().
		Foreground(Secondary).
		Italic(true)

	StatusBar = lipgloss.NewStyle().
		Foreground(Muted).
		PaddingLeft(1)
	StatusConnected = lipgloss.NewStyle().Foreground(Success)
	StatusDisconnected = lipgloss.NewStyle().Foreground(Error)

	Hint = lipgloss.NewStyle().Foreground(Dim)
}
