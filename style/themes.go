package style

import "github.com/charmbracelet/lipgloss"

// Theme defines a complete color palette for the chat.
type Theme struct {
	Name                                        string
	Primary, Secondary, Success, Warning, Error lipgloss.TerminalColor
	Muted, Dim, Border                          lipgloss.TerminalColor
	MsgBorderUser, MsgBorderAgent               lipgloss.TerminalColor
	MsgBorderSystem                             lipgloss.TerminalColor
}

// Built-in themes.
var (
	darkTheme = Theme{
		Name:            "dark",
		Primary:         lipgloss.Color("#2563EB"), // blue-600
		Secondary:       lipgloss.Color("#06B6D4"), // cyan-500
		Success:         lipgloss.Color("#22C55E"),
		Warning:         lipgloss.Color("#F59E0B"),
		Error:           lipgloss.Color("#EF4444"),
		Muted:           lipgloss.Color("#6B7280"),
		Dim:             lipgloss.Color("#374151"),
		Border:          lipgloss.Color("#4B5563"),
		MsgBorderUser:   lipgloss.Color("#06B6D4"),
		MsgBorderAgent:  lipgloss.Color("#60A5FA"), // blue-400
		MsgBorderSystem: lipgloss.Color("#374151"),
	}

	lightTheme = Theme{
		Name:            "light",
		Primary:         lipgloss.Color("#1D4ED8"), // blue-700
		Secondary:       lipgloss.Color("#0891B2"),
		Success:         lipgloss.Color("#16A34A"),
		Warning:         lipgloss.Color("#D97706"),
		Error:           lipgloss.Color("#DC2626"),
		Muted:           lipgloss.Color("#9CA3AF"),
		Dim:             lipgloss.Color("#D1D5DB"),
		Border:          lipgloss.Color("#9CA3AF"),
		MsgBorderUser:   lipgloss.Color("#0891B2"),
		MsgBorderAgent:  lipgloss.Color("#1D4ED8"),
		MsgBorderSystem: lipgloss.Color("#D1D5DB"),
	}

	mono = Theme{
		Name:            "mono",
		Primary:         lipgloss.NoColor{},
		Secondary:       lipgloss.NoColor{},
		Success:         lipgloss.NoColor{},
		Warning:         lipgloss.NoColor{},
		Error:           lipgloss.NoColor{},
		Muted:           lipgloss.NoColor{},
		Dim:             lipgloss.NoColor{},
		Border:          lipgloss.NoColor{},
		MsgBorderUser:   lipgloss.NoColor{},
		MsgBorderAgent:  lipgloss.NoColor{},
		MsgBorderSystem: lipgloss.NoColor{},
	}
)

// Themes maps theme names to their definitions.
var Themes = map[string]Theme{
	"dark":  darkTheme,
	"light": lightTheme,
	"mono":  mono,
}

// ThemeNames lists available themes in display order.
var ThemeNames = []string{"dark", "light", "mono"}

// CurrentThemeName tracks the active theme name.
var CurrentThemeName = "dark"

// SetTheme activates a theme by name. Unknown names keep the current theme
// and report false.
func SetTheme(name string) bool {
	t, ok := Themes[name]
	if !ok {
		return false
	}
	Primary, Secondary = t.Primary, t.Secondary
	Success, Warning, Error = t.Success, t.Warning, t.Error
	Muted, Dim, Border = t.Muted, t.Dim, t.Border
	MsgBorderUser, MsgBorderAgent, MsgBorderSystem = t.MsgBorderUser, t.MsgBorderAgent, t.MsgBorderSystem
	CurrentThemeName = name
	rebuild()
	return true
}
