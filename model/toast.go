package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/controlVector/controlvector-frontend/session"
	"github.com/controlVector/controlvector-frontend/style"
)

const (
	maxToasts = 3
	toastTTL  = 5 * time.Second
)

type toast struct {
	message string
	level   session.NoticeLevel
	expiry  time.Time
}

// ToastsModel manages a queue of auto-dismissing notices.
type ToastsModel struct {
	queue []toast
	now   func() time.Time
}

func NewToasts() ToastsModel {
	return ToastsModel{now: time.Now}
}

// Add enqueues a notice. The oldest are dropped beyond maxToasts.
func (m *ToastsModel) Add(n session.Notice) {
	m.queue = append(m.queue, toast{
		message: n.Text,
		level:   n.Level,
		expiry:  m.now().Add(toastTTL),
	})
	if len(m.queue) > maxToasts {
		m.queue = m.queue[len(m.queue)-maxToasts:]
	}
}

// Tick prunes expired toasts. Call on every msg.TickMsg.
func (m *ToastsModel) Tick() {
	now := m.now()
	alive := m.queue[:0]
	for _, t := range m.queue {
		if now.Before(t.expiry) {
			alive = append(alive, t)
		}
	}
	m.queue = alive
}

func (m ToastsModel) HasToasts() bool {
	return len(m.queue) > 0
}

// View renders visible toasts as right-aligned colored lines.
func (m ToastsModel) View(termWidth int) string {
	if len(m.queue) == 0 {
		return ""
	}
	var lines []string
	for _, t := range m.queue {
		icon, color := toastIconColor(t.level)
		rendered := lipgloss.NewStyle().
			Foreground(color).
			Render(fmt.Sprintf(" %s %s ", icon, t.message))
		pad := termWidth - lipgloss.Width(rendered)
		if pad < 0 {
			pad = 0
		}
		lines = append(lines, strings.Repeat(" ", pad)+rendered)
	}
	return strings.Join(lines, "\n")
}

func toastIconColor(level session.NoticeLevel) (string, lipgloss.TerminalColor) {
	switch level {
	case session.NoticeWarning:
		return "⚠", style.Warning // ⚠
	case session.NoticeError:
		return "✘", style.Error // ✘
	default:
		return "✓", style.Success // ✓
	}
}
