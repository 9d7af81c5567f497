package markdown

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

type key struct {
	theme string
	width int
}

var (
	mu        sync.Mutex
	renderers = map[key]*glamour.TermRenderer{}
)

// glamourStyle maps a UI theme to a glamour standard style.
func glamourStyle(theme string) string {
	switch theme {
	case "light":
		return "light"
	case "mono":
		return "notty"
	default:
		return "dark"
	}
}

func renderer(theme string, width int) *glamour.TermRenderer {
	if width < 20 {
		width = 80
	}
	k := key{theme: theme, width: width}
	mu.Lock()
	defer mu.Unlock()
	if r, ok := renderers[k]; ok {
		return r
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(glamourStyle(theme)),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	renderers[k] = r
	return r
}

// Render converts markdown to styled ANSI output wrapped at width. It falls
// back to the raw text if rendering fails.
func Render(md, theme string, width int) string {
	if strings.TrimSpace(md) == "" {
		return md
	}
	r := renderer(theme, width)
	if r == nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	// glamour pads with blank lines
	return strings.Trim(out, "\n")
}
